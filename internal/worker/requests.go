package worker

import "github.com/roach88/ledger/internal/model"

// Request is work submitted to the worker. Each request runs in its own
// store transaction, in submission order.
type Request interface {
	requestName() string
}

// SaveItem creates or updates an accounting item and answers with the
// items of Range.
type SaveItem struct {
	Item  model.AccountingItem
	Range model.DateRange
}

// RemoveItem deletes the item stored under Key and answers with the items
// of Range.
type RemoveItem struct {
	Key   string
	Range model.DateRange
}

// FetchItems answers with the items of Range.
type FetchItems struct {
	Range model.DateRange
}

// SaveInvoiceTemplate stores a template and answers with all templates.
type SaveInvoiceTemplate struct {
	Template model.InvoiceTemplate
}

// RemoveInvoiceTemplate deletes the template stored under Key.
type RemoveInvoiceTemplate struct {
	Key string
}

type FetchInvoiceTemplates struct{}

type FetchNames struct{}

type FetchCompanies struct{}

type FetchCategories struct{}

// OpenFile opens an attached file with the configured open command.
type OpenFile struct {
	Path string
}

func (SaveItem) requestName() string              { return "save_item" }
func (RemoveItem) requestName() string            { return "remove_item" }
func (FetchItems) requestName() string            { return "fetch_items" }
func (SaveInvoiceTemplate) requestName() string   { return "save_invoice_template" }
func (RemoveInvoiceTemplate) requestName() string { return "remove_invoice_template" }
func (FetchInvoiceTemplates) requestName() string { return "fetch_invoice_templates" }
func (FetchNames) requestName() string            { return "fetch_names" }
func (FetchCompanies) requestName() string        { return "fetch_companies" }
func (FetchCategories) requestName() string       { return "fetch_categories" }
func (OpenFile) requestName() string              { return "open_file" }

// UpdateType distinguishes the kinds of Update.
type UpdateType int

const (
	// UpdateItems carries the items of the requested range.
	UpdateItems UpdateType = iota + 1
	// UpdateTemplates carries every invoice template.
	UpdateTemplates
	// UpdateNames, UpdateCompanies and UpdateCategories carry suggestion lists.
	UpdateNames
	UpdateCompanies
	UpdateCategories
	// UpdateNotification carries a user-facing message.
	UpdateNotification
)

func (t UpdateType) String() string {
	switch t {
	case UpdateItems:
		return "items"
	case UpdateTemplates:
		return "templates"
	case UpdateNames:
		return "names"
	case UpdateCompanies:
		return "companies"
	case UpdateCategories:
		return "categories"
	case UpdateNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Level is the severity of a Notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a short message for the user.
type Notification struct {
	Level   Level
	Message string
}

// Update is sent to the Sink for every result the worker produces.
// Only the field matching Type is set.
type Update struct {
	Type UpdateType
	Seq  int64 // sequence number of the request this answers

	Items        []model.AccountingItem
	Templates    []model.InvoiceTemplate
	Values       []string
	Notification *Notification
}

// Sink receives updates. It is called from the worker goroutine and must
// not block for long.
type Sink func(Update)
