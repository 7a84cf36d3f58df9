package worker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/roach88/ledger/internal/logger"
	"github.com/roach88/ledger/internal/model"
)

// Store is the part of the ledger store the worker drives.
// Implemented by *store.Store.
type Store interface {
	CreateOrUpdateAccountingItem(ctx context.Context, item model.AccountingItem, r model.DateRange) ([]model.AccountingItem, error)
	DeleteAccountingItem(ctx context.Context, key string, r model.DateRange) ([]model.AccountingItem, error)
	AccountingItemsInRange(ctx context.Context, r model.DateRange) ([]model.AccountingItem, error)
	CreateInvoiceTemplate(ctx context.Context, tmpl model.InvoiceTemplate) ([]model.InvoiceTemplate, error)
	DeleteInvoiceTemplate(ctx context.Context, key string) ([]model.InvoiceTemplate, error)
	InvoiceTemplates(ctx context.Context) ([]model.InvoiceTemplate, error)
	ListDistinctNames(ctx context.Context) ([]string, error)
	ListDistinctCompanies(ctx context.Context) ([]string, error)
	ListDistinctCategories(ctx context.Context) ([]string, error)
}

// FileOpener opens an attached file for the user.
type FileOpener func(ctx context.Context, path string) error

// ErrNoFileOpener is reported when OpenFile is requested without an opener.
var ErrNoFileOpener = errors.New("no file open command configured")

// CommandOpener returns a FileOpener that starts command with the file
// path as its only argument and does not wait for it to exit.
func CommandOpener(command string) FileOpener {
	if command == "" {
		return nil
	}
	return func(_ context.Context, path string) error {
		cmd := exec.Command(command, path)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start %s: %w", command, err)
		}
		go func() { _ = cmd.Wait() }()
		return nil
	}
}

// Worker is the single background worker between the user interface and
// the store.
//
// Requests are processed one at a time in submission order by the Run
// goroutine, so at most one store transaction is in flight. Results and
// notifications are pushed to the Sink; the submitter never blocks.
//
// Thread-safety model:
//   - Submit(), Prime(), Stop(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Worker struct {
	store  Store
	sink   Sink
	clock  *Clock
	queue  *requestQueue
	msgs   messages
	open   FileOpener
	after  func(seq int64)
	logger zerolog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithLanguage selects the language of notification texts.
// Unsupported languages fall back to English.
func WithLanguage(tag language.Tag) Option {
	return func(w *Worker) {
		w.msgs = newMessages(tag)
	}
}

// WithLogger replaces the default component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Worker) {
		w.logger = l
	}
}

// WithFileOpener sets how OpenFile requests are served.
func WithFileOpener(open FileOpener) Option {
	return func(w *Worker) {
		w.open = open
	}
}

// WithAfter registers fn to be called by the Run goroutine once a request
// has been handled and all of its updates have been sent.
func WithAfter(fn func(seq int64)) Option {
	return func(w *Worker) {
		w.after = fn
	}
}

// WithClock sets the clock used to stamp requests.
func WithClock(c *Clock) Option {
	return func(w *Worker) {
		w.clock = c
	}
}

// New creates a Worker for s that reports to sink.
func New(s Store, sink Sink, opts ...Option) *Worker {
	if sink == nil {
		sink = func(Update) {}
	}

	w := &Worker{
		store:  s,
		sink:   sink,
		clock:  NewClock(),
		queue:  newRequestQueue(),
		msgs:   newMessages(language.English),
		logger: logger.WithComponent("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Submit queues r for the Run loop and returns its sequence number.
// Returns false if the worker has been stopped.
func (w *Worker) Submit(r Request) (int64, bool) {
	seq := w.clock.Next()
	if !w.queue.Enqueue(envelope{seq: seq, req: r}) {
		return 0, false
	}
	return seq, true
}

// Prime queues the fetches a freshly opened store needs: invoice templates
// and the three suggestion lists.
func (w *Worker) Prime() bool {
	for _, r := range []Request{FetchInvoiceTemplates{}, FetchNames{}, FetchCompanies{}, FetchCategories{}} {
		if _, ok := w.Submit(r); !ok {
			return false
		}
	}
	return true
}

// Run processes requests until ctx is cancelled or Stop is called.
// After Stop, requests already queued are processed before Run returns.
//
// A failed request is logged and reported as an error notification;
// processing continues with the next request. The store is never retried.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Debug().Msg("worker starting")

	for {
		env, ok := w.queue.TryDequeue()
		if ok {
			w.handle(ctx, env)
			if w.after != nil {
				w.after(env.seq)
			}
			continue
		}

		select {
		case <-ctx.Done():
			w.logger.Debug().Msg("worker stopping: context cancelled")
			w.queue.Close()
			return ctx.Err()

		case <-w.queue.Wait():
			// The signal channel is closed with the queue.
			if w.queue.Drained() {
				w.logger.Debug().Msg("worker stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the queue is drained.
func (w *Worker) Stop() {
	w.queue.Close()
}

// handle runs one request. Called only from the Run goroutine.
func (w *Worker) handle(ctx context.Context, env envelope) {
	log := w.logger.With().
		Int64("seq", env.seq).
		Str("request", env.req.requestName()).
		Logger()
	log.Debug().Msg("processing request")

	switch r := env.req.(type) {
	case SaveItem:
		items, err := w.store.CreateOrUpdateAccountingItem(ctx, r.Item, r.Range)
		if err != nil {
			w.fail(env.seq, log, err, msgCouldNotCreateItem)
			return
		}
		w.notify(env.seq, LevelInfo, msgItemCreated)
		w.send(Update{Type: UpdateItems, Seq: env.seq, Items: items})
		w.refreshSuggestions(ctx, env.seq, log)

	case RemoveItem:
		items, err := w.store.DeleteAccountingItem(ctx, r.Key, r.Range)
		if err != nil {
			w.fail(env.seq, log, err, msgCouldNotDeleteItem)
			return
		}
		w.notify(env.seq, LevelInfo, msgItemDeleted)
		w.send(Update{Type: UpdateItems, Seq: env.seq, Items: items})
		w.refreshSuggestions(ctx, env.seq, log)

	case FetchItems:
		items, err := w.store.AccountingItemsInRange(ctx, r.Range)
		if err != nil {
			w.fail(env.seq, log, err, msgCouldNotFetchData)
			return
		}
		w.notify(env.seq, LevelInfo, msgItemsFetched)
		w.send(Update{Type: UpdateItems, Seq: env.seq, Items: items})

	case SaveInvoiceTemplate:
		templates, err := w.store.CreateInvoiceTemplate(ctx, r.Template)
		if err != nil {
			w.fail(env.seq, log, err, msgCouldNotCreateTemplate)
			return
		}
		w.notify(env.seq, LevelInfo, msgTemplateCreated)
		w.send(Update{Type: UpdateTemplates, Seq: env.seq, Templates: templates})

	case RemoveInvoiceTemplate:
		templates, err := w.store.DeleteInvoiceTemplate(ctx, r.Key)
		if err != nil {
			w.fail(env.seq, log, err, msgCouldNotDeleteTemplate)
			return
		}
		w.notify(env.seq, LevelInfo, msgTemplateDeleted)
		w.send(Update{Type: UpdateTemplates, Seq: env.seq, Templates: templates})

	case FetchInvoiceTemplates:
		templates, err := w.store.InvoiceTemplates(ctx)
		if err != nil {
			w.fail(env.seq, log, err, msgCouldNotFetchTemplates)
			return
		}
		w.send(Update{Type: UpdateTemplates, Seq: env.seq, Templates: templates})

	case FetchNames:
		w.fetchValues(ctx, env.seq, log, UpdateNames)

	case FetchCompanies:
		w.fetchValues(ctx, env.seq, log, UpdateCompanies)

	case FetchCategories:
		w.fetchValues(ctx, env.seq, log, UpdateCategories)

	case OpenFile:
		err := ErrNoFileOpener
		if w.open != nil {
			err = w.open(ctx, r.Path)
		}
		if err != nil {
			w.fail(env.seq, log.With().Str("path", r.Path).Logger(), err, msgCouldNotOpenFile)
		}

	default:
		log.Error().Msgf("unknown request type %T", env.req)
	}
}

// refreshSuggestions re-reads all three suggestion lists after an item
// write, since any of them may have gained or lost a value.
func (w *Worker) refreshSuggestions(ctx context.Context, seq int64, log zerolog.Logger) {
	for _, t := range []UpdateType{UpdateNames, UpdateCompanies, UpdateCategories} {
		w.fetchValues(ctx, seq, log, t)
	}
}

func (w *Worker) fetchValues(ctx context.Context, seq int64, log zerolog.Logger, t UpdateType) {
	var (
		values []string
		err    error
		failID messageID
	)

	switch t {
	case UpdateNames:
		values, err = w.store.ListDistinctNames(ctx)
		failID = msgCouldNotFetchNames
	case UpdateCompanies:
		values, err = w.store.ListDistinctCompanies(ctx)
		failID = msgCouldNotFetchCompanies
	case UpdateCategories:
		values, err = w.store.ListDistinctCategories(ctx)
		failID = msgCouldNotFetchCategories
	default:
		log.Error().Stringer("update", t).Msg("not a suggestion list")
		return
	}

	if err != nil {
		w.fail(seq, log, err, failID)
		return
	}
	w.send(Update{Type: t, Seq: seq, Values: values})
}

func (w *Worker) fail(seq int64, log zerolog.Logger, err error, id messageID) {
	log.Error().Err(err).Msg(w.msgs.text(id))
	w.notify(seq, LevelError, id)
}

func (w *Worker) notify(seq int64, level Level, id messageID) {
	w.send(Update{
		Type:         UpdateNotification,
		Seq:          seq,
		Notification: &Notification{Level: level, Message: w.msgs.text(id)},
	})
}

func (w *Worker) send(u Update) {
	w.sink(u)
}
