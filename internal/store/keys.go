package store

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/ledger/internal/model"
)

// KeySeparator joins the date and identity parts of a primary key.
const KeySeparator = "_"

// RangeSentinel is appended to the upper date of a range scan. 0x7f sorts
// after every byte of a UUID's text form ([0-9a-f-]), so "to"+sentinel is
// greater than every key "to_<identity>".
const RangeSentinel = "\x7f"

// keyIdentityOffset is the byte offset of the identity inside a key.
const keyIdentityOffset = len(model.DateFormat) + len(KeySeparator)

// MakeKey builds the primary key "<YYYY-MM-DD>_<identity>".
func MakeKey(date time.Time, id uuid.UUID) string {
	return date.Format(model.DateFormat) + KeySeparator + id.String()
}

// KeyForItem returns the primary key of an accounting item.
func KeyForItem(item model.AccountingItem) string {
	return MakeKey(item.Date, item.ID)
}

// KeyForTemplate returns the primary key of an invoice template.
func KeyForTemplate(tmpl model.InvoiceTemplate) string {
	return MakeKey(tmpl.Date, tmpl.ID)
}

// RangeBound returns the inclusive upper scan bound for a range ending on
// the given date. A bare "to" would exclude records dated exactly "to".
func RangeBound(to string) string {
	return to + RangeSentinel
}

// SplitKey splits a primary key into its date and identity parts.
func SplitKey(key string) (date string, id string, ok bool) {
	if len(key) <= keyIdentityOffset || !strings.HasPrefix(key[len(model.DateFormat):], KeySeparator) {
		return "", "", false
	}
	return key[:len(model.DateFormat)], key[keyIdentityOffset:], true
}
