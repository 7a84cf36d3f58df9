package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// CodeStorageUnavailable: the store file or its directory cannot be
	// opened, created or locked. Fatal at startup.
	CodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// CodeTransactionFailure: a transaction could not begin or commit, or a
	// statement inside it failed. The store is left unchanged.
	CodeTransactionFailure ErrorCode = "TRANSACTION_FAILURE"

	// CodeRecordNotFound: a delete targeted a key with no current record.
	CodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	// CodeCorruptRecord: stored bytes did not decode to the expected type.
	// The scan that hit the row aborts and the operation fails.
	CodeCorruptRecord ErrorCode = "CORRUPT_RECORD"
)

// Error is the single error type returned by Store methods.
type Error struct {
	Code  ErrorCode
	Op    string // logical operation, e.g. "delete accounting item"
	Table string // table involved, if any
	Key   string // record key or index term, if any
	Err   error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Code)
	if e.Table != "" {
		msg += fmt.Sprintf(" (table=%s", e.Table)
		if e.Key != "" {
			msg += fmt.Sprintf(", key=%s", e.Key)
		}
		msg += ")"
	} else if e.Key != "" {
		msg += fmt.Sprintf(" (key=%s)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func codeOf(err error) (ErrorCode, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// IsStorageUnavailable reports whether err means the store could not be opened.
func IsStorageUnavailable(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeStorageUnavailable
}

// IsTransactionFailure reports whether err is a transaction failure.
// Corrupt records count as transaction failures: the operation that hit
// them was abandoned as a whole.
func IsTransactionFailure(err error) bool {
	code, ok := codeOf(err)
	return ok && (code == CodeTransactionFailure || code == CodeCorruptRecord)
}

// IsRecordNotFound reports whether err is a delete of a missing record.
func IsRecordNotFound(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeRecordNotFound
}

// IsCorruptRecord reports whether err was caused by undecodable stored bytes.
func IsCorruptRecord(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeCorruptRecord
}

// wrapTx turns a plain error from inside a transaction into a
// TransactionFailure. Errors that already carry a code keep it.
func wrapTx(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := codeOf(err); ok {
		return err
	}
	return &Error{Code: CodeTransactionFailure, Op: op, Err: err}
}
