package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ledger/internal/model"
)

// CreateOrUpdateAccountingItem writes item and returns the items of r as
// seen right after the write, all in one transaction.
//
// Any stored record with the same identity is replaced, even one filed
// under a different date. Index references of the replaced record are
// dropped before the new ones are added, so suggestions only list values
// that some current record uses.
func (s *Store) CreateOrUpdateAccountingItem(ctx context.Context, item model.AccountingItem, r model.DateRange) ([]model.AccountingItem, error) {
	const op = "create or update accounting item"

	item.Date = model.Day(item.Date)
	key := KeyForItem(item)

	var items []model.AccountingItem
	err := s.update(ctx, op, func(tx *sql.Tx) error {
		existing, err := keysForIdentity(ctx, tx, tableAccountingItems, item.ID)
		if err != nil {
			return err
		}
		for _, oldKey := range existing {
			prev, err := removeRecord[model.AccountingItem](ctx, tx, op, tableAccountingItems, oldKey)
			if err != nil {
				return err
			}
			if err := unindexItem(ctx, tx, prev, oldKey); err != nil {
				return err
			}
		}

		if err := putRecord(ctx, tx, tableAccountingItems, key, item); err != nil {
			return err
		}
		if err := indexItem(ctx, tx, item, key); err != nil {
			return err
		}

		items, err = getByRange[model.AccountingItem](ctx, tx, tableAccountingItems, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteAccountingItem deletes the item stored under key, removes its index
// references and returns the items of r as seen right after the delete,
// all in one transaction.
//
// A missing key fails with a RecordNotFound error and changes nothing.
func (s *Store) DeleteAccountingItem(ctx context.Context, key string, r model.DateRange) ([]model.AccountingItem, error) {
	const op = "delete accounting item"

	var items []model.AccountingItem
	err := s.update(ctx, op, func(tx *sql.Tx) error {
		prev, err := removeRecord[model.AccountingItem](ctx, tx, op, tableAccountingItems, key)
		if err != nil {
			return err
		}
		if err := unindexItem(ctx, tx, prev, key); err != nil {
			return err
		}

		items, err = getByRange[model.AccountingItem](ctx, tx, tableAccountingItems, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreateInvoiceTemplate writes tmpl and returns all templates as seen right
// after the write. Templates are not indexed.
func (s *Store) CreateInvoiceTemplate(ctx context.Context, tmpl model.InvoiceTemplate) ([]model.InvoiceTemplate, error) {
	const op = "create invoice template"

	tmpl.Date = model.Day(tmpl.Date)
	key := KeyForTemplate(tmpl)

	var templates []model.InvoiceTemplate
	err := s.update(ctx, op, func(tx *sql.Tx) error {
		if err := putRecord(ctx, tx, tableInvoices, key, tmpl); err != nil {
			return err
		}
		var err error
		templates, err = getAll[model.InvoiceTemplate](ctx, tx, tableInvoices)
		return err
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// DeleteInvoiceTemplate deletes the template stored under key and returns
// the remaining templates. A missing key fails with RecordNotFound.
func (s *Store) DeleteInvoiceTemplate(ctx context.Context, key string) ([]model.InvoiceTemplate, error) {
	const op = "delete invoice template"

	var templates []model.InvoiceTemplate
	err := s.update(ctx, op, func(tx *sql.Tx) error {
		if _, err := removeRecord[model.InvoiceTemplate](ctx, tx, op, tableInvoices, key); err != nil {
			return err
		}
		var err error
		templates, err = getAll[model.InvoiceTemplate](ctx, tx, tableInvoices)
		return err
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// AddReference adds key to the bucket of value in idx in its own
// transaction. Applying it twice leaves one occurrence of key.
func (s *Store) AddReference(ctx context.Context, idx Index, value, key string) error {
	op := fmt.Sprintf("add %s reference", idx)
	if !idx.valid() {
		return &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("unknown index %q", idx)}
	}
	return s.update(ctx, op, func(tx *sql.Tx) error {
		return addReference(ctx, tx, idx, value, key)
	})
}

// RemoveReference removes key from the bucket of value in idx in its own
// transaction. Missing buckets and keys are no-ops.
func (s *Store) RemoveReference(ctx context.Context, idx Index, value, key string) error {
	op := fmt.Sprintf("remove %s reference", idx)
	if !idx.valid() {
		return &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("unknown index %q", idx)}
	}
	return s.update(ctx, op, func(tx *sql.Tx) error {
		return removeReference(ctx, tx, idx, value, key)
	})
}
