package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ledger/internal/model"
)

// AccountingItemsInRange returns the items dated within r (inclusive on
// both ends), ordered by date and then identity.
//
// Returns an empty slice (not nil) if no item falls within r.
func (s *Store) AccountingItemsInRange(ctx context.Context, r model.DateRange) ([]model.AccountingItem, error) {
	var items []model.AccountingItem
	err := s.view(ctx, "get accounting items", func(tx *sql.Tx) error {
		var err error
		items, err = getByRange[model.AccountingItem](ctx, tx, tableAccountingItems, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AccountingItem returns the item stored under key.
// Returns a RecordNotFound error if there is none.
func (s *Store) AccountingItem(ctx context.Context, key string) (model.AccountingItem, error) {
	const op = "get accounting item"

	var item model.AccountingItem
	err := s.view(ctx, op, func(tx *sql.Tx) error {
		rec, found, err := getRecord[model.AccountingItem](ctx, tx, tableAccountingItems, key)
		if err != nil {
			return err
		}
		if !found {
			return &Error{Code: CodeRecordNotFound, Op: op, Table: string(tableAccountingItems), Key: key}
		}
		item = rec
		return nil
	})
	return item, err
}

// InvoiceTemplates returns every stored invoice template.
func (s *Store) InvoiceTemplates(ctx context.Context) ([]model.InvoiceTemplate, error) {
	var templates []model.InvoiceTemplate
	err := s.view(ctx, "get invoice templates", func(tx *sql.Tx) error {
		var err error
		templates, err = getAll[model.InvoiceTemplate](ctx, tx, tableInvoices)
		return err
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// ListValues returns every value of idx that at least one record uses.
// This is the feed for autocomplete; callers must not depend on the order.
func (s *Store) ListValues(ctx context.Context, idx Index) ([]string, error) {
	op := fmt.Sprintf("list %s", idx)
	if !idx.valid() {
		return nil, &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("unknown index %q", idx)}
	}

	var values []string
	err := s.view(ctx, op, func(tx *sql.Tx) error {
		var err error
		values, err = listValues(ctx, tx, idx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// ListDistinctNames returns every item name in use.
func (s *Store) ListDistinctNames(ctx context.Context) ([]string, error) {
	return s.ListValues(ctx, IndexNames)
}

// ListDistinctCompanies returns every company in use.
func (s *Store) ListDistinctCompanies(ctx context.Context) ([]string, error) {
	return s.ListValues(ctx, IndexCompanies)
}

// ListDistinctCategories returns every category in use.
func (s *Store) ListDistinctCategories(ctx context.Context) ([]string, error) {
	return s.ListValues(ctx, IndexCategories)
}

// References returns the keys in the bucket of value in idx, in insertion
// order. Returns an empty slice if there is no bucket.
func (s *Store) References(ctx context.Context, idx Index, value string) ([]string, error) {
	op := fmt.Sprintf("get %s references", idx)
	if !idx.valid() {
		return nil, &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("unknown index %q", idx)}
	}

	keys := []string{}
	err := s.view(ctx, op, func(tx *sql.Tx) error {
		bucket, found, err := loadBucket(ctx, tx, idx, normalizeTerm(value))
		if err != nil || !found {
			return err
		}
		keys = bucket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
