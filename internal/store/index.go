package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ledger/internal/model"
)

// Index names a secondary (inverted) index table. Each maps a free-text
// term to the ordered, duplicate-free list of primary keys that use it.
type Index string

const (
	IndexNames      Index = "names"
	IndexCompanies  Index = "companies"
	IndexCategories Index = "categories"
)

// Indexes lists every secondary index.
var Indexes = []Index{IndexNames, IndexCompanies, IndexCategories}

func (i Index) valid() bool {
	return slices.Contains(Indexes, i)
}

type indexedTerm struct {
	index Index
	value string
}

// itemTerms pairs each index with the item field it is built from.
func itemTerms(item model.AccountingItem) []indexedTerm {
	return []indexedTerm{
		{IndexNames, item.Name},
		{IndexCompanies, item.Company},
		{IndexCategories, item.Category},
	}
}

// normalizeTerm trims and NFC-normalizes a term so that canonically
// equivalent spellings share one bucket. Empty terms are never indexed.
func normalizeTerm(v string) string {
	return norm.NFC.String(strings.TrimSpace(v))
}

// loadBucket reads the key list of a term. found is false if there is no
// bucket for it.
func loadBucket(ctx context.Context, tx *sql.Tx, idx Index, term string) (keys []string, found bool, err error) {
	var data []byte
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT record_keys FROM %s WHERE term = ?
	`, idx), term).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s %q: %w", idx, term, err)
	}

	keys, err = unmarshalValue[[]string](string(idx), term, data)
	if err != nil {
		return nil, false, err
	}
	return keys, true, nil
}

func storeBucket(ctx context.Context, tx *sql.Tx, idx Index, term string, keys []string) error {
	data, err := marshalValue(keys)
	if err != nil {
		return fmt.Errorf("put %s %q: %w", idx, term, err)
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (term, record_keys)
		VALUES (?, ?)
		ON CONFLICT(term) DO UPDATE SET record_keys = excluded.record_keys
	`, idx), term, data)
	if err != nil {
		return fmt.Errorf("put %s %q: %w", idx, term, err)
	}
	return nil
}

// addReference records that key uses value. Creates the bucket if needed,
// appends key if absent, and does nothing if key is already there.
func addReference(ctx context.Context, tx *sql.Tx, idx Index, value, key string) error {
	term := normalizeTerm(value)
	if term == "" {
		return nil
	}

	keys, found, err := loadBucket(ctx, tx, idx, term)
	if err != nil {
		return err
	}
	if found && slices.Contains(keys, key) {
		return nil
	}
	return storeBucket(ctx, tx, idx, term, append(keys, key))
}

// removeReference drops key from value's bucket. A missing bucket or a key
// that is not in it is a no-op, so cleanup may safely run twice. A bucket
// that becomes empty is deleted, never left as an empty list.
func removeReference(ctx context.Context, tx *sql.Tx, idx Index, value, key string) error {
	term := normalizeTerm(value)
	if term == "" {
		return nil
	}

	keys, found, err := loadBucket(ctx, tx, idx, term)
	if err != nil || !found {
		return err
	}

	pos := slices.Index(keys, key)
	if pos < 0 {
		return nil
	}
	keys = slices.Delete(keys, pos, pos+1)

	if len(keys) == 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
			DELETE FROM %s WHERE term = ?
		`, idx), term); err != nil {
			return fmt.Errorf("delete %s %q: %w", idx, term, err)
		}
		return nil
	}
	return storeBucket(ctx, tx, idx, term, keys)
}

// listValues returns every term that has at least one key.
func listValues(ctx context.Context, tx *sql.Tx, idx Index) ([]string, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`
		SELECT term FROM %s ORDER BY term COLLATE BINARY ASC
	`, idx))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", idx, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scan %s: %w", idx, err)
		}
		values = append(values, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", idx, err)
	}
	return values, nil
}

// indexItem adds key to the buckets of the item's name, company and category.
func indexItem(ctx context.Context, tx *sql.Tx, item model.AccountingItem, key string) error {
	for _, f := range itemTerms(item) {
		if err := addReference(ctx, tx, f.index, f.value, key); err != nil {
			return err
		}
	}
	return nil
}

// unindexItem removes key from the buckets of the item's name, company and
// category, each using its own field's value.
func unindexItem(ctx context.Context, tx *sql.Tx, item model.AccountingItem, key string) error {
	for _, f := range itemTerms(item) {
		if err := removeReference(ctx, tx, f.index, f.value, key); err != nil {
			return err
		}
	}
	return nil
}
