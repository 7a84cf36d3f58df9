package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/ledger/internal/model"
)

// table names a primary record table. Values are fixed identifiers and are
// safe to splice into SQL text.
type table string

const (
	tableAccountingItems table = "accounting_items"
	tableInvoices        table = "invoices"
)

// scanRecords runs query and decodes every row into T. A row that fails
// to decode aborts the whole scan.
func scanRecords[T any](ctx context.Context, tx *sql.Tx, t table, query string, args ...any) ([]T, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t, err)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t, err)
		}
		rec, err := unmarshalValue[T](string(t), key, data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t, err)
	}

	return records, nil
}

// getByRange returns records whose key lies in [from, to+sentinel], in key
// order: by date, then by identity for records of the same day.
func getByRange[T any](ctx context.Context, tx *sql.Tx, t table, r model.DateRange) ([]T, error) {
	return scanRecords[T](ctx, tx, t, fmt.Sprintf(`
		SELECT record_key, record FROM %s
		WHERE record_key >= ? AND record_key <= ?
		ORDER BY record_key COLLATE BINARY ASC
	`, t), r.From, RangeBound(r.To))
}

// getAll returns every record of the table. Callers must not depend on
// the order.
func getAll[T any](ctx context.Context, tx *sql.Tx, t table) ([]T, error) {
	return scanRecords[T](ctx, tx, t, fmt.Sprintf(`
		SELECT record_key, record FROM %s
		ORDER BY record_key COLLATE BINARY ASC
	`, t))
}

// getRecord reads a single record. found is false if the key is absent.
func getRecord[T any](ctx context.Context, tx *sql.Tx, t table, key string) (rec T, found bool, err error) {
	var data []byte
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT record FROM %s WHERE record_key = ?
	`, t), key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("get %s %s: %w", t, key, err)
	}

	rec, err = unmarshalValue[T](string(t), key, data)
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// putRecord inserts or overwrites the record stored under key.
func putRecord(ctx context.Context, tx *sql.Tx, t table, key string, v any) error {
	data, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", t, key, err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (record_key, record)
		VALUES (?, ?)
		ON CONFLICT(record_key) DO UPDATE SET record = excluded.record
	`, t), key, data)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", t, key, err)
	}
	return nil
}

// removeRecord deletes key and returns the record it held. A missing key
// is a RecordNotFound error, not a silent no-op.
func removeRecord[T any](ctx context.Context, tx *sql.Tx, op string, t table, key string) (T, error) {
	prev, found, err := getRecord[T](ctx, tx, t, key)
	if err != nil {
		return prev, err
	}
	if !found {
		return prev, &Error{
			Code:  CodeRecordNotFound,
			Op:    op,
			Table: string(t),
			Key:   key,
			Err:   fmt.Errorf("%s does not exist and can't be deleted", key),
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE record_key = ?
	`, t), key); err != nil {
		return prev, fmt.Errorf("delete %s %s: %w", t, key, err)
	}
	return prev, nil
}

// keysForIdentity returns every key whose identity part equals id,
// whatever its date.
func keysForIdentity(ctx context.Context, tx *sql.Tx, t table, id uuid.UUID) ([]string, error) {
	// substr is 1-based.
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`
		SELECT record_key FROM %s
		WHERE substr(record_key, ?) = ?
		ORDER BY record_key COLLATE BINARY ASC
	`, t), keyIdentityOffset+1, id.String())
	if err != nil {
		return nil, fmt.Errorf("query %s by identity: %w", t, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan %s key: %w", t, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s keys: %w", t, err)
	}
	return keys, nil
}
