package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - empty file, nothing applied
// 1 - five tables (accounting_items, invoices, names, companies, categories)
const currentSchemaVersion = 1

const (
	// DBFileName is the store file created inside the data directory.
	DBFileName = "ledger.db"
	// LockFileName guards the data directory against a second process.
	LockFileName = "ledger.lock"
)

// Store is the embedded bookkeeping store.
// Uses SQLite with a single connection, so at most one transaction runs at
// a time and a second one waits for the first to commit or roll back.
type Store struct {
	db      *sql.DB
	lock    *dirLock
	dataDir string
}

// Open creates or opens the store inside dataDir.
//
// The directory and the store file are created if absent, all five tables
// are created if missing, and an exclusive advisory lock is taken on the
// directory so a second process cannot open the same store.
//
// Reopening an existing store never resets data.
func Open(ctx context.Context, dataDir string) (*Store, error) {
	const op = "open store"

	if dataDir == "" {
		return nil, &Error{Code: CodeStorageUnavailable, Op: op, Err: fmt.Errorf("data directory is empty")}
	}
	dataDir = filepath.Clean(dataDir)

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, &Error{Code: CodeStorageUnavailable, Op: op, Err: fmt.Errorf("create data directory: %w", err)}
	}

	lock, err := lockDir(dataDir)
	if err != nil {
		return nil, &Error{Code: CodeStorageUnavailable, Op: op, Err: err}
	}

	db, err := openDB(ctx, filepath.Join(dataDir, DBFileName))
	if err != nil {
		_ = lock.release()
		return nil, &Error{Code: CodeStorageUnavailable, Op: op, Err: err}
	}

	return &Store{db: db, lock: lock, dataDir: dataDir}, nil
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	// Open database (creates file if doesn't exist)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. One connection also means
	// the pragmas below stay in effect for every transaction.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

// Close closes the database and releases the directory lock.
// Safe to call on a nil or already closed store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	var firstErr error
	if s.db != nil {
		firstErr = s.db.Close()
		s.db = nil
	}
	if s.lock != nil {
		if err := s.lock.release(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.lock = nil
	}
	return firstErr
}

// DataDir returns the directory the store was opened in.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Path returns the path of the store file.
func (s *Store) Path() string {
	return filepath.Join(s.dataDir, DBFileName)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. This function is idempotent.
func applySchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if version < currentSchemaVersion {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// view runs fn in a transaction that is always rolled back. Every read of
// one logical request sees the same snapshot.
func (s *Store) view(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if s == nil || s.db == nil {
		return &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("store is not open")}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer tx.Rollback()

	return wrapTx(op, fn(tx))
}

// update runs fn in a write transaction and commits if fn succeeds.
// Any error abandons the transaction and leaves the store unchanged.
func (s *Store) update(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if s == nil || s.db == nil {
		return &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("store is not open")}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return wrapTx(op, err)
	}

	if err := tx.Commit(); err != nil {
		return &Error{Code: CodeTransactionFailure, Op: op, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}
