// Package store provides SQLite-backed durable storage for the ledger.
//
// The store is a set of ordered key/value tables inside one file:
//   - accounting_items: AccountingItem records
//   - invoices: InvoiceTemplate records
//   - names, companies, categories: inverted indexes over item fields
//
// # Keys
//
// Primary keys are "<YYYY-MM-DD>_<identity>". Keys compare byte-wise, which
// equals chronological order, so a date range is a single key range scan:
// from <= key <= to+"\x7f".
//
// # Indexes
//
// Each index maps a term to the ordered, duplicate-free list of primary
// keys whose record uses it. Writes and deletes keep the indexes live: a
// term with no remaining keys is removed, so ListValues only returns terms
// in use.
//
// # Transactions
//
// Every public write is one transaction covering the record, its index
// references and the re-read the caller gets back. Any failure rolls all
// of it back. Reads run in a rolled-back transaction for a consistent
// snapshot.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One connection: Serializes transactions
//   - flock on ledger.lock: One process per data directory
package store
