// Package model defines the bookkeeping records persisted by the store and
// the period helpers callers use to select them.
//
// This package contains type definitions and pure helpers only. It imports
// nothing internal; store, worker, template and cli all build on it.
//
// Key design constraints:
//   - Money is always decimal.Decimal, never float
//   - Dates are calendar days at UTC midnight
//   - Identities are UUIDv7 so they sort by creation time
//   - All JSON tags use snake_case
package model
