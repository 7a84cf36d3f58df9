package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/model"
)

// createTestStore opens a store in a fresh temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestItem builds an item with the given identity, date and index fields.
func createTestItem(t *testing.T, id, date, name, company, category string) model.AccountingItem {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	return model.AccountingItem{
		ID:        uuid.MustParse(id),
		Direction: model.DirectionOut,
		Date:      d,
		Name:      name,
		Company:   company,
		Category:  category,
		Net:       decimal.RequireFromString("100.00"),
		Vat:       model.VatTwenty,
		File:      "",
	}
}

func createTestTemplate(t *testing.T, id, date, number string) model.InvoiceTemplate {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	return model.InvoiceTemplate{
		ID:            uuid.MustParse(id),
		Date:          d,
		City:          "Vienna",
		Name:          "Consulting",
		InvoiceNumber: number,
		From:          model.Address{Name: "Me", City: "Vienna", Country: "Austria"},
		To:            model.Address{Name: "ACME", City: "Graz", Country: "Austria"},
		Items: []model.InvoiceLine{
			{
				Nr:           1,
				Description:  "Development",
				Unit:         model.UnitHour,
				Amount:       decimal.RequireFromString("10"),
				PricePerUnit: decimal.RequireFromString("95.50"),
				Vat:          model.VatTwenty,
			},
		},
	}
}

// Decimals and times compare through their Equal methods.
func requireSameItems(t *testing.T, want, got []model.AccountingItem) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func keysOf(items []model.AccountingItem) []string {
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = KeyForItem(item)
	}
	return keys
}

func dateRange(from, to string) model.DateRange {
	return model.DateRange{From: from, To: to}
}

var fullRange = dateRange("0001-01-01", "9999-12-31")

const (
	idA = "00000000-0000-7000-8000-00000000000a"
	idB = "00000000-0000-7000-8000-00000000000b"
	idC = "00000000-0000-7000-8000-00000000000c"
	idD = "00000000-0000-7000-8000-00000000000d"
)

// corruptRow overwrites a stored row with bytes that are not a record.
func corruptRow(t *testing.T, s *Store, tbl table, key string) {
	t.Helper()
	_, err := s.db.Exec(
		"INSERT INTO "+string(tbl)+" (record_key, record) VALUES (?, ?) "+
			"ON CONFLICT(record_key) DO UPDATE SET record = excluded.record",
		key, []byte("{not json"),
	)
	require.NoError(t, err)
}

func countRows(t *testing.T, s *Store, name string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+name).Scan(&n))
	return n
}
