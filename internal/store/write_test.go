package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/model"
)

func TestCreateOrUpdate_ReturnsFreshRange(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	q1 := dateRange("2024-01-01", "2024-03-31")

	item := createTestItem(t, idA, "2024-02-10", "Rent", "Landlord", "Office")
	items, err := s.CreateOrUpdateAccountingItem(ctx, item, q1)
	require.NoError(t, err)
	requireSameItems(t, []model.AccountingItem{item}, items)

	item.Net = decimal.RequireFromString("250.40")
	item.Name = "Rent March"
	items, err = s.CreateOrUpdateAccountingItem(ctx, item, q1)
	require.NoError(t, err)
	require.Len(t, items, 1, "same identity must overwrite")
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, "Rent March", items[0].Name)
	assert.True(t, items[0].Net.Equal(item.Net), "got stale net %s", items[0].Net)
}

func TestCreateOrUpdate_ItemOutsideRangeNotReturned(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	item := createTestItem(t, idA, "2024-04-01", "Rent", "Landlord", "Office")
	items, err := s.CreateOrUpdateAccountingItem(ctx, item, dateRange("2024-01-01", "2024-03-31"))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)

	stored, err := s.AccountingItem(ctx, KeyForItem(item))
	require.NoError(t, err)
	assert.Equal(t, item.ID, stored.ID)
}

func TestCreateOrUpdate_NormalizesDateToDay(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	item := createTestItem(t, idA, "2024-02-10", "Rent", "Landlord", "Office")
	item.Date = item.Date.Add(15*time.Hour + 30*time.Minute)

	items, err := s.CreateOrUpdateAccountingItem(ctx, item, dateRange("2024-02-10", "2024-02-10"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Date.Equal(model.Day(item.Date)))
}

func TestCreateOrUpdate_DateChangeMovesRecord(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	item := createTestItem(t, idA, "2024-02-10", "Rent", "Landlord", "Office")
	_, err := s.CreateOrUpdateAccountingItem(ctx, item, fullRange)
	require.NoError(t, err)
	oldKey := KeyForItem(item)

	moved := item
	moved.Date, err = model.ParseDate("2024-05-01")
	require.NoError(t, err)
	items, err := s.CreateOrUpdateAccountingItem(ctx, moved, fullRange)
	require.NoError(t, err)

	require.Len(t, items, 1, "moving an item must not leave a copy under the old date")
	assert.Equal(t, KeyForItem(moved), KeyForItem(items[0]))

	_, err = s.AccountingItem(ctx, oldKey)
	assert.True(t, IsRecordNotFound(err))

	keys, err := s.References(ctx, IndexNames, "Rent")
	require.NoError(t, err)
	assert.Equal(t, []string{KeyForItem(moved)}, keys)
}

func TestCreateOrUpdate_IndexesAllFields(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	item := createTestItem(t, idA, "2024-02-10", "Acme", "Acme Corp", "Office")
	_, err := s.CreateOrUpdateAccountingItem(ctx, item, fullRange)
	require.NoError(t, err)
	key := KeyForItem(item)

	for idx, value := range map[Index]string{
		IndexNames:      "Acme",
		IndexCompanies:  "Acme Corp",
		IndexCategories: "Office",
	} {
		keys, err := s.References(ctx, idx, value)
		require.NoError(t, err)
		assert.Equal(t, []string{key}, keys, "index %s", idx)
	}
}

func TestCreateOrUpdate_PrunesStaleIndexValues(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	item := createTestItem(t, idA, "2024-02-10", "Coffee", "Cafe Central", "Food")
	_, err := s.CreateOrUpdateAccountingItem(ctx, item, fullRange)
	require.NoError(t, err)

	item.Name = "Tea"
	item.Company = "Teahouse"
	_, err = s.CreateOrUpdateAccountingItem(ctx, item, fullRange)
	require.NoError(t, err)

	names, err := s.ListDistinctNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tea"}, names)

	companies, err := s.ListDistinctCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Teahouse"}, companies)

	categories, err := s.ListDistinctCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food"}, categories)
}

func TestCreateOrUpdate_SharedValueKeepsOtherReferences(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	a := createTestItem(t, idA, "2024-02-10", "Rent", "Landlord", "Office")
	b := createTestItem(t, idB, "2024-03-10", "Rent", "Landlord", "Office")
	_, err := s.CreateOrUpdateAccountingItem(ctx, a, fullRange)
	require.NoError(t, err)
	_, err = s.CreateOrUpdateAccountingItem(ctx, b, fullRange)
	require.NoError(t, err)

	a.Name = "Deposit"
	_, err = s.CreateOrUpdateAccountingItem(ctx, a, fullRange)
	require.NoError(t, err)

	keys, err := s.References(ctx, IndexNames, "Rent")
	require.NoError(t, err)
	assert.Equal(t, []string{KeyForItem(b)}, keys)

	names, err := s.ListDistinctNames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Deposit", "Rent"}, names)
}

func TestCreateOrUpdate_EmptyFieldsNotIndexed(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	item := createTestItem(t, idA, "2024-02-10", "Rent", "", "")
	_, err := s.CreateOrUpdateAccountingItem(ctx, item, fullRange)
	require.NoError(t, err)

	companies, err := s.ListDistinctCompanies(ctx)
	require.NoError(t, err)
	assert.Empty(t, companies)
	assert.Equal(t, 0, countRows(t, s, "categories"))
}

func TestDeleteAccountingItem_CleansEachIndexWithItsOwnValue(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	// b's company equals a's name: cleanup by the wrong field would touch b.
	a := createTestItem(t, idA, "2024-02-10", "Acme", "Acme Corp", "Office")
	b := createTestItem(t, idB, "2024-02-11", "Widgets", "Acme", "Hardware")
	_, err := s.CreateOrUpdateAccountingItem(ctx, a, fullRange)
	require.NoError(t, err)
	_, err = s.CreateOrUpdateAccountingItem(ctx, b, fullRange)
	require.NoError(t, err)

	items, err := s.DeleteAccountingItem(ctx, KeyForItem(a), fullRange)
	require.NoError(t, err)
	requireSameItems(t, []model.AccountingItem{b}, items)

	names, err := s.ListDistinctNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Widgets"}, names)

	companies, err := s.ListDistinctCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, companies)

	categories, err := s.ListDistinctCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hardware"}, categories)
}

func TestDeleteAccountingItem_NotFoundLeavesTablesUnchanged(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	item := createTestItem(t, idA, "2024-02-10", "Rent", "Landlord", "Office")
	_, err := s.CreateOrUpdateAccountingItem(ctx, item, fullRange)
	require.NoError(t, err)

	missing := "2024-02-10_" + idB
	items, err := s.DeleteAccountingItem(ctx, missing, fullRange)
	require.Error(t, err)
	assert.Nil(t, items)
	assert.True(t, IsRecordNotFound(err))
	assert.Contains(t, err.Error(), missing)

	items, err = s.AccountingItemsInRange(ctx, fullRange)
	require.NoError(t, err)
	requireSameItems(t, []model.AccountingItem{item}, items)

	for _, name := range allTables {
		want := 1
		if name == "invoices" {
			want = 0
		}
		assert.Equal(t, want, countRows(t, s, name), "table %s", name)
	}
}

func TestDeleteAccountingItem_CorruptRangeRollsBack(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	a := createTestItem(t, idA, "2024-02-10", "Rent", "Landlord", "Office")
	b := createTestItem(t, idB, "2024-02-11", "Power", "Utility", "Office")
	_, err := s.CreateOrUpdateAccountingItem(ctx, a, fullRange)
	require.NoError(t, err)
	_, err = s.CreateOrUpdateAccountingItem(ctx, b, fullRange)
	require.NoError(t, err)
	corruptRow(t, s, tableAccountingItems, KeyForItem(b))

	_, err = s.DeleteAccountingItem(ctx, KeyForItem(a), fullRange)
	require.Error(t, err)
	assert.True(t, IsCorruptRecord(err))

	// The delete was abandoned with the failed re-read.
	stored, err := s.AccountingItem(ctx, KeyForItem(a))
	require.NoError(t, err)
	assert.Equal(t, a.ID, stored.ID)

	names, err := s.ListDistinctNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "Rent")
}

func TestCreateOrUpdate_CorruptIndexRollsBack(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.db.Exec("INSERT INTO names (term, record_keys) VALUES (?, ?)", "Rent", []byte("nope"))
	require.NoError(t, err)

	item := createTestItem(t, idA, "2024-02-10", "Rent", "Landlord", "Office")
	_, err = s.CreateOrUpdateAccountingItem(ctx, item, fullRange)
	require.Error(t, err)
	assert.True(t, IsCorruptRecord(err))

	// The record written before the index step is gone with the rollback.
	_, err = s.AccountingItem(ctx, KeyForItem(item))
	require.Error(t, err)
	assert.True(t, IsRecordNotFound(err))
	assert.Equal(t, 0, countRows(t, s, "accounting_items"))

	companies, err := s.ListDistinctCompanies(ctx)
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestCreateInvoiceTemplate(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	t1 := createTestTemplate(t, idA, "2024-01-31", "2024-001")
	templates, err := s.CreateInvoiceTemplate(ctx, t1)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "2024-001", templates[0].InvoiceNumber)

	t2 := createTestTemplate(t, idB, "2024-02-29", "2024-002")
	templates, err = s.CreateInvoiceTemplate(ctx, t2)
	require.NoError(t, err)
	assert.Len(t, templates, 2)

	t1.InvoiceNumber = "2024-001a"
	templates, err = s.CreateInvoiceTemplate(ctx, t1)
	require.NoError(t, err)
	require.Len(t, templates, 2, "same key must overwrite")

	numbers := []string{templates[0].InvoiceNumber, templates[1].InvoiceNumber}
	assert.ElementsMatch(t, []string{"2024-001a", "2024-002"}, numbers)

	// Templates are not indexed.
	for _, idx := range Indexes {
		values, err := s.ListValues(ctx, idx)
		require.NoError(t, err)
		assert.Empty(t, values)
	}
}

func TestDeleteInvoiceTemplate(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	t1 := createTestTemplate(t, idA, "2024-01-31", "2024-001")
	t2 := createTestTemplate(t, idB, "2024-02-29", "2024-002")
	_, err := s.CreateInvoiceTemplate(ctx, t1)
	require.NoError(t, err)
	_, err = s.CreateInvoiceTemplate(ctx, t2)
	require.NoError(t, err)

	templates, err := s.DeleteInvoiceTemplate(ctx, KeyForTemplate(t1))
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, t2.ID, templates[0].ID)

	_, err = s.DeleteInvoiceTemplate(ctx, KeyForTemplate(t1))
	require.Error(t, err)
	assert.True(t, IsRecordNotFound(err))

	templates, err = s.InvoiceTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 1)
}
