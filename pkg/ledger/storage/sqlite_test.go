package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danuwid/gudang/pkg/ledger"
)

// newTestLedger membuat manajer di atas SQLite dalam memori
func newTestLedger(t *testing.T) (*ledger.Manager, *SQLiteStorage) {
	t.Helper()
	storage, err := NewSQLiteStorage(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return ledger.NewManager(storage, zap.NewNop(), nil), storage
}

// TestSQLiteStorage_StockFlow: alur stok lengkap dengan rantai riwayat utuh
func TestSQLiteStorage_StockFlow(t *testing.T) {
	manager, _ := newTestLedger(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	item, err := manager.CreateItem(ctx, "Semen", 50, "sak", "", day)
	require.NoError(t, err)

	err = manager.DecreaseStock(ctx, item.ID, 30, day.AddDate(0, 0, 1), ledger.StrictDecrement)
	require.NoError(t, err)

	// pengurangan melebihi stok ditolak tanpa perubahan
	err = manager.DecreaseStock(ctx, item.ID, 25, day.AddDate(0, 0, 2), ledger.StrictDecrement)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	got, err := manager.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Stock)

	// rantai riwayat: sebelum berikutnya = sesudah sebelumnya,
	// sesudah terakhir = stok berjalan
	entries, err := manager.HistoryByDateRange(ctx, item.ID, day.AddDate(0, 0, -1), day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].StockAfter, entries[i].StockBefore)
	}
	assert.Equal(t, got.Stock, entries[len(entries)-1].StockAfter)
	assert.Equal(t, 50, entries[0].Delta)
	assert.Equal(t, -30, entries[1].Delta)
}

// TestSQLiteStorage_UsageFlow: peminjaman memotong stok, penghapusan tidak
// mengembalikannya
func TestSQLiteStorage_UsageFlow(t *testing.T) {
	manager, _ := newTestLedger(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	item, err := manager.CreateItem(ctx, "Pasir", 40, "m3", "", day)
	require.NoError(t, err)

	rec, err := manager.RecordUsage(ctx, item.ID, 15, day, "Unit A")
	require.NoError(t, err)
	require.NotNil(t, rec.ItemID)

	got, err := manager.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Stock)

	records, err := manager.ListUsage(ctx, "Unit A", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Pasir", records[0].ItemName)

	err = manager.DeleteUsage(ctx, rec.ID)
	require.NoError(t, err)

	// stok tetap 25 setelah peminjaman dihapus
	got, err = manager.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Stock)

	records, err = manager.ListUsage(ctx, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestSQLiteStorage_ReceiveStock: upsert tidak peka huruf besar kecil
func TestSQLiteStorage_ReceiveStock(t *testing.T) {
	manager, _ := newTestLedger(t)
	ctx := context.Background()
	day := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)

	created, err := manager.ReceiveStock(ctx, "Besi Beton", "batang", "", 200, day)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = manager.ReceiveStock(ctx, "BESI BETON", "batang", "Gudang 1", 50, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, created)

	items, err := manager.ListItems(ctx, "besi", "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 250, items[0].Stock)
}

// TestSQLiteStorage_BackfillUsage: barang tak dikenal tetap tercatat
func TestSQLiteStorage_BackfillUsage(t *testing.T) {
	manager, _ := newTestLedger(t)
	ctx := context.Background()
	day := time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC)

	err := manager.BackfillUsage(ctx, "Kawat Las", 3, day, "Unit B")
	require.NoError(t, err)

	records, err := manager.ListUsage(ctx, "Unit B", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].ItemID)
	assert.Equal(t, "Kawat Las", records[0].ItemName)
}

// TestSQLiteStorage_DeleteHistoryDecouples: hapus riwayat tidak menyentuh
// stok berjalan
func TestSQLiteStorage_DeleteHistoryDecouples(t *testing.T) {
	manager, _ := newTestLedger(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	item, err := manager.CreateItem(ctx, "Cat Tembok", 30, "kaleng", "", day)
	require.NoError(t, err)
	require.NoError(t, manager.IncreaseStock(ctx, item.ID, 10, day.AddDate(0, 0, 1)))

	entries, err := manager.History(ctx, item.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, manager.DeleteHistoryEntry(ctx, entries[0].ID))

	got, err := manager.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Stock)

	entries, err = manager.History(ctx, item.ID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestSQLiteStorage_DeleteItem: barang dengan peminjaman tidak bisa dihapus
func TestSQLiteStorage_DeleteItem(t *testing.T) {
	manager, _ := newTestLedger(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	item, err := manager.CreateItem(ctx, "Batu Bata", 5000, "buah", "", day)
	require.NoError(t, err)

	_, err = manager.RecordUsage(ctx, item.ID, 100, day, "Unit A")
	require.NoError(t, err)

	err = manager.DeleteItem(ctx, item.ID)
	assert.ErrorIs(t, err, ledger.ErrHasDependents)

	// setelah peminjaman dibersihkan barang bisa dihapus
	records, err := manager.ListUsage(ctx, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NoError(t, manager.DeleteUsage(ctx, records[0].ID))

	require.NoError(t, manager.DeleteItem(ctx, item.ID))

	_, err = manager.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}

// TestSQLiteStorage_CostEntries: dua konvensi tanggal terjaring satu rentang
func TestSQLiteStorage_CostEntries(t *testing.T) {
	manager, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := manager.AddCostEntry(ctx, "Unit A", "2024-03-05", "Semen", 75000, "")
	require.NoError(t, err)
	_, err = manager.AddCostEntry(ctx, "Unit A", "20/03/2024", "Pasir", 250000, "")
	require.NoError(t, err)
	_, err = manager.AddCostEntry(ctx, "Unit A", "05/04/2024", "Batu Bata", 900000, "")
	require.NoError(t, err)

	march, err := manager.QueryCostEntries(ctx, "Unit A", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, "Pasir", march[0].Material)

	// semua tanggal tersimpan dalam format kanonik
	for _, e := range march {
		_, err := time.Parse(ledger.CanonicalDateLayout, e.Date)
		assert.NoError(t, err)
	}

	summary, err := manager.CostSummary(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 1225000.0, summary[0].Total)
	assert.Equal(t, 3, summary[0].Count)
}
