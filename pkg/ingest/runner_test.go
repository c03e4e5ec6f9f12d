package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danuwid/gudang/pkg/ledger"
	"github.com/danuwid/gudang/pkg/ledger/storage"
)

// fakeApplier merekam panggilan tanpa penyimpanan sungguhan
type fakeApplier struct {
	received []WeekTxn
	backfill []WeekTxn
	costs    []ledger.CostEntry
	failName string // nama barang yang selalu gagal
}

func (f *fakeApplier) ReceiveStock(ctx context.Context, name, unit, warehouse string, qty int, date time.Time) (bool, error) {
	if name == f.failName {
		return false, errors.New("gagal menyimpan barang")
	}
	f.received = append(f.received, WeekTxn{Name: name, Unit: unit, Qty: qty, Date: date})
	return len(f.received)%2 == 1, nil
}

func (f *fakeApplier) BackfillUsage(ctx context.Context, name string, qty int, date time.Time, unit string) error {
	if name == f.failName {
		return errors.New("gagal menyimpan peminjaman")
	}
	f.backfill = append(f.backfill, WeekTxn{Name: name, Unit: unit, Qty: qty, Date: date})
	return nil
}

func (f *fakeApplier) AddCostEntry(ctx context.Context, unit, date, material string, price float64, note string) (*ledger.CostEntry, error) {
	if material == f.failName {
		return nil, errors.New("gagal menyimpan data HPP")
	}
	entry := ledger.CostEntry{Unit: unit, Date: date, Material: material, Price: price, Note: note}
	f.costs = append(f.costs, entry)
	return &entry, nil
}

// stockSheet membentuk sheet barang masuk dengan dua baris spanduk
func stockSheet(name string, dataRows ...[]string) Sheet {
	rows := [][]string{
		{"LAPORAN BARANG MASUK"},
		{""},
		{"NO", "NAMA BARANG", "JUMLAH", "SATUAN", "TANGGAL"},
		{"", "", "", "", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab", "Min"},
	}
	return Sheet{Name: name, Rows: append(rows, dataRows...)}
}

// usageSheet membentuk sheet penggunaan dengan satu baris spanduk
func usageSheet(name string, dataRows ...[]string) Sheet {
	rows := [][]string{
		{"LAPORAN PENGGUNAAN"},
		{"NO", "NAMA BARANG", "JUMLAH", "SATUAN", "TANGGAL"},
		{"", "", "", "", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab", "Min"},
	}
	return Sheet{Name: name, Rows: append(rows, dataRows...)}
}

// TestImporter_ImportStockSheets: sukses parsial, sheet tanpa konfigurasi
// digugurkan utuh
func TestImporter_ImportStockSheets(t *testing.T) {
	applier := &fakeApplier{failName: "Rusak"}
	imp := NewImporter(applier, zap.NewNop())
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	sheets := []Sheet{
		stockSheet("Minggu 1",
			[]string{"1", "Bata", "15", "pcs", "10", "5"},
			[]string{"2", "Rusak", "3", "pcs", "3"},
		),
		stockSheet("Minggu 2", []string{"1", "Semen", "7", "sak", "7"}),
	}
	configs := map[string]StockSheetConfig{
		"Minggu 1": {Warehouse: "Gudang 1", WeekStart: monday},
	}

	result := imp.ImportStockSheets(context.Background(), sheets, configs)

	assert.Equal(t, 2, result.Applied)
	require.Len(t, applier.received, 2)
	assert.Equal(t, monday, applier.received[0].Date)
	assert.Equal(t, monday.AddDate(0, 0, 1), applier.received[1].Date)

	// satu error baris, satu error sheet tanpa konfigurasi
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Minggu 1", result.Errors[0].Sheet)
	assert.Equal(t, 5, result.Errors[0].Row)
	assert.Equal(t, "Minggu 2", result.Errors[1].Sheet)
	assert.Equal(t, "Konfigurasi tidak ditemukan", result.Errors[1].Reason)
	assert.NotEmpty(t, result.BatchID)
}

// TestImporter_ImportUsageSheets adalah tes impor penggunaan mingguan
func TestImporter_ImportUsageSheets(t *testing.T) {
	applier := &fakeApplier{}
	imp := NewImporter(applier, zap.NewNop())
	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	sheets := []Sheet{
		usageSheet("Unit A", []string{"1", "Semen", "5", "sak", "", "", "5"}),
	}
	configs := map[string]UsageSheetConfig{
		"Unit A": {Unit: "Unit A", WeekStart: monday},
	}

	result := imp.ImportUsageSheets(context.Background(), sheets, configs)

	assert.Equal(t, 1, result.Applied)
	assert.Empty(t, result.Errors)
	require.Len(t, applier.backfill, 1)
	assert.Equal(t, "Unit A", applier.backfill[0].Unit)
	// rab = Senin + 2 hari
	assert.Equal(t, monday.AddDate(0, 0, 2), applier.backfill[0].Date)
}

// TestImporter_ImportCostSheet: baris gagal tidak menggugurkan saudaranya
func TestImporter_ImportCostSheet(t *testing.T) {
	applier := &fakeApplier{failName: "Rusak"}
	imp := NewImporter(applier, zap.NewNop())

	sheet := Sheet{Name: "Pengeluaran Material", Rows: [][]string{
		{"", "Tanggal", "Material", "Unit", "", "Harga"},
		{"1", "2024-03-05", "Semen", "sak", "", "75000"},
		{"2", "2024-03-06", "Rusak", "sak", "", "50000"},
		{"3", "2024-03-07", "Pasir", "m3", "", "250000"},
	}}

	result := imp.ImportCostSheet(context.Background(), sheet, CostSheetConfig{Unit: "Unit B", Note: "impor"})

	assert.Equal(t, 2, result.Applied)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	require.Len(t, result.Skipped, 1) // baris kepala
	require.Len(t, applier.costs, 2)
	assert.Equal(t, "Unit B", applier.costs[0].Unit)
	assert.Equal(t, "impor", applier.costs[0].Note)
}

// TestImporter_ImportCostSheet_NoUnit: tanpa unit seluruh sheet gugur
func TestImporter_ImportCostSheet_NoUnit(t *testing.T) {
	imp := NewImporter(&fakeApplier{}, zap.NewNop())

	sheet := Sheet{Name: "Pengeluaran Material", Rows: [][]string{
		{"1", "2024-03-05", "Semen", "sak", "", "75000"},
	}}

	result := imp.ImportCostSheet(context.Background(), sheet, CostSheetConfig{})

	assert.Zero(t, result.Applied)
	require.Len(t, result.Errors, 1)
}

// TestImporter_StockSheet_EndToEnd: skenario Bata di atas penyimpanan
// sungguhan, stok 0 menjadi 15 dengan dua riwayat bertanggal
func TestImporter_StockSheet_EndToEnd(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	manager := ledger.NewManager(store, zap.NewNop(), nil)
	ctx := context.Background()
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	item, err := manager.CreateItem(ctx, "Bata", 0, "pcs", "Gudang 1", monday)
	require.NoError(t, err)

	imp := NewImporter(manager, zap.NewNop())
	sheets := []Sheet{stockSheet("Minggu 1", []string{"1", "Bata", "15", "pcs", "10", "5"})}
	configs := map[string]StockSheetConfig{
		"Minggu 1": {Warehouse: "Gudang 1", WeekStart: monday},
	}

	result := imp.ImportStockSheets(ctx, sheets, configs)

	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 2, result.Updated)
	assert.Empty(t, result.Errors)

	got, err := manager.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Stock)

	entries, err := manager.HistoryByDateRange(ctx, item.ID, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 10, entries[0].Delta)
	assert.True(t, entries[0].HappenedAt.Equal(monday))
	assert.Equal(t, 5, entries[1].Delta)
	assert.True(t, entries[1].HappenedAt.Equal(monday.AddDate(0, 0, 1)))
}
