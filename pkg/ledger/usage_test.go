package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestManager_RecordUsage adalah tes pencatatan peminjaman gabungan
func TestManager_RecordUsage(t *testing.T) {
	manager, mockStorage, mockTx := newTestManager()
	ctx := context.Background()
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	item := &Item{ID: 1, Name: "Semen", Stock: 50, Unit: "sak", Warehouse: "Gudang 1"}

	var capturedUsage *UsageRecord
	var capturedHistory *StockHistoryEntry
	mockStorage.On("InTx", ctx).Return(nil)
	mockTx.On("GetItem", ctx, int64(1)).Return(item, nil)
	mockTx.On("DecrementStock", ctx, int64(1), 30).Return(true, nil)
	mockTx.On("InsertUsage", ctx, mock.AnythingOfType("*ledger.UsageRecord")).
		Run(func(args mock.Arguments) {
			capturedUsage = args.Get(1).(*UsageRecord)
		}).
		Return(int64(11), nil)
	mockTx.On("InsertHistory", ctx, mock.AnythingOfType("*ledger.StockHistoryEntry")).
		Run(func(args mock.Arguments) {
			capturedHistory = args.Get(1).(*StockHistoryEntry)
		}).
		Return(int64(12), nil)
	mockStorage.On("Path").Return("gudang.db")

	rec, err := manager.RecordUsage(ctx, 1, 30, date, "Unit A")

	assert.NoError(t, err)
	assert.Equal(t, int64(11), rec.ID)
	assert.NotNil(t, capturedUsage.ItemID)
	assert.Equal(t, int64(1), *capturedUsage.ItemID)
	assert.Equal(t, "sak", capturedUsage.UnitOfMeasure)
	assert.Equal(t, -30, capturedHistory.Delta)
	assert.Equal(t, 50, capturedHistory.StockBefore)
	assert.Equal(t, 20, capturedHistory.StockAfter)
	mockStorage.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

// TestManager_RecordUsage_Insufficient: stok kurang, tidak ada yang tertulis
func TestManager_RecordUsage_Insufficient(t *testing.T) {
	manager, mockStorage, mockTx := newTestManager()
	ctx := context.Background()

	item := &Item{ID: 1, Name: "Semen", Stock: 20, Unit: "sak", Warehouse: "Gudang 1"}

	mockStorage.On("InTx", ctx).Return(nil)
	mockTx.On("GetItem", ctx, int64(1)).Return(item, nil)

	_, err := manager.RecordUsage(ctx, 1, 25, time.Now(), "Unit A")

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Stok tersedia: 20")
	mockTx.AssertNotCalled(t, "InsertUsage", mock.Anything, mock.Anything)
	mockTx.AssertNotCalled(t, "InsertHistory", mock.Anything, mock.Anything)
	mockStorage.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

// TestManager_RecordUsage_ItemNotFound adalah tes barang tidak ada
func TestManager_RecordUsage_ItemNotFound(t *testing.T) {
	manager, mockStorage, mockTx := newTestManager()
	ctx := context.Background()

	mockStorage.On("InTx", ctx).Return(nil)
	mockTx.On("GetItem", ctx, int64(99)).Return(nil, ErrItemNotFound)

	_, err := manager.RecordUsage(ctx, 99, 5, time.Now(), "Unit A")

	assert.ErrorIs(t, err, ErrItemNotFound)
	mockStorage.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

// TestManager_BackfillUsage_Matched: barang cocok, stok dipotong sampai nol
func TestManager_BackfillUsage_Matched(t *testing.T) {
	manager, mockStorage, mockTx := newTestManager()
	ctx := context.Background()
	date := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)

	item := &Item{ID: 2, Name: "Pasir", Stock: 10, Unit: "m3", Warehouse: "Gudang 2"}

	var capturedUsage *UsageRecord
	var capturedHistory *StockHistoryEntry
	mockStorage.On("InTx", ctx).Return(nil)
	mockTx.On("FindItemByName", ctx, "Pasir").Return(item, nil)
	mockTx.On("InsertUsage", ctx, mock.AnythingOfType("*ledger.UsageRecord")).
		Run(func(args mock.Arguments) {
			capturedUsage = args.Get(1).(*UsageRecord)
		}).
		Return(int64(21), nil)
	mockTx.On("SetStock", ctx, int64(2), 0).Return(nil)
	mockTx.On("InsertHistory", ctx, mock.AnythingOfType("*ledger.StockHistoryEntry")).
		Run(func(args mock.Arguments) {
			capturedHistory = args.Get(1).(*StockHistoryEntry)
		}).
		Return(int64(22), nil)
	mockStorage.On("Path").Return("gudang.db")

	err := manager.BackfillUsage(ctx, "Pasir", 25, date, "Unit B")

	assert.NoError(t, err)
	// baris peminjaman tidak menautkan ID barang
	assert.Nil(t, capturedUsage.ItemID)
	assert.Equal(t, "Gudang 1", capturedUsage.Warehouse)
	assert.Equal(t, "m3", capturedUsage.UnitOfMeasure)
	// riwayat memakai gudang milik barang
	assert.Equal(t, "Gudang 2", capturedHistory.Warehouse)
	assert.Equal(t, -10, capturedHistory.Delta)
	assert.Equal(t, 0, capturedHistory.StockAfter)
	mockStorage.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

// TestManager_BackfillUsage_Unmatched: barang tidak cocok, peminjaman tetap masuk
func TestManager_BackfillUsage_Unmatched(t *testing.T) {
	manager, mockStorage, mockTx := newTestManager()
	ctx := context.Background()

	var capturedUsage *UsageRecord
	mockStorage.On("InTx", ctx).Return(nil)
	mockTx.On("FindItemByName", ctx, "Kawat Las").Return(nil, ErrItemNotFound)
	mockTx.On("InsertUsage", ctx, mock.AnythingOfType("*ledger.UsageRecord")).
		Run(func(args mock.Arguments) {
			capturedUsage = args.Get(1).(*UsageRecord)
		}).
		Return(int64(23), nil)
	mockStorage.On("Path").Return("gudang.db")

	err := manager.BackfillUsage(ctx, "Kawat Las", 3, time.Now(), "Unit B")

	assert.NoError(t, err)
	assert.Nil(t, capturedUsage.ItemID)
	assert.Equal(t, "pcs", capturedUsage.UnitOfMeasure)
	mockTx.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
	mockTx.AssertNotCalled(t, "InsertHistory", mock.Anything, mock.Anything)
	mockStorage.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

// TestManager_DeleteUsage: penghapusan peminjaman tidak mengembalikan stok
func TestManager_DeleteUsage(t *testing.T) {
	manager, mockStorage, _ := newTestManager()
	ctx := context.Background()

	mockStorage.On("DeleteUsage", ctx, int64(7)).Return(nil)
	mockStorage.On("Path").Return("gudang.db")

	err := manager.DeleteUsage(ctx, 7)

	assert.NoError(t, err)
	mockStorage.AssertNotCalled(t, "InTx", mock.Anything)
	mockStorage.AssertExpectations(t)
}

// TestManager_ListUsage_InvalidRange adalah tes rentang tanggal terbalik
func TestManager_ListUsage_InvalidRange(t *testing.T) {
	manager, _, _ := newTestManager()

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := manager.ListUsage(context.Background(), "", from, to)

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// TestManager_UsageReport adalah tes rekap pemakaian bulanan per unit
func TestManager_UsageReport(t *testing.T) {
	manager, mockStorage, _ := newTestManager()
	ctx := context.Background()

	records := []UsageRecord{
		{Unit: "Unit A", Quantity: 10, UsageDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{Unit: "Unit A", Quantity: 15, UsageDate: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)},
		{Unit: "Unit B", Quantity: 7, UsageDate: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{Unit: "Unit A", Quantity: 4, UsageDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	mockStorage.On("ListUsage", ctx, "", time.Time{}, time.Time{}).Return(records, nil)

	rows, err := manager.UsageReport(ctx, PeriodMonthly, time.Time{}, time.Time{})

	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "Unit A", rows[0].Unit)
	assert.Equal(t, "2024-03", rows[0].Period)
	assert.Equal(t, 25, rows[0].Total)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, "Unit B", rows[1].Unit)
	assert.Equal(t, 7, rows[1].Total)
	assert.Equal(t, "2024-04", rows[2].Period)
	mockStorage.AssertExpectations(t)
}
