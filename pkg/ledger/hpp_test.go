package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestManager_AddCostEntry: tanggal lama dinormalkan saat penulisan
func TestManager_AddCostEntry(t *testing.T) {
	manager, mockStorage, mockTx := newTestManager()
	ctx := context.Background()

	var captured *CostEntry
	mockStorage.On("InTx", ctx).Return(nil)
	mockTx.On("InsertCostEntry", ctx, mock.AnythingOfType("*ledger.CostEntry")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*CostEntry)
		}).
		Return(int64(31), nil)
	mockStorage.On("Path").Return("gudang.db")

	entry, err := manager.AddCostEntry(ctx, "Unit A", "15/03/2024", "Semen", 75000, "pembelian rutin")

	assert.NoError(t, err)
	assert.Equal(t, int64(31), entry.ID)
	assert.Equal(t, "2024-03-15", captured.Date)
	mockStorage.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

// TestManager_AddCostEntry_BadDate adalah tes tanggal tidak dikenali
func TestManager_AddCostEntry_BadDate(t *testing.T) {
	manager, mockStorage, _ := newTestManager()

	_, err := manager.AddCostEntry(context.Background(), "Unit A", "kemarin", "Semen", 75000, "")

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tanggal", vErr.Field)
	mockStorage.AssertNotCalled(t, "InTx", mock.Anything)
}

// TestManager_AddCostEntry_BadPrice adalah tes harga tidak positif
func TestManager_AddCostEntry_BadPrice(t *testing.T) {
	manager, mockStorage, _ := newTestManager()

	_, err := manager.AddCostEntry(context.Background(), "Unit A", "", "Semen", 0, "")

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "harga", vErr.Field)
	mockStorage.AssertNotCalled(t, "InTx", mock.Anything)
}

// TestManager_QueryCostEntries_MixedFormats: kedua konvensi tanggal ikut
// terjaring rentang, nilai rusak jatuh di luar rentang
func TestManager_QueryCostEntries_MixedFormats(t *testing.T) {
	manager, mockStorage, _ := newTestManager()
	ctx := context.Background()

	entries := []CostEntry{
		{ID: 1, Unit: "Unit A", Date: "2024-03-05", Material: "Semen", Price: 75000},
		{ID: 2, Unit: "Unit A", Date: "20/03/2024", Material: "Pasir", Price: 250000},
		{ID: 3, Unit: "Unit A", Date: "05/04/2024", Material: "Batu Bata", Price: 900000},
		{ID: 4, Unit: "Unit A", Date: "tanggal rusak", Material: "Besi", Price: 120000},
	}
	mockStorage.On("ListCostEntries", ctx, "Unit A").Return(entries, nil)

	// rentang Maret menjaring kedua konvensi
	march, err := manager.QueryCostEntries(ctx, "Unit A", "2024-03-01", "2024-03-31")
	assert.NoError(t, err)
	assert.Len(t, march, 2)
	assert.Equal(t, "Pasir", march[0].Material) // terbaru dulu
	assert.Equal(t, "Semen", march[1].Material)

	// rentang April tidak menjaring baris Maret
	april, err := manager.QueryCostEntries(ctx, "Unit A", "01/04/2024", "30/04/2024")
	assert.NoError(t, err)
	assert.Len(t, april, 1)
	assert.Equal(t, "Batu Bata", april[0].Material)

	// tanpa rentang semua baris ikut, termasuk yang rusak
	all, err := manager.QueryCostEntries(ctx, "Unit A", "", "")
	assert.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Besi", all[3].Material) // nilai rusak di belakang

	mockStorage.AssertExpectations(t)
}

// TestManager_QueryCostEntries_BadBound adalah tes batas rentang rusak
func TestManager_QueryCostEntries_BadBound(t *testing.T) {
	manager, _, _ := newTestManager()

	_, err := manager.QueryCostEntries(context.Background(), "", "bukan tanggal", "")

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "dari_tanggal", vErr.Field)
}

// TestManager_CostSummary adalah tes rekap HPP per unit
func TestManager_CostSummary(t *testing.T) {
	manager, mockStorage, _ := newTestManager()
	ctx := context.Background()

	entries := []CostEntry{
		{ID: 1, Unit: "Unit B", Date: "2024-03-05", Material: "Semen", Price: 100000},
		{ID: 2, Unit: "Unit A", Date: "2024-03-06", Material: "Pasir", Price: 250000},
		{ID: 3, Unit: "Unit B", Date: "2024-03-07", Material: "Batu Bata", Price: 300000},
	}
	mockStorage.On("ListCostEntries", ctx, "").Return(entries, nil)

	rows, err := manager.CostSummary(ctx, "", "")

	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "Unit A", rows[0].Unit)
	assert.Equal(t, 250000.0, rows[0].Total)
	assert.Equal(t, "Unit B", rows[1].Unit)
	assert.Equal(t, 400000.0, rows[1].Total)
	assert.Equal(t, 2, rows[1].Count)
	assert.Equal(t, 200000.0, rows[1].Average)
	mockStorage.AssertExpectations(t)
}
