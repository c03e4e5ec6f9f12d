package ledger

import (
	"context"
	"time"
)

// StockLedger defines the mutating and querying surface of the stock book
// Antarmuka inti buku stok
type StockLedger interface {
	// Mutasi stok - Stock mutations
	CreateItem(ctx context.Context, name string, initialStock int, unit, warehouse string, date time.Time) (*Item, error)
	IncreaseStock(ctx context.Context, itemID int64, amount int, date time.Time) error
	DecreaseStock(ctx context.Context, itemID int64, amount int, date time.Time, policy DecrementPolicy) error
	DeleteItem(ctx context.Context, itemID int64) error
	ReceiveStock(ctx context.Context, name, unit, warehouse string, qty int, date time.Time) (created bool, err error)

	// Riwayat - History
	History(ctx context.Context, itemID int64, limit int) ([]StockHistoryEntry, error)
	HistoryByDateRange(ctx context.Context, itemID int64, from, to time.Time) ([]StockHistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, entryID int64) error

	// Pembacaan - Queries
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	ListItems(ctx context.Context, search, warehouse string) ([]Item, error)
	LowStockItems(ctx context.Context, threshold int) ([]LowStockItem, error)
}

// UsageRecorder defines the usage (peminjaman) surface
// Antarmuka pencatatan peminjaman
type UsageRecorder interface {
	RecordUsage(ctx context.Context, itemID int64, qty int, date time.Time, unit string) (*UsageRecord, error)
	BackfillUsage(ctx context.Context, name string, qty int, date time.Time, unit string) error
	DeleteUsage(ctx context.Context, usageID int64) error
	ListUsage(ctx context.Context, unit string, from, to time.Time) ([]UsageRecord, error)
	UsageReport(ctx context.Context, period ReportPeriod, from, to time.Time) ([]UsageReportRow, error)
}

// CostLedger defines the HPP surface
// Antarmuka buku HPP
type CostLedger interface {
	AddCostEntry(ctx context.Context, unit, date, material string, price float64, note string) (*CostEntry, error)
	DeleteCostEntry(ctx context.Context, entryID int64) error
	QueryCostEntries(ctx context.Context, unit, from, to string) ([]CostEntry, error)
	CostSummary(ctx context.Context, from, to string) ([]CostSummaryRow, error)
}

// Tx is the write surface available inside one storage transaction.
// Every mutation of the ledger happens through exactly one Tx scope.
// Operasi tulis di dalam satu transaksi penyimpanan
type Tx interface {
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	// FindItem matches case-insensitively on (name, warehouse).
	FindItem(ctx context.Context, name, warehouse string) (*Item, error)
	// FindItemByName matches case-insensitively on name alone.
	FindItemByName(ctx context.Context, name string) (*Item, error)
	InsertItem(ctx context.Context, item *Item) (int64, error)
	SetStock(ctx context.Context, itemID int64, stock int) error
	SetStockAndUnit(ctx context.Context, itemID int64, stock int, unit string) error
	// DecrementStock performs the conditional update
	// `stok = stok - amount WHERE id = ? AND stok >= amount` and reports
	// whether a row changed.
	DecrementStock(ctx context.Context, itemID int64, amount int) (bool, error)
	CountUsageForItem(ctx context.Context, itemID int64) (int, error)
	DeleteItem(ctx context.Context, itemID int64) error
	InsertHistory(ctx context.Context, entry *StockHistoryEntry) (int64, error)
	InsertUsage(ctx context.Context, rec *UsageRecord) (int64, error)
	InsertCostEntry(ctx context.Context, entry *CostEntry) (int64, error)
}

// Storage defines the interface for the data persistence layer
// Antarmuka lapisan penyimpanan data
type Storage interface {
	// InTx runs fn inside one all-or-nothing transaction.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Pembacaan barang - Item reads
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	ListItems(ctx context.Context, search, warehouse string) ([]Item, error)

	// Riwayat stok - Stock history
	ListHistory(ctx context.Context, itemID int64, limit int) ([]StockHistoryEntry, error)
	ListHistoryByDateRange(ctx context.Context, itemID int64, from, to time.Time) ([]StockHistoryEntry, error)
	DeleteHistory(ctx context.Context, entryID int64) error

	// Peminjaman - Usage
	ListUsage(ctx context.Context, unit string, from, to time.Time) ([]UsageRecord, error)
	DeleteUsage(ctx context.Context, usageID int64) error

	// HPP - Cost entries
	ListCostEntries(ctx context.Context, unit string) ([]CostEntry, error)
	DeleteCostEntry(ctx context.Context, entryID int64) error

	// Path returns the location of the backing store file, empty when the
	// store is not file-backed.
	Path() string

	Ping(ctx context.Context) error
	Close() error
}

// SyncHook is invoked after every successful mutating operation with the
// path of the backing store file. A hook failure is reported and logged
// but never rolls back the local mutation.
// Dipanggil setelah setiap mutasi berhasil, kegagalan tidak fatal
type SyncHook interface {
	AfterWrite(ctx context.Context, dbPath string) error
}
