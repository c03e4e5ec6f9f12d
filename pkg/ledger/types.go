// Package ledger provides stock, usage and material cost bookkeeping
// for a single-warehouse inventory.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Item represents a stocked good (barang) in the warehouse
// Barang yang tersimpan di gudang
type Item struct {
	ID        int64     `json:"id" db:"id"`                     // ID barang
	Name      string    `json:"nama_barang" db:"nama_barang"`   // Nama barang
	Stock     int       `json:"stok" db:"stok"`                 // Jumlah stok saat ini
	Unit      string    `json:"besaran_stok" db:"besaran_stok"` // Satuan stok (sak, m3, buah, ...)
	Warehouse string    `json:"gudang" db:"gudang"`             // Nama gudang
	CreatedAt time.Time `json:"created_at" db:"created_at"`     // Waktu dibuat
}

// StockHistoryEntry is an immutable audit record of a stock delta.
// Every mutation appends exactly one entry; entries are never updated.
// Catatan riwayat stok, tidak pernah diubah setelah ditulis
type StockHistoryEntry struct {
	ID          int64     `json:"id" db:"id"`                       // ID riwayat
	ItemID      int64     `json:"barang_id" db:"barang_id"`         // ID barang
	ItemName    string    `json:"nama_barang" db:"nama_barang"`     // Nama barang (salinan)
	Delta       int       `json:"jumlah_tambah" db:"jumlah_tambah"` // Perubahan stok (+/-)
	StockBefore int       `json:"stok_sebelum" db:"stok_sebelum"`   // Stok sebelum perubahan
	StockAfter  int       `json:"stok_sesudah" db:"stok_sesudah"`   // Stok sesudah perubahan
	Warehouse   string    `json:"gudang" db:"gudang"`               // Nama gudang
	HappenedAt  time.Time `json:"tanggal_tambah" db:"tanggal_tambah"`
}

// UsageRecord represents consumption of an item against a construction unit
// (peminjaman). ItemID is nil for rows backfilled from spreadsheets where
// matching by id was skipped.
// Catatan peminjaman barang oleh unit proyek
type UsageRecord struct {
	ID            int64     `json:"id" db:"id"`                       // ID peminjaman
	ItemID        *int64    `json:"barang_id" db:"barang_id"`         // ID barang (bisa kosong)
	ItemName      string    `json:"nama_barang" db:"nama_barang"`     // Nama barang (salinan)
	Quantity      int       `json:"jumlah_pinjam" db:"jumlah_pinjam"` // Jumlah dipakai
	UsageDate     time.Time `json:"tanggal_pinjam" db:"tanggal_pinjam"`
	Unit          string    `json:"unit" db:"unit"`                 // Unit proyek pemakai
	UnitOfMeasure string    `json:"besaran_stok" db:"besaran_stok"` // Satuan stok (salinan)
	Warehouse     string    `json:"gudang" db:"gudang"`             // Nama gudang (salinan)
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CostEntry is a material cost record (HPP) for a construction unit.
// Independent of stock, no foreign keys.
// Catatan harga pokok produksi per unit proyek
type CostEntry struct {
	ID        int64     `json:"id" db:"id"`                 // ID data HPP
	Unit      string    `json:"unit" db:"unit"`             // Unit proyek
	Date      string    `json:"tanggal" db:"tanggal"`       // Tanggal, format kanonik YYYY-MM-DD
	Material  string    `json:"material" db:"material"`     // Nama material
	Price     float64   `json:"harga" db:"harga"`           // Harga
	Note      string    `json:"keterangan" db:"keterangan"` // Keterangan (opsional)
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DecrementPolicy selects how a stock decrement treats an overdraw.
// Kebijakan pengurangan stok saat jumlah melebihi stok tersedia
type DecrementPolicy string

const (
	// StrictDecrement rejects the whole operation with ErrInsufficientStock.
	// Interactive callers use this.
	// Tolak seluruh operasi jika stok tidak cukup
	StrictDecrement DecrementPolicy = "strict"

	// ClampedDecrement floors the resulting stock at zero. Bulk historical
	// backfill uses this so a data mismatch does not abort the batch.
	// Stok dikurangi sampai batas nol
	ClampedDecrement DecrementPolicy = "clamped"
)

// LowStockItem pairs an item below the threshold with a restock suggestion.
// Barang dengan stok menipis beserta saran pembelian ulang
type LowStockItem struct {
	Item              Item `json:"barang"`
	Threshold         int  `json:"threshold"`
	RestockSuggestion int  `json:"saran_restock"` // jumlah yang disarankan untuk dibeli
}

// CostSummaryRow aggregates cost entries for one construction unit.
// Rekap HPP per unit proyek
type CostSummaryRow struct {
	Unit    string  `json:"unit"`
	Total   float64 `json:"total"`
	Count   int     `json:"jumlah_entri"`
	Average float64 `json:"rata_rata"`
}

// ReportPeriod groups usage report rows by calendar bucket.
// Periode pengelompokan laporan pemakaian
type ReportPeriod string

const (
	PeriodDaily   ReportPeriod = "daily"   // harian
	PeriodWeekly  ReportPeriod = "weekly"  // mingguan
	PeriodMonthly ReportPeriod = "monthly" // bulanan
)

// UsageReportRow is one bucket of the usage report.
// Satu baris laporan pemakaian
type UsageReportRow struct {
	Unit   string `json:"unit"`
	Period string `json:"periode"`
	Total  int    `json:"total_pinjam"`
	Count  int    `json:"jumlah_transaksi"`
}

// NewBatchID generates an identifier for one spreadsheet import run
// ID baru untuk satu proses impor
func NewBatchID() string {
	return uuid.New().String()
}
