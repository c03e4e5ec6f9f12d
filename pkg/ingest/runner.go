package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danuwid/gudang/pkg/ledger"
)

// Physical header/data offsets of the two weekly sheet variants. The
// stock-in template carries two banner rows above its headers, the
// usage-in template one.
const (
	stockHeaderTop = 2
	stockDataStart = 4
	usageHeaderTop = 1
	usageDataStart = 3
)

// Applier is the ledger surface the importer drives, one call per
// normalized transaction.
// Permukaan buku stok yang dipakai importer
type Applier interface {
	ReceiveStock(ctx context.Context, name, unit, warehouse string, qty int, date time.Time) (bool, error)
	BackfillUsage(ctx context.Context, name string, qty int, date time.Time, unit string) error
	AddCostEntry(ctx context.Context, unit, date, material string, price float64, note string) (*ledger.CostEntry, error)
}

var _ Applier = (*ledger.Manager)(nil)

// StockSheetConfig is the operator-supplied configuration for one
// stock-in sheet: the receiving warehouse and the Monday anchoring the
// weekday columns.
// Konfigurasi per sheet barang masuk
type StockSheetConfig struct {
	Warehouse string    `json:"gudang" yaml:"gudang"`
	WeekStart time.Time `json:"tanggal_senin" yaml:"tanggal_senin"`
}

// UsageSheetConfig is the operator-supplied configuration for one
// usage-in sheet: the consuming unit and the anchoring Monday.
// Konfigurasi per sheet penggunaan
type UsageSheetConfig struct {
	Unit      string    `json:"unit" yaml:"unit"`
	WeekStart time.Time `json:"tanggal_senin" yaml:"tanggal_senin"`
}

// CostSheetConfig is the operator-supplied configuration for a material
// cost sheet: the consuming unit the entries are booked against and an
// optional shared note.
// Konfigurasi sheet pengeluaran material
type CostSheetConfig struct {
	Unit string `json:"unit" yaml:"unit"`
	Note string `json:"keterangan" yaml:"keterangan"`
}

// Result is the outcome of one import batch. Row-level failures never
// abort sibling rows; a missing sheet configuration aborts only that
// sheet.
// Hasil satu batch impor dengan semantik sukses parsial
type Result struct {
	BatchID string            `json:"batch_id"`
	Created int               `json:"dibuat"`
	Updated int               `json:"diperbarui"`
	Applied int               `json:"diterapkan"`
	Skipped []ledger.RowError `json:"dilewati,omitempty"`
	Errors  []ledger.RowError `json:"errors,omitempty"`
}

func newResult() *Result {
	return &Result{BatchID: ledger.NewBatchID()}
}

func (r *Result) sheetError(sheet, reason string) {
	r.Errors = append(r.Errors, ledger.RowError{Sheet: sheet, Row: 0, Reason: reason})
}

// Importer drives parsed spreadsheet rows into the ledger
// Menjalankan baris spreadsheet ke dalam buku stok
type Importer struct {
	applier Applier
	logger  *zap.Logger
}

// NewImporter creates a new importer
func NewImporter(applier Applier, logger *zap.Logger) *Importer {
	return &Importer{applier: applier, logger: logger}
}

// ImportStockSheets ingests weekly stock-in sheets. Every transaction is
// an upsert: existing items gain stock, unknown items are created.
// Mengimpor sheet barang masuk mingguan
func (imp *Importer) ImportStockSheets(ctx context.Context, sheets []Sheet, configs map[string]StockSheetConfig) *Result {
	result := newResult()

	for _, sheet := range sheets {
		cfg, ok := configs[sheet.Name]
		if !ok {
			result.sheetError(sheet.Name, "Konfigurasi tidak ditemukan")
			continue
		}

		txns, ok := imp.expandWeekly(result, sheet, stockHeaderTop, stockDataStart, cfg.WeekStart)
		if !ok {
			continue
		}

		for _, txn := range txns {
			created, err := imp.applier.ReceiveStock(ctx, txn.Name, txn.Unit, cfg.Warehouse, txn.Qty, txn.Date)
			if err != nil {
				result.Errors = append(result.Errors, ledger.RowError{Sheet: sheet.Name, Row: txn.Row, Reason: err.Error()})
				continue
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
			result.Applied++
		}
	}

	imp.logger.Info("impor barang masuk selesai",
		zap.String("batch_id", result.BatchID),
		zap.Int("dibuat", result.Created),
		zap.Int("diperbarui", result.Updated),
		zap.Int("gagal", len(result.Errors)),
	)
	return result
}

// ImportUsageSheets ingests weekly usage-in sheets as clamped historical
// backfill.
// Mengimpor sheet penggunaan mingguan sebagai pengisian historis
func (imp *Importer) ImportUsageSheets(ctx context.Context, sheets []Sheet, configs map[string]UsageSheetConfig) *Result {
	result := newResult()

	for _, sheet := range sheets {
		cfg, ok := configs[sheet.Name]
		if !ok || cfg.Unit == "" {
			result.sheetError(sheet.Name, "Konfigurasi tidak ditemukan")
			continue
		}

		txns, ok := imp.expandWeekly(result, sheet, usageHeaderTop, usageDataStart, cfg.WeekStart)
		if !ok {
			continue
		}

		for _, txn := range txns {
			if err := imp.applier.BackfillUsage(ctx, txn.Name, txn.Qty, txn.Date, cfg.Unit); err != nil {
				result.Errors = append(result.Errors, ledger.RowError{Sheet: sheet.Name, Row: txn.Row, Reason: err.Error()})
				continue
			}
			result.Applied++
		}
	}

	imp.logger.Info("impor penggunaan selesai",
		zap.String("batch_id", result.BatchID),
		zap.Int("diterapkan", result.Applied),
		zap.Int("gagal", len(result.Errors)),
	)
	return result
}

// expandWeekly validates the sheet's header block and expands its data
// rows. A sheet too short for its template or missing every weekday
// column is reported once and skipped whole.
func (imp *Importer) expandWeekly(result *Result, sheet Sheet, headerTop, dataStart int, weekStart time.Time) ([]WeekTxn, bool) {
	if len(sheet.Rows) <= dataStart {
		result.sheetError(sheet.Name, fmt.Sprintf("Sheet terlalu pendek, butuh minimal %d baris", dataStart+1))
		return nil, false
	}

	layout, err := BuildWeekLayout(sheet.Rows[headerTop], sheet.Rows[headerTop+1])
	if err != nil {
		result.sheetError(sheet.Name, err.Error())
		return nil, false
	}

	return ParseWeeklyRows(sheet.Rows[dataStart:], layout, weekStart, "pcs", dataStart), true
}

// ImportCostSheet ingests one material cost sheet, booking accepted rows
// against the configured consuming unit.
// Mengimpor sheet pengeluaran material ke HPP
func (imp *Importer) ImportCostSheet(ctx context.Context, sheet Sheet, cfg CostSheetConfig) *Result {
	result := newResult()

	if cfg.Unit == "" {
		result.sheetError(sheet.Name, "Konfigurasi tidak ditemukan")
		return result
	}

	rows, skipped := ParseCostRows(sheet.Name, sheet.Rows)
	result.Skipped = skipped

	for _, row := range rows {
		if _, err := imp.applier.AddCostEntry(ctx, cfg.Unit, row.Date, row.Material, row.Price, cfg.Note); err != nil {
			result.Errors = append(result.Errors, ledger.RowError{Sheet: sheet.Name, Row: row.Row, Reason: err.Error()})
			continue
		}
		result.Applied++
	}

	imp.logger.Info("impor pengeluaran material selesai",
		zap.String("batch_id", result.BatchID),
		zap.String("unit", cfg.Unit),
		zap.Int("diterapkan", result.Applied),
		zap.Int("dilewati", len(result.Skipped)),
		zap.Int("gagal", len(result.Errors)),
	)
	return result
}
