// Package export serializes ledger result sets to spreadsheet byte
// streams for operator downloads and scheduled backups.
// Paket export menyusun hasil kueri menjadi berkas xlsx
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/danuwid/gudang/pkg/ledger"
)

// Backup sheet names, mirrored from the database tables
// Nama sheet cadangan mengikuti tabel basis data
const (
	SheetItems   = "Stok Barang"
	SheetUsage   = "Peminjaman"
	SheetHistory = "Riwayat Stok"
	SheetCosts   = "Data HPP"
)

// Items serializes the item list to a one-sheet workbook
// Menyusun daftar barang menjadi satu sheet
func Items(items []ledger.Item) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeItemsSheet(f, f.GetSheetName(0), items); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

// Usage serializes usage records to a one-sheet workbook
// Menyusun daftar peminjaman menjadi satu sheet
func Usage(records []ledger.UsageRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeUsageSheet(f, f.GetSheetName(0), records); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

// History serializes stock history entries to a one-sheet workbook
// Menyusun riwayat stok menjadi satu sheet
func History(entries []ledger.StockHistoryEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeHistorySheet(f, f.GetSheetName(0), entries); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

// CostEntries serializes cost entries to a one-sheet workbook. Dates are
// rendered in the display convention DD/MM/YYYY.
// Menyusun data HPP menjadi satu sheet
func CostEntries(entries []ledger.CostEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"ID", "Unit", "Tanggal", "Material", "Harga", "Keterangan"}
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.ID, e.Unit, ledger.DisplayDate(e.Date), e.Material, e.Price, e.Note})
	}
	if err := writeSheet(f, f.GetSheetName(0), headers, rows); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

// Backup builds the three-sheet backup workbook: items, usage and stock
// history together, one download restoring the whole ledger state.
// Cadangan tiga sheet: barang, peminjaman dan riwayat stok
func Backup(items []ledger.Item, records []ledger.UsageRecord, entries []ledger.StockHistoryEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetItems); err != nil {
		return nil, fmt.Errorf("gagal menata sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetUsage); err != nil {
		return nil, fmt.Errorf("gagal menata sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetHistory); err != nil {
		return nil, fmt.Errorf("gagal menata sheet: %w", err)
	}

	if err := writeItemsSheet(f, SheetItems, items); err != nil {
		return nil, err
	}
	if err := writeUsageSheet(f, SheetUsage, records); err != nil {
		return nil, err
	}
	if err := writeHistorySheet(f, SheetHistory, entries); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

func writeItemsSheet(f *excelize.File, sheet string, items []ledger.Item) error {
	headers := []string{"ID", "Nama Barang", "Stok", "Satuan", "Gudang", "Dibuat"}
	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, []interface{}{item.ID, item.Name, item.Stock, item.Unit, item.Warehouse, item.CreatedAt.Format(ledger.DisplayDateLayout)})
	}
	return writeSheet(f, sheet, headers, rows)
}

func writeUsageSheet(f *excelize.File, sheet string, records []ledger.UsageRecord) error {
	headers := []string{"ID", "Nama Barang", "Jumlah", "Tanggal", "Unit", "Satuan", "Gudang"}
	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []interface{}{rec.ID, rec.ItemName, rec.Quantity, rec.UsageDate.Format(ledger.DisplayDateLayout), rec.Unit, rec.UnitOfMeasure, rec.Warehouse})
	}
	return writeSheet(f, sheet, headers, rows)
}

func writeHistorySheet(f *excelize.File, sheet string, entries []ledger.StockHistoryEntry) error {
	headers := []string{"ID", "Nama Barang", "Perubahan", "Stok Sebelum", "Stok Sesudah", "Gudang", "Tanggal"}
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.ID, e.ItemName, e.Delta, e.StockBefore, e.StockAfter, e.Warehouse, e.HappenedAt.Format(ledger.DisplayDateLayout)})
	}
	return writeSheet(f, sheet, headers, rows)
}

// writeSheet writes one header row plus data rows and arms the header
// autofilter
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("gagal menulis kepala sheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("gagal menghitung sel: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("gagal menulis baris sheet: %w", err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return fmt.Errorf("gagal menghitung kolom: %w", err)
	}
	rangeRef := fmt.Sprintf("A1:%s1", lastCol)
	if err := f.AutoFilter(sheet, rangeRef, nil); err != nil {
		return fmt.Errorf("gagal memasang filter: %w", err)
	}
	return nil
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("gagal menyusun berkas excel: %w", err)
	}
	return buf.Bytes(), nil
}
