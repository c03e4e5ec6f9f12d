package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet flattened to a cell grid. Rows can be ragged;
// the parsers tolerate short rows.
// Satu worksheet sebagai kisi sel
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadWorkbook loads every worksheet of an xlsx stream into memory.
// Workbooks here are small operator uploads, a handful of sheets.
// Membaca seluruh worksheet dari berkas xlsx
func ReadWorkbook(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("gagal membuka berkas excel: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("gagal membaca sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}
