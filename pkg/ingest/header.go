// Package ingest parses the two spreadsheet conventions used in the
// field: a flat material-cost sheet and a weekly stock/usage sheet with
// a two-row composite header and weekday columns.
// Paket ingest mengurai dua konvensi spreadsheet lapangan
package ingest

import (
	"fmt"
	"strings"
)

// weekday abbreviations in the second header row, Monday first
// singkatan hari pada baris kepala kedua, Senin lebih dulu
var weekdayOffsets = map[string]int{
	"sen": 0,
	"sel": 1,
	"rab": 2,
	"kam": 3,
	"jum": 4,
	"sab": 5,
	"min": 6,
}

// Fixed physical columns of the weekly convention. Column 0 is a row
// label, column 2 a redundant weekly total; both are discarded.
const (
	nameCol = 1
	unitCol = 3
)

// DayColumn maps one physical column to its day offset from the
// configured Monday.
// Pemetaan satu kolom fisik ke ofset hari dari Senin
type DayColumn struct {
	Col    int // indeks kolom fisik
	Offset int // 0=Senin .. 6=Minggu
}

// WeekLayout is the validated column mapping built from the two header
// rows of a weekly sheet, resolved once before any data row is read.
// Pemetaan kolom tervalidasi dari dua baris kepala
type WeekLayout struct {
	NameCol int
	UnitCol int
	Days    []DayColumn
}

// BuildWeekLayout merges the two physical header rows column by column.
// Columns 0-3 have fixed roles; for columns from 4 on, the second row's
// cell is matched case-insensitively against the weekday set and
// unmatched columns are discarded. A sheet with no weekday column at all
// is rejected before any data row is processed.
// Menggabungkan dua baris kepala menjadi pemetaan kolom mingguan
func BuildWeekLayout(top, bottom []string) (*WeekLayout, error) {
	n := len(top)
	if len(bottom) > n {
		n = len(bottom)
	}

	layout := &WeekLayout{NameCol: nameCol, UnitCol: unitCol}
	for i := 4; i < n; i++ {
		label := normalizeHeader(cellAt(bottom, i))
		offset, ok := weekdayOffsets[label]
		if !ok {
			continue
		}
		layout.Days = append(layout.Days, DayColumn{Col: i, Offset: offset})
	}

	if len(layout.Days) == 0 {
		return nil, fmt.Errorf("tidak ada kolom hari (sen..min) pada baris kepala")
	}
	return layout, nil
}

// cellAt reads a cell tolerating short rows
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// normalizeHeader lowers, trims and strips inner spaces
func normalizeHeader(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}

// isBlank reports whether a cell is empty or a null-like export artifact
// Sel kosong atau artefak ekspor seperti "nan"
func isBlank(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "" || v == "nan" || v == "none"
}
