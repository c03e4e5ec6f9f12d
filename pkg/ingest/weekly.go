package ingest

import (
	"strconv"
	"strings"
	"time"
)

// WeekTxn is one normalized dated quantity from a weekly sheet, the unit
// of work applied to the ledger or the recorder.
// Satu transaksi ternormalisasi dari sheet mingguan
type WeekTxn struct {
	Row  int       // baris fisik pada sheet
	Name string    // nama barang
	Unit string    // satuan stok
	Qty  int       // jumlah, selalu positif
	Date time.Time // tanggal Senin + ofset hari
}

// ParseWeeklyRows expands data rows into per-day transactions using the
// resolved layout, anchored on the configured Monday. A blank or
// null-like item name skips the row; a blank unit falls back to
// fallbackUnit; a cell that does not coerce to a positive integer yields
// no transaction. rowOffset is the physical index of the first data row,
// kept so skip reasons point at the spreadsheet the operator sees.
// Mengembangkan baris data mingguan menjadi transaksi per hari
func ParseWeeklyRows(rows [][]string, layout *WeekLayout, weekStart time.Time, fallbackUnit string, rowOffset int) []WeekTxn {
	var txns []WeekTxn

	for i, row := range rows {
		name := strings.TrimSpace(cellAt(row, layout.NameCol))
		if isBlank(name) {
			continue
		}

		unit := strings.TrimSpace(cellAt(row, layout.UnitCol))
		if isBlank(unit) {
			unit = fallbackUnit
		}

		for _, day := range layout.Days {
			qty := coerceQty(cellAt(row, day.Col))
			if qty <= 0 {
				continue
			}
			txns = append(txns, WeekTxn{
				Row:  rowOffset + i,
				Name: name,
				Unit: unit,
				Qty:  qty,
				Date: weekStart.AddDate(0, 0, day.Offset),
			})
		}
	}

	return txns
}

// coerceQty turns a quantity cell into an integer. Empty or unparseable
// cells count as zero; fractional values are truncated.
// Memaksa sel jumlah menjadi bilangan bulat, gagal berarti nol
func coerceQty(raw string) int {
	v := strings.TrimSpace(raw)
	if isBlank(v) {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64); err == nil {
		return int(f)
	}
	return 0
}
