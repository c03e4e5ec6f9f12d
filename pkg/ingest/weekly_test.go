package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildWeekLayout adalah tes penggabungan dua baris kepala
func TestBuildWeekLayout(t *testing.T) {
	top := []string{"NO", "NAMA BARANG", "JUMLAH", "SATUAN", "TANGGAL", "", "", "", "", "", ""}
	bottom := []string{"", "", "", "", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab", "Min"}

	layout, err := BuildWeekLayout(top, bottom)

	require.NoError(t, err)
	assert.Equal(t, 1, layout.NameCol)
	assert.Equal(t, 3, layout.UnitCol)
	require.Len(t, layout.Days, 7)
	assert.Equal(t, DayColumn{Col: 4, Offset: 0}, layout.Days[0])
	assert.Equal(t, DayColumn{Col: 10, Offset: 6}, layout.Days[6])
}

// TestBuildWeekLayout_PartialWeek: kolom yang tidak cocok dibuang
func TestBuildWeekLayout_PartialWeek(t *testing.T) {
	top := []string{"NO", "NAMA BARANG", "JUMLAH", "SATUAN", "", "", ""}
	bottom := []string{"", "", "", "", "SEN ", "keterangan", "rab"}

	layout, err := BuildWeekLayout(top, bottom)

	require.NoError(t, err)
	require.Len(t, layout.Days, 2)
	assert.Equal(t, DayColumn{Col: 4, Offset: 0}, layout.Days[0])
	assert.Equal(t, DayColumn{Col: 6, Offset: 2}, layout.Days[1])
}

// TestBuildWeekLayout_NoWeekdays: sheet tanpa kolom hari ditolak
func TestBuildWeekLayout_NoWeekdays(t *testing.T) {
	top := []string{"NO", "NAMA BARANG", "JUMLAH", "SATUAN", "TOTAL"}
	bottom := []string{"", "", "", "", "nilai"}

	_, err := BuildWeekLayout(top, bottom)

	assert.Error(t, err)
}

// TestParseWeeklyRows: baris Bata sen=10 sel=5 menjadi dua transaksi
// bertanggal Senin dan Selasa
func TestParseWeeklyRows(t *testing.T) {
	layout := &WeekLayout{
		NameCol: 1,
		UnitCol: 3,
		Days: []DayColumn{
			{Col: 4, Offset: 0},
			{Col: 5, Offset: 1},
		},
	}
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := [][]string{
		{"1", "Bata", "15", "pcs", "10", "5"},
		{"2", "", "", "", "3", ""},         // nama kosong, dilewati
		{"3", "Semen", "2", "nan", "", "2"}, // satuan nan memakai cadangan
		{"4", "Pasir", "0", "m3", "abc", "-4"}, // tidak ada jumlah positif
	}

	txns := ParseWeeklyRows(rows, layout, monday, "pcs", 4)

	require.Len(t, txns, 3)
	assert.Equal(t, "Bata", txns[0].Name)
	assert.Equal(t, 10, txns[0].Qty)
	assert.Equal(t, monday, txns[0].Date)
	assert.Equal(t, 4, txns[0].Row)
	assert.Equal(t, 5, txns[1].Qty)
	assert.Equal(t, monday.AddDate(0, 0, 1), txns[1].Date)
	assert.Equal(t, "Semen", txns[2].Name)
	assert.Equal(t, "pcs", txns[2].Unit)
	assert.Equal(t, 2, txns[2].Qty)
}

// TestCoerceQty adalah tes pemaksaan sel jumlah
func TestCoerceQty(t *testing.T) {
	assert.Equal(t, 10, coerceQty("10"))
	assert.Equal(t, 2, coerceQty("2.9"))
	assert.Equal(t, 0, coerceQty(""))
	assert.Equal(t, 0, coerceQty("nan"))
	assert.Equal(t, 0, coerceQty("abc"))
	assert.Equal(t, -4, coerceQty("-4"))
}
