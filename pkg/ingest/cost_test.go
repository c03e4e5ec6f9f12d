package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseCostRows adalah tes rantai penyaringan baris pengeluaran
func TestParseCostRows(t *testing.T) {
	rows := [][]string{
		{"", "Tanggal", "Material", "Unit", "", "Harga"},             // baris kepala
		{"1", "2024-03-05", "Semen", "sak", "", "75000"},             // diterima
		{"2", "20/03/2024", "Pasir", "m3", "", "1.500.000"},          // titik ribuan
		{"3", "", "", "m3", "", "50000"},                             // material kosong, senyap
		{"4", "2024-03-07", "Jumlah Total Bulan Ini", "", "", "99"},  // baris rekap
		{"5", "2024-03-08", "Batu Bata", "buah", "", "abc"},          // harga rusak
		{"6", "2024-03-09", "Besi Beton", "batang", "", "999999999"}, // di luar batas wajar
		{"7", "2024-03-10", "Cat Tembok", "kaleng", "", ""},          // harga kosong, senyap
	}

	accepted, skipped := ParseCostRows("Pengeluaran Material", rows)

	assert.Len(t, accepted, 2)
	assert.Equal(t, "Semen", accepted[0].Material)
	assert.Equal(t, 75000.0, accepted[0].Price)
	assert.Equal(t, "2024-03-05", accepted[0].Date)
	assert.Equal(t, "Pasir", accepted[1].Material)
	assert.Equal(t, 1500000.0, accepted[1].Price)

	// yang senyap tidak masuk daftar alasan
	assert.Len(t, skipped, 4)
	assert.Equal(t, "Header row", skipped[0].Reason)
	assert.Equal(t, 0, skipped[0].Row)
	assert.Contains(t, skipped[1].Reason, "Summary row")
	assert.Contains(t, skipped[2].Reason, "Invalid harga 'abc'")
	assert.Contains(t, skipped[3].Reason, "Harga ekstrem")
}

// TestParseCostRows_HeaderIdempotent: baris kepala yang sama selalu
// dilewati, tidak pernah diterima sebagian
func TestParseCostRows_HeaderIdempotent(t *testing.T) {
	header := []string{"", "Tanggal", "Material", "Unit", "", "Harga"}
	rows := [][]string{header, header}

	accepted, skipped := ParseCostRows("Pengeluaran Material", rows)

	assert.Empty(t, accepted)
	assert.Len(t, skipped, 2)
	assert.Equal(t, "Header row", skipped[0].Reason)
	assert.Equal(t, "Header row", skipped[1].Reason)
}

// TestCleanPrice adalah tes pembersihan sel harga
func TestCleanPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"75000", 75000, true},
		{"1.500.000", 1500000, true},
		{"Rp1.500.000", 1500000, true},
		{"12.5", 12.5, true},
		{"-300", -300, true},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := CleanPrice(tt.raw)
		assert.Equal(t, tt.ok, ok, "nilai: %q", tt.raw)
		if tt.ok {
			assert.Equal(t, tt.want, got, "nilai: %q", tt.raw)
		}
	}
}
