package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danuwid/gudang/pkg/ledger"
)

// Fixed column positions of the material-cost convention
// Posisi kolom tetap pada konvensi pengeluaran material
const (
	costDateCol     = 1
	costMaterialCol = 2
	costUnitCol     = 3
	costPriceCol    = 5
)

// exact labels that mark a stray header row
var costHeaderLabels = map[string]bool{
	"material":   true,
	"tanggal":    true,
	"keterangan": true,
	"no":         true,
	"item":       true,
}

// leading words that mark a summary or notes row
var summaryPattern = regexp.MustCompile(`^(jumlah|total|subtotal|grand total|catatan|summary)`)

// priceSanityBound is a guard against transcription errors, not a
// business rule.
// Batas kewajaran harga, bukan aturan bisnis
const priceSanityBound = 100_000_000

// CostRow is one accepted material-cost row. Date keeps the raw cell
// text (possibly empty); normalization happens at the ledger write.
// Satu baris pengeluaran material yang diterima
type CostRow struct {
	Row      int     // baris fisik pada sheet
	Date     string  // teks tanggal apa adanya, boleh kosong
	Material string  // nama material
	Unit     string  // satuan pada sheet
	Price    float64 // harga sudah dibersihkan
}

// ParseCostRows walks every physical row of a cost sheet and applies the
// acceptance filter in order, first match wins: blank material is skipped
// silently, stray header rows and summary rows are skipped with a reason,
// blank prices are skipped silently, and prices must clean up to a number
// in (0, 100_000_000]. The filter makes leftover headers harmless, so the
// whole grid is fed in without a skiprows offset.
// Menyaring baris sheet pengeluaran material satu per satu
func ParseCostRows(sheet string, rows [][]string) ([]CostRow, []ledger.RowError) {
	var accepted []CostRow
	var skipped []ledger.RowError

	for idx, row := range rows {
		material := strings.TrimSpace(cellAt(row, costMaterialCol))
		materialKey := strings.ToLower(material)

		if isBlank(material) {
			continue
		}
		if costHeaderLabels[materialKey] {
			skipped = append(skipped, ledger.RowError{Sheet: sheet, Row: idx, Reason: "Header row"})
			continue
		}
		if summaryPattern.MatchString(materialKey) {
			skipped = append(skipped, ledger.RowError{Sheet: sheet, Row: idx, Reason: fmt.Sprintf("Summary row - '%s'", truncate(materialKey, 50))})
			continue
		}

		priceRaw := strings.TrimSpace(cellAt(row, costPriceCol))
		if isBlank(priceRaw) {
			continue
		}

		price, ok := CleanPrice(priceRaw)
		if !ok {
			skipped = append(skipped, ledger.RowError{Sheet: sheet, Row: idx, Reason: fmt.Sprintf("Invalid harga '%s'", priceRaw)})
			continue
		}
		if price <= 0 || price > priceSanityBound {
			skipped = append(skipped, ledger.RowError{Sheet: sheet, Row: idx, Reason: fmt.Sprintf("Harga ekstrem - %.0f", price)})
			continue
		}

		date := strings.TrimSpace(cellAt(row, costDateCol))
		if isBlank(date) {
			date = ""
		}

		accepted = append(accepted, CostRow{
			Row:      idx,
			Date:     date,
			Material: material,
			Unit:     strings.TrimSpace(cellAt(row, costUnitCol)),
			Price:    price,
		})
	}

	return accepted, skipped
}

var nonPriceChars = regexp.MustCompile(`[^\d.-]`)

// CleanPrice strips everything but digits, dots and minus from a price
// cell. A value with more than one dot is an Indonesian thousands
// notation ("1.500.000"), so all dots are dropped before parsing.
// Membersihkan sel harga, titik ribuan dibuang sebelum diurai
func CleanPrice(raw string) (float64, bool) {
	cleaned := nonPriceChars.ReplaceAllString(raw, "")
	if strings.Count(cleaned, ".") > 1 {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
