package ledger

import (
	"strings"
	"time"
)

// Cost entry dates are stored canonically as YYYY-MM-DD. Rows written by
// older versions of the application used DD/MM/YYYY, so reads tolerate
// both, trying ordered parse strategies before giving up.
// Tanggal HPP disimpan dengan format kanonik YYYY-MM-DD

const (
	// CanonicalDateLayout is the stored form
	// Format tanggal yang disimpan
	CanonicalDateLayout = "2006-01-02"

	// LegacyDateLayout is the pre-migration stored form
	// Format tanggal lama
	LegacyDateLayout = "02/01/2006"

	// DisplayDateLayout is the presentation form
	// Format tanggal untuk tampilan
	DisplayDateLayout = "02/01/2006"
)

// parse strategies in priority order, canonical first
var dateLayouts = []string{
	CanonicalDateLayout,
	LegacyDateLayout,
	"2006-01-02 15:04:05",
	"02-01-2006",
	"2/1/2006",
}

// ParseFlexibleDate parses a cost entry date in any accepted convention.
// The boolean reports success; callers filtering by range treat an
// unparseable value as outside every range rather than an error.
// Mengurai tanggal dengan beberapa format yang didukung
func ParseFlexibleDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CanonicalDate normalizes a date string to YYYY-MM-DD at write time.
// The boolean reports whether any strategy matched.
// Menormalkan tanggal ke format kanonik saat penulisan
func CanonicalDate(value string) (string, bool) {
	t, ok := ParseFlexibleDate(value)
	if !ok {
		return "", false
	}
	return t.Format(CanonicalDateLayout), true
}

// DisplayDate formats a stored date for presentation as DD/MM/YYYY.
// Unparseable values pass through unchanged.
// Memformat tanggal untuk tampilan
func DisplayDate(value string) string {
	t, ok := ParseFlexibleDate(value)
	if !ok {
		return value
	}
	return t.Format(DisplayDateLayout)
}
