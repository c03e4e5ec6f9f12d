package ledger

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// AddCostEntry records one material cost entry (HPP). The date is
// normalized to the canonical stored form at write time; an empty date
// defaults to today.
// Mencatat satu data HPP dengan tanggal ternormalisasi
func (m *Manager) AddCostEntry(ctx context.Context, unit, date, material string, price float64, note string) (*CostEntry, error) {
	if err := ValidateConsumingUnit(unit); err != nil {
		return nil, err
	}
	if err := ValidateMaterial(material); err != nil {
		return nil, err
	}
	if err := ValidatePrice(price); err != nil {
		return nil, err
	}

	canonical := time.Now().Format(CanonicalDateLayout)
	if date != "" {
		var ok bool
		canonical, ok = CanonicalDate(date)
		if !ok {
			return nil, NewValidationError("tanggal", "format tanggal tidak dikenali", date)
		}
	}

	entry := &CostEntry{
		Unit:      unit,
		Date:      canonical,
		Material:  material,
		Price:     price,
		Note:      note,
		CreatedAt: time.Now(),
	}

	err := m.storage.InTx(ctx, func(tx Tx) error {
		id, err := tx.InsertCostEntry(ctx, entry)
		if err != nil {
			return NewStorageError("insert_cost_entry", "gagal menyimpan data HPP", err)
		}
		entry.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("data HPP dicatat",
		zap.String("unit", unit),
		zap.String("material", material),
		zap.Float64("harga", price),
		zap.String("tanggal", canonical),
	)

	m.afterWrite(ctx)
	return entry, nil
}

// DeleteCostEntry removes one cost entry
// Menghapus satu data HPP
func (m *Manager) DeleteCostEntry(ctx context.Context, entryID int64) error {
	if err := m.storage.DeleteCostEntry(ctx, entryID); err != nil {
		return err
	}

	m.logger.Info("data HPP dihapus", zap.Int64("hpp_id", entryID))

	m.afterWrite(ctx)
	return nil
}

// QueryCostEntries returns cost entries filtered by an optional unit and
// an optional date range. Range bounds accept either supported date
// convention; stored rows whose date defeats every parse strategy fall
// outside any range instead of erroring. Newest entries first.
// Daftar data HPP dengan filter unit dan rentang tanggal
func (m *Manager) QueryCostEntries(ctx context.Context, unit, from, to string) ([]CostEntry, error) {
	var fromT, toT time.Time
	if from != "" {
		t, ok := ParseFlexibleDate(from)
		if !ok {
			return nil, NewValidationError("dari_tanggal", "format tanggal tidak dikenali", from)
		}
		fromT = t
	}
	if to != "" {
		t, ok := ParseFlexibleDate(to)
		if !ok {
			return nil, NewValidationError("sampai_tanggal", "format tanggal tidak dikenali", to)
		}
		toT = t
	}
	if !fromT.IsZero() && !toT.IsZero() && fromT.After(toT) {
		return nil, NewValidationError("rentang_tanggal", "tanggal awal melewati tanggal akhir", from+" > "+to)
	}

	entries, err := m.storage.ListCostEntries(ctx, unit)
	if err != nil {
		return nil, err
	}

	bounded := !fromT.IsZero() || !toT.IsZero()
	var out []CostEntry
	for _, e := range entries {
		if bounded {
			t, ok := ParseFlexibleDate(e.Date)
			if !ok {
				continue
			}
			if !fromT.IsZero() && t.Before(fromT) {
				continue
			}
			if !toT.IsZero() && t.After(toT) {
				continue
			}
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, oki := ParseFlexibleDate(out[i].Date)
		tj, okj := ParseFlexibleDate(out[j].Date)
		if oki && okj {
			return ti.After(tj)
		}
		return oki
	})
	return out, nil
}

// CostSummary aggregates cost entries per consuming unit for the HPP
// report, optionally bounded by a date range
// Rekap HPP per unit proyek
func (m *Manager) CostSummary(ctx context.Context, from, to string) ([]CostSummaryRow, error) {
	entries, err := m.QueryCostEntries(ctx, "", from, to)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*CostSummaryRow)
	var units []string
	for _, e := range entries {
		row, ok := totals[e.Unit]
		if !ok {
			row = &CostSummaryRow{Unit: e.Unit}
			totals[e.Unit] = row
			units = append(units, e.Unit)
		}
		row.Total += e.Price
		row.Count++
	}

	sort.Strings(units)
	rows := make([]CostSummaryRow, 0, len(units))
	for _, u := range units {
		row := totals[u]
		row.Average = row.Total / float64(row.Count)
		rows = append(rows, *row)
	}
	return rows, nil
}
