package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RecordUsage records consumption of an item by a construction unit. One
// transaction carries the combined write: the usage insert, the strict
// stock decrement and one history entry. When qty exceeds the current
// stock nothing is written and ErrInsufficientStock is returned with the
// available amount in the message.
// Mencatat peminjaman: satu transaksi untuk peminjaman, stok dan riwayat
func (m *Manager) RecordUsage(ctx context.Context, itemID int64, qty int, date time.Time, unit string) (*UsageRecord, error) {
	if err := ValidateQuantity(qty); err != nil {
		return nil, err
	}
	if err := ValidateConsumingUnit(unit); err != nil {
		return nil, err
	}

	var rec *UsageRecord
	err := m.storage.InTx(ctx, func(tx Tx) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}

		if qty > item.Stock {
			return fmt.Errorf("%w. Stok tersedia: %d", ErrInsufficientStock, item.Stock)
		}

		ok, err := tx.DecrementStock(ctx, itemID, qty)
		if err != nil {
			return NewStorageError("decrement_stock", "gagal mengurangi stok", err)
		}
		if !ok {
			return fmt.Errorf("%w. Stok tersedia: %d", ErrInsufficientStock, item.Stock)
		}

		id := itemID
		rec = &UsageRecord{
			ItemID:        &id,
			ItemName:      item.Name,
			Quantity:      qty,
			UsageDate:     date,
			Unit:          unit,
			UnitOfMeasure: item.Unit,
			Warehouse:     item.Warehouse,
			CreatedAt:     time.Now(),
		}
		recID, err := tx.InsertUsage(ctx, rec)
		if err != nil {
			return NewStorageError("insert_usage", "gagal menyimpan peminjaman", err)
		}
		rec.ID = recID

		entry := &StockHistoryEntry{
			ItemID:      itemID,
			ItemName:    item.Name,
			Delta:       -qty,
			StockBefore: item.Stock,
			StockAfter:  item.Stock - qty,
			Warehouse:   item.Warehouse,
			HappenedAt:  date,
		}
		if _, err := tx.InsertHistory(ctx, entry); err != nil {
			return NewStorageError("insert_history", "gagal menyimpan riwayat stok", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("peminjaman dicatat",
		zap.Int64("barang_id", itemID),
		zap.Int("jumlah", qty),
		zap.String("unit", unit),
	)

	m.afterWrite(ctx)
	return rec, nil
}

// BackfillUsage applies one usage-in transaction from spreadsheet
// ingestion. The usage row is always inserted with no item linkage by id,
// name only. Separately the item is looked up by case-insensitive name
// across warehouses; when found its stock is decremented clamped to zero
// with one history entry, when not found the usage row still lands and no
// stock changes. Looser than RecordUsage on purpose: bulk historical
// backfill must not abort on a data mismatch.
// Mengisi peminjaman historis dari impor, stok dikurangi sampai batas nol
func (m *Manager) BackfillUsage(ctx context.Context, name string, qty int, date time.Time, unit string) error {
	if err := ValidateItemName(name); err != nil {
		return err
	}
	if err := ValidateQuantity(qty); err != nil {
		return err
	}

	var matched bool
	err := m.storage.InTx(ctx, func(tx Tx) error {
		item, err := tx.FindItemByName(ctx, name)
		if err != nil && err != ErrItemNotFound {
			return NewStorageError("find_item", "gagal mencari barang", err)
		}

		unitOfMeasure := m.config.FallbackUnit
		if item != nil {
			unitOfMeasure = item.Unit
		}

		rec := &UsageRecord{
			ItemID:        nil,
			ItemName:      name,
			Quantity:      qty,
			UsageDate:     date,
			Unit:          unit,
			UnitOfMeasure: unitOfMeasure,
			Warehouse:     m.config.DefaultWarehouse,
			CreatedAt:     time.Now(),
		}
		if _, err := tx.InsertUsage(ctx, rec); err != nil {
			return NewStorageError("insert_usage", "gagal menyimpan peminjaman", err)
		}

		if item == nil {
			return nil
		}
		matched = true

		before := item.Stock
		after := before - qty
		if after < 0 {
			after = 0
		}
		if err := tx.SetStock(ctx, item.ID, after); err != nil {
			return NewStorageError("set_stock", "gagal memperbarui stok", err)
		}

		entry := &StockHistoryEntry{
			ItemID:      item.ID,
			ItemName:    item.Name,
			Delta:       after - before,
			StockBefore: before,
			StockAfter:  after,
			Warehouse:   item.Warehouse,
			HappenedAt:  date,
		}
		if _, err := tx.InsertHistory(ctx, entry); err != nil {
			return NewStorageError("insert_history", "gagal menyimpan riwayat stok", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("peminjaman historis dicatat",
		zap.String("nama_barang", name),
		zap.Int("jumlah", qty),
		zap.String("unit", unit),
		zap.Bool("barang_cocok", matched),
	)

	m.afterWrite(ctx)
	return nil
}

// DeleteUsage removes one usage record as an operator correction. The
// stock decrement that happened at creation time is NOT reversed.
// Menghapus peminjaman tanpa mengembalikan stok
func (m *Manager) DeleteUsage(ctx context.Context, usageID int64) error {
	if err := m.storage.DeleteUsage(ctx, usageID); err != nil {
		return err
	}

	m.logger.Warn("peminjaman dihapus, stok tidak dikembalikan",
		zap.Int64("peminjaman_id", usageID),
	)

	m.afterWrite(ctx)
	return nil
}

// ListUsage returns usage records filtered by an optional consuming unit
// and an optional date range
// Daftar peminjaman dengan filter unit dan rentang tanggal
func (m *Manager) ListUsage(ctx context.Context, unit string, from, to time.Time) ([]UsageRecord, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, NewValidationError("rentang_tanggal", "tanggal awal melewati tanggal akhir",
			from.Format(CanonicalDateLayout)+" > "+to.Format(CanonicalDateLayout))
	}
	return m.storage.ListUsage(ctx, unit, from, to)
}

// UsageReport aggregates usage per consuming unit per calendar bucket
// Laporan pemakaian per unit per periode
func (m *Manager) UsageReport(ctx context.Context, period ReportPeriod, from, to time.Time) ([]UsageReportRow, error) {
	records, err := m.ListUsage(ctx, "", from, to)
	if err != nil {
		return nil, err
	}

	type key struct {
		unit   string
		bucket string
	}
	totals := make(map[key]*UsageReportRow)
	var order []key

	for _, rec := range records {
		k := key{unit: rec.Unit, bucket: periodBucket(period, rec.UsageDate)}
		row, ok := totals[k]
		if !ok {
			row = &UsageReportRow{Unit: k.unit, Period: k.bucket}
			totals[k] = row
			order = append(order, k)
		}
		row.Total += rec.Quantity
		row.Count++
	}

	rows := make([]UsageReportRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, *totals[k])
	}
	return rows, nil
}

// periodBucket formats one usage date into its report bucket label
// Label periode untuk satu tanggal
func periodBucket(period ReportPeriod, t time.Time) string {
	switch period {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format(CanonicalDateLayout)
	}
}
