package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Manager implements the StockLedger, UsageRecorder and CostLedger
// interfaces on top of a Storage.
// Implementasi buku stok, peminjaman dan HPP
type Manager struct {
	storage Storage     // lapisan penyimpanan
	logger  *zap.Logger // log
	config  *Config     // konfigurasi
	hooks   []SyncHook  // hook sinkronisasi pasca-tulis
}

// semua antarmuka diimplementasikan oleh Manager
var (
	_ StockLedger   = (*Manager)(nil)
	_ UsageRecorder = (*Manager)(nil)
	_ CostLedger    = (*Manager)(nil)
)

// Config holds configuration for the ledger manager
// Konfigurasi buku stok
type Config struct {
	DefaultWarehouse  string `yaml:"default_warehouse"`   // gudang bawaan
	FallbackUnit      string `yaml:"fallback_unit"`       // satuan stok bawaan
	LowStockThreshold int    `yaml:"low_stock_threshold"` // ambang stok menipis
	RestockFloor      int    `yaml:"restock_floor"`       // saran pembelian minimum
	RestockFactor     int    `yaml:"restock_factor"`      // pengali saran pembelian
}

// NewManager creates a new ledger manager
// Membuat manajer buku stok baru
func NewManager(storage Storage, logger *zap.Logger, config *Config) *Manager {
	if config == nil {
		config = &Config{
			DefaultWarehouse:  "Gudang 1",
			FallbackUnit:      "pcs",
			LowStockThreshold: 20,
			RestockFloor:      50,
			RestockFactor:     3,
		}
	}

	return &Manager{
		storage: storage,
		logger:  logger,
		config:  config,
	}
}

// RegisterSyncHook adds a post-write hook fired after every successful
// mutation. Hook failures are logged and never propagated.
// Mendaftarkan hook sinkronisasi pasca-tulis
func (m *Manager) RegisterSyncHook(hook SyncHook) {
	m.hooks = append(m.hooks, hook)
}

// afterWrite fires the registered sync hooks. Failures are warnings only.
// Menjalankan hook sinkronisasi, kegagalan hanya dicatat
func (m *Manager) afterWrite(ctx context.Context) {
	path := m.storage.Path()
	for _, hook := range m.hooks {
		if err := hook.AfterWrite(ctx, path); err != nil {
			m.logger.Warn("sinkronisasi cadangan gagal",
				zap.String("path", path),
				zap.Error(NewSyncError(path, err)),
			)
		}
	}
}

// CreateItem inserts a new item. When initialStock is positive a bootstrap
// history entry (before=0, after=initialStock) is appended in the same
// transaction.
// Membuat barang baru beserta riwayat stok awal
func (m *Manager) CreateItem(ctx context.Context, name string, initialStock int, unit, warehouse string, date time.Time) (*Item, error) {
	if err := ValidateItemName(name); err != nil {
		return nil, err
	}
	if err := ValidateInitialStock(initialStock); err != nil {
		return nil, err
	}
	if warehouse == "" {
		warehouse = m.config.DefaultWarehouse
	}
	if err := ValidateWarehouse(warehouse); err != nil {
		return nil, err
	}
	if unit == "" {
		unit = m.config.FallbackUnit
	}
	if err := ValidateUnitOfMeasure(unit); err != nil {
		return nil, err
	}

	item := &Item{
		Name:      name,
		Stock:     initialStock,
		Unit:      unit,
		Warehouse: warehouse,
		CreatedAt: time.Now(),
	}

	err := m.storage.InTx(ctx, func(tx Tx) error {
		id, err := tx.InsertItem(ctx, item)
		if err != nil {
			return NewStorageError("insert_item", "gagal menyimpan barang", err)
		}
		item.ID = id

		if initialStock > 0 {
			entry := &StockHistoryEntry{
				ItemID:      id,
				ItemName:    name,
				Delta:       initialStock,
				StockBefore: 0,
				StockAfter:  initialStock,
				Warehouse:   warehouse,
				HappenedAt:  date,
			}
			if _, err := tx.InsertHistory(ctx, entry); err != nil {
				return NewStorageError("insert_history", "gagal menyimpan riwayat stok", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("barang dibuat",
		zap.Int64("barang_id", item.ID),
		zap.String("nama_barang", name),
		zap.Int("stok_awal", initialStock),
		zap.String("gudang", warehouse),
	)

	m.afterWrite(ctx)
	return item, nil
}

// IncreaseStock adds amount to the item's stock and appends one history
// entry with delta=+amount.
// Menambah stok barang dan mencatat riwayat
func (m *Manager) IncreaseStock(ctx context.Context, itemID int64, amount int, date time.Time) error {
	if err := ValidateQuantity(amount); err != nil {
		return err
	}

	var before, after int
	err := m.storage.InTx(ctx, func(tx Tx) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}

		before = item.Stock
		after = before + amount
		if err := tx.SetStock(ctx, itemID, after); err != nil {
			return NewStorageError("set_stock", "gagal memperbarui stok", err)
		}

		entry := &StockHistoryEntry{
			ItemID:      itemID,
			ItemName:    item.Name,
			Delta:       amount,
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

	m.logger.Info("stok bertambah",
		zap.Int64("barang_id", itemID),
		zap.Int("jumlah", amount),
		zap.Int("stok_sebelum", before),
		zap.Int("stok_sesudah", after),
	)

	m.afterWrite(ctx)
	return nil
}

// DecreaseStock subtracts amount from the item's stock. StrictDecrement
// rejects the whole operation with ErrInsufficientStock when amount
// exceeds the current balance; ClampedDecrement floors the result at zero
// and records the actual delta.
// Mengurangi stok sesuai kebijakan yang dipilih
func (m *Manager) DecreaseStock(ctx context.Context, itemID int64, amount int, date time.Time, policy DecrementPolicy) error {
	if err := ValidateQuantity(amount); err != nil {
		return err
	}

	var before, after int
	err := m.storage.InTx(ctx, func(tx Tx) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		before = item.Stock

		switch policy {
		case ClampedDecrement:
			after = before - amount
			if after < 0 {
				after = 0
			}
			if err := tx.SetStock(ctx, itemID, after); err != nil {
				return NewStorageError("set_stock", "gagal memperbarui stok", err)
			}
		default:
			ok, err := tx.DecrementStock(ctx, itemID, amount)
			if err != nil {
				return NewStorageError("decrement_stock", "gagal mengurangi stok", err)
			}
			if !ok {
				return ErrInsufficientStock
			}
			after = before - amount
		}

		entry := &StockHistoryEntry{
			ItemID:      itemID,
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

	m.logger.Info("stok berkurang",
		zap.Int64("barang_id", itemID),
		zap.Int("jumlah", amount),
		zap.Int("stok_sebelum", before),
		zap.Int("stok_sesudah", after),
		zap.String("kebijakan", string(policy)),
	)

	m.afterWrite(ctx)
	return nil
}

// ReceiveStock applies one stock-in transaction from spreadsheet ingestion:
// an upsert by case-insensitive (name, warehouse). An existing item gains
// qty and has its unit label refreshed; a missing item is created with qty
// as initial stock. Either way exactly one history entry is appended.
// Unlike IncreaseStock this path is allowed to create items silently.
// Menerima stok masuk dari impor spreadsheet (upsert)
func (m *Manager) ReceiveStock(ctx context.Context, name, unit, warehouse string, qty int, date time.Time) (bool, error) {
	if err := ValidateItemName(name); err != nil {
		return false, err
	}
	if err := ValidateQuantity(qty); err != nil {
		return false, err
	}
	if warehouse == "" {
		warehouse = m.config.DefaultWarehouse
	}
	if unit == "" {
		unit = m.config.FallbackUnit
	}

	var created bool
	err := m.storage.InTx(ctx, func(tx Tx) error {
		item, err := tx.FindItem(ctx, name, warehouse)
		if err != nil && err != ErrItemNotFound {
			return NewStorageError("find_item", "gagal mencari barang", err)
		}

		if item == nil {
			created = true
			item = &Item{
				Name:      name,
				Stock:     qty,
				Unit:      unit,
				Warehouse: warehouse,
				CreatedAt: time.Now(),
			}
			id, err := tx.InsertItem(ctx, item)
			if err != nil {
				return NewStorageError("insert_item", "gagal menyimpan barang", err)
			}
			item.ID = id

			entry := &StockHistoryEntry{
				ItemID:      id,
				ItemName:    name,
				Delta:       qty,
				StockBefore: 0,
				StockAfter:  qty,
				Warehouse:   warehouse,
				HappenedAt:  date,
			}
			_, err = tx.InsertHistory(ctx, entry)
			if err != nil {
				return NewStorageError("insert_history", "gagal menyimpan riwayat stok", err)
			}
			return nil
		}

		before := item.Stock
		after := before + qty
		if err := tx.SetStockAndUnit(ctx, item.ID, after, unit); err != nil {
			return NewStorageError("set_stock", "gagal memperbarui stok", err)
		}

		entry := &StockHistoryEntry{
			ItemID:      item.ID,
			ItemName:    item.Name,
			Delta:       qty,
			StockBefore: before,
			StockAfter:  after,
			Warehouse:   item.Warehouse,
			HappenedAt:  date,
		}
		_, err = tx.InsertHistory(ctx, entry)
		if err != nil {
			return NewStorageError("insert_history", "gagal menyimpan riwayat stok", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	m.logger.Info("stok masuk diterima",
		zap.String("nama_barang", name),
		zap.Int("jumlah", qty),
		zap.String("gudang", warehouse),
		zap.Bool("barang_baru", created),
	)

	m.afterWrite(ctx)
	return created, nil
}

// DeleteItem removes an item. Fails with ErrHasDependents while any usage
// record references it. History entries for the item remain as orphaned
// references; they are not reconciled.
// Menghapus barang jika tidak lagi dirujuk peminjaman
func (m *Manager) DeleteItem(ctx context.Context, itemID int64) error {
	err := m.storage.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetItem(ctx, itemID); err != nil {
			return err
		}

		n, err := tx.CountUsageForItem(ctx, itemID)
		if err != nil {
			return NewStorageError("count_usage", "gagal memeriksa peminjaman", err)
		}
		if n > 0 {
			return ErrHasDependents
		}

		if err := tx.DeleteItem(ctx, itemID); err != nil {
			return NewStorageError("delete_item", "gagal menghapus barang", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("barang dihapus", zap.Int64("barang_id", itemID))

	m.afterWrite(ctx)
	return nil
}

// DeleteHistoryEntry removes one history row as an operator correction.
// It never replays or adjusts the item's current stock, so the replay
// invariant is deliberately broken for that item afterwards.
// Menghapus satu baris riwayat tanpa menyentuh stok berjalan
func (m *Manager) DeleteHistoryEntry(ctx context.Context, entryID int64) error {
	if err := m.storage.DeleteHistory(ctx, entryID); err != nil {
		return err
	}

	m.logger.Warn("riwayat stok dihapus, stok berjalan tidak disesuaikan",
		zap.Int64("riwayat_id", entryID),
	)

	m.afterWrite(ctx)
	return nil
}

// GetItem returns one item by id
// Mengambil satu barang berdasarkan ID
func (m *Manager) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	return m.storage.GetItem(ctx, itemID)
}

// ListItems returns items filtered by an optional case-insensitive name
// search and an optional warehouse
// Daftar barang dengan filter pencarian dan gudang
func (m *Manager) ListItems(ctx context.Context, search, warehouse string) ([]Item, error) {
	return m.storage.ListItems(ctx, search, warehouse)
}

// History returns the newest history entries for an item
// Riwayat stok terbaru untuk satu barang
func (m *Manager) History(ctx context.Context, itemID int64, limit int) ([]StockHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return m.storage.ListHistory(ctx, itemID, limit)
}

// HistoryByDateRange returns history entries for an item within a range
// Riwayat stok dalam rentang tanggal
func (m *Manager) HistoryByDateRange(ctx context.Context, itemID int64, from, to time.Time) ([]StockHistoryEntry, error) {
	if from.After(to) {
		return nil, NewValidationError("rentang_tanggal", "tanggal awal melewati tanggal akhir",
			from.Format(CanonicalDateLayout)+" > "+to.Format(CanonicalDateLayout))
	}
	return m.storage.ListHistoryByDateRange(ctx, itemID, from, to)
}

// LowStockItems returns items at or below the threshold, each with a
// restock suggestion of max(RestockFloor, stock*RestockFactor).
// Barang dengan stok menipis beserta saran pembelian
func (m *Manager) LowStockItems(ctx context.Context, threshold int) ([]LowStockItem, error) {
	if threshold <= 0 {
		threshold = m.config.LowStockThreshold
	}

	items, err := m.storage.ListItems(ctx, "", "")
	if err != nil {
		return nil, err
	}

	var low []LowStockItem
	for _, item := range items {
		if item.Stock > threshold {
			continue
		}
		suggestion := item.Stock * m.config.RestockFactor
		if suggestion < m.config.RestockFloor {
			suggestion = m.config.RestockFloor
		}
		low = append(low, LowStockItem{
			Item:              item,
			Threshold:         threshold,
			RestockSuggestion: suggestion,
		})
	}
	return low, nil
}
