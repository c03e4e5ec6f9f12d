// Package storage provides the persistence backends for the ledger.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/danuwid/gudang/pkg/ledger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS barang (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nama_barang TEXT NOT NULL,
	stok INTEGER NOT NULL DEFAULT 0,
	besaran_stok TEXT NOT NULL DEFAULT 'pcs',
	gudang TEXT NOT NULL DEFAULT 'Gudang 1',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS peminjaman (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	barang_id INTEGER,
	nama_barang TEXT NOT NULL,
	jumlah_pinjam INTEGER NOT NULL,
	tanggal_pinjam DATE NOT NULL,
	unit TEXT NOT NULL DEFAULT '',
	besaran_stok TEXT NOT NULL DEFAULT '',
	gudang TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (barang_id) REFERENCES barang(id)
);

CREATE TABLE IF NOT EXISTS riwayat_stok (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	barang_id INTEGER NOT NULL,
	nama_barang TEXT NOT NULL,
	jumlah_tambah INTEGER NOT NULL,
	stok_sebelum INTEGER NOT NULL,
	stok_sesudah INTEGER NOT NULL,
	gudang TEXT NOT NULL DEFAULT '',
	tanggal_tambah TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS hpp (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	unit TEXT NOT NULL,
	tanggal TEXT NOT NULL,
	material TEXT NOT NULL,
	harga REAL NOT NULL,
	keterangan TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_riwayat_barang ON riwayat_stok(barang_id, tanggal_tambah);
CREATE INDEX IF NOT EXISTS idx_peminjaman_barang ON peminjaman(barang_id);
CREATE INDEX IF NOT EXISTS idx_hpp_unit ON hpp(unit);
`

// SQLiteStorage implements the Storage interface on an embedded SQLite
// file. The file is the artifact the sync hook uploads after writes.
// Implementasi Storage dengan berkas SQLite tertanam
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

var _ ledger.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (creating if needed) the database at path and
// applies the schema. SQLite allows a single writer, so the pool is kept
// at one connection.
// Membuka basis data SQLite dan menerapkan skema
func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLiteStorage, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("gagal membuka basis data: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("gagal terhubung ke basis data: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("gagal menerapkan skema: %w", err)
	}

	return &SQLiteStorage{db: db, path: path, logger: logger}, nil
}

// Path returns the database file location
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Ping checks database connectivity
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// InTx runs fn inside one transaction, rolling back on any error
// Menjalankan fn di dalam satu transaksi
func (s *SQLiteStorage) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("gagal memulai transaksi: %w", err)
	}

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback gagal", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("gagal commit transaksi: %w", err)
	}
	return nil
}

const itemColumns = "id, nama_barang, stok, besaran_stok, gudang, created_at"

func scanItem(row *sql.Row) (*ledger.Item, error) {
	item := &ledger.Item{}
	err := row.Scan(&item.ID, &item.Name, &item.Stock, &item.Unit, &item.Warehouse, &item.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrItemNotFound
		}
		return nil, fmt.Errorf("gagal membaca barang: %w", err)
	}
	return item, nil
}

// GetItem retrieves an item by id
func (s *SQLiteStorage) GetItem(ctx context.Context, itemID int64) (*ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang WHERE id = ?"
	return scanItem(s.db.QueryRowContext(ctx, query, itemID))
}

// ListItems retrieves items filtered by an optional case-insensitive name
// search and an optional warehouse, ordered by name
func (s *SQLiteStorage) ListItems(ctx context.Context, search, warehouse string) ([]ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang"
	var conds []string
	var args []interface{}
	if search != "" {
		conds = append(conds, "LOWER(nama_barang) LIKE '%' || LOWER(?) || '%'")
		args = append(args, search)
	}
	if warehouse != "" {
		conds = append(conds, "gudang = ?")
		args = append(args, warehouse)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY nama_barang"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil daftar barang: %w", err)
	}
	defer rows.Close()

	var items []ledger.Item
	for rows.Next() {
		var item ledger.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Stock, &item.Unit, &item.Warehouse, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("gagal membaca barang: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const historyColumns = "id, barang_id, nama_barang, jumlah_tambah, stok_sebelum, stok_sesudah, gudang, tanggal_tambah"

func collectHistory(rows *sql.Rows) ([]ledger.StockHistoryEntry, error) {
	defer rows.Close()
	var entries []ledger.StockHistoryEntry
	for rows.Next() {
		var e ledger.StockHistoryEntry
		err := rows.Scan(&e.ID, &e.ItemID, &e.ItemName, &e.Delta, &e.StockBefore, &e.StockAfter, &e.Warehouse, &e.HappenedAt)
		if err != nil {
			return nil, fmt.Errorf("gagal membaca riwayat stok: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListHistory retrieves the newest history entries for an item
func (s *SQLiteStorage) ListHistory(ctx context.Context, itemID int64, limit int) ([]ledger.StockHistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM riwayat_stok WHERE barang_id = ? ORDER BY tanggal_tambah DESC, id DESC LIMIT ?"
	rows, err := s.db.QueryContext(ctx, query, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil riwayat stok: %w", err)
	}
	return collectHistory(rows)
}

// ListHistoryByDateRange retrieves history entries for an item within a
// date range, oldest first
func (s *SQLiteStorage) ListHistoryByDateRange(ctx context.Context, itemID int64, from, to time.Time) ([]ledger.StockHistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM riwayat_stok WHERE barang_id = ? AND tanggal_tambah >= ? AND tanggal_tambah <= ? ORDER BY tanggal_tambah, id"
	rows, err := s.db.QueryContext(ctx, query, itemID, from, to)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil riwayat stok: %w", err)
	}
	return collectHistory(rows)
}

// DeleteHistory removes one history entry
func (s *SQLiteStorage) DeleteHistory(ctx context.Context, entryID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM riwayat_stok WHERE id = ?", entryID)
	if err != nil {
		return fmt.Errorf("gagal menghapus riwayat stok: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gagal membaca jumlah baris: %w", err)
	}
	if n == 0 {
		return ledger.ErrHistoryNotFound
	}
	return nil
}

const usageColumns = "id, barang_id, nama_barang, jumlah_pinjam, tanggal_pinjam, unit, besaran_stok, gudang, created_at"

// ListUsage retrieves usage records filtered by an optional consuming unit
// and an optional date range, newest first
func (s *SQLiteStorage) ListUsage(ctx context.Context, unit string, from, to time.Time) ([]ledger.UsageRecord, error) {
	query := "SELECT " + usageColumns + " FROM peminjaman"
	var conds []string
	var args []interface{}
	if unit != "" {
		conds = append(conds, "unit = ?")
		args = append(args, unit)
	}
	if !from.IsZero() {
		conds = append(conds, "tanggal_pinjam >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		conds = append(conds, "tanggal_pinjam <= ?")
		args = append(args, to)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY tanggal_pinjam DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil daftar peminjaman: %w", err)
	}
	defer rows.Close()

	var records []ledger.UsageRecord
	for rows.Next() {
		var rec ledger.UsageRecord
		var itemID sql.NullInt64
		err := rows.Scan(&rec.ID, &itemID, &rec.ItemName, &rec.Quantity, &rec.UsageDate, &rec.Unit, &rec.UnitOfMeasure, &rec.Warehouse, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("gagal membaca peminjaman: %w", err)
		}
		if itemID.Valid {
			id := itemID.Int64
			rec.ItemID = &id
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteUsage removes one usage record
func (s *SQLiteStorage) DeleteUsage(ctx context.Context, usageID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM peminjaman WHERE id = ?", usageID)
	if err != nil {
		return fmt.Errorf("gagal menghapus peminjaman: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gagal membaca jumlah baris: %w", err)
	}
	if n == 0 {
		return ledger.ErrUsageNotFound
	}
	return nil
}

const costColumns = "id, unit, tanggal, material, harga, keterangan, created_at"

// ListCostEntries retrieves cost entries, optionally for one unit
func (s *SQLiteStorage) ListCostEntries(ctx context.Context, unit string) ([]ledger.CostEntry, error) {
	query := "SELECT " + costColumns + " FROM hpp"
	var args []interface{}
	if unit != "" {
		query += " WHERE unit = ?"
		args = append(args, unit)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil data HPP: %w", err)
	}
	defer rows.Close()

	var entries []ledger.CostEntry
	for rows.Next() {
		var e ledger.CostEntry
		if err := rows.Scan(&e.ID, &e.Unit, &e.Date, &e.Material, &e.Price, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("gagal membaca data HPP: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteCostEntry removes one cost entry
func (s *SQLiteStorage) DeleteCostEntry(ctx context.Context, entryID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM hpp WHERE id = ?", entryID)
	if err != nil {
		return fmt.Errorf("gagal menghapus data HPP: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gagal membaca jumlah baris: %w", err)
	}
	if n == 0 {
		return ledger.ErrCostEntryNotFound
	}
	return nil
}

// sqliteTx implements ledger.Tx over one sql.Tx
// Implementasi ledger.Tx di atas satu sql.Tx
type sqliteTx struct {
	tx *sql.Tx
}

var _ ledger.Tx = (*sqliteTx)(nil)

func (t *sqliteTx) GetItem(ctx context.Context, itemID int64) (*ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang WHERE id = ?"
	return scanItem(t.tx.QueryRowContext(ctx, query, itemID))
}

func (t *sqliteTx) FindItem(ctx context.Context, name, warehouse string) (*ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang WHERE LOWER(nama_barang) = LOWER(?) AND LOWER(gudang) = LOWER(?) LIMIT 1"
	return scanItem(t.tx.QueryRowContext(ctx, query, name, warehouse))
}

func (t *sqliteTx) FindItemByName(ctx context.Context, name string) (*ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang WHERE LOWER(nama_barang) = LOWER(?) LIMIT 1"
	return scanItem(t.tx.QueryRowContext(ctx, query, name))
}

func (t *sqliteTx) InsertItem(ctx context.Context, item *ledger.Item) (int64, error) {
	result, err := t.tx.ExecContext(ctx,
		"INSERT INTO barang (nama_barang, stok, besaran_stok, gudang, created_at) VALUES (?, ?, ?, ?, ?)",
		item.Name, item.Stock, item.Unit, item.Warehouse, item.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("gagal menyimpan barang: %w", err)
	}
	return result.LastInsertId()
}

func (t *sqliteTx) SetStock(ctx context.Context, itemID int64, stock int) error {
	result, err := t.tx.ExecContext(ctx, "UPDATE barang SET stok = ? WHERE id = ?", stock, itemID)
	if err != nil {
		return fmt.Errorf("gagal memperbarui stok: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gagal membaca jumlah baris: %w", err)
	}
	if n == 0 {
		return ledger.ErrItemNotFound
	}
	return nil
}

func (t *sqliteTx) SetStockAndUnit(ctx context.Context, itemID int64, stock int, unit string) error {
	result, err := t.tx.ExecContext(ctx, "UPDATE barang SET stok = ?, besaran_stok = ? WHERE id = ?", stock, unit, itemID)
	if err != nil {
		return fmt.Errorf("gagal memperbarui stok: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gagal membaca jumlah baris: %w", err)
	}
	if n == 0 {
		return ledger.ErrItemNotFound
	}
	return nil
}

func (t *sqliteTx) DecrementStock(ctx context.Context, itemID int64, amount int) (bool, error) {
	result, err := t.tx.ExecContext(ctx,
		"UPDATE barang SET stok = stok - ? WHERE id = ? AND stok >= ?",
		amount, itemID, amount,
	)
	if err != nil {
		return false, fmt.Errorf("gagal mengurangi stok: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("gagal membaca jumlah baris: %w", err)
	}
	return n > 0, nil
}

func (t *sqliteTx) CountUsageForItem(ctx context.Context, itemID int64) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM peminjaman WHERE barang_id = ?", itemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("gagal menghitung peminjaman: %w", err)
	}
	return n, nil
}

func (t *sqliteTx) DeleteItem(ctx context.Context, itemID int64) error {
	result, err := t.tx.ExecContext(ctx, "DELETE FROM barang WHERE id = ?", itemID)
	if err != nil {
		return fmt.Errorf("gagal menghapus barang: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gagal membaca jumlah baris: %w", err)
	}
	if n == 0 {
		return ledger.ErrItemNotFound
	}
	return nil
}

func (t *sqliteTx) InsertHistory(ctx context.Context, entry *ledger.StockHistoryEntry) (int64, error) {
	result, err := t.tx.ExecContext(ctx,
		"INSERT INTO riwayat_stok (barang_id, nama_barang, jumlah_tambah, stok_sebelum, stok_sesudah, gudang, tanggal_tambah) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.ItemID, entry.ItemName, entry.Delta, entry.StockBefore, entry.StockAfter, entry.Warehouse, entry.HappenedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("gagal menyimpan riwayat stok: %w", err)
	}
	return result.LastInsertId()
}

func (t *sqliteTx) InsertUsage(ctx context.Context, rec *ledger.UsageRecord) (int64, error) {
	result, err := t.tx.ExecContext(ctx,
		"INSERT INTO peminjaman (barang_id, nama_barang, jumlah_pinjam, tanggal_pinjam, unit, besaran_stok, gudang, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ItemID, rec.ItemName, rec.Quantity, rec.UsageDate, rec.Unit, rec.UnitOfMeasure, rec.Warehouse, rec.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("gagal menyimpan peminjaman: %w", err)
	}
	return result.LastInsertId()
}

func (t *sqliteTx) InsertCostEntry(ctx context.Context, entry *ledger.CostEntry) (int64, error) {
	result, err := t.tx.ExecContext(ctx,
		"INSERT INTO hpp (unit, tanggal, material, harga, keterangan, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		entry.Unit, entry.Date, entry.Material, entry.Price, entry.Note, entry.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("gagal menyimpan data HPP: %w", err)
	}
	return result.LastInsertId()
}
