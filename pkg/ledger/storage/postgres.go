package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/danuwid/gudang/pkg/ledger"
)

// PostgreSQLStorage implements the Storage interface using PostgreSQL.
// There is no local database file, so Path reports empty and the backup
// sync hook has nothing to upload.
// Implementasi Storage menggunakan PostgreSQL
type PostgreSQLStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ledger.Storage = (*PostgreSQLStorage)(nil)

// NewPostgreSQLStorage creates a new PostgreSQL storage instance
// Membuat instans penyimpanan PostgreSQL baru
func NewPostgreSQLStorage(dsn string, logger *zap.Logger) (*PostgreSQLStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("gagal membuka basis data: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("gagal terhubung ke basis data: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgreSQLStorage{db: db, logger: logger}, nil
}

// Path returns empty: PostgreSQL has no local file artifact
func (s *PostgreSQLStorage) Path() string {
	return ""
}

// Ping checks database connectivity
func (s *PostgreSQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgreSQLStorage) Close() error {
	return s.db.Close()
}

// InTx runs fn inside one transaction, rolling back on any error
// Menjalankan fn di dalam satu transaksi
func (s *PostgreSQLStorage) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("gagal memulai transaksi: %w", err)
	}

	if err := fn(&postgresTx{tx: tx}); err != nil {
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

func scanItemPg(row *sql.Row) (*ledger.Item, error) {
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
func (s *PostgreSQLStorage) GetItem(ctx context.Context, itemID int64) (*ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang WHERE id = $1"
	return scanItemPg(s.db.QueryRowContext(ctx, query, itemID))
}

// ListItems retrieves items filtered by an optional case-insensitive name
// search and an optional warehouse, ordered by name
func (s *PostgreSQLStorage) ListItems(ctx context.Context, search, warehouse string) ([]ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang"
	var conds []string
	var args []interface{}
	if search != "" {
		args = append(args, "%"+search+"%")
		conds = append(conds, fmt.Sprintf("nama_barang ILIKE $%d", len(args)))
	}
	if warehouse != "" {
		args = append(args, warehouse)
		conds = append(conds, fmt.Sprintf("gudang = $%d", len(args)))
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

// ListHistory retrieves the newest history entries for an item
func (s *PostgreSQLStorage) ListHistory(ctx context.Context, itemID int64, limit int) ([]ledger.StockHistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM riwayat_stok WHERE barang_id = $1 ORDER BY tanggal_tambah DESC, id DESC LIMIT $2"
	rows, err := s.db.QueryContext(ctx, query, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil riwayat stok: %w", err)
	}
	return collectHistory(rows)
}

// ListHistoryByDateRange retrieves history entries for an item within a
// date range, oldest first
func (s *PostgreSQLStorage) ListHistoryByDateRange(ctx context.Context, itemID int64, from, to time.Time) ([]ledger.StockHistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM riwayat_stok WHERE barang_id = $1 AND tanggal_tambah >= $2 AND tanggal_tambah <= $3 ORDER BY tanggal_tambah, id"
	rows, err := s.db.QueryContext(ctx, query, itemID, from, to)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil riwayat stok: %w", err)
	}
	return collectHistory(rows)
}

// DeleteHistory removes one history entry
func (s *PostgreSQLStorage) DeleteHistory(ctx context.Context, entryID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM riwayat_stok WHERE id = $1", entryID)
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

// ListUsage retrieves usage records filtered by an optional consuming unit
// and an optional date range, newest first
func (s *PostgreSQLStorage) ListUsage(ctx context.Context, unit string, from, to time.Time) ([]ledger.UsageRecord, error) {
	query := "SELECT " + usageColumns + " FROM peminjaman"
	var conds []string
	var args []interface{}
	if unit != "" {
		args = append(args, unit)
		conds = append(conds, fmt.Sprintf("unit = $%d", len(args)))
	}
	if !from.IsZero() {
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("tanggal_pinjam >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		conds = append(conds, fmt.Sprintf("tanggal_pinjam <= $%d", len(args)))
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
func (s *PostgreSQLStorage) DeleteUsage(ctx context.Context, usageID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM peminjaman WHERE id = $1", usageID)
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

// ListCostEntries retrieves cost entries, optionally for one unit
func (s *PostgreSQLStorage) ListCostEntries(ctx context.Context, unit string) ([]ledger.CostEntry, error) {
	query := "SELECT " + costColumns + " FROM hpp"
	var args []interface{}
	if unit != "" {
		query += " WHERE unit = $1"
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
func (s *PostgreSQLStorage) DeleteCostEntry(ctx context.Context, entryID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM hpp WHERE id = $1", entryID)
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

// postgresTx implements ledger.Tx over one sql.Tx
// Implementasi ledger.Tx di atas satu sql.Tx
type postgresTx struct {
	tx *sql.Tx
}

var _ ledger.Tx = (*postgresTx)(nil)

func (t *postgresTx) GetItem(ctx context.Context, itemID int64) (*ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang WHERE id = $1"
	return scanItemPg(t.tx.QueryRowContext(ctx, query, itemID))
}

func (t *postgresTx) FindItem(ctx context.Context, name, warehouse string) (*ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang WHERE LOWER(nama_barang) = LOWER($1) AND LOWER(gudang) = LOWER($2) LIMIT 1"
	return scanItemPg(t.tx.QueryRowContext(ctx, query, name, warehouse))
}

func (t *postgresTx) FindItemByName(ctx context.Context, name string) (*ledger.Item, error) {
	query := "SELECT " + itemColumns + " FROM barang WHERE LOWER(nama_barang) = LOWER($1) LIMIT 1"
	return scanItemPg(t.tx.QueryRowContext(ctx, query, name))
}

func (t *postgresTx) InsertItem(ctx context.Context, item *ledger.Item) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		"INSERT INTO barang (nama_barang, stok, besaran_stok, gudang, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		item.Name, item.Stock, item.Unit, item.Warehouse, item.CreatedAt,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, fmt.Errorf("barang sudah ada: %w", err)
		}
		return 0, fmt.Errorf("gagal menyimpan barang: %w", err)
	}
	return id, nil
}

func (t *postgresTx) SetStock(ctx context.Context, itemID int64, stock int) error {
	result, err := t.tx.ExecContext(ctx, "UPDATE barang SET stok = $1 WHERE id = $2", stock, itemID)
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

func (t *postgresTx) SetStockAndUnit(ctx context.Context, itemID int64, stock int, unit string) error {
	result, err := t.tx.ExecContext(ctx, "UPDATE barang SET stok = $1, besaran_stok = $2 WHERE id = $3", stock, unit, itemID)
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

func (t *postgresTx) DecrementStock(ctx context.Context, itemID int64, amount int) (bool, error) {
	result, err := t.tx.ExecContext(ctx,
		"UPDATE barang SET stok = stok - $1 WHERE id = $2 AND stok >= $1",
		amount, itemID,
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

func (t *postgresTx) CountUsageForItem(ctx context.Context, itemID int64) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM peminjaman WHERE barang_id = $1", itemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("gagal menghitung peminjaman: %w", err)
	}
	return n, nil
}

func (t *postgresTx) DeleteItem(ctx context.Context, itemID int64) error {
	result, err := t.tx.ExecContext(ctx, "DELETE FROM barang WHERE id = $1", itemID)
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

func (t *postgresTx) InsertHistory(ctx context.Context, entry *ledger.StockHistoryEntry) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		"INSERT INTO riwayat_stok (barang_id, nama_barang, jumlah_tambah, stok_sebelum, stok_sesudah, gudang, tanggal_tambah) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		entry.ItemID, entry.ItemName, entry.Delta, entry.StockBefore, entry.StockAfter, entry.Warehouse, entry.HappenedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("gagal menyimpan riwayat stok: %w", err)
	}
	return id, nil
}

func (t *postgresTx) InsertUsage(ctx context.Context, rec *ledger.UsageRecord) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		"INSERT INTO peminjaman (barang_id, nama_barang, jumlah_pinjam, tanggal_pinjam, unit, besaran_stok, gudang, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id",
		rec.ItemID, rec.ItemName, rec.Quantity, rec.UsageDate, rec.Unit, rec.UnitOfMeasure, rec.Warehouse, rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("gagal menyimpan peminjaman: %w", err)
	}
	return id, nil
}

func (t *postgresTx) InsertCostEntry(ctx context.Context, entry *ledger.CostEntry) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		"INSERT INTO hpp (unit, tanggal, material, harga, keterangan, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		entry.Unit, entry.Date, entry.Material, entry.Price, entry.Note, entry.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("gagal menyimpan data HPP: %w", err)
	}
	return id, nil
}
