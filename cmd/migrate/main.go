package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/danuwid/gudang/internal/config"
	"github.com/danuwid/gudang/internal/drivesync"
	"github.com/danuwid/gudang/internal/logger"
	"github.com/danuwid/gudang/pkg/ledger"
	"github.com/danuwid/gudang/pkg/ledger/storage"
)

// postgresSchema mirrors the embedded SQLite schema for the PostgreSQL
// backend. SQLite applies its schema at open; PostgreSQL is prepared
// here once.
// Skema PostgreSQL, padanan skema SQLite bawaan
const postgresSchema = `
CREATE TABLE IF NOT EXISTS barang (
	id BIGSERIAL PRIMARY KEY,
	nama_barang TEXT NOT NULL,
	stok INTEGER NOT NULL DEFAULT 0,
	besaran_stok TEXT NOT NULL DEFAULT 'pcs',
	gudang TEXT NOT NULL DEFAULT 'Gudang 1',
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS peminjaman (
	id BIGSERIAL PRIMARY KEY,
	barang_id BIGINT REFERENCES barang(id),
	nama_barang TEXT NOT NULL,
	jumlah_pinjam INTEGER NOT NULL,
	tanggal_pinjam DATE NOT NULL,
	unit TEXT NOT NULL DEFAULT '',
	besaran_stok TEXT NOT NULL DEFAULT '',
	gudang TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS riwayat_stok (
	id BIGSERIAL PRIMARY KEY,
	barang_id BIGINT NOT NULL,
	nama_barang TEXT NOT NULL,
	jumlah_tambah INTEGER NOT NULL,
	stok_sebelum INTEGER NOT NULL,
	stok_sesudah INTEGER NOT NULL,
	gudang TEXT NOT NULL DEFAULT '',
	tanggal_tambah TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS hpp (
	id BIGSERIAL PRIMARY KEY,
	unit TEXT NOT NULL,
	tanggal TEXT NOT NULL,
	material TEXT NOT NULL,
	harga DOUBLE PRECISION NOT NULL,
	keterangan TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_riwayat_barang ON riwayat_stok(barang_id, tanggal_tambah);
CREATE INDEX IF NOT EXISTS idx_peminjaman_barang ON peminjaman(barang_id);
CREATE INDEX IF NOT EXISTS idx_hpp_unit ON hpp(unit);
`

// seedItem is one sample good inserted with -seed
type seedItem struct {
	name  string
	stock int
	unit  string
}

var seedItems = []seedItem{
	{"Semen", 100, "sak"},
	{"Pasir", 50, "m3"},
	{"Batu Bata", 5000, "buah"},
	{"Besi Beton", 200, "batang"},
	{"Cat Tembok", 30, "kaleng"},
}

func main() {
	seed := flag.Bool("seed", false, "isi barang contoh setelah skema siap")
	flag.Parse()

	log.Println("alat penyiapan skema gudang")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("konfigurasi gagal dimuat:", err)
	}

	zl := logger.Must(logger.New(cfg.Logging.Level, cfg.Logging.Format))
	defer zl.Sync()

	if cfg.Database.Driver == "postgres" {
		if err := preparePostgres(cfg); err != nil {
			log.Fatal("penyiapan skema postgres gagal:", err)
		}
	}

	// opening the SQLite backend applies its schema as a side effect
	store, err := openStorage(cfg, zl)
	if err != nil {
		log.Fatal("koneksi basis data gagal:", err)
	}
	defer store.Close()

	log.Printf("skema siap (driver: %s)", cfg.Database.Driver)

	if *seed {
		if err := seedSampleItems(cfg, store, zl); err != nil {
			log.Fatal("pengisian barang contoh gagal:", err)
		}
	}

	// satu unggahan cadangan agar berkas awal ikut tersinkron
	if cfg.Sync.Endpoint != "" {
		uploader := drivesync.New(cfg.Sync.Endpoint, cfg.Sync.Token, cfg.Sync.Timeout, zl)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Sync.Timeout)
		if err := uploader.AfterWrite(ctx, store.Path()); err != nil {
			log.Printf("unggahan cadangan awal gagal (tidak fatal): %v", err)
		}
		cancel()
	}

	log.Println("selesai")
}

func openStorage(cfg *config.Config, zl *zap.Logger) (ledger.Storage, error) {
	if cfg.Database.Driver == "postgres" {
		return storage.NewPostgreSQLStorage(cfg.DSN(), zl)
	}
	return storage.NewSQLiteStorage(cfg.Database.Path, zl)
}

// preparePostgres applies the schema with a plain connection before the
// storage layer attaches.
func preparePostgres(cfg *config.Config) error {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("koneksi postgres gagal: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping postgres gagal: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		return fmt.Errorf("eksekusi skema gagal: %w", err)
	}
	return nil
}

// seedSampleItems registers the sample goods through the manager so each
// one also gets its opening history entry. Items that already exist are
// skipped.
// Mengisi barang contoh lewat manager agar riwayat awal ikut tercatat
func seedSampleItems(cfg *config.Config, store ledger.Storage, zl *zap.Logger) error {
	manager := ledger.NewManager(store, zl, &ledger.Config{
		DefaultWarehouse:  cfg.Ledger.DefaultWarehouse,
		FallbackUnit:      cfg.Ledger.FallbackUnit,
		LowStockThreshold: cfg.Ledger.LowStockThreshold,
		RestockFloor:      cfg.Ledger.RestockFloor,
		RestockFactor:     cfg.Ledger.RestockFactor,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := manager.ListItems(ctx, "", "")
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, item := range existing {
		have[item.Name] = true
	}

	for _, s := range seedItems {
		if have[s.name] {
			log.Printf("lewati (sudah ada): %s", s.name)
			continue
		}
		if _, err := manager.CreateItem(ctx, s.name, s.stock, s.unit, cfg.Ledger.DefaultWarehouse, time.Now()); err != nil {
			var vErr *ledger.ValidationError
			if errors.As(err, &vErr) {
				log.Printf("lewati (%s): %s", s.name, vErr.Message)
				continue
			}
			return err
		}
		log.Printf("dibuat: %s (%d %s)", s.name, s.stock, s.unit)
	}
	return nil
}
