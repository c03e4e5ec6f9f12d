package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/danuwid/gudang/internal/auth"
	"github.com/danuwid/gudang/internal/config"
	"github.com/danuwid/gudang/internal/debounce"
	"github.com/danuwid/gudang/internal/drivesync"
	"github.com/danuwid/gudang/internal/logger"
	"github.com/danuwid/gudang/internal/metrics"
	"github.com/danuwid/gudang/pkg/ingest"
	"github.com/danuwid/gudang/pkg/ledger"
	"github.com/danuwid/gudang/pkg/ledger/storage"
)

// double submits from the same operator inside this window are rejected
const debounceWindow = 2 * time.Second

func main() {
	// konfigurasi
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "konfigurasi gagal dimuat:", err)
		os.Exit(1)
	}

	// log
	log := logger.Must(logger.New(cfg.Logging.Level, cfg.Logging.Format))
	defer log.Sync()

	// penyimpanan
	store, err := openStorage(cfg, log)
	if err != nil {
		log.Fatal("koneksi basis data gagal", zap.Error(err))
	}
	defer store.Close()

	// buku stok
	manager := ledger.NewManager(store, logger.Named(log, "ledger"), &ledger.Config{
		DefaultWarehouse:  cfg.Ledger.DefaultWarehouse,
		FallbackUnit:      cfg.Ledger.FallbackUnit,
		LowStockThreshold: cfg.Ledger.LowStockThreshold,
		RestockFloor:      cfg.Ledger.RestockFloor,
		RestockFactor:     cfg.Ledger.RestockFactor,
	})

	// hook unggahan cadangan pasca-tulis
	if cfg.Sync.Endpoint != "" {
		uploader := drivesync.New(cfg.Sync.Endpoint, cfg.Sync.Token, cfg.Sync.Timeout, logger.Named(log, "drivesync"))
		manager.RegisterSyncHook(uploader)
		log.Info("sinkronisasi cadangan aktif", zap.String("endpoint", cfg.Sync.Endpoint))
	}

	// daftar pengguna statis
	registry, err := auth.LoadRegistry(cfg.Auth.UsersFile)
	if err != nil {
		log.Fatal("daftar pengguna gagal dimuat", zap.Error(err), zap.String("file", cfg.Auth.UsersFile))
	}

	importer := ingest.NewImporter(manager, logger.Named(log, "ingest"))
	guard := debounce.NewGuard(debounceWindow)

	handlers := NewHandlers(manager, importer, guard, log)
	router := setupRouter(handlers, registry, cfg, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	go func() {
		log.Info("server API gudang dimulai",
			zap.Int("port", cfg.API.Port),
			zap.String("driver", cfg.Database.Driver),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server gagal dimulai", zap.Error(err))
		}
	}()

	// tunggu sinyal berhenti
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server dimatikan...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server gagal berhenti dengan rapi", zap.Error(err))
	}

	log.Info("server berhenti")
}

// openStorage picks the backend from configuration: the embedded SQLite
// file by default, PostgreSQL when configured.
// Membuka penyimpanan sesuai konfigurasi
func openStorage(cfg *config.Config, log *zap.Logger) (ledger.Storage, error) {
	storageLog := logger.Named(log, "storage")
	switch cfg.Database.Driver {
	case "postgres":
		return storage.NewPostgreSQLStorage(cfg.DSN(), storageLog)
	default:
		return storage.NewSQLiteStorage(cfg.Database.Path, storageLog)
	}
}

// setupRouter sets up HTTP routes
// Menyusun rute HTTP
func setupRouter(handlers *Handlers, registry *auth.Registry, cfg *config.Config, log *zap.Logger) *mux.Router {
	router := mux.NewRouter()

	// terbuka tanpa autentikasi
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	if cfg.API.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// rute API v1, semuanya di belakang autentikasi dasar
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Middleware(registry, logger.Named(log, "auth")))

	// barang
	api.HandleFunc("/items", handlers.CreateItem).Methods("POST")
	api.HandleFunc("/items", handlers.ListItems).Methods("GET")
	api.HandleFunc("/items/low-stock", handlers.LowStockItems).Methods("GET")
	api.HandleFunc("/items/{itemId}", handlers.GetItem).Methods("GET")
	api.HandleFunc("/items/{itemId}", handlers.DeleteItem).Methods("DELETE")

	// mutasi stok
	api.HandleFunc("/items/{itemId}/increase", handlers.IncreaseStock).Methods("POST")
	api.HandleFunc("/items/{itemId}/decrease", handlers.DecreaseStock).Methods("POST")
	api.HandleFunc("/stock/receive", handlers.ReceiveStock).Methods("POST")

	// riwayat stok
	api.HandleFunc("/items/{itemId}/history", handlers.GetHistory).Methods("GET")
	api.HandleFunc("/items/{itemId}/history/date-range", handlers.GetHistoryByDateRange).Methods("GET")
	api.HandleFunc("/history/{entryId}", handlers.DeleteHistoryEntry).Methods("DELETE")

	// peminjaman
	api.HandleFunc("/usage", handlers.RecordUsage).Methods("POST")
	api.HandleFunc("/usage", handlers.ListUsage).Methods("GET")
	api.HandleFunc("/usage/report", handlers.UsageReport).Methods("GET")
	api.HandleFunc("/usage/{usageId}", handlers.DeleteUsage).Methods("DELETE")

	// HPP
	api.HandleFunc("/costs", handlers.AddCostEntry).Methods("POST")
	api.HandleFunc("/costs", handlers.ListCostEntries).Methods("GET")
	api.HandleFunc("/costs/summary", handlers.CostSummary).Methods("GET")
	api.HandleFunc("/costs/{entryId}", handlers.DeleteCostEntry).Methods("DELETE")

	// impor spreadsheet
	api.HandleFunc("/import/stock", handlers.ImportStock).Methods("POST")
	api.HandleFunc("/import/usage", handlers.ImportUsage).Methods("POST")
	api.HandleFunc("/import/costs", handlers.ImportCosts).Methods("POST")

	// ekspor excel
	api.HandleFunc("/export/items", handlers.ExportItems).Methods("GET")
	api.HandleFunc("/export/usage", handlers.ExportUsage).Methods("GET")
	api.HandleFunc("/export/history", handlers.ExportHistory).Methods("GET")
	api.HandleFunc("/export/costs", handlers.ExportCosts).Methods("GET")
	api.HandleFunc("/export/backup", handlers.ExportBackup).Methods("GET")

	if cfg.API.EnableCORS {
		router.Use(corsMiddleware)
	}
	router.Use(loggingMiddleware(log))

	return router
}

// corsMiddleware allows cross-origin requests (development use)
// Mengizinkan permintaan lintas origin untuk pengembangan
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests and feeds the request counter
// Mencatat permintaan HTTP dan menghitung metrik
func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
			log.Info("permintaan HTTP",
				zap.String("method", r.Method),
				zap.String("url", r.URL.Path),
				zap.Int("status", rec.status),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
