package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/danuwid/gudang/internal/auth"
	"github.com/danuwid/gudang/internal/debounce"
	"github.com/danuwid/gudang/internal/metrics"
	"github.com/danuwid/gudang/pkg/export"
	"github.com/danuwid/gudang/pkg/ingest"
	"github.com/danuwid/gudang/pkg/ledger"
)

// Handlers holds HTTP handlers for the warehouse API
// Kumpulan HTTP handler untuk API gudang
type Handlers struct {
	ledger   *ledger.Manager
	importer *ingest.Importer
	guard    *debounce.Guard
	logger   *zap.Logger
}

// NewHandlers creates new HTTP handlers
// Membuat HTTP handler baru
func NewHandlers(manager *ledger.Manager, importer *ingest.Importer, guard *debounce.Guard, logger *zap.Logger) *Handlers {
	return &Handlers{
		ledger:   manager,
		importer: importer,
		guard:    guard,
		logger:   logger,
	}
}

// APIResponse represents standard API response format
// Format respons API standar
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateItemRequest represents request to register a new item
// Permintaan pendaftaran barang baru
type CreateItemRequest struct {
	Name      string `json:"nama_barang"`
	Stock     int    `json:"stok"`
	Unit      string `json:"besaran_stok"`
	Warehouse string `json:"gudang"`
	Date      string `json:"tanggal"`
}

// AdjustStockRequest represents request to add or remove stock
// Permintaan penambahan atau pengurangan stok
type AdjustStockRequest struct {
	Amount int    `json:"jumlah"`
	Date   string `json:"tanggal"`
	Policy string `json:"kebijakan,omitempty"` // strict | clamped, hanya untuk pengurangan
}

// ReceiveStockRequest represents an upsert of incoming goods
// Permintaan penerimaan barang masuk (upsert)
type ReceiveStockRequest struct {
	Name      string `json:"nama_barang"`
	Unit      string `json:"besaran_stok"`
	Warehouse string `json:"gudang"`
	Qty       int    `json:"jumlah"`
	Date      string `json:"tanggal"`
}

// RecordUsageRequest represents request to record item consumption
// Permintaan pencatatan peminjaman barang
type RecordUsageRequest struct {
	ItemID int64  `json:"barang_id"`
	Qty    int    `json:"jumlah_pinjam"`
	Date   string `json:"tanggal_pinjam"`
	Unit   string `json:"unit"`
}

// CostEntryRequest represents request to add a material cost entry
// Permintaan penambahan data HPP
type CostEntryRequest struct {
	Unit     string  `json:"unit"`
	Date     string  `json:"tanggal"`
	Material string  `json:"material"`
	Price    float64 `json:"harga"`
	Note     string  `json:"keterangan"`
}

// importSheetConfig is the per-sheet configuration attached to an upload.
// The Monday anchor arrives as a date string in any accepted convention.
// Konfigurasi per sheet yang dikirim bersama berkas unggahan
type importSheetConfig struct {
	Warehouse string `json:"gudang,omitempty"`
	Unit      string `json:"unit,omitempty"`
	Note      string `json:"keterangan,omitempty"`
	WeekStart string `json:"tanggal_senin,omitempty"`
}

// HealthCheck handles health check requests
// Menangani permintaan cek kesehatan
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.sendSuccess(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "gudang",
	})
}

// CreateItem handles item registration requests
// Menangani pendaftaran barang baru
func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "create_item") {
		return
	}

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}
	date, ok := h.requestDate(w, req.Date)
	if !ok {
		return
	}

	item, err := h.ledger.CreateItem(r.Context(), req.Name, req.Stock, req.Unit, req.Warehouse, date)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("create_item").Inc()
	h.sendSuccess(w, item)
}

// ListItems handles item listing with optional name search and warehouse
// filter.
// Menangani daftar barang dengan pencarian nama dan filter gudang
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.ListItems(r.Context(), r.URL.Query().Get("search"), r.URL.Query().Get("gudang"))
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, items)
}

// GetItem handles single item reads
// Menangani pembacaan satu barang
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemId")
	if !ok {
		return
	}

	item, err := h.ledger.GetItem(r.Context(), itemID)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, item)
}

// DeleteItem handles item deletion. Items still referenced by usage
// records are refused.
// Menangani penghapusan barang
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "delete_item") {
		return
	}
	itemID, ok := h.pathID(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.ledger.DeleteItem(r.Context(), itemID); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("delete_item").Inc()
	h.sendSuccess(w, map[string]string{"message": "barang dihapus"})
}

// LowStockItems handles the restock advisory listing
// Menangani daftar barang dengan stok menipis
func (h *Handlers) LowStockItems(w http.ResponseWriter, r *http.Request) {
	threshold := 0
	if v := r.URL.Query().Get("threshold"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, fmt.Sprintf("threshold tidak valid: %s", v))
			return
		}
		threshold = parsed
	}

	items, err := h.ledger.LowStockItems(r.Context(), threshold)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, items)
}

// IncreaseStock handles stock addition requests
// Menangani penambahan stok
func (h *Handlers) IncreaseStock(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "increase_stock") {
		return
	}
	itemID, ok := h.pathID(w, r, "itemId")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}
	date, ok := h.requestDate(w, req.Date)
	if !ok {
		return
	}

	if err := h.ledger.IncreaseStock(r.Context(), itemID, req.Amount, date); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("increase_stock").Inc()
	h.sendSuccess(w, map[string]string{"message": "stok berhasil ditambah"})
}

// DecreaseStock handles stock removal requests. Interactive callers use
// the default strict policy; clamped is for corrections.
// Menangani pengurangan stok
func (h *Handlers) DecreaseStock(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "decrease_stock") {
		return
	}
	itemID, ok := h.pathID(w, r, "itemId")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}
	date, ok := h.requestDate(w, req.Date)
	if !ok {
		return
	}

	policy := ledger.StrictDecrement
	switch req.Policy {
	case "", string(ledger.StrictDecrement):
	case string(ledger.ClampedDecrement):
		policy = ledger.ClampedDecrement
	default:
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("kebijakan tidak dikenal: %s", req.Policy))
		return
	}

	if err := h.ledger.DecreaseStock(r.Context(), itemID, req.Amount, date, policy); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("decrease_stock").Inc()
	h.sendSuccess(w, map[string]string{"message": "stok berhasil dikurangi"})
}

// ReceiveStock handles incoming goods: existing items gain stock, unknown
// items are created.
// Menangani penerimaan barang masuk
func (h *Handlers) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "receive_stock") {
		return
	}

	var req ReceiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}
	date, ok := h.requestDate(w, req.Date)
	if !ok {
		return
	}

	created, err := h.ledger.ReceiveStock(r.Context(), req.Name, req.Unit, req.Warehouse, req.Qty, date)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("receive_stock").Inc()
	h.sendSuccess(w, map[string]interface{}{
		"message": "barang masuk dicatat",
		"dibuat":  created,
	})
}

// GetHistory handles stock history reads, newest first
// Menangani pembacaan riwayat stok
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemId")
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.ledger.History(r.Context(), itemID, limit)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, entries)
}

// GetHistoryByDateRange handles bounded history reads, oldest first
// Menangani pembacaan riwayat stok dalam rentang tanggal
func (h *Handlers) GetHistoryByDateRange(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemId")
	if !ok {
		return
	}
	from, ok := h.requestDate(w, r.URL.Query().Get("dari"))
	if !ok {
		return
	}
	to, ok := h.requestDate(w, r.URL.Query().Get("sampai"))
	if !ok {
		return
	}

	entries, err := h.ledger.HistoryByDateRange(r.Context(), itemID, from, to)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, entries)
}

// DeleteHistoryEntry handles removal of one audit row. Stock balances are
// never recomputed from history, so deletion only trims the trail.
// Menangani penghapusan satu baris riwayat
func (h *Handlers) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "delete_history") {
		return
	}
	entryID, ok := h.pathID(w, r, "entryId")
	if !ok {
		return
	}

	if err := h.ledger.DeleteHistoryEntry(r.Context(), entryID); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("delete_history").Inc()
	h.sendSuccess(w, map[string]string{"message": "riwayat dihapus"})
}

// RecordUsage handles interactive consumption recording: the usage row
// and the strict stock decrement land in one transaction.
// Menangani pencatatan peminjaman interaktif
func (h *Handlers) RecordUsage(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "record_usage") {
		return
	}

	var req RecordUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}
	date, ok := h.requestDate(w, req.Date)
	if !ok {
		return
	}

	record, err := h.ledger.RecordUsage(r.Context(), req.ItemID, req.Qty, date, req.Unit)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("record_usage").Inc()
	h.sendSuccess(w, record)
}

// ListUsage handles usage listing with optional unit and date filters
// Menangani daftar peminjaman
func (h *Handlers) ListUsage(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	if v := r.URL.Query().Get("dari"); v != "" {
		parsed, ok := h.requestDate(w, v)
		if !ok {
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("sampai"); v != "" {
		parsed, ok := h.requestDate(w, v)
		if !ok {
			return
		}
		to = parsed
	}

	records, err := h.ledger.ListUsage(r.Context(), r.URL.Query().Get("unit"), from, to)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, records)
}

// DeleteUsage handles usage record removal. Stock is not restored: the
// material was consumed, not lent back.
// Menangani penghapusan catatan peminjaman tanpa mengembalikan stok
func (h *Handlers) DeleteUsage(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "delete_usage") {
		return
	}
	usageID, ok := h.pathID(w, r, "usageId")
	if !ok {
		return
	}

	if err := h.ledger.DeleteUsage(r.Context(), usageID); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("delete_usage").Inc()
	h.sendSuccess(w, map[string]string{"message": "data peminjaman dihapus"})
}

// UsageReport handles the aggregated consumption report
// Menangani laporan pemakaian per periode
func (h *Handlers) UsageReport(w http.ResponseWriter, r *http.Request) {
	period := ledger.ReportPeriod(r.URL.Query().Get("periode"))
	switch period {
	case ledger.PeriodDaily, ledger.PeriodWeekly, ledger.PeriodMonthly:
	case "":
		period = ledger.PeriodMonthly
	default:
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("periode tidak dikenal: %s", period))
		return
	}

	var from, to time.Time
	if v := r.URL.Query().Get("dari"); v != "" {
		parsed, ok := h.requestDate(w, v)
		if !ok {
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("sampai"); v != "" {
		parsed, ok := h.requestDate(w, v)
		if !ok {
			return
		}
		to = parsed
	}

	rows, err := h.ledger.UsageReport(r.Context(), period, from, to)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, rows)
}

// AddCostEntry handles material cost recording
// Menangani penambahan data HPP
func (h *Handlers) AddCostEntry(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "add_cost") {
		return
	}

	var req CostEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	entry, err := h.ledger.AddCostEntry(r.Context(), req.Unit, req.Date, req.Material, req.Price, req.Note)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("add_cost").Inc()
	h.sendSuccess(w, entry)
}

// ListCostEntries handles cost entry listing with optional unit and
// date-bound filters.
// Menangani daftar data HPP
func (h *Handlers) ListCostEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.QueryCostEntries(r.Context(),
		r.URL.Query().Get("unit"),
		r.URL.Query().Get("dari"),
		r.URL.Query().Get("sampai"),
	)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, entries)
}

// DeleteCostEntry handles cost entry removal
// Menangani penghapusan data HPP
func (h *Handlers) DeleteCostEntry(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "delete_cost") {
		return
	}
	entryID, ok := h.pathID(w, r, "entryId")
	if !ok {
		return
	}

	if err := h.ledger.DeleteCostEntry(r.Context(), entryID); err != nil {
		h.sendLedgerError(w, err)
		return
	}

	metrics.MutationsTotal.WithLabelValues("delete_cost").Inc()
	h.sendSuccess(w, map[string]string{"message": "data HPP dihapus"})
}

// CostSummary handles the per-unit cost recap
// Menangani rekap HPP per unit proyek
func (h *Handlers) CostSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ledger.CostSummary(r.Context(),
		r.URL.Query().Get("dari"),
		r.URL.Query().Get("sampai"),
	)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendSuccess(w, rows)
}

// ImportStock handles a weekly stock-in workbook upload. The multipart
// form carries the xlsx under "file" and a JSON object mapping sheet
// names to their configuration under "config".
// Menangani unggahan berkas barang masuk mingguan
func (h *Handlers) ImportStock(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "import_stock") {
		return
	}

	sheets, rawConfigs, ok := h.importUpload(w, r)
	if !ok {
		return
	}

	configs := make(map[string]ingest.StockSheetConfig, len(rawConfigs))
	for name, cfg := range rawConfigs {
		weekStart, ok := h.requestDate(w, cfg.WeekStart)
		if !ok {
			return
		}
		configs[name] = ingest.StockSheetConfig{Warehouse: cfg.Warehouse, WeekStart: weekStart}
	}

	result := h.importer.ImportStockSheets(r.Context(), sheets, configs)
	h.countIngest("stock", result)
	h.sendSuccess(w, result)
}

// ImportUsage handles a weekly usage-in workbook upload as clamped
// historical backfill.
// Menangani unggahan berkas penggunaan mingguan
func (h *Handlers) ImportUsage(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "import_usage") {
		return
	}

	sheets, rawConfigs, ok := h.importUpload(w, r)
	if !ok {
		return
	}

	configs := make(map[string]ingest.UsageSheetConfig, len(rawConfigs))
	for name, cfg := range rawConfigs {
		weekStart, ok := h.requestDate(w, cfg.WeekStart)
		if !ok {
			return
		}
		configs[name] = ingest.UsageSheetConfig{Unit: cfg.Unit, WeekStart: weekStart}
	}

	result := h.importer.ImportUsageSheets(r.Context(), sheets, configs)
	h.countIngest("usage", result)
	h.sendSuccess(w, result)
}

// ImportCosts handles a material cost workbook upload. Every sheet is
// booked against the consuming unit configured for it.
// Menangani unggahan berkas pengeluaran material
func (h *Handlers) ImportCosts(w http.ResponseWriter, r *http.Request) {
	if !h.editorAllowed(w, r, "import_costs") {
		return
	}

	sheets, rawConfigs, ok := h.importUpload(w, r)
	if !ok {
		return
	}

	combined := &ingest.Result{BatchID: ledger.NewBatchID()}
	for _, sheet := range sheets {
		cfg := rawConfigs[sheet.Name]
		result := h.importer.ImportCostSheet(r.Context(), sheet, ingest.CostSheetConfig{Unit: cfg.Unit, Note: cfg.Note})
		combined.Applied += result.Applied
		combined.Skipped = append(combined.Skipped, result.Skipped...)
		combined.Errors = append(combined.Errors, result.Errors...)
	}

	h.countIngest("costs", combined)
	h.sendSuccess(w, combined)
}

// ExportItems streams the current item list as an xlsx workbook
// Mengunduh daftar barang sebagai berkas excel
func (h *Handlers) ExportItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.ListItems(r.Context(), "", "")
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	data, err := export.Items(items)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendWorkbook(w, "stok_barang.xlsx", data)
}

// ExportUsage streams the usage book as an xlsx workbook
// Mengunduh data peminjaman sebagai berkas excel
func (h *Handlers) ExportUsage(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.ListUsage(r.Context(), "", time.Time{}, time.Time{})
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	data, err := export.Usage(records)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendWorkbook(w, "peminjaman.xlsx", data)
}

// ExportHistory streams the stock history as an xlsx workbook, optionally
// narrowed to one item via ?barang_id=.
// Mengunduh riwayat stok sebagai berkas excel
func (h *Handlers) ExportHistory(w http.ResponseWriter, r *http.Request) {
	const historyLimit = 100000

	var entries []ledger.StockHistoryEntry
	if raw := r.URL.Query().Get("barang_id"); raw != "" {
		itemID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || itemID <= 0 {
			h.sendError(w, http.StatusBadRequest, fmt.Sprintf("barang_id tidak valid: %s", raw))
			return
		}
		history, err := h.ledger.History(r.Context(), itemID, historyLimit)
		if err != nil {
			h.sendLedgerError(w, err)
			return
		}
		entries = history
	} else {
		items, err := h.ledger.ListItems(r.Context(), "", "")
		if err != nil {
			h.sendLedgerError(w, err)
			return
		}
		for _, item := range items {
			history, err := h.ledger.History(r.Context(), item.ID, historyLimit)
			if err != nil {
				h.sendLedgerError(w, err)
				return
			}
			entries = append(entries, history...)
		}
	}

	data, err := export.History(entries)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendWorkbook(w, "riwayat_stok.xlsx", data)
}

// ExportCosts streams the cost book as an xlsx workbook
// Mengunduh data HPP sebagai berkas excel
func (h *Handlers) ExportCosts(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.QueryCostEntries(r.Context(), "", "", "")
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	data, err := export.CostEntries(entries)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendWorkbook(w, "data_hpp.xlsx", data)
}

// ExportBackup streams items, usage and the full stock history in one
// three-sheet workbook.
// Mengunduh cadangan lengkap dalam satu berkas excel
func (h *Handlers) ExportBackup(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.ListItems(r.Context(), "", "")
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	records, err := h.ledger.ListUsage(r.Context(), "", time.Time{}, time.Time{})
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	// cukup besar untuk seluruh riwayat satu barang
	const historyLimit = 100000

	var entries []ledger.StockHistoryEntry
	for _, item := range items {
		history, err := h.ledger.History(r.Context(), item.ID, historyLimit)
		if err != nil {
			h.sendLedgerError(w, err)
			return
		}
		entries = append(entries, history...)
	}

	data, err := export.Backup(items, records, entries)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}
	h.sendWorkbook(w, "cadangan_gudang.xlsx", data)
}

// helper methods
// metode pembantu

// editorAllowed enforces the editor role and the double-submit guard on
// one mutating request. It writes the refusal response itself.
func (h *Handlers) editorAllowed(w http.ResponseWriter, r *http.Request, action string) bool {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		h.sendError(w, http.StatusUnauthorized, "autentikasi diperlukan")
		return false
	}
	if !user.CanEdit() {
		h.sendError(w, http.StatusForbidden, "peran viewer tidak boleh mengubah data")
		return false
	}
	if !h.guard.Allow(user.Username, action) {
		h.sendError(w, http.StatusConflict, "permintaan ganda terdeteksi, coba lagi sebentar")
		return false
	}
	return true
}

// requestDate parses an optional date string, defaulting to today
func (h *Handlers) requestDate(w http.ResponseWriter, value string) (time.Time, bool) {
	if value == "" {
		return time.Now(), true
	}
	t, ok := ledger.ParseFlexibleDate(value)
	if !ok {
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("tanggal tidak valid: %s", value))
		return time.Time{}, false
	}
	return t, true
}

// pathID extracts a numeric path variable
func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("id tidak valid: %s", raw))
		return 0, false
	}
	return id, true
}

// importUpload reads the workbook and per-sheet configuration out of a
// multipart upload.
func (h *Handlers) importUpload(w http.ResponseWriter, r *http.Request) ([]ingest.Sheet, map[string]importSheetConfig, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.sendError(w, http.StatusBadRequest, "unggahan multipart tidak valid")
		return nil, nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "berkas excel tidak ditemukan pada field 'file'")
		return nil, nil, false
	}
	defer file.Close()

	configs := make(map[string]importSheetConfig)
	if raw := r.FormValue("config"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &configs); err != nil {
			h.sendError(w, http.StatusBadRequest, "konfigurasi sheet tidak valid")
			return nil, nil, false
		}
	}

	sheets, err := ingest.ReadWorkbook(file)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	return sheets, configs, true
}

// countIngest feeds one import result into the row counters
func (h *Handlers) countIngest(mode string, result *ingest.Result) {
	metrics.IngestRowsTotal.WithLabelValues(mode, "applied").Add(float64(result.Applied))
	metrics.IngestRowsTotal.WithLabelValues(mode, "skipped").Add(float64(len(result.Skipped)))
	metrics.IngestRowsTotal.WithLabelValues(mode, "error").Add(float64(len(result.Errors)))
}

// sendWorkbook streams xlsx bytes as a download
func (h *Handlers) sendWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		h.logger.Error("gagal mengirim berkas excel", zap.Error(err))
	}
}

// sendLedgerError maps a ledger error onto an HTTP status
// Memetakan error buku stok ke status HTTP
func (h *Handlers) sendLedgerError(w http.ResponseWriter, err error) {
	var vErr *ledger.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.sendError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, ledger.ErrItemNotFound),
		errors.Is(err, ledger.ErrUsageNotFound),
		errors.Is(err, ledger.ErrHistoryNotFound),
		errors.Is(err, ledger.ErrCostEntryNotFound):
		h.sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrHasDependents):
		h.sendError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("operasi buku stok gagal", zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, "terjadi kesalahan internal")
	}
}

// sendSuccess sends a successful API response
// Mengirim respons API sukses
func (h *Handlers) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := APIResponse{
		Success: true,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("gagal mengirim respons", zap.Error(err))
	}
}

// sendError sends an error API response
// Mengirim respons API error
func (h *Handlers) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("gagal mengirim respons error", zap.Error(err))
	}
}
