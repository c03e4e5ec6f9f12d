// Package metrics registers the Prometheus instruments exposed on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal counts successful ledger mutations by operation
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gudang_mutations_total",
		Help: "Jumlah mutasi buku stok yang berhasil per operasi.",
	}, []string{"operation"})

	// SyncFailuresTotal counts failed post-write backup uploads
	SyncFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gudang_sync_failures_total",
		Help: "Jumlah kegagalan unggahan cadangan pasca-tulis.",
	})

	// IngestRowsTotal counts spreadsheet ingestion rows by mode and outcome
	IngestRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gudang_ingest_rows_total",
		Help: "Jumlah baris impor spreadsheet per mode dan hasil.",
	}, []string{"mode", "outcome"})

	// HTTPRequestsTotal counts API requests by method and status class
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gudang_http_requests_total",
		Help: "Jumlah permintaan HTTP per metode dan kelas status.",
	}, []string{"method", "status"})
)
