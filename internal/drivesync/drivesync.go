// Package drivesync uploads the SQLite database file to an external
// backup endpoint after every successful mutation. Failures are reported
// to the caller but are, by contract, never fatal to the mutation.
package drivesync

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/danuwid/gudang/internal/metrics"
	"github.com/danuwid/gudang/pkg/ledger"
)

// Uploader implements the post-write sync hook over HTTP multipart
type Uploader struct {
	client  *resty.Client
	logger  *zap.Logger
	enabled bool
}

var _ ledger.SyncHook = (*Uploader)(nil)

// New creates an uploader for the given endpoint. An empty endpoint
// yields a disabled uploader whose AfterWrite is a no-op.
func New(endpoint, token string, timeout time.Duration, logger *zap.Logger) *Uploader {
	if endpoint == "" {
		return &Uploader{logger: logger}
	}

	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &Uploader{client: client, logger: logger, enabled: true}
}

// AfterWrite posts the database file to the backup endpoint. Memory-only
// stores and the PostgreSQL backend report no file path and are skipped.
func (u *Uploader) AfterWrite(ctx context.Context, dbPath string) error {
	if !u.enabled || dbPath == "" || dbPath == ":memory:" {
		return nil
	}

	resp, err := u.client.R().
		SetContext(ctx).
		SetFile("file", dbPath).
		SetFormData(map[string]string{"nama_berkas": filepath.Base(dbPath)}).
		Post("")
	if err != nil {
		metrics.SyncFailuresTotal.Inc()
		return fmt.Errorf("unggahan cadangan gagal: %w", err)
	}
	if resp.StatusCode() >= 400 {
		metrics.SyncFailuresTotal.Inc()
		return fmt.Errorf("unggahan cadangan ditolak: status %d", resp.StatusCode())
	}

	u.logger.Debug("cadangan terunggah",
		zap.String("berkas", filepath.Base(dbPath)),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
