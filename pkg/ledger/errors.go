package ledger

import (
	"errors"
	"fmt"
)

// Common ledger errors
// Definisi error umum buku stok

var (
	// ErrItemNotFound is returned when an item doesn't exist
	// Barang tidak ada di gudang
	ErrItemNotFound = errors.New("barang tidak ditemukan")

	// ErrUsageNotFound is returned when a usage record doesn't exist
	// Catatan peminjaman tidak ada
	ErrUsageNotFound = errors.New("data peminjaman tidak ditemukan")

	// ErrHistoryNotFound is returned when a stock history entry doesn't exist
	// Riwayat stok tidak ada
	ErrHistoryNotFound = errors.New("riwayat stok tidak ditemukan")

	// ErrCostEntryNotFound is returned when a cost entry doesn't exist
	// Data HPP tidak ada
	ErrCostEntryNotFound = errors.New("data HPP tidak ditemukan")

	// ErrInsufficientStock is returned when a strict decrement exceeds the
	// current balance
	// Stok tersedia lebih kecil dari jumlah yang diminta
	ErrInsufficientStock = errors.New("stok tidak mencukupi")

	// ErrHasDependents is returned when deleting an item that usage records
	// still reference
	// Barang masih dirujuk oleh catatan peminjaman
	ErrHasDependents = errors.New("barang masih memiliki catatan peminjaman")

	// ErrNonPositiveQuantity is returned when a quantity is zero or negative
	// Jumlah harus lebih besar dari nol
	ErrNonPositiveQuantity = errors.New("jumlah harus lebih besar dari nol")
)

// ValidationError represents a validation error with details
// Error validasi masukan dengan detail
type ValidationError struct {
	Field   string `json:"field"`   // Nama field
	Message string `json:"message"` // Pesan error
	Value   string `json:"value"`   // Nilai yang tidak valid
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validasi gagal [%s]: %s (nilai: %s)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
// Membuat error validasi baru
func NewValidationError(field, message, value string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// StorageError represents a storage layer error
// Error lapisan penyimpanan
type StorageError struct {
	Operation string `json:"operation"` // Nama operasi
	Message   string `json:"message"`   // Pesan error
	Cause     error  `json:"cause"`     // Error penyebab
}

func (e StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("error penyimpanan [%s]: %s (penyebab: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("error penyimpanan [%s]: %s", e.Operation, e.Message)
}

func (e StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new storage error
// Membuat error penyimpanan baru
func NewStorageError(operation, message string, cause error) *StorageError {
	return &StorageError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// SyncError reports a failed post-write backup upload. It is always
// non-fatal: the local mutation that triggered the hook stays committed.
// Error sinkronisasi cadangan, tidak pernah membatalkan mutasi lokal
type SyncError struct {
	Target string `json:"target"` // Tujuan unggahan
	Cause  error  `json:"cause"`  // Error penyebab
}

func (e SyncError) Error() string {
	return fmt.Sprintf("sinkronisasi cadangan gagal [%s]: %v", e.Target, e.Cause)
}

func (e SyncError) Unwrap() error {
	return e.Cause
}

// NewSyncError creates a new sync error
// Membuat error sinkronisasi baru
func NewSyncError(target string, cause error) *SyncError {
	return &SyncError{Target: target, Cause: cause}
}

// RowError reports a single spreadsheet row that could not be normalized
// or applied. Rows fail independently; a RowError never aborts siblings.
// Error satu baris spreadsheet saat impor
type RowError struct {
	Sheet  string `json:"sheet"`  // Nama sheet
	Row    int    `json:"row"`    // Nomor baris fisik (mulai dari 1)
	Reason string `json:"reason"` // Alasan baris dilewati
}

func (e RowError) Error() string {
	return fmt.Sprintf("baris %d sheet %q: %s", e.Row, e.Sheet, e.Reason)
}
