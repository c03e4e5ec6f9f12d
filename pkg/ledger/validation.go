package ledger

import (
	"fmt"
	"strings"
)

// ValidateItemName memeriksa nama barang
func ValidateItemName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("nama_barang", "nama barang tidak boleh kosong", name)
	}
	if len(name) > 255 {
		return NewValidationError("nama_barang", "nama barang terlalu panjang", name)
	}
	return nil
}

// ValidateQuantity memeriksa jumlah stok atau peminjaman
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return NewValidationError("jumlah", "jumlah harus lebih besar dari nol", fmt.Sprintf("%d", quantity))
	}
	if quantity > 999999999 {
		return NewValidationError("jumlah", "jumlah melewati batas wajar", fmt.Sprintf("%d", quantity))
	}
	return nil
}

// ValidateInitialStock memeriksa stok awal, nol diperbolehkan
func ValidateInitialStock(stock int) error {
	if stock < 0 {
		return NewValidationError("stok", "stok awal tidak boleh negatif", fmt.Sprintf("%d", stock))
	}
	return nil
}

// ValidateWarehouse memeriksa nama gudang
func ValidateWarehouse(warehouse string) error {
	if strings.TrimSpace(warehouse) == "" {
		return NewValidationError("gudang", "nama gudang tidak boleh kosong", warehouse)
	}
	if len(warehouse) > 100 {
		return NewValidationError("gudang", "nama gudang terlalu panjang", warehouse)
	}
	return nil
}

// ValidateUnitOfMeasure memeriksa satuan stok, kosong diperbolehkan
func ValidateUnitOfMeasure(unit string) error {
	if len(unit) > 50 {
		return NewValidationError("besaran_stok", "satuan stok terlalu panjang", unit)
	}
	return nil
}

// ValidateConsumingUnit memeriksa nama unit proyek pemakai
func ValidateConsumingUnit(unit string) error {
	if strings.TrimSpace(unit) == "" {
		return NewValidationError("unit", "unit proyek tidak boleh kosong", unit)
	}
	if len(unit) > 100 {
		return NewValidationError("unit", "unit proyek terlalu panjang", unit)
	}
	return nil
}

// ValidateMaterial memeriksa nama material HPP
func ValidateMaterial(material string) error {
	if strings.TrimSpace(material) == "" {
		return NewValidationError("material", "nama material tidak boleh kosong", material)
	}
	if len(material) > 255 {
		return NewValidationError("material", "nama material terlalu panjang", material)
	}
	return nil
}

// ValidatePrice memeriksa harga HPP, harus positif
func ValidatePrice(price float64) error {
	if price <= 0 {
		return NewValidationError("harga", "harga harus lebih besar dari nol", fmt.Sprintf("%.2f", price))
	}
	return nil
}
