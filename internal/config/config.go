// Package config loads service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
// Konfigurasi aplikasi
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Auth     AuthConfig     `yaml:"auth"`
	Sync     SyncConfig     `yaml:"sync"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds storage backend configuration. Driver selects the
// embedded SQLite file (the default) or PostgreSQL.
// Konfigurasi penyimpanan
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite | postgres
	Path     string `yaml:"path"`   // berkas sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// APIConfig holds API server configuration
// Konfigurasi server API
type APIConfig struct {
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	EnableCORS    bool          `yaml:"enable_cors"`
	EnableMetrics bool          `yaml:"enable_metrics"`
}

// LedgerConfig holds warehouse ledger defaults
// Konfigurasi bawaan buku stok
type LedgerConfig struct {
	DefaultWarehouse  string `yaml:"default_warehouse"`
	FallbackUnit      string `yaml:"fallback_unit"`
	LowStockThreshold int    `yaml:"low_stock_threshold"`
	RestockFloor      int    `yaml:"restock_floor"`
	RestockFactor     int    `yaml:"restock_factor"`
}

// AuthConfig points at the static user registry
// Konfigurasi daftar pengguna
type AuthConfig struct {
	UsersFile string `yaml:"users_file"`
}

// SyncConfig holds the post-write backup upload target. An empty
// endpoint disables the hook.
// Konfigurasi unggahan cadangan pasca-tulis
type SyncConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration
// Konfigurasi log
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

// Load loads configuration from environment variables. A .env file in
// the working directory is applied first when present.
// Memuat konfigurasi dari variabel lingkungan
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "inventory_rumah.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "gudang"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "gudang_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		API: APIConfig{
			Port:          getEnvAsInt("API_PORT", 8080),
			ReadTimeout:   getEnvAsDuration("API_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:  getEnvAsDuration("API_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:   getEnvAsDuration("API_IDLE_TIMEOUT", 60*time.Second),
			EnableCORS:    getEnvAsBool("API_ENABLE_CORS", true),
			EnableMetrics: getEnvAsBool("API_ENABLE_METRICS", true),
		},
		Ledger: LedgerConfig{
			DefaultWarehouse:  getEnv("LEDGER_DEFAULT_WAREHOUSE", "Gudang 1"),
			FallbackUnit:      getEnv("LEDGER_FALLBACK_UNIT", "pcs"),
			LowStockThreshold: getEnvAsInt("LEDGER_LOW_STOCK_THRESHOLD", 20),
			RestockFloor:      getEnvAsInt("LEDGER_RESTOCK_FLOOR", 50),
			RestockFactor:     getEnvAsInt("LEDGER_RESTOCK_FACTOR", 3),
		},
		Auth: AuthConfig{
			UsersFile: getEnv("AUTH_USERS_FILE", "users.yaml"),
		},
		Sync: SyncConfig{
			Endpoint: getEnv("SYNC_ENDPOINT", ""),
			Token:    getEnv("SYNC_TOKEN", ""),
			Timeout:  getEnvAsDuration("SYNC_TIMEOUT", 15*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validasi konfigurasi gagal: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
// Memvalidasi konfigurasi
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("jalur berkas sqlite tidak boleh kosong")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("host basis data tidak boleh kosong")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("port basis data tidak valid: %d", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("pengguna basis data tidak boleh kosong")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("nama basis data tidak boleh kosong")
		}
	default:
		return fmt.Errorf("driver basis data tidak dikenal: %s", c.Database.Driver)
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("port API tidak valid: %d", c.API.Port)
	}

	if c.Ledger.DefaultWarehouse == "" {
		return fmt.Errorf("gudang bawaan tidak boleh kosong")
	}
	if c.Ledger.LowStockThreshold < 0 {
		return fmt.Errorf("ambang stok menipis harus nol atau lebih")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("level log tidak valid: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true, "console": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("format log tidak valid: %s", c.Logging.Format)
	}

	return nil
}

// DSN generates the PostgreSQL data source name
// Menyusun DSN PostgreSQL
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// helper untuk variabel lingkungan

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets environment variable as duration with default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
