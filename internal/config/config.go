package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Source names where the dataset is read from
type Source string

const (
	SourceCSV    Source = "csv"
	SourceSQLite Source = "sqlite"
)

// Config holds application configuration
type Config struct {
	// Server settings
	ListenAddr string `json:"listen_addr"`
	Debug      bool   `json:"debug"`

	// Dataset location
	DataDirectory string `json:"data_directory"`
	DataFile      string `json:"data_file"`
	Source        Source `json:"source"`
	SQLitePath    string `json:"sqlite_path"`
	SQLiteTable   string `json:"sqlite_table"`
	CSVEncoding   string `json:"csv_encoding"`

	// View settings
	MovingAverageWindow int `json:"moving_average_window"`
	TopN                int `json:"top_n"`

	// Password unlocks a sealed data directory without prompting
	Password string `json:"-"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	dataDir := filepath.Join(wd, "data")

	return &Config{
		ListenAddr:          ":8080",
		DataDirectory:       dataDir,
		DataFile:            "sales.csv",
		Source:              SourceCSV,
		SQLitePath:          filepath.Join(dataDir, "sales.db"),
		SQLiteTable:         "transactions",
		CSVEncoding:         "utf-8",
		MovingAverageWindow: 3,
		TopN:                5,
	}
}

// Load applies SALES_* environment overrides to the defaults
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if addr := getenv("SALES_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if debug := getenv("SALES_DEBUG"); debug == "true" || debug == "1" {
		cfg.Debug = true
	}
	if dataDir := getenv("SALES_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
		cfg.SQLitePath = filepath.Join(dataDir, "sales.db")
	}
	if file := getenv("SALES_DATA_FILE"); file != "" {
		cfg.DataFile = file
	}
	if src := getenv("SALES_SOURCE"); src != "" {
		cfg.Source = Source(strings.ToLower(src))
	}
	if path := getenv("SALES_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}
	if table := getenv("SALES_SQLITE_TABLE"); table != "" {
		cfg.SQLiteTable = table
	}
	if enc := getenv("SALES_CSV_ENCODING"); enc != "" {
		cfg.CSVEncoding = strings.ToLower(enc)
	}
	if pw := getenv("SALES_PASSWORD"); pw != "" {
		cfg.Password = pw
	}

	var err error
	if cfg.MovingAverageWindow, err = intEnv(getenv, "SALES_MA_WINDOW", cfg.MovingAverageWindow); err != nil {
		return nil, err
	}
	if cfg.TopN, err = intEnv(getenv, "SALES_TOP_N", cfg.TopN); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// Validate checks values that would otherwise fail later at load time
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV, SourceSQLite:
	default:
		return fmt.Errorf("SALES_SOURCE: unknown source %q (want csv or sqlite)", c.Source)
	}
	if c.MovingAverageWindow < 1 {
		return fmt.Errorf("SALES_MA_WINDOW must be at least 1, got %d", c.MovingAverageWindow)
	}
	if c.TopN < 1 {
		return fmt.Errorf("SALES_TOP_N must be at least 1, got %d", c.TopN)
	}
	if c.SQLiteTable == "" || strings.ContainsAny(c.SQLiteTable, " ;\"'`") {
		return fmt.Errorf("SALES_SQLITE_TABLE: invalid table name %q", c.SQLiteTable)
	}
	return nil
}

// DataPath is the CSV file inside the data directory
func (c *Config) DataPath() string {
	if filepath.IsAbs(c.DataFile) {
		return c.DataFile
	}
	return filepath.Join(c.DataDirectory, c.DataFile)
}

// EnsureDirectories creates the data directory if it does not exist
func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(c.DataDirectory, 0o755)
}
