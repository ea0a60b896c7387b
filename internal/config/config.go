package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a books repository.
const FileName = "books.yaml"

// Environment variables that override the file.
const (
	EnvStoreDriver = "BOOKS_STORE_DRIVER"
	EnvStoreDSN    = "BOOKS_STORE_DSN"
	EnvLogLevel    = "BOOKS_LOG_LEVEL"
)

// Config represents the top-level books.yaml configuration.
type Config struct {
	Business     BusinessConfig     `yaml:"business"`
	Fiscal       FiscalConfig       `yaml:"fiscal"`
	Currency     string             `yaml:"currency"`
	BankAccounts []BankAccount      `yaml:"bank_accounts,omitempty"`
	Ledger       LedgerConfig       `yaml:"ledger"`
	Depreciation DepreciationConfig `yaml:"depreciation"`
	Storage      StorageConfig      `yaml:"storage"`
	Git          GitConfig          `yaml:"git"`
	LogLevel     string             `yaml:"log_level"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// BankAccount maps a bank feed to a chart-of-accounts entry.
type BankAccount struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Importer string `yaml:"importer"`
	LastFour string `yaml:"last_four"`

	AccountID           string `yaml:"account_id"`
	DepositAccountID    string `yaml:"deposit_account_id,omitempty"`
	WithdrawalAccountID string `yaml:"withdrawal_account_id,omitempty"`
}

// LedgerConfig tunes the journal.
type LedgerConfig struct {
	Tolerance     string `yaml:"tolerance"`
	CashAccountID string `yaml:"cash_account_id"`
}

// DepreciationConfig controls the depreciation scheduler.
type DepreciationConfig struct {
	Match     string `yaml:"match"` // "asset" or "account"
	Threshold string `yaml:"threshold"`
	RunAt     string `yaml:"run_at"` // daily, "HH:MM"
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn,omitempty"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a books.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Currency: "USD",
		Ledger: LedgerConfig{
			Tolerance:     "0.0001",
			CashAccountID: "1010",
		},
		Depreciation: DepreciationConfig{
			Match:     "asset",
			Threshold: "0.01",
			RunAt:     "01:00",
		},
		Storage: StorageConfig{
			Driver: "fs",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Books",
			AuthorEmail: "books@localhost",
		},
		LogLevel: "info",
	}
}

// ApplyEnv overrides storage and logging settings from the environment.
// Variables in dotenvPath are used when the process environment lacks
// them; a missing file is not an error.
func ApplyEnv(cfg *Config, dotenvPath string) error {
	fileEnv := map[string]string{}
	if dotenvPath != "" {
		m, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			fileEnv = m
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("reading %s: %w", dotenvPath, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	if v, ok := lookup(EnvStoreDriver); ok {
		cfg.Storage.Driver = v
	}
	if v, ok := lookup(EnvStoreDSN); ok {
		cfg.Storage.DSN = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	return nil
}

// StoreDSN resolves the storage DSN against the repository root. The fs
// store defaults to the root itself and sqlite to books.db inside it.
func (c *Config) StoreDSN(root string) string {
	dsn := c.Storage.DSN
	switch c.Storage.Driver {
	case "", "fs":
		if dsn == "" {
			return root
		}
	case "sqlite":
		if dsn == "" {
			dsn = "books.db"
		}
	default:
		return dsn
	}
	if filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(root, dsn)
}

// LedgerTolerance parses the configured tolerance; empty means zero value
// so callers fall back to their default.
func (c *Config) LedgerTolerance() (decimal.Decimal, error) {
	return parseDecimal("ledger.tolerance", c.Ledger.Tolerance)
}

// DepreciationThreshold parses the configured depreciation threshold. It is
// nil when unset; "0" yields a zero threshold.
func (c *Config) DepreciationThreshold() (*decimal.Decimal, error) {
	if c.Depreciation.Threshold == "" {
		return nil, nil
	}
	d, err := parseDecimal("depreciation.threshold", c.Depreciation.Threshold)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var runAtPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.LedgerTolerance(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DepreciationThreshold(); err != nil {
		errs = append(errs, err)
	}
	switch c.Depreciation.Match {
	case "", "asset", "account":
	default:
		errs = append(errs, fmt.Errorf("depreciation.match: unknown mode %q", c.Depreciation.Match))
	}
	if c.Depreciation.RunAt != "" && !runAtPattern.MatchString(c.Depreciation.RunAt) {
		errs = append(errs, fmt.Errorf("depreciation.run_at: want HH:MM, got %q", c.Depreciation.RunAt))
	}
	switch c.Storage.Driver {
	case "", "fs", "sqlite", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		errs = append(errs, errors.New("storage.dsn: required for postgres"))
	}
	return errors.Join(errs...)
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: must not be negative", field)
	}
	return d, nil
}
