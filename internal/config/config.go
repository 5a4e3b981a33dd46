//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-ledgergen.
// Configuration is loaded from config files, a .env file for secrets, and
// CLI flags. CLI flags take precedence over environment values, which take
// precedence over config file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pgEdge/pgedge-ledgergen/internal/ledger"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// Environment variables read by ApplyEnv.
const (
	EnvPassword   = "LEDGERGEN_PASSWORD"
	EnvConnection = "LEDGERGEN_CONNECTION"
)

// DateLayout is the format of every date in the configuration.
const DateLayout = "2006-01-02"

// Config holds all configuration for pgedge-ledgergen.
type Config struct {
	// Driver selects the target database: postgres, clickhouse or sqlite.
	Driver string `mapstructure:"driver"`

	// Connection is the connection string (DSN or file path for sqlite).
	Connection string `mapstructure:"connection"`

	// Password overrides the password in Connection. It is normally set
	// from LEDGERGEN_PASSWORD rather than the config file.
	Password string `mapstructure:"password"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `mapstructure:"log_format"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`

	// Import holds configuration for the import subcommand.
	Import ImportConfig `mapstructure:"import"`

	// Metrics holds Pushgateway settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SeedConfig holds configuration for generating the lending schema.
type SeedConfig struct {
	// RandomSeed makes runs reproducible. Zero picks a time based seed.
	RandomSeed uint64 `mapstructure:"random_seed"`

	// AsOf is the simulation date (YYYY-MM-DD). Empty means today.
	AsOf string `mapstructure:"as_of"`

	// StartDate and EndDate bound the time dimension (YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`

	Regions        int `mapstructure:"regions"`
	Products       int `mapstructure:"products"`
	Customers      int `mapstructure:"customers"`
	Sales          int `mapstructure:"sales"`
	SyntheticLoans int `mapstructure:"synthetic_loans"`

	// BatchSize is the number of rows per insert.
	BatchSize int `mapstructure:"batch_size"`

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64 `mapstructure:"progress_interval"`

	// DropExisting drops the lending tables before creating them.
	DropExisting bool `mapstructure:"drop_existing"`

	// RepaymentWeights overrides rows of the repayment weight table, keyed
	// by "status/tier" or "status".
	RepaymentWeights map[string]map[string]int `mapstructure:"repayment_weights"`
}

// ImportConfig holds configuration for loading CSV and JSON files.
type ImportConfig struct {
	// Table is the target table. Empty derives it from the file name.
	Table string `mapstructure:"table"`

	// KeyColumn names the field whose empty values cause a row to be skipped.
	KeyColumn string `mapstructure:"key_column"`

	// NullTokens are values loaded as NULL.
	NullTokens []string `mapstructure:"null_tokens"`

	BatchSize    int  `mapstructure:"batch_size"`
	DropExisting bool `mapstructure:"drop_existing"`
}

// MetricsConfig holds Pushgateway settings.
type MetricsConfig struct {
	// PushgatewayURL enables pushing metrics at the end of a run.
	PushgatewayURL string `mapstructure:"pushgateway_url"`

	// Job is the Pushgateway job name.
	Job string `mapstructure:"job"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Driver:    "postgres",
		LogLevel:  "info",
		LogFormat: "console",
		Seed: SeedConfig{
			StartDate:        "2021-01-01",
			EndDate:          "2023-12-31",
			Regions:          50,
			Products:         200,
			Customers:        5000,
			Sales:            20000,
			BatchSize:        10000,
			ProgressInterval: 10000,
			DropExisting:     true,
		},
		Import: ImportConfig{
			NullTokens:   []string{"NA", "N/A", ""},
			BatchSize:    10000,
			DropExisting: false,
		},
		Metrics: MetricsConfig{
			Job: "pgedge-ledgergen",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-ledgergen.yaml
// 3. ~/.config/pgedge-ledgergen/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-ledgergen")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-ledgergen"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// decodeHook extends viper's default hooks so that unquoted YAML dates,
// which the YAML decoder produces as time.Time, land in string fields as
// YYYY-MM-DD.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		dateToStringHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func dateToStringHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if t, ok := data.(time.Time); ok {
		return t.Format(DateLayout), nil
	}
	return data, nil
}

// ApplyEnv reads LEDGERGEN_PASSWORD and LEDGERGEN_CONNECTION from envFile
// (if it exists) and the process environment, which wins over the file.
func (c *Config) ApplyEnv(envFile string) error {
	values := map[string]string{}
	if envFile != "" {
		fileValues, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading %s: %w", envFile, err)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	for _, key := range []string{EnvPassword, EnvConnection} {
		if v := os.Getenv(key); v != "" {
			values[key] = v
		}
	}

	if v := values[EnvPassword]; v != "" {
		c.Password = v
	}
	if v := values[EnvConnection]; v != "" {
		c.Connection = v
	}
	return nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if _, err := schema.ParseDialect(c.Driver); err != nil {
		return err
	}
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	if c.LogFormat != "" && c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be 'console' or 'json'")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	s := c.Seed
	if s.Regions < 1 || s.Products < 1 || s.Customers < 1 {
		return fmt.Errorf("regions, products and customers must be at least 1")
	}
	if s.Sales < 0 || s.SyntheticLoans < 0 {
		return fmt.Errorf("sales and synthetic_loans must be non-negative")
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if _, _, _, err := s.Dates(time.Now()); err != nil {
		return err
	}
	if _, err := s.Weights(); err != nil {
		return err
	}
	return nil
}

// ValidateImport checks configuration required for the import command.
func (c *Config) ValidateImport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Import.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	return nil
}

// Dates parses the configured dates. An empty as_of means today.
func (s SeedConfig) Dates(today time.Time) (asOf, start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, s.StartDate)
	if err != nil {
		return asOf, start, end, fmt.Errorf("invalid start_date %q: %w", s.StartDate, err)
	}
	end, err = time.Parse(DateLayout, s.EndDate)
	if err != nil {
		return asOf, start, end, fmt.Errorf("invalid end_date %q: %w", s.EndDate, err)
	}
	if end.Before(start) {
		return asOf, start, end, fmt.Errorf("end_date must not be before start_date")
	}

	if s.AsOf == "" {
		y, m, d := today.Date()
		asOf = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return asOf, start, end, nil
	}
	asOf, err = time.Parse(DateLayout, s.AsOf)
	if err != nil {
		return asOf, start, end, fmt.Errorf("invalid as_of %q: %w", s.AsOf, err)
	}
	return asOf, start, end, nil
}

// Weights returns the default repayment weights with the configured
// overrides applied.
func (s SeedConfig) Weights() (ledger.WeightTable, error) {
	overrides, err := ledger.ParseWeightOverrides(s.RepaymentWeights)
	if err != nil {
		return nil, err
	}
	return ledger.DefaultWeights().With(overrides), nil
}
