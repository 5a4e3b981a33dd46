//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-ledgergen.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ledgergen/internal/config"
	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
	"github.com/pgEdge/pgedge-ledgergen/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	envFile    string
	driver     string
	connection string
	logLevel   string
	logFormat  string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-ledgergen",
		Short: "Synthetic lending data generator",
		Long: `pgedge-ledgergen populates a database with a synthetic lending
star schema: time, region, sales channel, product and customer dimensions,
loan applications, the loans they produce, and an installment-level
repayment history simulated up to an as-of date.

The same data set can be written to PostgreSQL, ClickHouse or SQLite, and
runs are reproducible with --random-seed.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-ledgergen.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"file holding LEDGERGEN_PASSWORD and LEDGERGEN_CONNECTION")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "",
		"target database (postgres, clickhouse, sqlite)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"connection string (a file path for sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format (console, json)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(ddlCmd)
	rootCmd.AddCommand(statusCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := cfg.ApplyEnv(envFile); err != nil {
		return err
	}

	// Override with CLI flags
	if driver != "" {
		cfg.Driver = driver
	}
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	return nil
}

// openStore connects to the configured database.
func openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, store.Options{
		Driver:     cfg.Driver,
		Connection: cfg.Connection,
		Password:   cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return s, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
