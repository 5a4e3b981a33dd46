package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
	"github.com/pgEdge/pgedge-ledgergen/internal/ingest"
	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/metrics"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
)

var (
	importTable        string
	importKeyColumn    string
	importNullTokens   []string
	importBatchSize    int
	importDropExisting bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a CSV or JSON file into a new table",
	Long: `Load a CSV file or a JSON array of objects into a new table. Column
names are sanitized and column types are inferred from the data. Rows whose
key column is empty are skipped, and null tokens such as NA become NULL.

Example:
  pgedge-ledgergen import bank_customers.csv --key-column "Customer ID"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importTable, "table", "",
		"target table (default: derived from the file name)")
	importCmd.Flags().StringVar(&importKeyColumn, "key-column", "",
		"column whose empty values cause a row to be skipped")
	importCmd.Flags().StringSliceVar(&importNullTokens, "null-token", nil,
		"value loaded as NULL (repeatable)")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 0,
		"rows per insert batch")
	importCmd.Flags().BoolVar(&importDropExisting, "drop-existing", false,
		"drop the target table first")
}

func runImport(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if importTable != "" {
		cfg.Import.Table = importTable
	}
	if importKeyColumn != "" {
		cfg.Import.KeyColumn = importKeyColumn
	}
	if cmd.Flags().Changed("null-token") {
		cfg.Import.NullTokens = importNullTokens
	}
	if importBatchSize > 0 {
		cfg.Import.BatchSize = importBatchSize
	}
	if importDropExisting {
		cfg.Import.DropExisting = true
	}

	// Validate configuration
	if err := cfg.ValidateImport(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	recorder := metrics.NewRecorder()
	batch := datagen.BatchInsertConfig{
		BatchSize:        cfg.Import.BatchSize,
		ProgressInterval: cfg.Seed.ProgressInterval,
		Observer:         recorder.ObserveBatch,
	}
	opts := ingest.Options{
		Table:      cfg.Import.Table,
		KeyColumn:  cfg.Import.KeyColumn,
		NullTokens: cfg.Import.NullTokens,
	}

	path := args[0]
	start := time.Now()
	res, err := ingest.LoadFile(ctx, s, path, opts, batch, cfg.Import.DropExisting)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	recorder.ObservePhase("import", time.Since(start))

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, pushCancel := context.WithTimeout(ctx, 10*time.Second)
		defer pushCancel()
		if err := recorder.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, store.NewRunID()); err != nil {
			logging.Warn().Err(err).Msg("Metrics push failed")
		}
	}

	cmd.Printf("Imported %s rows into %s (%s skipped)\n",
		humanize.Comma(res.Inserted), res.Table.Name, humanize.Comma(int64(res.Skipped)))
	for _, c := range res.Table.Columns {
		cmd.Printf("  %-30s %s\n", c.Name, c.Type.SQL(s.Dialect()))
	}
	return nil
}
