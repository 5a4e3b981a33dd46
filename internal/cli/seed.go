package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ledgergen/internal/config"
	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
	"github.com/pgEdge/pgedge-ledgergen/internal/lending"
	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/metrics"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
)

// Metadata keys written by the seed command.
const (
	metaSeed   = "seed"
	metaAsOf   = "as_of"
	metaDriver = "driver"
	metaRows   = "rows."
)

var (
	seedRandomSeed       uint64
	seedAsOf             string
	seedStartDate        string
	seedEndDate          string
	seedRegions          int
	seedProducts         int
	seedCustomers        int
	seedSales            int
	seedSyntheticLoans   int
	seedBatchSize        int
	seedDropExisting     bool
	seedPushgatewayURL   string
	seedProgressInterval int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the lending schema and populate it",
	Long: `Create the lending star schema and fill it with synthetic data.
Dimensions are generated first, then loan applications, the loans they
produce, and finally a repayment history for every open loan up to the
as-of date.

Example:
  pgedge-ledgergen seed --driver sqlite --connection ledger.db --random-seed 42`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().Uint64Var(&seedRandomSeed, "random-seed", 0,
		"random seed for reproducible data (0 picks one)")
	seedCmd.Flags().StringVar(&seedAsOf, "as-of", "",
		"simulation date, YYYY-MM-DD (default: today)")
	seedCmd.Flags().StringVar(&seedStartDate, "start-date", "",
		"first day of the time dimension, YYYY-MM-DD")
	seedCmd.Flags().StringVar(&seedEndDate, "end-date", "",
		"last day of the time dimension, YYYY-MM-DD")
	seedCmd.Flags().IntVar(&seedRegions, "regions", 0,
		"number of regions")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0,
		"number of products")
	seedCmd.Flags().IntVar(&seedCustomers, "customers", 0,
		"number of customers")
	seedCmd.Flags().IntVar(&seedSales, "sales", 0,
		"number of loan applications")
	seedCmd.Flags().IntVar(&seedSyntheticLoans, "synthetic-loans", 0,
		"extra loans not backed by an application")
	seedCmd.Flags().IntVar(&seedBatchSize, "batch-size", 0,
		"rows per insert batch")
	seedCmd.Flags().Int64Var(&seedProgressInterval, "progress-interval", 0,
		"log progress every N rows")
	seedCmd.Flags().BoolVar(&seedDropExisting, "drop-existing", true,
		"drop the lending tables before creating them")
	seedCmd.Flags().StringVar(&seedPushgatewayURL, "pushgateway-url", "",
		"Prometheus Pushgateway to push run metrics to")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	flags := cmd.Flags()
	if flags.Changed("random-seed") {
		cfg.Seed.RandomSeed = seedRandomSeed
	}
	if seedAsOf != "" {
		cfg.Seed.AsOf = seedAsOf
	}
	if seedStartDate != "" {
		cfg.Seed.StartDate = seedStartDate
	}
	if seedEndDate != "" {
		cfg.Seed.EndDate = seedEndDate
	}
	if seedRegions > 0 {
		cfg.Seed.Regions = seedRegions
	}
	if seedProducts > 0 {
		cfg.Seed.Products = seedProducts
	}
	if seedCustomers > 0 {
		cfg.Seed.Customers = seedCustomers
	}
	if flags.Changed("sales") {
		cfg.Seed.Sales = seedSales
	}
	if flags.Changed("synthetic-loans") {
		cfg.Seed.SyntheticLoans = seedSyntheticLoans
	}
	if seedBatchSize > 0 {
		cfg.Seed.BatchSize = seedBatchSize
	}
	if seedProgressInterval > 0 {
		cfg.Seed.ProgressInterval = seedProgressInterval
	}
	if flags.Changed("drop-existing") {
		cfg.Seed.DropExisting = seedDropExisting
	}
	if seedPushgatewayURL != "" {
		cfg.Metrics.PushgatewayURL = seedPushgatewayURL
	}

	// Validate configuration
	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	genCfg, err := lendingConfig(cfg.Seed, recorder, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	gen := lending.NewGenerator(s, genCfg)
	runID := store.NewRunID()

	logging.Info().
		Str("driver", cfg.Driver).
		Str("run_id", runID).
		Uint64("seed", gen.Seed()).
		Str("as_of", gen.AsOf().Format(time.DateOnly)).
		Msg("Seeding lending schema")

	if err := gen.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("seed interrupted: %w", err)
		}
		return fmt.Errorf("failed to generate data: %w", err)
	}

	counts := gen.Counts()
	if err := store.SaveMetadata(ctx, s, seedMetadata(runID, cfg.Driver, gen.Seed(), gen.AsOf(), counts)); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, pushCancel := context.WithTimeout(ctx, 10*time.Second)
		defer pushCancel()
		if err := recorder.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, runID); err != nil {
			logging.Warn().Err(err).Msg("Metrics push failed")
		}
	}

	printCounts(cmd, counts)
	logging.Info().
		Str("run_id", runID).
		Uint64("seed", gen.Seed()).
		Msg("Seed complete")

	return nil
}

// lendingConfig converts the seed section of the configuration into a
// generator configuration wired to recorder.
func lendingConfig(s config.SeedConfig, recorder *metrics.Recorder, today time.Time) (lending.Config, error) {
	asOf, start, end, err := s.Dates(today)
	if err != nil {
		return lending.Config{}, err
	}
	weights, err := s.Weights()
	if err != nil {
		return lending.Config{}, err
	}

	out := lending.Config{
		Seed:           s.RandomSeed,
		AsOf:           asOf,
		StartDate:      start,
		EndDate:        end,
		Regions:        s.Regions,
		Products:       s.Products,
		Customers:      s.Customers,
		Sales:          s.Sales,
		SyntheticLoans: s.SyntheticLoans,
		DropExisting:   s.DropExisting,
		Batch: datagen.BatchInsertConfig{
			BatchSize:        s.BatchSize,
			ProgressInterval: s.ProgressInterval,
		},
		Weights: weights,
	}
	if recorder != nil {
		out.Batch.Observer = recorder.ObserveBatch
		out.PhaseObserver = recorder.ObservePhase
	}
	return out, nil
}

// seedMetadata builds the key/value pairs recorded after a run.
func seedMetadata(runID, driver string, seed uint64, asOf time.Time, counts map[string]int64) map[string]string {
	values := map[string]string{
		store.MetaRunID: runID,
		metaSeed:        strconv.FormatUint(seed, 10),
		metaAsOf:        asOf.Format(time.DateOnly),
		metaDriver:      driver,
	}
	for table, n := range counts {
		values[metaRows+table] = strconv.FormatInt(n, 10)
	}
	return values
}

func printCounts(cmd *cobra.Command, counts map[string]int64) {
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	cmd.Println("Rows written:")
	for _, t := range tables {
		cmd.Printf("  %-22s %12s\n", t, humanize.Comma(counts[t]))
	}
}
