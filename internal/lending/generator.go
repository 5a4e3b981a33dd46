//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package lending generates the synthetic lending star schema: dimensions,
// sales, loans and simulated repayments.
package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
	"github.com/pgEdge/pgedge-ledgergen/internal/ledger"
	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
)

// Phase names, used in logs and metrics.
const (
	PhaseReset      = "reset"
	PhaseDimensions = "dimensions"
	PhaseSales      = "sales"
	PhaseLoans      = "loans"
	PhaseRepayments = "repayments"
)

// Config controls what a generation run produces.
type Config struct {
	Seed uint64

	// AsOf is "today" for the simulation. Installments due after it are
	// not generated.
	AsOf      time.Time
	StartDate time.Time
	EndDate   time.Time

	Regions        int
	Products       int
	Customers      int
	Sales          int
	SyntheticLoans int

	DropExisting bool
	Batch        datagen.BatchInsertConfig
	Weights      ledger.WeightTable

	// PhaseObserver, if set, is called after each phase completes.
	PhaseObserver func(phase string, elapsed time.Duration)
}

// DefaultConfig returns the sizes of the original demo data set.
func DefaultConfig() Config {
	return Config{
		AsOf:         datagen.TruncateDay(time.Now()),
		StartDate:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Regions:      50,
		Products:     200,
		Customers:    5000,
		Sales:        20000,
		DropExisting: true,
		Batch:        datagen.DefaultBatchConfig(),
		Weights:      ledger.DefaultWeights(),
	}
}

// Generator writes the lending schema into a store.
type Generator struct {
	store     store.Store
	cfg       Config
	faker     *datagen.Faker
	simulator *ledger.Simulator
	counts    map[string]int64
}

// NewGenerator creates a generator. A zero seed picks a time-based one.
func NewGenerator(s store.Store, cfg Config) *Generator {
	faker := datagen.NewFaker()
	if cfg.Seed != 0 {
		faker = datagen.NewFakerWithSeed(cfg.Seed)
	}
	if cfg.AsOf.IsZero() {
		cfg.AsOf = time.Now()
	}
	cfg.AsOf = datagen.TruncateDay(cfg.AsOf)
	if cfg.Weights == nil {
		cfg.Weights = ledger.DefaultWeights()
	}

	return &Generator{
		store:     s,
		cfg:       cfg,
		faker:     faker,
		simulator: ledger.NewSimulator(faker, cfg.Weights, nil),
		counts:    make(map[string]int64),
	}
}

// Seed returns the seed in use.
func (g *Generator) Seed() uint64 {
	return g.faker.Seed()
}

// AsOf returns the simulation date.
func (g *Generator) AsOf() time.Time {
	return g.cfg.AsOf
}

// Counts returns the number of rows written per table so far.
func (g *Generator) Counts() map[string]int64 {
	out := make(map[string]int64, len(g.counts))
	for k, v := range g.counts {
		out[k] = v
	}
	return out
}

// Run executes every phase in dependency order.
func (g *Generator) Run(ctx context.Context) error {
	logging.Info().
		Uint64("seed", g.Seed()).
		Str("as_of", g.cfg.AsOf.Format(time.DateOnly)).
		Str("driver", string(g.store.Dialect())).
		Msg("Starting data generation")

	phases := []struct {
		name string
		fn   func(context.Context) error
	}{
		{PhaseReset, g.ResetSchema},
		{PhaseDimensions, g.GenerateDimensions},
		{PhaseSales, g.GenerateSales},
		{PhaseLoans, g.GenerateLoans},
		{PhaseRepayments, g.GenerateRepayments},
	}

	start := time.Now()
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		phaseStart := time.Now()
		if err := p.fn(ctx); err != nil {
			return fmt.Errorf("%s phase failed: %w", p.name, err)
		}
		elapsed := time.Since(phaseStart)
		if g.cfg.PhaseObserver != nil {
			g.cfg.PhaseObserver(p.name, elapsed)
		}
		logging.Info().
			Str("phase", p.name).
			Dur("duration", elapsed).
			Msg("Phase complete")
	}

	logging.Info().
		Dur("duration", time.Since(start)).
		Msg("Data generation complete")
	return nil
}

// ResetSchema drops and recreates the lending tables. With DropExisting off
// the tables are only created when missing.
func (g *Generator) ResetSchema(ctx context.Context) error {
	logging.Info().
		Bool("drop_existing", g.cfg.DropExisting).
		Msg("Creating schema")
	return store.CreateTables(ctx, g.store, schema.LendingTables(), g.cfg.DropExisting)
}

// newBatcher returns a batcher for table and records its row count when the
// batcher is closed through closeBatcher.
func (g *Generator) newBatcher(t schema.Table, expected int) *datagen.Batcher {
	return datagen.NewBatcher(g.store, t.Name, t.ColumnNames(), g.cfg.Batch, int64(expected))
}

func (g *Generator) closeBatcher(ctx context.Context, b *datagen.Batcher, table string) error {
	if err := b.Close(ctx); err != nil {
		return err
	}
	g.counts[table] += b.Inserted()
	return nil
}
