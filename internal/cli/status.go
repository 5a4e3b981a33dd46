package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last seed run and table row counts",
	RunE:  runStatus,
}

// tableStatus is the row count of one lending table.
type tableStatus struct {
	Name   string
	Exists bool
	Rows   int64
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	metadata, tables, err := collectStatus(ctx, s)
	if err != nil {
		return err
	}

	if len(metadata) == 0 {
		cmd.Println("No seed run recorded")
	} else {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		cmd.Println("Last run:")
		for _, k := range keys {
			cmd.Printf("  %-28s %s\n", k, metadata[k])
		}
	}

	cmd.Println()
	cmd.Println("Tables:")
	for _, t := range tables {
		if !t.Exists {
			cmd.Printf("  %-22s %12s\n", t.Name, "missing")
			continue
		}
		cmd.Printf("  %-22s %12s\n", t.Name, humanize.Comma(t.Rows))
	}
	return nil
}

// collectStatus reads the metadata table and counts the rows of every
// lending table that exists.
func collectStatus(ctx context.Context, s store.Store) (map[string]string, []tableStatus, error) {
	var metadata map[string]string
	exists, err := store.MetadataExists(ctx, s)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check metadata: %w", err)
	}
	if exists {
		metadata, err = store.GetAllMetadata(ctx, s)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read metadata: %w", err)
		}
	}

	var tables []tableStatus
	for _, t := range schema.LendingTables() {
		ts := tableStatus{Name: t.Name}
		ts.Exists, err = store.TableExists(ctx, s, t.Name)
		if err != nil {
			return nil, nil, err
		}
		if ts.Exists {
			ts.Rows, err = store.CountRows(ctx, s, t.Name)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to count %s: %w", t.Name, err)
			}
		}
		tables = append(tables, ts)
	}
	return metadata, tables, nil
}
