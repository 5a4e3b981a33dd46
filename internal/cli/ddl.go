package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

var (
	ddlDialect string
	ddlDrop    bool
)

var ddlCmd = &cobra.Command{
	Use:   "ddl",
	Short: "Print the lending schema DDL",
	Long: `Print the CREATE TABLE statements of the lending schema for a
database dialect. The dialect defaults to the configured driver.

Example:
  pgedge-ledgergen ddl --dialect clickhouse`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cfg.Driver
		if ddlDialect != "" {
			name = ddlDialect
		}
		d, err := schema.ParseDialect(name)
		if err != nil {
			return err
		}
		return writeDDL(cmd.OutOrStdout(), d, ddlDrop)
	},
}

func init() {
	ddlCmd.Flags().StringVar(&ddlDialect, "dialect", "",
		"SQL dialect (postgres, clickhouse, sqlite)")
	ddlCmd.Flags().BoolVar(&ddlDrop, "drop", false,
		"include DROP TABLE statements")
}

func writeDDL(w io.Writer, d schema.Dialect, drop bool) error {
	tables := append(schema.LendingTables(), schema.Metadata)

	if drop {
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := fmt.Fprintf(w, "%s;\n", schema.DropTableSQL(d, tables[i].Name)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	for _, t := range tables {
		if _, err := fmt.Fprintf(w, "%s;\n\n", schema.CreateTableSQL(d, t)); err != nil {
			return err
		}
	}
	return nil
}
