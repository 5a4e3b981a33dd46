//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
	"github.com/pgEdge/pgedge-ledgergen/pkg/version"
)

// Metadata keys written by every seed run.
const (
	MetaRunID         = "run_id"
	MetaVersion       = "version"
	MetaInitializedAt = "initialized_at"
)

// NewRunID returns a fresh identifier for a seed run.
func NewRunID() string {
	return uuid.NewString()
}

// SaveMetadata replaces the metadata table with values plus the tool version
// and the current time. A run id is added when values has none.
func SaveMetadata(ctx context.Context, s Store, values map[string]string) error {
	if err := CreateTables(ctx, s, []schema.Table{schema.Metadata}, true); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		MetaVersion:       version.Short(),
		MetaInitializedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range values {
		metadata[k] = v
	}
	if metadata[MetaRunID] == "" {
		metadata[MetaRunID] = NewRunID()
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]any, len(keys))
	for i, k := range keys {
		rows[i] = []any{k, metadata[k]}
	}
	if _, err := s.InsertRows(ctx, schema.TableMetadataName, schema.Metadata.ColumnNames(), rows); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Debug().
		Str("run_id", metadata[MetaRunID]).
		Int("keys", len(keys)).
		Msg("Saved metadata")

	return nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, s Store) (map[string]string, error) {
	d := s.Dialect()
	rows, err := s.Query(ctx, fmt.Sprintf("SELECT %s, %s FROM %s",
		schema.QuoteIdent(d, "key"), schema.QuoteIdent(d, "value"),
		schema.QuoteIdent(d, schema.TableMetadataName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, s Store, key string) (string, error) {
	all, err := GetAllMetadata(ctx, s)
	if err != nil {
		return "", err
	}
	v, ok := all[key]
	if !ok {
		return "", fmt.Errorf("metadata key %q not found", key)
	}
	return v, nil
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, s Store) (bool, error) {
	return TableExists(ctx, s, schema.TableMetadataName)
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, s Store) error {
	return s.Exec(ctx, schema.DropTableSQL(s.Dialect(), schema.TableMetadataName))
}
