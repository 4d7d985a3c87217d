// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-tracker/pkg/types"
)

// ExportEntry holds one field with its papers for export.
type ExportEntry struct {
	Field  types.Field   `json:"field" yaml:"field"`
	Papers []types.Paper `json:"papers" yaml:"papers"`
}

// ExportYAML writes the user's library (fields with nested papers) to
// path as YAML.
func (s *Store) ExportYAML(ctx context.Context, userID int64, path string) error {
	entries, err := s.exportEntries(ctx, userID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the user's library to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, userID int64, path string) error {
	entries, err := s.exportEntries(ctx, userID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, userID int64) ([]ExportEntry, error) {
	fields, err := s.ListFields(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]ExportEntry, 0, len(fields))
	for _, f := range fields {
		papers, err := s.ListPapersByField(ctx, f.ID, userID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ExportEntry{Field: f, Papers: papers})
	}
	return entries, nil
}
