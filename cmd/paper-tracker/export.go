// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-tracker/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library as YAML or JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	exportCmd.Flags().String("out", "", "output file (default library.yaml or library.json)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	st, err := store.Open(dbPath())
	if err != nil {
		return err
	}
	defer st.Close()

	switch format {
	case "yaml":
		if out == "" {
			out = "library.yaml"
		}
		err = st.ExportYAML(cmd.Context(), store.DefaultUserID, out)
	case "json":
		if out == "" {
			out = "library.json"
		}
		err = st.ExportJSON(cmd.Context(), store.DefaultUserID, out)
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported library to %s\n", out)
	return nil
}
