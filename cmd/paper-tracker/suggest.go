// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-tracker/internal/store"
	"github.com/pdiddy/paper-tracker/internal/suggest"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <field-id>",
	Short: "Suggest related papers for a field",
	Long: `Suggest runs the related-work discovery pipeline for one field: it
prompts the generative model with the field's papers, extracts candidate
DOIs from the response, and resolves each against CrossRef.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	fieldID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || fieldID <= 0 {
		return fmt.Errorf("invalid field id %q", args[0])
	}

	st, err := store.Open(dbPath())
	if err != nil {
		return err
	}
	defer st.Close()

	gemini, resolver := newPipelineClients(slog.Default())
	service := &suggest.Service{
		Store:     st,
		Generator: gemini,
		Resolver:  resolver,
	}

	result, err := service.SuggestRelatedPapers(cmd.Context(), fieldID, store.DefaultUserID)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s", result.Error)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Suggestions for %q (%d papers tracked):\n\n", result.FieldName, result.PaperCount)
	if len(result.SuggestedPapers) == 0 {
		fmt.Fprintln(out, "No suggestions could be resolved.")
		return nil
	}
	for _, p := range result.SuggestedPapers {
		fmt.Fprintf(out, "  %s\n", p.Title)
		if len(p.Authors) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(p.Authors, ", "))
		}
		if p.Year > 0 {
			fmt.Fprintf(out, "    %d\n", p.Year)
		}
		fmt.Fprintf(out, "    https://doi.org/%s\n\n", p.DOI)
	}
	return nil
}
