// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/paper-tracker/pkg/types"
)

// Generator abstracts the generative text service so tests can supply a
// mock.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Resolver abstracts bibliographic metadata resolution for a batch of
// DOIs.
type Resolver interface {
	ResolveAll(ctx context.Context, dois []string) []types.ResolvedSuggestion
}

// Store is the field/paper lookup surface the orchestrator consumes.
// Lookups are scoped to the requesting user.
type Store interface {
	GetField(ctx context.Context, id, userID int64) (types.Field, error)
	ListPapersByField(ctx context.Context, fieldID, userID int64) ([]types.Paper, error)
}

// Service composes the suggestion pipeline behind one operation.
type Service struct {
	Store     Store
	Generator Generator
	Resolver  Resolver
	Logger    *slog.Logger
}

// SuggestRelatedPapers discovers papers related to the ones already
// tracked in the field.
//
// Preconditions, checked in order: the field must exist for the user
// (the store's not-found error passes through), and it must have at
// least one paper (ErrNoPapers otherwise). A generative call that fails
// after retries is not propagated: it is caught here and reported as a
// result with Success=false and an explanatory message. Individual
// metadata lookups are independently fallible, but the resolution pass
// as a whole cannot fail.
func (s *Service) SuggestRelatedPapers(ctx context.Context, fieldID, userID int64) (types.SuggestionResult, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	field, err := s.Store.GetField(ctx, fieldID, userID)
	if err != nil {
		return types.SuggestionResult{}, err
	}

	papers, err := s.Store.ListPapersByField(ctx, fieldID, userID)
	if err != nil {
		return types.SuggestionResult{}, fmt.Errorf("listing papers: %w", err)
	}
	if len(papers) == 0 {
		return types.SuggestionResult{}, fmt.Errorf("%w: %q", ErrNoPapers, field.Name)
	}

	summaries := make([]types.PaperSummary, len(papers))
	for i, p := range papers {
		summaries[i] = types.PaperSummary{
			Title:   p.Title,
			Authors: strings.Join(p.Authors, ", "),
			Year:    p.Year,
		}
	}

	prompt := BuildPrompt(field.Name, summaries)

	raw, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("suggestion generation failed",
			"field", field.Name,
			"paper_count", len(papers),
			"error", err)
		return types.SuggestionResult{
			Success:    false,
			FieldName:  field.Name,
			PaperCount: len(papers),
			Error:      fmt.Sprintf("failed to generate suggestions: %v", err),
		}, nil
	}

	dois := ExtractDOIs(raw)
	logger.Info("extracted candidate DOIs",
		"field", field.Name,
		"count", len(dois))

	suggested := s.Resolver.ResolveAll(ctx, dois)

	return types.SuggestionResult{
		Success:         true,
		FieldName:       field.Name,
		PaperCount:      len(papers),
		RawText:         raw,
		SuggestedPapers: suggested,
	}, nil
}
