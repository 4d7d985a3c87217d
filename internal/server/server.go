// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the paper-tracker HTTP API: field and paper
// CRUD plus the related-work suggestion endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/paper-tracker/internal/store"
	"github.com/pdiddy/paper-tracker/pkg/types"
)

// Suggester runs the related-work discovery pipeline for one field.
type Suggester interface {
	SuggestRelatedPapers(ctx context.Context, fieldID, userID int64) (types.SuggestionResult, error)
}

// MetadataResolver looks up bibliographic metadata for a single DOI,
// used when registering a paper.
type MetadataResolver interface {
	Resolve(ctx context.Context, doi string) (types.ResolvedSuggestion, error)
}

// Server wires the store and the suggestion pipeline into HTTP handlers.
type Server struct {
	store     *store.Store
	resolver  MetadataResolver
	suggester Suggester
	logger    *slog.Logger
}

// New creates a Server. A nil logger falls back to slog.Default().
func New(st *store.Store, resolver MetadataResolver, suggester Suggester, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     st,
		resolver:  resolver,
		suggester: suggester,
		logger:    logger,
	}
}

// Handler returns the API router.
//
// Error-to-status mapping is the router's responsibility: not-found
// outcomes map to 404, validation failures to 400, duplicates to 409,
// and upstream or unexpected failures to 500.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recovery)
	r.Use(s.requestLogger)
	r.Use(withUser)

	r.Route("/api", func(r chi.Router) {
		r.Post("/fields", s.handleCreateField)
		r.Get("/fields", s.handleListFields)
		r.Route("/fields/{id}", func(r chi.Router) {
			r.Get("/papers", s.handleListPapers)
			r.Post("/papers/suggest", s.handleSuggestPapers)
		})
		r.Post("/papers", s.handleCreatePaper)
		r.Delete("/papers/{id}", s.handleDeletePaper)
	})

	return r
}
