// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/paper-tracker/internal/store"
	"github.com/pdiddy/paper-tracker/internal/suggest"
	"github.com/pdiddy/paper-tracker/pkg/types"
)

const maxFieldNameLen = 100

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

type createFieldRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateField(w http.ResponseWriter, r *http.Request) {
	var req createFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "field name is required")
		return
	}
	if len(name) > maxFieldNameLen {
		writeError(w, http.StatusBadRequest, "field name is too long")
		return
	}

	field, err := s.store.CreateField(r.Context(), userFrom(r.Context()), name)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "a field with this name already exists")
		return
	}
	if err != nil {
		s.logger.Error("creating field", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create field")
		return
	}

	writeJSON(w, http.StatusCreated, field)
}

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.store.ListFields(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.logger.Error("listing fields", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list fields")
		return
	}
	if fields == nil {
		fields = []types.Field{}
	}
	writeJSON(w, http.StatusOK, fields)
}

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid field id")
		return
	}
	userID := userFrom(r.Context())

	if _, err := s.store.GetField(r.Context(), fieldID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "field not found")
			return
		}
		s.logger.Error("looking up field", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to look up field")
		return
	}

	papers, err := s.store.ListPapersByField(r.Context(), fieldID, userID)
	if err != nil {
		s.logger.Error("listing papers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list papers")
		return
	}
	if papers == nil {
		papers = []types.Paper{}
	}
	writeJSON(w, http.StatusOK, papers)
}

type createPaperRequest struct {
	DOI     string `json:"doi"`
	FieldID int64  `json:"fieldId"`
}

func (s *Server) handleCreatePaper(w http.ResponseWriter, r *http.Request) {
	var req createPaperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.DOI) == "" {
		writeError(w, http.StatusBadRequest, "doi is required")
		return
	}
	if req.FieldID <= 0 {
		writeError(w, http.StatusBadRequest, "fieldId is required")
		return
	}
	userID := userFrom(r.Context())

	if _, err := s.store.GetField(r.Context(), req.FieldID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "field not found")
			return
		}
		s.logger.Error("looking up field", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to look up field")
		return
	}

	meta, err := s.resolver.Resolve(r.Context(), strings.TrimSpace(req.DOI))
	if errors.Is(err, suggest.ErrDOINotFound) {
		writeError(w, http.StatusNotFound, "could not resolve paper metadata for this DOI")
		return
	}
	if err != nil {
		s.logger.Error("resolving paper metadata", "doi", req.DOI, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve paper metadata")
		return
	}

	paper, err := s.store.CreatePaper(r.Context(), types.Paper{
		UserID:  userID,
		FieldID: req.FieldID,
		DOI:     meta.DOI,
		Title:   meta.Title,
		Authors: meta.Authors,
		Year:    meta.Year,
		Month:   meta.Month,
		Day:     meta.Day,
	})
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "this paper is already registered in the field")
		return
	}
	if err != nil {
		s.logger.Error("creating paper", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create paper")
		return
	}

	writeJSON(w, http.StatusCreated, paper)
}

func (s *Server) handleDeletePaper(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid paper id")
		return
	}

	err := s.store.DeletePaper(r.Context(), id, userFrom(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "paper not found")
		return
	}
	if err != nil {
		s.logger.Error("deleting paper", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete paper")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuggestPapers(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid field id")
		return
	}

	result, err := s.suggester.SuggestRelatedPapers(r.Context(), fieldID, userFrom(r.Context()))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "field not found")
		return
	case errors.Is(err, suggest.ErrNoPapers):
		writeError(w, http.StatusBadRequest, "the field has no papers to base suggestions on")
		return
	case err != nil:
		s.logger.Error("suggesting papers", "field_id", fieldID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to suggest papers")
		return
	}

	// A caught upstream failure arrives as a structured Success=false
	// result rather than an error.
	if !result.Success {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
