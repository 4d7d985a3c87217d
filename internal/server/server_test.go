// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-tracker/internal/store"
	"github.com/pdiddy/paper-tracker/internal/suggest"
	"github.com/pdiddy/paper-tracker/pkg/types"
)

// fakeResolver resolves any DOI except ones containing "missing"
// (ErrDOINotFound) or "broken" (transport failure).
type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, doi string) (types.ResolvedSuggestion, error) {
	switch {
	case strings.Contains(doi, "missing"):
		return types.ResolvedSuggestion{}, fmt.Errorf("%w: %s", suggest.ErrDOINotFound, doi)
	case strings.Contains(doi, "broken"):
		return types.ResolvedSuggestion{}, fmt.Errorf("fetching metadata: connection refused")
	}
	return types.ResolvedSuggestion{
		DOI:     doi,
		Title:   "Resolved " + doi,
		Authors: []string{"Test Author"},
		Year:    2020,
	}, nil
}

type fakeSuggester struct {
	result types.SuggestionResult
	err    error
}

func (f fakeSuggester) SuggestRelatedPapers(context.Context, int64, int64) (types.SuggestionResult, error) {
	return f.result, f.err
}

func newTestServer(t *testing.T, sg Suggester) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "papers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(New(st, fakeResolver{}, sg, logger).Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestCreateField(t *testing.T) {
	ts, _ := newTestServer(t, fakeSuggester{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/fields", `{"name": "Machine Learning"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var field types.Field
	decodeBody(t, resp, &field)
	assert.Equal(t, "Machine Learning", field.Name)
	assert.NotZero(t, field.ID)

	// Same name again is a conflict.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/fields", `{"name": "Machine Learning"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateFieldValidation(t *testing.T) {
	ts, _ := newTestServer(t, fakeSuggester{})

	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name": ""}`},
		{"whitespace name", `{"name": "   "}`},
		{"too long", fmt.Sprintf(`{"name": %q}`, strings.Repeat("x", 101))},
		{"malformed body", `{"name": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/fields", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestListFieldsEmpty(t *testing.T) {
	ts, _ := newTestServer(t, fakeSuggester{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/fields", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Empty library is an empty array, not null.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestCreatePaper(t *testing.T) {
	ts, st := newTestServer(t, fakeSuggester{})
	field, err := st.CreateField(context.Background(), store.DefaultUserID, "ML")
	require.NoError(t, err)

	body := fmt.Sprintf(`{"doi": "10.1000/xyz", "fieldId": %d}`, field.ID)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/papers", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var paper types.Paper
	decodeBody(t, resp, &paper)
	assert.Equal(t, "Resolved 10.1000/xyz", paper.Title)
	assert.Equal(t, []string{"Test Author"}, paper.Authors)

	// Re-registering the same DOI in the field is a conflict.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/papers", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreatePaperErrorMapping(t *testing.T) {
	ts, st := newTestServer(t, fakeSuggester{})
	field, err := st.CreateField(context.Background(), store.DefaultUserID, "ML")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing doi", fmt.Sprintf(`{"fieldId": %d}`, field.ID), http.StatusBadRequest},
		{"missing fieldId", `{"doi": "10.1000/xyz"}`, http.StatusBadRequest},
		{"unknown field", `{"doi": "10.1000/xyz", "fieldId": 999}`, http.StatusNotFound},
		{"unresolvable doi", fmt.Sprintf(`{"doi": "10.1000/missing", "fieldId": %d}`, field.ID), http.StatusNotFound},
		{"metadata service down", fmt.Sprintf(`{"doi": "10.1000/broken", "fieldId": %d}`, field.ID), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/papers", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestListPapers(t *testing.T) {
	ts, st := newTestServer(t, fakeSuggester{})
	ctx := context.Background()
	field, err := st.CreateField(ctx, store.DefaultUserID, "ML")
	require.NoError(t, err)
	_, err = st.CreatePaper(ctx, types.Paper{
		UserID: store.DefaultUserID, FieldID: field.ID, DOI: "10.1000/a", Title: "A Paper",
	})
	require.NoError(t, err)

	resp := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/fields/%d/papers", ts.URL, field.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var papers []types.Paper
	decodeBody(t, resp, &papers)
	require.Len(t, papers, 1)
	assert.Equal(t, "A Paper", papers[0].Title)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/fields/999/papers", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeletePaper(t *testing.T) {
	ts, st := newTestServer(t, fakeSuggester{})
	ctx := context.Background()
	field, err := st.CreateField(ctx, store.DefaultUserID, "ML")
	require.NoError(t, err)
	paper, err := st.CreatePaper(ctx, types.Paper{
		UserID: store.DefaultUserID, FieldID: field.ID, DOI: "10.1000/a", Title: "Doomed",
	})
	require.NoError(t, err)

	resp := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/papers/%d", ts.URL, paper.ID), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/papers/%d", ts.URL, paper.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSuggestPapersSuccess(t *testing.T) {
	want := types.SuggestionResult{
		Success:    true,
		FieldName:  "ML",
		PaperCount: 2,
		RawText:    "DOI: 10.1000/aaa",
		SuggestedPapers: []types.ResolvedSuggestion{
			{DOI: "10.1000/aaa", Title: "Suggested", Authors: []string{}},
		},
	}
	ts, _ := newTestServer(t, fakeSuggester{result: want})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/fields/1/papers/suggest", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got types.SuggestionResult
	decodeBody(t, resp, &got)
	assert.Equal(t, want, got)
}

func TestSuggestPapersErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		suggester fakeSuggester
		want      int
	}{
		{
			"unknown field",
			fakeSuggester{err: fmt.Errorf("%w: field 1", store.ErrNotFound)},
			http.StatusNotFound,
		},
		{
			"empty field",
			fakeSuggester{err: fmt.Errorf(`%w: "ML"`, suggest.ErrNoPapers)},
			http.StatusBadRequest,
		},
		{
			"unexpected failure",
			fakeSuggester{err: fmt.Errorf("listing papers: disk on fire")},
			http.StatusInternalServerError,
		},
		{
			"caught upstream failure",
			fakeSuggester{result: types.SuggestionResult{
				Success:    false,
				FieldName:  "ML",
				PaperCount: 2,
				Error:      "failed to generate suggestions: generative service unavailable",
			}},
			http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.suggester)
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/fields/1/papers/suggest", "")
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

// A caught upstream failure still returns the structured result so the
// client sees the field context and the error message.
func TestSuggestPapersFailureBody(t *testing.T) {
	ts, _ := newTestServer(t, fakeSuggester{result: types.SuggestionResult{
		Success:   false,
		FieldName: "ML",
		Error:     "failed to generate suggestions: generative service unavailable",
	}})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/fields/1/papers/suggest", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var got types.SuggestionResult
	decodeBody(t, resp, &got)
	assert.False(t, got.Success)
	assert.Equal(t, "ML", got.FieldName)
	assert.Contains(t, got.Error, "failed to generate suggestions")
}

func TestInvalidPathID(t *testing.T) {
	ts, _ := newTestServer(t, fakeSuggester{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/fields/abc/papers/suggest", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/papers/0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecoveryMiddleware(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "papers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(st, fakeResolver{}, panickySuggester{}, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/fields/1/papers/suggest", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

type panickySuggester struct{}

func (panickySuggester) SuggestRelatedPapers(context.Context, int64, int64) (types.SuggestionResult, error) {
	panic("boom")
}
