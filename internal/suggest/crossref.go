// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/pdiddy/paper-tracker/internal/httputil"
	"github.com/pdiddy/paper-tracker/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// FailedResolutionTitle marks a suggestion whose metadata lookup failed
// (transport error or malformed response, as opposed to a missing
// record, which drops the suggestion entirely).
const FailedResolutionTitle = "(metadata unavailable)"

const defaultUserAgent = "paper-tracker/0.1"

// resolutionStatus tags the outcome of one metadata lookup.
type resolutionStatus int

const (
	resolutionFound resolutionStatus = iota
	resolutionNotFound
	resolutionFailed
)

// resolution is the settled outcome of one lookup task.
type resolution struct {
	status resolutionStatus
	paper  types.ResolvedSuggestion
	err    error
}

// CrossrefResolver resolves DOIs against the CrossRef works API.
type CrossrefResolver struct {
	Config types.CrossrefConfig
	Client *http.Client
	Logger *slog.Logger
}

// Resolve looks up a single DOI and returns its metadata. A missing
// record yields ErrDOINotFound; any other failure is returned as-is.
func (r *CrossrefResolver) Resolve(ctx context.Context, doi string) (types.ResolvedSuggestion, error) {
	res := r.resolve(ctx, doi)
	switch res.status {
	case resolutionFound:
		return res.paper, nil
	case resolutionNotFound:
		return types.ResolvedSuggestion{}, fmt.Errorf("%w: %s", ErrDOINotFound, doi)
	default:
		return types.ResolvedSuggestion{}, res.err
	}
}

// ResolveAll resolves each DOI concurrently and merges the outcomes in
// input order, regardless of which lookup settles first. A not-found DOI
// is dropped from the output; a lookup that fails for any other reason
// yields a stub entry with FailedResolutionTitle and no authors. The
// call itself never fails.
func (r *CrossrefResolver) ResolveAll(ctx context.Context, dois []string) []types.ResolvedSuggestion {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Fan out one lookup per DOI; each goroutine owns the slot at its
	// input index, so no further synchronization is needed.
	results := make([]resolution, len(dois))
	var wg sync.WaitGroup
	for i, doi := range dois {
		wg.Add(1)
		go func(i int, doi string) {
			defer wg.Done()
			results[i] = r.resolve(ctx, doi)
		}(i, doi)
	}
	wg.Wait()

	suggestions := make([]types.ResolvedSuggestion, 0, len(dois))
	for i, res := range results {
		switch res.status {
		case resolutionFound:
			suggestions = append(suggestions, res.paper)
		case resolutionNotFound:
			logger.Info("no metadata record for DOI, dropping suggestion", "doi", dois[i])
		case resolutionFailed:
			logger.Warn("metadata resolution failed, keeping stub", "doi", dois[i], "error", res.err)
			suggestions = append(suggestions, types.ResolvedSuggestion{
				DOI:     dois[i],
				Title:   FailedResolutionTitle,
				Authors: []string{},
			})
		}
	}

	return suggestions
}

// resolve performs one CrossRef works lookup.
func (r *CrossrefResolver) resolve(ctx context.Context, doi string) resolution {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+url.PathEscape(doi), nil)
	if err != nil {
		return resolution{status: resolutionFailed, err: fmt.Errorf("creating request: %w", err)}
	}

	ua := r.Config.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	if r.Config.Email != "" {
		ua = fmt.Sprintf("%s (mailto:%s)", ua, r.Config.Email)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, client, req, r.Config.MaxRetries)
	if err != nil {
		return resolution{status: resolutionFailed, err: fmt.Errorf("CrossRef API request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resolution{status: resolutionNotFound}
	}
	if resp.StatusCode != http.StatusOK {
		return resolution{status: resolutionFailed, err: fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)}
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return resolution{status: resolutionFailed, err: fmt.Errorf("parsing CrossRef response: %w", err)}
	}

	return resolution{status: resolutionFound, paper: suggestionFromWork(doi, cr.Message)}
}

// suggestionFromWork maps a CrossRef work record onto a suggestion.
// Online publication dates are preferred over print dates.
func suggestionFromWork(doi string, work crossrefWork) types.ResolvedSuggestion {
	s := types.ResolvedSuggestion{
		DOI:     work.DOI,
		Title:   "no title",
		Authors: []string{},
	}
	if s.DOI == "" {
		s.DOI = doi
	}
	if len(work.Title) > 0 && work.Title[0] != "" {
		s.Title = work.Title[0]
	}

	for _, a := range work.Author {
		name := a.Given
		if a.Family != "" {
			if name != "" {
				name += " "
			}
			name += a.Family
		}
		if name != "" {
			s.Authors = append(s.Authors, name)
		}
	}

	dateParts := work.PublishedOnline
	if dateParts == nil {
		dateParts = work.PublishedPrint
	}
	if dateParts != nil && len(dateParts.DateParts) > 0 {
		parts := dateParts.DateParts[0]
		if len(parts) > 0 {
			s.Year = parts[0]
		}
		if len(parts) > 1 {
			s.Month = parts[1]
		}
		if len(parts) > 2 {
			s.Day = parts[2]
		}
	}

	return s
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	DOI             string             `json:"DOI"`
	Title           []string           `json:"title"`
	PublishedPrint  *crossrefDateParts `json:"published-print"`
	PublishedOnline *crossrefDateParts `json:"published-online"`
	Author          []crossrefAuthor   `json:"author"`
}

type crossrefDateParts struct {
	DateParts [][]int `json:"date-parts"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}
