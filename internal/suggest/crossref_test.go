// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sampleCrossrefJSON = `{
  "message": {
    "DOI": "10.5555/3295222.3295349",
    "title": ["Attention Is All You Need"],
    "published-online": {"date-parts": [[2017, 6, 12]]},
    "published-print": {"date-parts": [[2017, 12, 4]]},
    "author": [
      {"given": "Ashish", "family": "Vaswani"},
      {"given": "Noam", "family": "Shazeer"}
    ]
  }
}`

func swapCrossrefBase(t *testing.T, url string) {
	t.Helper()
	old := crossrefAPIBase
	crossrefAPIBase = url + "/"
	t.Cleanup(func() { crossrefAPIBase = old })
}

func TestResolveFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleCrossrefJSON)
	}))
	defer ts.Close()
	swapCrossrefBase(t, ts.URL)

	r := &CrossrefResolver{Client: ts.Client()}
	s, err := r.Resolve(context.Background(), "10.5555/3295222.3295349")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if s.DOI != "10.5555/3295222.3295349" {
		t.Errorf("DOI = %q", s.DOI)
	}
	if s.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", s.Title)
	}
	if len(s.Authors) != 2 || s.Authors[0] != "Ashish Vaswani" || s.Authors[1] != "Noam Shazeer" {
		t.Errorf("Authors = %v", s.Authors)
	}
	// Online publication dates win over print.
	if s.Year != 2017 || s.Month != 6 || s.Day != 12 {
		t.Errorf("date = %d-%d-%d, want 2017-6-12", s.Year, s.Month, s.Day)
	}
}

func TestResolveNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()
	swapCrossrefBase(t, ts.URL)

	r := &CrossrefResolver{Client: ts.Client()}
	_, err := r.Resolve(context.Background(), "10.1000/missing")
	if !errors.Is(err, ErrDOINotFound) {
		t.Errorf("err = %v, want ErrDOINotFound", err)
	}
}

func TestResolveSendsPoliteUserAgent(t *testing.T) {
	var ua string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		fmt.Fprint(w, sampleCrossrefJSON)
	}))
	defer ts.Close()
	swapCrossrefBase(t, ts.URL)

	r := &CrossrefResolver{Client: ts.Client()}
	r.Config.Email = "lab@example.com"
	if _, err := r.Resolve(context.Background(), "10.1000/x"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(ua, "mailto:lab@example.com") {
		t.Errorf("User-Agent = %q, want mailto address", ua)
	}
}

// crossrefBehaviorServer routes by DOI suffix: "found-*" resolves,
// "missing-*" is a 404, "broken-*" is a 500, and "slow-*" resolves
// after a delay.
func crossrefBehaviorServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suffix := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		switch {
		case strings.HasPrefix(suffix, "missing"):
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(suffix, "broken"):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasPrefix(suffix, "slow"):
			time.Sleep(50 * time.Millisecond)
			fallthrough
		default:
			fmt.Fprintf(w, `{"message": {"DOI": "10.1000/%s", "title": ["Paper %s"], "author": []}}`, suffix, suffix)
		}
	}))
}

func TestResolveAllPreservesInputOrder(t *testing.T) {
	ts := crossrefBehaviorServer()
	defer ts.Close()
	swapCrossrefBase(t, ts.URL)

	// The first DOI resolves slowest; output order must still match
	// input order, not completion order.
	r := &CrossrefResolver{Client: ts.Client()}
	got := r.ResolveAll(context.Background(), []string{"10.1000/slow-a", "10.1000/found-b", "10.1000/found-c"})

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"10.1000/slow-a", "10.1000/found-b", "10.1000/found-c"} {
		if got[i].DOI != want {
			t.Errorf("got[%d].DOI = %q, want %q", i, got[i].DOI, want)
		}
	}
}

func TestResolveAllPartialFailure(t *testing.T) {
	ts := crossrefBehaviorServer()
	defer ts.Close()
	swapCrossrefBase(t, ts.URL)

	// found → metadata, missing → dropped, broken → stub.
	r := &CrossrefResolver{Client: ts.Client()}
	got := r.ResolveAll(context.Background(), []string{"10.1000/found-x", "10.1000/missing-y", "10.1000/broken-z"})

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (not-found dropped)", len(got))
	}

	if got[0].DOI != "10.1000/found-x" || got[0].Title != "Paper found-x" {
		t.Errorf("got[0] = %+v", got[0])
	}

	stub := got[1]
	if stub.DOI != "10.1000/broken-z" {
		t.Errorf("stub.DOI = %q", stub.DOI)
	}
	if stub.Title != FailedResolutionTitle {
		t.Errorf("stub.Title = %q, want %q", stub.Title, FailedResolutionTitle)
	}
	if len(stub.Authors) != 0 {
		t.Errorf("stub.Authors = %v, want empty", stub.Authors)
	}
}

func TestResolveAllEmptyInput(t *testing.T) {
	r := &CrossrefResolver{Client: http.DefaultClient}
	if got := r.ResolveAll(context.Background(), nil); len(got) != 0 {
		t.Errorf("got = %v, want empty", got)
	}
}

func TestResolveRetriesOnRateLimit(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, sampleCrossrefJSON)
	}))
	defer ts.Close()
	swapCrossrefBase(t, ts.URL)

	r := &CrossrefResolver{Client: ts.Client()}
	if _, err := r.Resolve(context.Background(), "10.1000/x"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSuggestionFromWorkFallbacks(t *testing.T) {
	s := suggestionFromWork("10.1000/input", crossrefWork{})
	if s.DOI != "10.1000/input" {
		t.Errorf("DOI = %q, want the input DOI as fallback", s.DOI)
	}
	if s.Title != "no title" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Year != 0 || s.Month != 0 || s.Day != 0 {
		t.Errorf("date = %d-%d-%d, want zero values", s.Year, s.Month, s.Day)
	}

	// Print dates are used when no online date exists.
	s = suggestionFromWork("10.1000/x", crossrefWork{
		PublishedPrint: &crossrefDateParts{DateParts: [][]int{{2001, 3}}},
	})
	if s.Year != 2001 || s.Month != 3 || s.Day != 0 {
		t.Errorf("date = %d-%d-%d, want 2001-3-0", s.Year, s.Month, s.Day)
	}

	// Single-name authors keep whichever part exists.
	s = suggestionFromWork("10.1000/x", crossrefWork{
		Author: []crossrefAuthor{{Family: "Aristotle"}, {Given: "Plato"}, {}},
	})
	if len(s.Authors) != 2 || s.Authors[0] != "Aristotle" || s.Authors[1] != "Plato" {
		t.Errorf("Authors = %v", s.Authors)
	}
}
