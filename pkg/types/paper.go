// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data types for paper-tracker.
package types

// Field is a user-defined research topic grouping a set of papers.
type Field struct {
	ID     int64  `json:"id" yaml:"id"`
	UserID int64  `json:"user_id" yaml:"user_id"`
	Name   string `json:"name" yaml:"name"`
}

// Paper is a tracked paper registered under a field. Metadata comes from
// the bibliographic service at registration time.
type Paper struct {
	ID      int64    `json:"id" yaml:"id"`
	UserID  int64    `json:"user_id" yaml:"user_id"`
	FieldID int64    `json:"field_id" yaml:"field_id"`
	DOI     string   `json:"doi" yaml:"doi"`
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors" yaml:"authors"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`
	Month   int      `json:"month,omitempty" yaml:"month,omitempty"`
	Day     int      `json:"day,omitempty" yaml:"day,omitempty"`
}

// PaperSummary is the view of an existing paper used to build the
// suggestion prompt. Title is required; authors (flattened to one
// string) and year are included when known.
type PaperSummary struct {
	Title   string
	Authors string
	Year    int
}

// ResolvedSuggestion is one suggested paper with metadata from the
// bibliographic service, or a stub marking a failed resolution (the DOI
// retained, a failure-marker title, and no authors).
type ResolvedSuggestion struct {
	DOI     string   `json:"doi" yaml:"doi"`
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors" yaml:"authors"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`
	Month   int      `json:"month,omitempty" yaml:"month,omitempty"`
	Day     int      `json:"day,omitempty" yaml:"day,omitempty"`
}

// SuggestionResult aggregates one related-work discovery run. It lives
// for a single request and is never persisted.
type SuggestionResult struct {
	Success         bool                 `json:"success"`
	FieldName       string               `json:"fieldName,omitempty"`
	PaperCount      int                  `json:"paperCount,omitempty"`
	RawText         string               `json:"suggestions,omitempty"`
	SuggestedPapers []ResolvedSuggestion `json:"suggestedPapers,omitempty"`
	Error           string               `json:"error,omitempty"`
}
