// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import "errors"

// ErrNoPapers reports that the requested field has no papers to base
// suggestions on. Never retried.
var ErrNoPapers = errors.New("field has no papers")

// ErrUpstream reports that the generative service call failed after
// exhausting the configured retries.
var ErrUpstream = errors.New("generative service unavailable")

// ErrDOINotFound reports that the bibliographic service has no record
// for the requested DOI. Never retried.
var ErrDOINotFound = errors.New("no record for DOI")
