// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"regexp"
	"strings"
)

// doiPattern validates extracted identifiers: "10." followed by a
// registrant of at least four digits, a slash, and a suffix free of
// whitespace and quoting or bracket characters.
var doiPattern = regexp.MustCompile(`^10\.\d{4,}/[^\s,;:"'<>()\[\]{}]+$`)

// ExtractDOIs parses generative output into an ordered set of unique,
// format-valid DOIs. Only lines of the form "DOI: <doi>" contribute (the
// prefix match is exact and case-sensitive after trimming); lines that
// fail the prefix or the pattern are silently dropped. Duplicates
// collapse to the position of first occurrence. ExtractDOIs never fails:
// input with no matches yields an empty slice.
func ExtractDOIs(text string) []string {
	seen := make(map[string]bool)
	var dois []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, doiLinePrefix) {
			continue
		}

		doi := strings.TrimSpace(strings.TrimPrefix(trimmed, doiLinePrefix))
		if !doiPattern.MatchString(doi) {
			continue
		}
		if seen[doi] {
			continue
		}

		seen[doi] = true
		dois = append(dois, doi)
	}

	return dois
}
