// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package suggest implements the AI-assisted related-work discovery
// pipeline: prompt construction, generative text calls with retry,
// DOI extraction, and concurrent metadata resolution.
package suggest

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/paper-tracker/pkg/types"
)

// doiLinePrefix anchors the output grammar shared between the suggestion
// prompt and the extractor: the model must emit one "DOI: <doi>" line per
// suggestion, and extraction keys on exactly this prefix. Both sides
// reference this constant so a wording change that breaks the grammar
// fails a test instead of silently returning zero suggestions.
const doiLinePrefix = "DOI:"

// suggestionPromptTmpl instructs the model to suggest five related, real,
// verifiable papers for the field, ranked by relevance, preferring
// highly-cited canonical works, one "DOI: <doi>" line per suggestion.
var suggestionPromptTmpl = template.Must(template.New("suggestion").Parse(`You are a research assistant helping a researcher discover related work.

The researcher is tracking the following papers in the field "{{.FieldName}}":

{{range .Papers}}- {{.Title}}{{if .Authors}} by {{.Authors}}{{end}}{{if .Year}} ({{.Year}}){{end}}
{{end}}
Suggest exactly 5 additional papers related to these, ranked by relevance with the most relevant first. Requirements:
- Each suggestion must be a real, verifiable paper with a DOI that resolves via https://doi.org/<doi>.
- Prefer highly-cited or canonical works in the same field.
- Do not suggest papers already in the list above.

Output format (strict): one line per suggestion, exactly

` + doiLinePrefix + ` <doi>

with no other text on the line. Output 5 such lines when possible, and nothing else.`))

// promptData carries the template inputs for one prompt.
type promptData struct {
	FieldName string
	Papers    []types.PaperSummary
}

// BuildPrompt renders the suggestion prompt for a field and its papers.
// It is deterministic and performs no I/O.
func BuildPrompt(fieldName string, papers []types.PaperSummary) string {
	var buf bytes.Buffer
	if err := suggestionPromptTmpl.Execute(&buf, promptData{FieldName: fieldName, Papers: papers}); err != nil {
		// The template is static and promptData fields cannot make
		// Execute fail, so this is unreachable.
		panic(fmt.Sprintf("executing suggestion prompt template: %v", err))
	}
	return buf.String()
}
