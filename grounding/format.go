// Package grounding reduces ranked snippets to the context block and
// citation list handed to the answer synthesizer.
package grounding

import (
	"fmt"
	"strings"

	"github.com/fabfab/ddq-agent/search"
)

const (
	defaultMaxChars = 8000

	contextHeader  = "\n\nRelevant Document Snippets:\n"
	emptyContext   = "\n\nNo relevant documents found in the search index for this query."
	omittedMarker  = "\n[additional snippets omitted]"
	snippetPattern = "\n---\nSource: %s\nSnippet: %s\n---"
)

// Context is the grounding material for one question: the text block fed
// to the model and the distinct source files it draws from, in first-seen
// retrieval order.
type Context struct {
	Text    string
	Sources []string
}

type Formatter struct {
	// MaxChars bounds the context text length; snippets that would push
	// past it are dropped whole, lowest ranked first.
	MaxChars int
}

// Format is deterministic: the same snippet sequence always yields the
// same context. Snippets with neither a source file nor a title are
// skipped rather than cited blankly.
func (f Formatter) Format(snippets []search.Snippet) Context {
	maxChars := f.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)

	sources := make([]string, 0, len(snippets))
	seen := make(map[string]struct{}, len(snippets))
	included := 0
	truncated := false

	for _, snippet := range snippets {
		name := snippet.SourceFile
		if name == "" {
			name = snippet.Title
		}
		if name == "" {
			continue
		}

		block := fmt.Sprintf(snippetPattern, name, snippet.Content)
		if sb.Len()+len(block)+len(omittedMarker) > maxChars {
			truncated = true
			break
		}
		sb.WriteString(block)
		included++

		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			sources = append(sources, name)
		}
	}

	if included == 0 && !truncated {
		return Context{Text: emptyContext, Sources: []string{}}
	}
	if truncated {
		sb.WriteString(omittedMarker)
	}

	return Context{Text: sb.String(), Sources: sources}
}
