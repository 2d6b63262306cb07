package grounding

import (
	"reflect"
	"strings"
	"testing"

	"github.com/fabfab/ddq-agent/search"
)

func TestFormatDeduplicatesSourcesInOrder(t *testing.T) {
	f := Formatter{}

	got := f.Format([]search.Snippet{
		{SourceFile: "ESG_Report.pdf", Content: "policy overview"},
		{SourceFile: "QA_Bank.xlsx", Content: "prior answers"},
		{SourceFile: "ESG_Report.pdf", Content: "more policy detail"},
	})

	want := []string{"ESG_Report.pdf", "QA_Bank.xlsx"}
	if !reflect.DeepEqual(got.Sources, want) {
		t.Fatalf("sources = %v, want %v", got.Sources, want)
	}
}

func TestFormatFallsBackToTitleAndSkipsUnnamed(t *testing.T) {
	f := Formatter{}

	got := f.Format([]search.Snippet{
		{Title: "Fund Overview", Content: "aum figures"},
		{Content: "orphan snippet with no provenance"},
	})

	want := []string{"Fund Overview"}
	if !reflect.DeepEqual(got.Sources, want) {
		t.Fatalf("sources = %v, want %v", got.Sources, want)
	}
	if strings.Contains(got.Text, "orphan snippet") {
		t.Fatal("snippet without provenance should not appear in context")
	}
}

func TestFormatEmptyInput(t *testing.T) {
	f := Formatter{}

	got := f.Format(nil)

	if len(got.Sources) != 0 {
		t.Fatalf("expected no sources, got %v", got.Sources)
	}
	if got.Sources == nil {
		t.Fatal("sources should be an empty slice, not nil")
	}
	if !strings.Contains(got.Text, "No relevant documents found") {
		t.Fatalf("unexpected empty-context text: %q", got.Text)
	}
}

func TestFormatTruncatesTrailingSnippets(t *testing.T) {
	f := Formatter{MaxChars: 400}

	big := strings.Repeat("x", 150)
	got := f.Format([]search.Snippet{
		{SourceFile: "first.pdf", Content: big},
		{SourceFile: "second.pdf", Content: big},
		{SourceFile: "third.pdf", Content: big},
	})

	if len(got.Text) > 400 {
		t.Fatalf("context length %d exceeds maximum 400", len(got.Text))
	}
	if !strings.Contains(got.Text, "first.pdf") {
		t.Fatal("highest-ranked snippet should survive truncation")
	}
	if strings.Contains(got.Text, "third.pdf") {
		t.Fatal("lowest-ranked snippet should be dropped first")
	}
	if !strings.Contains(got.Text, "[additional snippets omitted]") {
		t.Fatal("truncation must leave a boundary marker")
	}
	for _, source := range got.Sources {
		if source == "third.pdf" {
			t.Fatal("dropped snippet must not be cited")
		}
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	f := Formatter{MaxChars: 500}
	snippets := []search.Snippet{
		{SourceFile: "a.pdf", Content: "alpha"},
		{SourceFile: "b.pdf", Content: "beta"},
	}

	first := f.Format(snippets)
	second := f.Format(snippets)

	if first.Text != second.Text || !reflect.DeepEqual(first.Sources, second.Sources) {
		t.Fatal("formatting the same snippets twice must produce identical output")
	}
}
