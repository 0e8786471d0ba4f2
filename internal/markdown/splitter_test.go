package markdown

import (
	"strings"
	"testing"
)

func TestSplit_BasicHeadings(t *testing.T) {
	input := `# Refactoring Walkthrough

Opening remarks here.

## Component Boundaries

Where to draw the lines.

## Naming

How we name things.
`

	splitter := NewSplitter()
	segments, err := splitter.Split([]byte(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(segments) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(segments))
	}

	if segments[0].HeaderPath != "# Refactoring Walkthrough" {
		t.Errorf("Segment 0 HeaderPath: got %q", segments[0].HeaderPath)
	}
	if !strings.Contains(segments[0].Text, "Opening remarks here") {
		t.Errorf("Segment 0 missing expected text")
	}

	expectedPath := "# Refactoring Walkthrough > ## Component Boundaries"
	if segments[1].HeaderPath != expectedPath {
		t.Errorf("Segment 1 HeaderPath: expected %q, got %q", expectedPath, segments[1].HeaderPath)
	}
	if segments[1].Index != 1 {
		t.Errorf("Segment 1 index: expected 1, got %d", segments[1].Index)
	}

	expectedPath = "# Refactoring Walkthrough > ## Naming"
	if segments[2].HeaderPath != expectedPath {
		t.Errorf("Segment 2 HeaderPath: expected %q, got %q", expectedPath, segments[2].HeaderPath)
	}
}

func TestSplit_H3StaysInsideParent(t *testing.T) {
	input := `# Walkthrough

Intro.

## Patterns

Main discussion.

### Aside

Detail that belongs to Patterns.
`

	splitter := NewSplitter()
	segments, err := splitter.Split([]byte(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments (H3 is not a boundary), got %d", len(segments))
	}
	if !strings.Contains(segments[1].Text, "### Aside") {
		t.Errorf("H3 subsection missing from parent segment")
	}
	if !strings.Contains(segments[1].Text, "Detail that belongs to Patterns") {
		t.Errorf("H3 body missing from parent segment")
	}
}

func TestSplit_NoHeadings(t *testing.T) {
	input := "Just a flat transcript without any headings at all.\n"

	splitter := NewSplitter()
	segments, err := splitter.Split([]byte(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segments))
	}
	if segments[0].HeaderPath != "" {
		t.Errorf("Expected empty header path, got %q", segments[0].HeaderPath)
	}
	if segments[0].Text != input {
		t.Errorf("Single segment should carry the whole document")
	}
}

func TestSplit_ContextPrefix(t *testing.T) {
	input := `# Title

## Section

Body text.
`

	splitter := NewSplitter()
	segments, err := splitter.Split([]byte(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for _, seg := range segments {
		if !strings.HasPrefix(seg.WithContext, seg.HeaderPath) {
			t.Errorf("WithContext should start with header path %q", seg.HeaderPath)
		}
	}
}
