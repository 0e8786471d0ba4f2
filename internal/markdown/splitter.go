// Package markdown splits transcript and rule markdown into sections for
// embedding.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Segment is one section of a document, cut at heading boundaries.
type Segment struct {
	Index       int    // Position in document (0, 1, 2...)
	HeaderPath  string // Hierarchy: "# Video Title > ## Topic"
	Text        string // Section text without the header prefix
	WithContext string // Text with the header path prepended, for embedding
}

// Splitter cuts markdown at H1/H2 boundaries while keeping header context.
// Transcripts embed better when each segment carries the topic hierarchy it
// appeared under.
type Splitter struct {
	parser goldmark.Markdown
}

// NewSplitter creates a splitter with a configured goldmark parser.
func NewSplitter() *Splitter {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Splitter{parser: md}
}

// Split cuts the document at H1 and H2 boundaries. A document without
// headings comes back as a single segment.
func (s *Splitter) Split(source []byte) ([]Segment, error) {
	reader := text.NewReader(source)
	doc := s.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	if len(tree.Items) == 0 {
		return []Segment{
			{
				Index:       0,
				HeaderPath:  "",
				Text:        string(source),
				WithContext: string(source),
			},
		}, nil
	}

	var segments []Segment
	s.collectSegments(doc, source, tree.Items, nil, &segments)
	return segments, nil
}

// collectSegments walks TOC items recursively, emitting one segment per
// heading with its ancestry encoded in the header path.
func (s *Splitter) collectSegments(doc ast.Node, source []byte, items toc.Items, ancestors []string, segments *[]Segment) {
	for i, item := range items {
		currentPath := append(ancestors, string(item.Title))
		headerPath := formatHeaderPath(currentPath)

		headerNode := findHeadingByID(doc, string(item.ID))
		if headerNode == nil {
			continue
		}

		startLine := headerNode.Lines().At(0)
		var endLine text.Segment

		if i+1 < len(items) {
			if next := findHeadingByID(doc, string(items[i+1].ID)); next != nil {
				endLine = next.Lines().At(0)
			}
		} else {
			endLine = nextHeadingBoundary(doc, headerNode, headerNode.(*ast.Heading).Level)
		}

		body := sliceBetween(source, startLine, endLine)

		*segments = append(*segments, Segment{
			Index:       len(*segments),
			HeaderPath:  headerPath,
			Text:        body,
			WithContext: fmt.Sprintf("%s\n\n%s", headerPath, body),
		})

		if len(item.Items) > 0 {
			s.collectSegments(doc, source, item.Items, currentPath, segments)
		}
	}
}

// formatHeaderPath renders ancestry as "# Title > ## Section".
func formatHeaderPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	parts := make([]string, 0, len(path))
	for i, segment := range path {
		prefix := strings.Repeat("#", i+1)
		parts = append(parts, fmt.Sprintf("%s %s", prefix, segment))
	}
	return strings.Join(parts, " > ")
}

// findHeadingByID locates a heading node by its auto-generated ID.
func findHeadingByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			headingID, ok := heading.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// nextHeadingBoundary finds the first heading at the same or higher level
// after current, or an empty segment meaning end of document.
func nextHeadingBoundary(root ast.Node, current ast.Node, currentLevel int) text.Segment {
	var next ast.Node
	foundCurrent := false

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)

			if !foundCurrent {
				if n == current {
					foundCurrent = true
				}
				return ast.WalkContinue, nil
			}

			if heading.Level <= currentLevel {
				next = n
				return ast.WalkStop, nil
			}
		}

		return ast.WalkContinue, nil
	})

	if next != nil {
		return next.Lines().At(0)
	}
	return text.Segment{}
}

// sliceBetween extracts trimmed source text between two line segments.
func sliceBetween(source []byte, start text.Segment, end text.Segment) string {
	var buf bytes.Buffer
	if end.Start == 0 && end.Stop == 0 {
		buf.Write(source[start.Start:])
	} else {
		buf.Write(source[start.Start:end.Start])
	}
	return strings.TrimSpace(buf.String())
}
