package ingest

import (
	"strings"
	"testing"

	"github.com/adrg/frontmatter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"design/button-usage.md", "button-usage"},
		{"component-structure.md", "component-structure"},
		{"deep/nested/dir/naming.md", "naming"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugFromPath(tt.path))
	}
}

func TestFrontmatterParsing(t *testing.T) {
	doc := `---
slug: button-usage
category: design-system
name: Button Usage
type: rule
---
Use the shared Button component.
`
	var matter ruleFrontmatter
	body, err := frontmatter.Parse(strings.NewReader(doc), &matter)
	require.NoError(t, err)

	assert.Equal(t, "button-usage", matter.Slug)
	assert.Equal(t, "design-system", matter.Category)
	assert.Equal(t, "Button Usage", matter.Name)
	assert.Equal(t, "rule", matter.Kind)
	assert.Equal(t, "Use the shared Button component.\n", string(body))
}

func TestFrontmatterDefaults(t *testing.T) {
	doc := `---
category: tech-stack
---
Body only.
`
	var matter ruleFrontmatter
	_, err := frontmatter.Parse(strings.NewReader(doc), &matter)
	require.NoError(t, err)

	// Slug and kind fall back at ingest time, not at parse time.
	assert.Empty(t, matter.Slug)
	assert.Empty(t, matter.Kind)
	assert.Equal(t, "tech-stack", matter.Category)
}
