// Package mcp exposes the Prism rule corpus over the Model Context Protocol.
package mcp

// Tool names form a closed set. Dispatch is exhaustive over these; anything
// else is answered with an error result, never a protocol fault.
const (
	ToolGetRules       = "get_architectural_rules"
	ToolGetRuleContent = "get_rule_content"
	ToolSearchRules    = "search_rules"
)

// GetRulesInput is the input for get_architectural_rules.
type GetRulesInput struct {
	// Category optionally filters the listing.
	Category string `json:"category,omitempty"`
}

// RuleSummary is one entry in the get_architectural_rules listing.
type RuleSummary struct {
	Slug     string `json:"slug"`
	Category string `json:"category"`
}

// GetRuleContentInput is the input for get_rule_content.
type GetRuleContentInput struct {
	// Slug is the exact rule slug to fetch.
	Slug string `json:"slug"`
}

// SearchRulesInput is the input for search_rules.
type SearchRulesInput struct {
	// Query is the free-text search query.
	Query string `json:"query"`
	// K is the maximum number of matches to return. Defaults to 5.
	K int `json:"k,omitempty"`
}

// SearchMatch is one ranked result from search_rules.
type SearchMatch struct {
	Slug       string  `json:"slug"`
	Category   string  `json:"category,omitempty"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Snippet    string  `json:"snippet"`
}

// Match sources.
const (
	SourceRule       = "rule"
	SourceTranscript = "transcript"
)
