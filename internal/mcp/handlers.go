package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jeffdev/prism-mcp/internal/rules"
	"github.com/jeffdev/prism-mcp/internal/similarity"
)

// snippetLength is the snippet window for search results.
const snippetLength = 240

// defaultSearchK is how many matches search_rules returns when k is unset.
const defaultSearchK = 5

// handleGetRules lists rules as {slug, category} pairs. An empty listing is
// a valid answer, not an error.
func (r *Registry) handleGetRules(ctx context.Context, input GetRulesInput) *mcp.CallToolResult {
	ctx, cancel := context.WithTimeout(ctx, r.RepositoryTimeout)
	defer cancel()

	var docs []rules.RuleDocument
	var err error
	if input.Category != "" {
		docs, err = r.repo.GetByCategory(ctx, input.Category)
	} else {
		docs, err = r.repo.ListAll(ctx)
	}
	if err != nil {
		r.logger.Error("rule listing failed", "category", input.Category, "error", err)
		return errorResult("Failed to list rules: %v", err)
	}

	summaries := make([]RuleSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, RuleSummary{Slug: doc.Slug, Category: doc.Category})
	}

	payload, err := json.Marshal(summaries)
	if err != nil {
		return errorResult("Failed to encode rule listing: %v", err)
	}
	return textResult(string(payload))
}

// handleGetRuleContent returns rule content verbatim. A missing slug is a
// recoverable, client-visible failure.
func (r *Registry) handleGetRuleContent(ctx context.Context, input GetRuleContentInput) *mcp.CallToolResult {
	ctx, cancel := context.WithTimeout(ctx, r.RepositoryTimeout)
	defer cancel()

	doc, err := r.repo.GetBySlug(ctx, input.Slug)
	if err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			return errorResult("Rule not found: %s", input.Slug)
		}
		r.logger.Error("rule fetch failed", "slug", input.Slug, "error", err)
		return errorResult("Failed to fetch rule %s: %v", input.Slug, err)
	}

	return textResult(doc.Content)
}

// handleSearchRules embeds the query, ranks rules and transcript chunks
// in-process, and returns the top K with snippets. An empty corpus yields
// an empty match list.
func (r *Registry) handleSearchRules(ctx context.Context, input SearchRulesInput) *mcp.CallToolResult {
	if input.Query == "" {
		return errorResult("search_rules requires a non-empty query")
	}
	if r.embedder == nil {
		return errorResult("Semantic search is not configured: embedding credentials missing")
	}

	k := input.K
	if k <= 0 {
		k = defaultSearchK
	}

	embedCtx, cancelEmbed := context.WithTimeout(ctx, r.EmbedTimeout)
	defer cancelEmbed()
	queryVec, err := r.embedder.Embed(embedCtx, input.Query)
	if err != nil {
		r.logger.Error("query embedding failed", "error", err)
		return errorResult("Failed to embed query: %v", err)
	}

	repoCtx, cancelRepo := context.WithTimeout(ctx, r.RepositoryTimeout)
	defer cancelRepo()

	docs, err := r.repo.ListAll(repoCtx)
	if err != nil {
		r.logger.Error("rule scan failed", "error", err)
		return errorResult("Failed to load rules for search: %v", err)
	}
	chunks, err := r.repo.ListTranscriptChunks(repoCtx)
	if err != nil {
		r.logger.Error("transcript scan failed", "error", err)
		return errorResult("Failed to load transcripts for search: %v", err)
	}

	candidates := make([]similarity.Embeddable, 0, len(docs)+len(chunks))
	for _, doc := range docs {
		candidates = append(candidates, doc)
	}
	for _, chunk := range chunks {
		candidates = append(candidates, chunk)
	}

	ranked := similarity.TopK(queryVec, candidates, k)

	matches := make([]SearchMatch, 0, len(ranked))
	for _, res := range ranked {
		snippet, err := similarity.ExtractSnippet(res.Item.Body(), snippetLength)
		if err != nil {
			snippet = ""
		}

		match := SearchMatch{Similarity: res.Similarity, Snippet: snippet}
		switch item := res.Item.(type) {
		case rules.RuleDocument:
			match.Slug = item.Slug
			match.Category = item.Category
			match.Source = SourceRule
		case rules.TranscriptChunk:
			match.Slug = item.VideoSlug
			match.Source = SourceTranscript
		}
		matches = append(matches, match)
	}

	payload, err := json.Marshal(matches)
	if err != nil {
		return errorResult("Failed to encode search results: %v", err)
	}
	return textResult(string(payload))
}
