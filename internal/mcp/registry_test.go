package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffdev/prism-mcp/internal/rules"
)

// fakeEmbedder returns a fixed vector for any query.
type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

// failingRepo simulates store connectivity loss.
type failingRepo struct{}

func (failingRepo) GetByCategory(ctx context.Context, category string) ([]rules.RuleDocument, error) {
	return nil, rules.ErrStoreUnreachable
}
func (failingRepo) GetBySlug(ctx context.Context, slug string) (*rules.RuleDocument, error) {
	return nil, rules.ErrStoreUnreachable
}
func (failingRepo) ListAll(ctx context.Context) ([]rules.RuleDocument, error) {
	return nil, rules.ErrStoreUnreachable
}
func (failingRepo) ListTranscriptChunks(ctx context.Context) ([]rules.TranscriptChunk, error) {
	return nil, rules.ErrStoreUnreachable
}

func testRepo(t *testing.T) rules.Repository {
	t.Helper()
	repo, err := rules.NewSnapshotRepository(&rules.Snapshot{
		Version: rules.SnapshotVersion,
		Rules: []rules.RuleDocument{
			{ID: "1", Slug: "aligned-rule", Category: "tech-stack", Content: "Aligned with the query vector.", Embedding: []float32{1, 0}},
			{ID: "2", Slug: "orthogonal-rule", Category: "design-system", Content: "Orthogonal to the query vector.", Embedding: []float32{0, 1}},
			{ID: "3", Slug: "unembedded-rule", Category: "design-system", Content: "Not yet embedded."},
		},
		TranscriptChunks: []rules.TranscriptChunk{
			{ID: "t1", VideoSlug: "prism-walkthrough", Index: 0, Text: "Transcript halfway between.", Embedding: []float32{1, 1}},
		},
	})
	require.NoError(t, err)
	return repo
}

func newTestRegistry(t *testing.T, repo rules.Repository, embedder QueryEmbedder) *Registry {
	t.Helper()
	return NewRegistry(repo, embedder, nil)
}

func resultText(t *testing.T, result *sdk.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdk.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func dispatch(t *testing.T, r *Registry, name string, input any) *sdk.CallToolResult {
	t.Helper()
	args, err := json.Marshal(input)
	require.NoError(t, err)
	return r.Dispatch(context.Background(), name, args)
}

func TestGetRules_ListsAll(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), nil)

	result := dispatch(t, r, ToolGetRules, GetRulesInput{})
	assert.False(t, result.IsError)

	var summaries []RuleSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summaries))
	assert.Len(t, summaries, 3)
}

func TestGetRules_CategoryFilter(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), nil)

	result := dispatch(t, r, ToolGetRules, GetRulesInput{Category: "design-system"})
	assert.False(t, result.IsError)

	var summaries []RuleSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summaries))
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		assert.Equal(t, "design-system", s.Category)
	}
}

func TestGetRules_NoMatchIsEmptyArrayNotError(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), nil)

	result := dispatch(t, r, ToolGetRules, GetRulesInput{Category: "nope"})
	assert.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestGetRules_StoreFailure(t *testing.T) {
	r := newTestRegistry(t, failingRepo{}, nil)

	result := dispatch(t, r, ToolGetRules, GetRulesInput{})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to list rules")
}

func TestGetRuleContent_ReturnsContentVerbatim(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), nil)

	result := dispatch(t, r, ToolGetRuleContent, GetRuleContentInput{Slug: "aligned-rule"})
	assert.False(t, result.IsError)
	assert.Equal(t, "Aligned with the query vector.", resultText(t, result))
}

func TestGetRuleContent_NotFound(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), nil)

	result := dispatch(t, r, ToolGetRuleContent, GetRuleContentInput{Slug: "nonexistent-slug"})
	assert.True(t, result.IsError)
	assert.Equal(t, "Rule not found: nonexistent-slug", resultText(t, result))
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), nil)

	result := r.Dispatch(context.Background(), "bogus_tool", nil)
	assert.True(t, result.IsError)
	assert.Equal(t, "Unknown tool: bogus_tool", resultText(t, result))
}

func TestDispatch_MalformedArguments(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), nil)

	result := r.Dispatch(context.Background(), ToolGetRuleContent, json.RawMessage(`{"slug": 42`))
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Invalid arguments")
}

func TestSearchRules_RanksAlignedFirst(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	r := newTestRegistry(t, testRepo(t), embedder)

	result := dispatch(t, r, ToolSearchRules, SearchRulesInput{Query: "how should exports work"})
	assert.False(t, result.IsError)

	var matches []SearchMatch
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &matches))
	require.Len(t, matches, 3) // the unembedded rule never qualifies

	assert.Equal(t, "aligned-rule", matches[0].Slug)
	assert.Equal(t, SourceRule, matches[0].Source)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)

	// Transcript chunk at 45 degrees outranks the orthogonal rule.
	assert.Equal(t, "prism-walkthrough", matches[1].Slug)
	assert.Equal(t, SourceTranscript, matches[1].Source)
	assert.Equal(t, "orthogonal-rule", matches[2].Slug)
}

func TestSearchRules_KLimitsResults(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	r := newTestRegistry(t, testRepo(t), embedder)

	result := dispatch(t, r, ToolSearchRules, SearchRulesInput{Query: "anything", K: 1})
	var matches []SearchMatch
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &matches))
	assert.Len(t, matches, 1)
}

func TestSearchRules_EmptyCorpusIsEmptyListNotError(t *testing.T) {
	repo, err := rules.NewSnapshotRepository(&rules.Snapshot{Version: rules.SnapshotVersion})
	require.NoError(t, err)
	r := newTestRegistry(t, repo, &fakeEmbedder{vec: []float32{1, 0}})

	result := dispatch(t, r, ToolSearchRules, SearchRulesInput{Query: "anything"})
	assert.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestSearchRules_EmbedderFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("upstream 500")}
	r := newTestRegistry(t, testRepo(t), embedder)

	result := dispatch(t, r, ToolSearchRules, SearchRulesInput{Query: "anything"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to embed query")
}

func TestSearchRules_NoEmbedderConfigured(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), nil)

	result := dispatch(t, r, ToolSearchRules, SearchRulesInput{Query: "anything"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not configured")
}

func TestSearchRules_EmptyQuery(t *testing.T) {
	r := newTestRegistry(t, testRepo(t), &fakeEmbedder{vec: []float32{1, 0}})

	result := dispatch(t, r, ToolSearchRules, SearchRulesInput{})
	assert.True(t, result.IsError)
}

func TestNewServer_RegistersTools(t *testing.T) {
	server := NewServer(&Config{Repository: testRepo(t)})
	require.NotNil(t, server.MCPServer())
	require.NotNil(t, server.Registry())

	result := server.Registry().Dispatch(context.Background(), ToolGetRules, nil)
	assert.False(t, result.IsError)
}
