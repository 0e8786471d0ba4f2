// Package rules provides the rule document model and its read-only
// repositories: a live qdrant store and a local JSON snapshot.
package rules

import "context"

// RuleDocument is a unit of architectural guidance.
//
// Slug is unique within a repository and stable across updates; Content is
// served verbatim and never mutated by this process. Embedding is optional
// and precomputed at ingestion time.
type RuleDocument struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Name      string    `json:"name,omitempty"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// EmbeddingVector implements similarity.Embeddable.
func (d RuleDocument) EmbeddingVector() []float32 { return d.Embedding }

// Body implements similarity.Embeddable.
func (d RuleDocument) Body() string { return d.Content }

// TranscriptChunk is a segment of a video transcript. It has the same
// embeddable shape as RuleDocument and ranks identically.
type TranscriptChunk struct {
	ID        string    `json:"id"`
	VideoSlug string    `json:"video_slug"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// EmbeddingVector implements similarity.Embeddable.
func (c TranscriptChunk) EmbeddingVector() []float32 { return c.Embedding }

// Body implements similarity.Embeddable.
func (c TranscriptChunk) Body() string { return c.Text }

// Repository is the read-only view of the rule corpus consumed by the MCP
// tool handlers. Both backends implement it; callers never learn which one
// they are talking to.
//
// ListAll is the candidate set for ranking and has no pagination. Rule
// corpora are small enough to hold in memory; ranking happens in-process.
type Repository interface {
	// GetByCategory returns all rules in a category. No match is an empty
	// slice, not an error.
	GetByCategory(ctx context.Context, category string) ([]RuleDocument, error)
	// GetBySlug returns the rule with an exact slug match, or ErrRuleNotFound.
	GetBySlug(ctx context.Context, slug string) (*RuleDocument, error)
	// ListAll returns every rule document.
	ListAll(ctx context.Context) ([]RuleDocument, error)
	// ListTranscriptChunks returns every transcript chunk.
	ListTranscriptChunks(ctx context.Context) ([]TranscriptChunk, error)
}

// CollectionName is the single qdrant collection holding rules and
// transcript chunks.
const CollectionName = "prism_rules"

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536
