//go:build integration

package rules

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore connects to a local qdrant and ensures the collection
// exists. Skips when qdrant is not running.
func setupTestStore(t *testing.T) *QdrantStore {
	store, err := NewQdrantStore("localhost", 6334)
	if err != nil {
		t.Skipf("qdrant not available: %v", err)
	}

	err = store.EnsureCollection(context.Background())
	require.NoError(t, err, "failed to ensure collection")

	return store
}

func testEmbedding(fill float32) []float32 {
	vec := make([]float32, VectorDimension)
	for i := range vec {
		vec[i] = fill
	}
	return vec
}

func TestRuleRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	slug := "test-rule-" + uuid.New().String()

	doc := &RuleDocument{
		ID:        uuid.New().String(),
		Slug:      slug,
		Category:  "integration-test",
		Name:      "Round trip rule",
		Content:   "# Test Rule\n\nAlways round trip your test data.",
		Embedding: testEmbedding(0.1),
	}

	require.NoError(t, store.UpsertRule(ctx, doc))

	retrieved, err := store.GetBySlug(ctx, slug)
	require.NoError(t, err)

	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.Slug, retrieved.Slug)
	assert.Equal(t, doc.Category, retrieved.Category)
	assert.Equal(t, doc.Name, retrieved.Name)
	assert.Equal(t, doc.Content, retrieved.Content)
	assert.Len(t, retrieved.Embedding, VectorDimension)
}

func TestGetBySlug_NotFound(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	_, err := store.GetBySlug(context.Background(), "definitely-not-a-slug-"+uuid.New().String())
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestCategoryScroll(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	category := "cat-" + uuid.New().String()

	for i := 0; i < 3; i++ {
		doc := &RuleDocument{
			ID:        uuid.New().String(),
			Slug:      "scroll-rule-" + uuid.New().String(),
			Category:  category,
			Content:   "scroll test content",
			Embedding: testEmbedding(0.2),
		}
		require.NoError(t, store.UpsertRule(ctx, doc))
	}

	docs, err := store.GetByCategory(ctx, category)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	// Vectors must come back for in-process ranking.
	for _, doc := range docs {
		assert.Len(t, doc.Embedding, VectorDimension)
	}
}

func TestTranscriptChunkRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	videoSlug := "video-" + uuid.New().String()

	chunks := []TranscriptChunk{
		{ID: uuid.New().String(), VideoSlug: videoSlug, Index: 0, Text: "first segment", Embedding: testEmbedding(0.3)},
		{ID: uuid.New().String(), VideoSlug: videoSlug, Index: 1, Text: "second segment", Embedding: testEmbedding(0.4)},
	}
	require.NoError(t, store.UpsertTranscriptChunks(ctx, chunks))

	all, err := store.ListTranscriptChunks(ctx)
	require.NoError(t, err)

	found := 0
	for _, chunk := range all {
		if chunk.VideoSlug == videoSlug {
			found++
			assert.NotEmpty(t, chunk.Text)
			assert.Len(t, chunk.Embedding, VectorDimension)
		}
	}
	assert.Equal(t, 2, found)
}

func TestUpsertRule_DimensionMismatch(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	doc := &RuleDocument{
		ID:        uuid.New().String(),
		Slug:      "bad-dims",
		Category:  "integration-test",
		Content:   "short vector",
		Embedding: []float32{1, 2, 3},
	}

	err := store.UpsertRule(context.Background(), doc)
	assert.Error(t, err)
}
