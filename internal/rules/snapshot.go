package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SnapshotVersion is the current on-disk snapshot format version.
const SnapshotVersion = 1

// Snapshot is the on-disk rule cache written by `prism sync` and served by
// `prism serve` in offline mode. The dashboard API returns the same shape.
type Snapshot struct {
	Version          int               `json:"version"`
	SyncedAt         time.Time         `json:"synced_at"`
	Rules            []RuleDocument    `json:"rules"`
	TranscriptChunks []TranscriptChunk `json:"transcript_chunks,omitempty"`
}

// SnapshotRepository serves a Snapshot entirely from memory. It is
// immutable after load, so concurrent sessions can share one instance.
type SnapshotRepository struct {
	rules      []RuleDocument
	bySlug     map[string]int
	byCategory map[string][]int
	chunks     []TranscriptChunk
	syncedAt   time.Time
}

// NewSnapshotRepository builds a repository from an in-memory snapshot.
// Documents without a slug are dropped rather than trusted; duplicate slugs
// are an error since slug uniqueness is the repository's core invariant.
func NewSnapshotRepository(snap *Snapshot) (*SnapshotRepository, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, snap.Version)
	}

	repo := &SnapshotRepository{
		bySlug:     make(map[string]int),
		byCategory: make(map[string][]int),
		chunks:     snap.TranscriptChunks,
		syncedAt:   snap.SyncedAt,
	}

	for _, doc := range snap.Rules {
		if doc.Slug == "" {
			continue
		}
		if _, dup := repo.bySlug[doc.Slug]; dup {
			return nil, fmt.Errorf("%w: duplicate slug %q", ErrMalformedSnapshot, doc.Slug)
		}
		idx := len(repo.rules)
		repo.rules = append(repo.rules, doc)
		repo.bySlug[doc.Slug] = idx
		repo.byCategory[doc.Category] = append(repo.byCategory[doc.Category], idx)
	}

	return repo, nil
}

// LoadSnapshot reads and validates a snapshot file.
func LoadSnapshot(path string) (*SnapshotRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	return NewSnapshotRepository(&snap)
}

// GetByCategory implements Repository.
func (r *SnapshotRepository) GetByCategory(ctx context.Context, category string) ([]RuleDocument, error) {
	indexes := r.byCategory[category]
	docs := make([]RuleDocument, 0, len(indexes))
	for _, i := range indexes {
		docs = append(docs, r.rules[i])
	}
	return docs, nil
}

// GetBySlug implements Repository.
func (r *SnapshotRepository) GetBySlug(ctx context.Context, slug string) (*RuleDocument, error) {
	i, ok := r.bySlug[slug]
	if !ok {
		return nil, ErrRuleNotFound
	}
	doc := r.rules[i]
	return &doc, nil
}

// ListAll implements Repository.
func (r *SnapshotRepository) ListAll(ctx context.Context) ([]RuleDocument, error) {
	docs := make([]RuleDocument, len(r.rules))
	copy(docs, r.rules)
	return docs, nil
}

// ListTranscriptChunks implements Repository.
func (r *SnapshotRepository) ListTranscriptChunks(ctx context.Context) ([]TranscriptChunk, error) {
	chunks := make([]TranscriptChunk, len(r.chunks))
	copy(chunks, r.chunks)
	return chunks, nil
}

// SyncedAt reports when the snapshot was pulled. Zero when unknown.
func (r *SnapshotRepository) SyncedAt() time.Time { return r.syncedAt }

// RuleCount reports how many valid rules the snapshot carries.
func (r *SnapshotRepository) RuleCount() int { return len(r.rules) }

// Health implements the health-check interface used by the HTTP transport.
// A loaded snapshot is always healthy.
func (r *SnapshotRepository) Health(ctx context.Context) error { return nil }
