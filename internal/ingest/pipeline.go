// Package ingest seeds the live rule store from the rules repository.
// Serving is read-only; this pipeline is the out-of-core write path.
package ingest

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jeffdev/prism-mcp/internal/embedding"
	"github.com/jeffdev/prism-mcp/internal/github"
	"github.com/jeffdev/prism-mcp/internal/markdown"
	"github.com/jeffdev/prism-mcp/internal/rules"
)

// ruleFrontmatter is the YAML header expected on rule and transcript
// markdown files in the rules repository.
type ruleFrontmatter struct {
	Slug     string `yaml:"slug"`
	Category string `yaml:"category"`
	Name     string `yaml:"name,omitempty"`
	Kind     string `yaml:"type,omitempty"` // "rule" (default) or "transcript"
}

// Result summarizes an ingestion run.
type Result struct {
	TotalFiles       int
	Rules            int
	TranscriptChunks int
	Failed           []FailedFile
	CommitSHA        string
	Duration         time.Duration
}

// FailedFile records one file that could not be ingested.
type FailedFile struct {
	Path   string
	Reason string
}

// Pipeline orchestrates fetch, parse, embed and store for a full ingest.
type Pipeline struct {
	source   *github.RuleSource
	splitter *markdown.Splitter
	embedder *embedding.Embedder
	store    *rules.QdrantStore
	logger   *log.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	source *github.RuleSource,
	splitter *markdown.Splitter,
	embedder *embedding.Embedder,
	store *rules.QdrantStore,
	logger *log.Logger,
) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		source:   source,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Run ingests every markdown file from the source into the store.
// Individual file failures are recorded and skipped; the run continues.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	commitSHA, err := p.source.LatestCommitSHA(ctx)
	if err != nil {
		return nil, fmt.Errorf("get commit SHA: %w", err)
	}
	result.CommitSHA = commitSHA
	p.logger.Info("starting ingest", "commit", commitSHA)

	paths, err := p.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	result.TotalFiles = len(paths)
	p.logger.Info("found files", "count", len(paths))

	for _, filePath := range paths {
		if err := p.ingestFile(ctx, filePath, result); err != nil {
			p.logger.Warn("failed to ingest file", "path", filePath, "error", err)
			result.Failed = append(result.Failed, FailedFile{
				Path:   filePath,
				Reason: err.Error(),
			})
		}
	}

	result.Duration = time.Since(start)
	p.logger.Info("ingest complete",
		"rules", result.Rules,
		"transcript_chunks", result.TranscriptChunks,
		"failed", len(result.Failed),
		"duration", result.Duration,
	)

	return result, nil
}

// ingestFile routes one file to the rule or transcript path based on its
// frontmatter.
func (p *Pipeline) ingestFile(ctx context.Context, filePath string, result *Result) error {
	fetched, err := p.source.Fetch(ctx, filePath)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	var matter ruleFrontmatter
	body, err := frontmatter.Parse(strings.NewReader(fetched.Content), &matter)
	if err != nil {
		return fmt.Errorf("parse frontmatter: %w", err)
	}

	if matter.Slug == "" {
		matter.Slug = slugFromPath(filePath)
	}

	switch matter.Kind {
	case "", "rule":
		if err := p.ingestRule(ctx, matter, string(body)); err != nil {
			return err
		}
		result.Rules++
		return nil
	case "transcript":
		n, err := p.ingestTranscript(ctx, matter.Slug, string(body))
		if err != nil {
			return err
		}
		result.TranscriptChunks += n
		return nil
	default:
		return fmt.Errorf("unknown document type %q", matter.Kind)
	}
}

// ingestRule embeds the rule body and stores a single document.
func (p *Pipeline) ingestRule(ctx context.Context, matter ruleFrontmatter, body string) error {
	vectors, err := p.embedder.EmbedBatch(ctx, []string{body})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	doc := &rules.RuleDocument{
		ID:        uuid.New().String(),
		Slug:      matter.Slug,
		Category:  matter.Category,
		Name:      matter.Name,
		Content:   body,
		Embedding: vectors[0],
	}

	if err := p.store.UpsertRule(ctx, doc); err != nil {
		return fmt.Errorf("store rule: %w", err)
	}

	p.logger.Debug("ingested rule", "slug", doc.Slug, "category", doc.Category)
	return nil
}

// ingestTranscript splits the transcript at heading boundaries, embeds each
// segment with its header context, and stores the chunks.
func (p *Pipeline) ingestTranscript(ctx context.Context, videoSlug, body string) (int, error) {
	segments, err := p.splitter.Split([]byte(body))
	if err != nil {
		return 0, fmt.Errorf("split: %w", err)
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.WithContext
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}

	chunks := make([]rules.TranscriptChunk, len(segments))
	for i, seg := range segments {
		chunks[i] = rules.TranscriptChunk{
			ID:        uuid.New().String(),
			VideoSlug: videoSlug,
			Index:     seg.Index,
			Text:      seg.Text,
			Embedding: vectors[i],
		}
	}

	if err := p.store.UpsertTranscriptChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	p.logger.Debug("ingested transcript", "video", videoSlug, "chunks", len(chunks))
	return len(chunks), nil
}

// slugFromPath derives a slug from the file path when frontmatter omits
// one: "design/button-usage.md" -> "button-usage".
func slugFromPath(filePath string) string {
	base := path.Base(filePath)
	return strings.TrimSuffix(base, ".md")
}
