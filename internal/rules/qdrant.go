package rules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Payload type discriminators within the shared collection.
const (
	pointTypeRule       = "rule"
	pointTypeTranscript = "transcript"
)

// QdrantStore is the live-store backend of Repository, plus the write
// surface used by the ingestion pipeline. Rules and transcript chunks live
// in one collection, discriminated by a "type" payload field.
type QdrantStore struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantStore connects to qdrant and validates the connection.
// Fails fast (after a bounded retry window) if the store is unreachable.
func NewQdrantStore(host string, port int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{client: client, host: host, port: port}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry retries startup health checks with exponential
// backoff: initial 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the rules collection if it does not exist.
// Idempotent.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			"content": {
				Size:     VectorDimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return s.createPayloadIndexes(ctx)
}

// createPayloadIndexes indexes the filterable fields. Without these,
// slug/category filters degrade to full scans.
func (s *QdrantStore) createPayloadIndexes(ctx context.Context) error {
	fields := []string{
		"type",       // "rule" vs "transcript"
		"slug",       // exact rule lookup
		"category",   // category filter
		"video_slug", // transcript grouping
	}

	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	return nil
}

// ClearCollection drops and recreates the collection. Used by full re-index.
func (s *QdrantStore) ClearCollection(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, CollectionName); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return s.EnsureCollection(ctx)
}

// Close closes the underlying client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry retries transient upsert failures with exponential backoff.
func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// UpsertRule stores a rule document with its embedding.
func (s *QdrantStore) UpsertRule(ctx context.Context, doc *RuleDocument) error {
	if len(doc.Embedding) != 0 && len(doc.Embedding) != VectorDimension {
		return fmt.Errorf("rule %q has %d dimensions, expected %d",
			doc.Slug, len(doc.Embedding), VectorDimension)
	}

	vectors := map[string]*qdrant.Vector{}
	if len(doc.Embedding) > 0 {
		vectors["content"] = qdrant.NewVector(doc.Embedding...)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectorsMap(vectors),
		Payload: qdrant.NewValueMap(map[string]any{
			"type":     pointTypeRule,
			"slug":     doc.Slug,
			"category": doc.Category,
			"name":     doc.Name,
			"content":  doc.Content,
		}),
	}

	return s.upsertWithRetry(ctx, []*qdrant.PointStruct{point})
}

// UpsertTranscriptChunks stores transcript chunks in batches of 100.
func (s *QdrantStore) UpsertTranscriptChunks(ctx context.Context, chunks []TranscriptChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != 0 && len(chunk.Embedding) != VectorDimension {
			return fmt.Errorf("chunk %d has %d dimensions, expected %d",
				i, len(chunk.Embedding), VectorDimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, chunk := range batch {
			vectors := map[string]*qdrant.Vector{}
			if len(chunk.Embedding) > 0 {
				vectors["content"] = qdrant.NewVector(chunk.Embedding...)
			}
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectorsMap(vectors),
				Payload: qdrant.NewValueMap(map[string]any{
					"type":        pointTypeTranscript,
					"video_slug":  chunk.VideoSlug,
					"chunk_index": chunk.Index,
					"text":        chunk.Text,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// GetBySlug implements Repository.
func (s *QdrantStore) GetBySlug(ctx context.Context, slug string) (*RuleDocument, error) {
	results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: CollectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("type", pointTypeRule),
				qdrant.NewMatch("slug", slug),
			},
		},
		Limit:       qdrant.PtrOf(uint32(1)),
		WithPayload: qdrant.NewWithPayload(true),
		WithVectors: qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query by slug: %v", ErrStoreUnreachable, err)
	}

	if len(results) == 0 {
		return nil, ErrRuleNotFound
	}

	doc := ruleFromPoint(results[0])
	return &doc, nil
}

// GetByCategory implements Repository.
func (s *QdrantStore) GetByCategory(ctx context.Context, category string) ([]RuleDocument, error) {
	return s.scrollRules(ctx, &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", pointTypeRule),
			qdrant.NewMatch("category", category),
		},
	})
}

// ListAll implements Repository.
func (s *QdrantStore) ListAll(ctx context.Context) ([]RuleDocument, error) {
	return s.scrollRules(ctx, &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", pointTypeRule),
		},
	})
}

// scrollRules pages through all rule points matching the filter, vectors
// included, sorted by slug for stable output.
func (s *QdrantStore) scrollRules(ctx context.Context, filter *qdrant.Filter) ([]RuleDocument, error) {
	var docs []RuleDocument
	var offset *qdrant.PointId
	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scroll rules: %v", ErrStoreUnreachable, err)
		}

		for _, result := range results {
			doc := ruleFromPoint(result)
			if doc.Slug == "" {
				continue // malformed point, not trusted past this boundary
			}
			docs = append(docs, doc)
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Slug < docs[j].Slug })
	return docs, nil
}

// ListTranscriptChunks implements Repository.
func (s *QdrantStore) ListTranscriptChunks(ctx context.Context) ([]TranscriptChunk, error) {
	var chunks []TranscriptChunk
	var offset *qdrant.PointId
	batchSize := uint32(100)

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", pointTypeTranscript),
		},
	}

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scroll transcripts: %v", ErrStoreUnreachable, err)
		}

		for _, result := range results {
			payload := result.Payload
			chunks = append(chunks, TranscriptChunk{
				ID:        result.Id.GetUuid(),
				VideoSlug: payload["video_slug"].GetStringValue(),
				Index:     int(payload["chunk_index"].GetIntegerValue()),
				Text:      payload["text"].GetStringValue(),
				Embedding: pointVector(result.Vectors),
			})
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	return chunks, nil
}

// RuleCount returns the number of points in the collection. Used by status
// reporting; counts rules and transcript chunks together.
func (s *QdrantStore) RuleCount(ctx context.Context) (uint64, error) {
	collection, err := s.client.GetCollectionInfo(ctx, CollectionName)
	if err != nil {
		return 0, fmt.Errorf("%w: get collection: %v", ErrStoreUnreachable, err)
	}
	return collection.GetPointsCount(), nil
}

// ruleFromPoint coerces a retrieved point into a RuleDocument. Store
// payloads are loosely typed; anything missing comes back zero-valued and
// is filtered by the caller.
func ruleFromPoint(point *qdrant.RetrievedPoint) RuleDocument {
	payload := point.Payload
	return RuleDocument{
		ID:        point.Id.GetUuid(),
		Slug:      payload["slug"].GetStringValue(),
		Category:  payload["category"].GetStringValue(),
		Name:      payload["name"].GetStringValue(),
		Content:   payload["content"].GetStringValue(),
		Embedding: pointVector(point.Vectors),
	}
}

// pointVector extracts the "content" vector from a point, tolerating both
// named and single-vector layouts.
func pointVector(vectors *qdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	if single := vectors.GetVector(); single != nil && len(single.GetData()) > 0 {
		return single.GetData()
	}
	if named := vectors.GetVectors(); named != nil {
		if out, ok := named.GetVectors()["content"]; ok {
			return out.GetData()
		}
	}
	return nil
}
