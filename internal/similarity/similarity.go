// Package similarity provides in-process vector ranking for rule retrieval.
// It is pure computation: no I/O, no shared state.
package similarity

import (
	"errors"
	"math"
	"sort"
	"strings"
)

var (
	// ErrDimensionMismatch is returned when two vectors of different lengths
	// are compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidArgument is returned for caller errors such as a negative
	// snippet length.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Embeddable is anything that can participate in similarity ranking:
// a rule document or a transcript chunk. Items without an embedding are
// skipped during ranking.
type Embeddable interface {
	// EmbeddingVector returns the precomputed embedding, or nil.
	EmbeddingVector() []float32
	// Body returns the text the embedding was computed from.
	Body() string
}

// Ranked pairs an item with its similarity score against a query vector.
type Ranked[T Embeddable] struct {
	Item       T
	Similarity float64
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|) as a float64 in [-1, 1].
// Vectors of different lengths fail with ErrDimensionMismatch. A zero
// vector on either side yields exactly 0 rather than dividing by zero.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// TopK ranks items against the query vector and returns at most k results,
// sorted by similarity descending. Ties keep their original relative order.
// Items with a nil or empty embedding are skipped, as are items whose
// embedding length does not match the query. k <= 0 yields an empty slice;
// fewer than k qualifying items yields all of them.
func TopK[T Embeddable](query []float32, items []T, k int) []Ranked[T] {
	results := make([]Ranked[T], 0, len(items))
	if k <= 0 {
		return results
	}

	for _, item := range items {
		vec := item.EmbeddingVector()
		if len(vec) == 0 {
			continue
		}
		score, err := CosineSimilarity(query, vec)
		if err != nil {
			continue
		}
		results = append(results, Ranked[T]{Item: item, Similarity: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// snippetBreakRatio is how far into the snippet a clean break point must
// fall to be used. Breaks earlier than 70% of maxLength discard too much
// of the window.
const snippetBreakRatio = 0.7

// ExtractSnippet returns text unchanged when it fits within maxLength.
// Otherwise it truncates to maxLength and looks for a clean break: the last
// period at or past 70% of maxLength (kept, no ellipsis), then the last
// space past the same threshold (cut there, ellipsis appended), then a hard
// cut at maxLength with an ellipsis. A negative maxLength is a caller error.
func ExtractSnippet(text string, maxLength int) (string, error) {
	if maxLength < 0 {
		return "", ErrInvalidArgument
	}
	if len(text) <= maxLength {
		return text, nil
	}

	cut := text[:maxLength]
	threshold := int(float64(maxLength) * snippetBreakRatio)

	if i := strings.LastIndex(cut, "."); i >= threshold {
		return cut[:i+1], nil
	}
	if i := strings.LastIndex(cut, " "); i >= threshold {
		return cut[:i] + "...", nil
	}
	return cut + "...", nil
}
