package index

import (
	"context"
	"math"
)

const (
	KindQuestion = "question"
	KindAnswer   = "answer"
)

// Index stores embeddings with metadata and answers top-k similarity
// queries over them.
type Index interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, k int, opts ...QueryOption) ([]Result, error)
	Stats(ctx context.Context) (Stats, error)
}

// Metadata travels with every stored vector. PairedText holds the other
// half of the FAQ entry the vector came from, so a question match can
// surface its answer and vice versa.
type Metadata struct {
	Kind       string `json:"kind"`
	Text       string `json:"text"`
	PairedText string `json:"pairedText"`
}

type Record struct {
	Id       string
	Values   []float32
	Metadata Metadata
}

// Result is one similarity match, ranked descending by score.
type Result struct {
	Id       string
	Text     string
	Score    float32
	Metadata Metadata
}

type Stats struct {
	Count      int
	Dimension  int
	Namespaces []string
}

// Error is returned when the backing index fails an upsert, query, or
// stats call.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "index failure: " + e.Message
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
