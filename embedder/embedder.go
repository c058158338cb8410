package embedder

import "context"

// Embedder turns text into a fixed-length vector suitable for
// similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Error is returned when a provider fails to produce an embedding.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "embedding failure: " + e.Message
}
