package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/w-h-a/faqchat/index"
)

// memoryIndex is a brute-force cosine store. It backs tests and the
// local REPL, where a remote index would be overkill.
type memoryIndex struct {
	options index.Options
	records map[string]index.Record
	mtx     sync.RWMutex
}

func (m *memoryIndex) Upsert(ctx context.Context, records []index.Record) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for _, rec := range records {
		if len(rec.Values) != m.options.Dimension {
			return &index.Error{
				Message: fmt.Sprintf("record %s has dimension %d, index expects %d", rec.Id, len(rec.Values), m.options.Dimension),
			}
		}

		cpy := make([]float32, len(rec.Values))
		copy(cpy, rec.Values)
		rec.Values = cpy

		m.records[rec.Id] = rec
	}

	return nil
}

func (m *memoryIndex) Query(ctx context.Context, vector []float32, k int, opts ...index.QueryOption) ([]index.Result, error) {
	if k < 1 {
		return nil, nil
	}

	options := index.NewQueryOptions(opts...)

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	candidates := make([]index.Result, 0, len(m.records))

	for _, rec := range m.records {
		if len(options.Kinds) > 0 && !slices.Contains(options.Kinds, rec.Metadata.Kind) {
			continue
		}

		score := index.CosineSimilarity(vector, rec.Values)

		candidates = append(candidates, index.Result{
			Id:       rec.Id,
			Text:     rec.Metadata.Text,
			Score:    float32(score),
			Metadata: rec.Metadata,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates, nil
}

func (m *memoryIndex) Stats(ctx context.Context) (index.Stats, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return index.Stats{
		Count:     len(m.records),
		Dimension: m.options.Dimension,
	}, nil
}

func NewIndex(opts ...index.Option) index.Index {
	options := index.NewOptions(opts...)

	m := &memoryIndex{
		options: options,
		records: map[string]index.Record{},
		mtx:     sync.RWMutex{},
	}

	return m
}
