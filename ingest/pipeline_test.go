package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/w-h-a/faqchat/index"
)

type fakeEmbedder struct {
	dimension int
	calls     int
	failOn    string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if len(f.failOn) > 0 && text == f.failOn {
		return nil, fmt.Errorf("embed %q: provider unavailable", text)
	}
	return make([]float32, f.dimension), nil
}

type fakeIndex struct {
	records map[string]index.Record
	upserts int
	err     error
}

func (f *fakeIndex) Upsert(ctx context.Context, records []index.Record) error {
	f.upserts++
	if f.err != nil {
		return f.err
	}
	if f.records == nil {
		f.records = map[string]index.Record{}
	}
	for _, rec := range records {
		f.records[rec.Id] = rec
	}
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, k int, opts ...index.QueryOption) ([]index.Result, error) {
	return nil, nil
}

func (f *fakeIndex) Stats(ctx context.Context) (index.Stats, error) {
	return index.Stats{Count: len(f.records)}, nil
}

func corpusOf(n int) []FAQ {
	corpus := make([]FAQ, 0, n)
	for i := 0; i < n; i++ {
		corpus = append(corpus, FAQ{
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
		})
	}
	return corpus
}

func TestIngestProducesTwoRecordsPerEntry(t *testing.T) {
	emb := &fakeEmbedder{dimension: 4}
	idx := &fakeIndex{}

	pipeline := New(emb, idx, WithBatchSize(3), WithDimension(4))

	report, err := pipeline.Ingest(context.Background(), corpusOf(7))
	require.NoError(t, err)

	require.Equal(t, 7, report.Entries)
	require.Equal(t, 14, report.Vectors)
	require.Equal(t, 3, report.Batches)
	require.Empty(t, report.Failed)

	// two embedding calls per entry, one upsert per batch
	require.Equal(t, 14, emb.calls)
	require.Equal(t, 3, idx.upserts)

	// ids are unique across the run, q<i>/a<i> per entry
	require.Len(t, idx.records, 14)
	for i := 0; i < 7; i++ {
		q, ok := idx.records[fmt.Sprintf("q%d", i)]
		require.True(t, ok)
		require.Equal(t, index.KindQuestion, q.Metadata.Kind)
		require.Equal(t, fmt.Sprintf("question %d", i), q.Metadata.Text)
		require.Equal(t, fmt.Sprintf("answer %d", i), q.Metadata.PairedText)

		a, ok := idx.records[fmt.Sprintf("a%d", i)]
		require.True(t, ok)
		require.Equal(t, index.KindAnswer, a.Metadata.Kind)
		require.Equal(t, fmt.Sprintf("answer %d", i), a.Metadata.Text)
		require.Equal(t, fmt.Sprintf("question %d", i), a.Metadata.PairedText)
	}
}

func TestIngestRejectsEmptyCorpusBeforeEmbedding(t *testing.T) {
	emb := &fakeEmbedder{dimension: 4}
	idx := &fakeIndex{}

	pipeline := New(emb, idx)

	_, err := pipeline.Ingest(context.Background(), nil)
	require.ErrorIs(t, err, ErrMalformedCorpus)
	require.Zero(t, emb.calls)
	require.Zero(t, idx.upserts)
}

func TestIngestAbortsOnEmbeddingFailure(t *testing.T) {
	// entry 4 sits in the second batch of three
	emb := &fakeEmbedder{dimension: 4, failOn: "answer 4"}
	idx := &fakeIndex{}

	pipeline := New(emb, idx, WithBatchSize(3), WithDimension(4))

	report, err := pipeline.Ingest(context.Background(), corpusOf(9))
	require.Error(t, err)

	var batchErr BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Equal(t, 2, batchErr.Batch)

	// first batch landed, nothing after the failure did
	require.Equal(t, 3, report.Entries)
	require.Equal(t, 6, report.Vectors)
	require.Equal(t, 1, idx.upserts)
	require.Len(t, report.Failed, 1)
}

func TestIngestAbortsOnUpsertFailure(t *testing.T) {
	emb := &fakeEmbedder{dimension: 4}
	idx := &fakeIndex{err: &index.Error{Message: "index unavailable"}}

	pipeline := New(emb, idx, WithBatchSize(5), WithDimension(4))

	report, err := pipeline.Ingest(context.Background(), corpusOf(10))
	require.Error(t, err)

	var indexErr *index.Error
	require.ErrorAs(t, err, &indexErr)

	require.Zero(t, report.Entries)
	require.Equal(t, 1, idx.upserts)
}

func TestIngestFailsOnDimensionMismatch(t *testing.T) {
	emb := &fakeEmbedder{dimension: 8}
	idx := &fakeIndex{}

	pipeline := New(emb, idx, WithDimension(4))

	_, err := pipeline.Ingest(context.Background(), corpusOf(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "dimension")
	require.Zero(t, idx.upserts)
}

func TestIngestOverwritesOnRerun(t *testing.T) {
	emb := &fakeEmbedder{dimension: 4}
	idx := &fakeIndex{}

	pipeline := New(emb, idx, WithDimension(4))

	corpus := corpusOf(3)

	_, err := pipeline.Ingest(context.Background(), corpus)
	require.NoError(t, err)

	report, err := pipeline.Ingest(context.Background(), corpus)
	require.NoError(t, err)

	// same id assignment, so the second run overwrites in place
	require.Equal(t, 6, report.Vectors)
	require.Len(t, idx.records, 6)
}
