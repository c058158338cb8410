package ingest

import (
	"context"
	"fmt"

	"github.com/w-h-a/faqchat/embedder"
	"github.com/w-h-a/faqchat/index"
)

// Pipeline embeds a FAQ corpus and writes the vectors to an index in
// bounded batches. It is stateless and safe for concurrent use, though
// two concurrent runs over the same index race on ids.
type Pipeline struct {
	embedder embedder.Embedder
	index    index.Index
	options  Options
}

// BatchError records which batch failed and why.
type BatchError struct {
	Batch int
	Err   error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("batch %d: %v", e.Batch, e.Err)
}

func (e BatchError) Unwrap() error {
	return e.Err
}

// Report summarizes one ingestion run.
type Report struct {
	Entries int
	Vectors int
	Batches int
	Failed  []BatchError
}

// Ingest embeds every entry's question and answer and upserts two
// records per entry, one batch at a time. Ids are q<i>/a<i> from a
// running counter, so re-ingesting the same corpus overwrites in place;
// a reordered corpus must be ingested into a cleared index.
func (p *Pipeline) Ingest(ctx context.Context, corpus []FAQ) (*Report, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrMalformedCorpus)
	}

	report := &Report{}

	batchSize := p.options.BatchSize
	total := (len(corpus) + batchSize - 1) / batchSize

	p.options.Logger.InfoContext(ctx, "starting ingestion", "entries", len(corpus), "batches", total, "batchSize", batchSize)

	for start := 0; start < len(corpus); start += batchSize {
		end := min(start+batchSize, len(corpus))

		report.Batches++

		records, err := p.embedBatch(ctx, corpus[start:end], start)
		if err != nil {
			batchErr := BatchError{Batch: report.Batches, Err: err}
			report.Failed = append(report.Failed, batchErr)
			p.options.Logger.ErrorContext(ctx, "aborting ingestion", "batch", report.Batches, "error", err)
			return report, batchErr
		}

		if err := p.index.Upsert(ctx, records); err != nil {
			batchErr := BatchError{Batch: report.Batches, Err: err}
			report.Failed = append(report.Failed, batchErr)
			p.options.Logger.ErrorContext(ctx, "aborting ingestion", "batch", report.Batches, "error", err)
			return report, batchErr
		}

		report.Entries += end - start
		report.Vectors += len(records)

		p.options.Logger.InfoContext(ctx, "batch written", "batch", report.Batches, "of", total, "entries", report.Entries)
	}

	p.options.Logger.InfoContext(ctx, "ingestion complete", "entries", report.Entries, "vectors", report.Vectors)

	return report, nil
}

func (p *Pipeline) embedBatch(ctx context.Context, batch []FAQ, offset int) ([]index.Record, error) {
	records := make([]index.Record, 0, 2*len(batch))

	for i, faq := range batch {
		question, err := p.embed(ctx, faq.Question)
		if err != nil {
			return nil, fmt.Errorf("entry %d question: %w", offset+i, err)
		}

		answer, err := p.embed(ctx, faq.Answer)
		if err != nil {
			return nil, fmt.Errorf("entry %d answer: %w", offset+i, err)
		}

		records = append(records,
			index.Record{
				Id:     fmt.Sprintf("q%d", offset+i),
				Values: question,
				Metadata: index.Metadata{
					Kind:       index.KindQuestion,
					Text:       faq.Question,
					PairedText: faq.Answer,
				},
			},
			index.Record{
				Id:     fmt.Sprintf("a%d", offset+i),
				Values: answer,
				Metadata: index.Metadata{
					Kind:       index.KindAnswer,
					Text:       faq.Answer,
					PairedText: faq.Question,
				},
			},
		)
	}

	return records, nil
}

func (p *Pipeline) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(vec) != p.options.Dimension {
		return nil, fmt.Errorf("embedding has dimension %d, index expects %d", len(vec), p.options.Dimension)
	}

	return vec, nil
}

func New(e embedder.Embedder, idx index.Index, opts ...Option) *Pipeline {
	if e == nil {
		panic("embedder is required")
	}

	if idx == nil {
		panic("index is required")
	}

	return &Pipeline{
		embedder: e,
		index:    idx,
		options:  NewOptions(opts...),
	}
}
