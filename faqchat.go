// Package faqchat wires the retrieval-augmented FAQ pipeline together:
// an embedder, a vector index, and a completion generator behind a
// query engine, an ingestion pipeline for FAQ corpora, and a
// conversation service that tracks chat threads.
package faqchat

import (
	"context"

	"github.com/w-h-a/faqchat/embedder"
	"github.com/w-h-a/faqchat/engine"
	"github.com/w-h-a/faqchat/generator"
	"github.com/w-h-a/faqchat/index"
	"github.com/w-h-a/faqchat/ingest"
	"github.com/w-h-a/faqchat/internal/service/conversation"
)

// Turn and Info give callers names for the conversation service's
// read-side types.
type (
	Turn = conversation.Turn
	Info = conversation.Info
)

// ErrLastThread is returned when deleting the only remaining thread.
var ErrLastThread = conversation.ErrLastThread

type Chat struct {
	engine        *engine.Engine
	pipeline      *ingest.Pipeline
	conversations *conversation.Service
	index         index.Index
}

// Ingest embeds a corpus and writes it to the index.
func (c *Chat) Ingest(ctx context.Context, corpus []ingest.FAQ) (*ingest.Report, error) {
	return c.pipeline.Ingest(ctx, corpus)
}

// IngestFile loads a {faqs: [...]} document and ingests it.
func (c *Chat) IngestFile(ctx context.Context, path string) (*ingest.Report, error) {
	corpus, err := ingest.LoadCorpus(path)
	if err != nil {
		return nil, err
	}
	return c.pipeline.Ingest(ctx, corpus)
}

// Answer runs one stateless query with explicit history.
func (c *Chat) Answer(ctx context.Context, query string, history []generator.Message) (*engine.Answer, error) {
	return c.engine.Answer(ctx, query, history)
}

func (c *Chat) CreateThread() string {
	return c.conversations.CreateThread()
}

func (c *Chat) DeleteThread(id string) error {
	return c.conversations.DeleteThread(id)
}

// Submit records a user turn on a thread and queues the engine call.
// The returned channel closes once the assistant turn lands.
func (c *Chat) Submit(ctx context.Context, threadId string, text string) (<-chan struct{}, error) {
	return c.conversations.Submit(ctx, threadId, text)
}

func (c *Chat) Threads() []Info {
	return c.conversations.Threads()
}

func (c *Chat) History(threadId string) ([]Turn, error) {
	return c.conversations.History(threadId)
}

func (c *Chat) ActiveThread() string {
	return c.conversations.ActiveThread()
}

func (c *Chat) SetActive(threadId string) error {
	return c.conversations.SetActive(threadId)
}

// Engine exposes the stateless query engine, e.g. for the HTTP server.
func (c *Chat) Engine() *engine.Engine {
	return c.engine
}

// Stats reports on the backing index.
func (c *Chat) Stats(ctx context.Context) (index.Stats, error) {
	return c.index.Stats(ctx)
}

func New(
	e embedder.Embedder,
	idx index.Index,
	g generator.Generator,
	topK int,
	batchSize int,
	dimension int,
	systemPrompt string,
) *Chat {
	eng := engine.New(
		e,
		idx,
		g,
		engine.WithTopK(topK),
		engine.WithSystemPrompt(systemPrompt),
	)

	pipeline := ingest.New(
		e,
		idx,
		ingest.WithBatchSize(batchSize),
		ingest.WithDimension(dimension),
	)

	conversations := conversation.New(eng)

	return &Chat{
		engine:        eng,
		pipeline:      pipeline,
		conversations: conversations,
		index:         idx,
	}
}
