package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/w-h-a/faqchat/embedder"
	"github.com/w-h-a/faqchat/generator"
	"github.com/w-h-a/faqchat/index"
)

const defaultSystemPrompt = `The following is a friendly conversation between a human and an AI.
The AI is talkative and provides lots of specific details from its context.
If the AI does not know the answer to a question, it truthfully says it does not know.
Use the "history" to understand what we've already talked about in the conversation.

Use the CONTEXT below to answer the QUESTION asked by the user.`

// ErrInvalidQuery rejects empty or whitespace-only queries before any
// provider call is made.
var ErrInvalidQuery = errors.New("query is required")

// RetrievalError wraps an embedding or index failure during retrieval.
// An ungrounded answer is worse than a visible failure, so retrieval
// errors surface instead of degrading to a context-free completion.
type RetrievalError struct {
	Cause error
}

func (e *RetrievalError) Error() string {
	return "retrieval failure: " + e.Cause.Error()
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// CompletionError wraps a provider failure during the completion call.
type CompletionError struct {
	Cause error
}

func (e *CompletionError) Error() string {
	return "completion failure: " + e.Cause.Error()
}

func (e *CompletionError) Unwrap() error {
	return e.Cause
}

// Answer is a generated reply plus the retrieval results it was
// grounded on.
type Answer struct {
	Text    string
	Sources []index.Result
}

// Engine turns a user query plus prior history into a grounded
// completion. It holds no conversation state of its own: history is an
// explicit argument, so independent threads can share one engine.
type Engine struct {
	embedder  embedder.Embedder
	index     index.Index
	generator generator.Generator
	options   Options
}

// Answer retrieves the top-k documents for query, composes a grounded
// prompt around them and history, and asks the generator for a reply.
func (e *Engine) Answer(ctx context.Context, query string, history []generator.Message) (*Answer, error) {
	if len(strings.TrimSpace(query)) == 0 {
		return nil, ErrInvalidQuery
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Cause: err}
	}

	sources, err := e.index.Query(
		ctx,
		vector,
		e.options.TopK,
		index.WithKinds(index.KindQuestion, index.KindAnswer),
	)
	if err != nil {
		return nil, &RetrievalError{Cause: err}
	}

	req := generator.Request{
		System:  e.options.SystemPrompt,
		History: history,
		User:    composeUserTurn(sources, query),
	}

	text, err := e.generator.Generate(ctx, req)
	if err != nil {
		return nil, &CompletionError{Cause: err}
	}

	return &Answer{
		Text:    text,
		Sources: sources,
	}, nil
}

func New(e embedder.Embedder, idx index.Index, g generator.Generator, opts ...Option) *Engine {
	if e == nil {
		panic("embedder is required")
	}

	if idx == nil {
		panic("index is required")
	}

	if g == nil {
		panic("generator is required")
	}

	return &Engine{
		embedder:  e,
		index:     idx,
		generator: g,
		options:   NewOptions(opts...),
	}
}
