package faqchat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/w-h-a/faqchat/generator"
	"github.com/w-h-a/faqchat/index"
	"github.com/w-h-a/faqchat/index/memory"
	"github.com/w-h-a/faqchat/ingest"
)

// basisEmbedder assigns each distinct string its own basis vector, so
// identical strings match exactly and unrelated strings score zero.
type basisEmbedder struct {
	dimension int
	slots     map[string]int
	mtx       sync.Mutex
}

func (b *basisEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	slot, ok := b.slots[text]
	if !ok {
		slot = len(b.slots) % b.dimension
		b.slots[text] = slot
	}

	vector := make([]float32, b.dimension)
	vector[slot] = 1

	return vector, nil
}

// promptEcho returns the synthetic user turn so tests can inspect what
// the generator was actually shown.
type promptEcho struct{}

func (p *promptEcho) Generate(ctx context.Context, req generator.Request) (string, error) {
	return req.User, nil
}

func newChat(t *testing.T) *Chat {
	t.Helper()

	const dimension = 8

	chat := New(
		&basisEmbedder{dimension: dimension, slots: map[string]int{}},
		memory.NewIndex(index.WithDimension(dimension)),
		&promptEcho{},
		5,
		2,
		dimension,
		"",
	)

	report, err := chat.Ingest(context.Background(), []ingest.FAQ{
		{Question: "What is X?", Answer: "X is Y."},
		{Question: "How do I reset my password?", Answer: "Use the forgot password link."},
		{Question: "Where is the office?", Answer: "42 Main Street."},
	})
	require.NoError(t, err)
	require.Equal(t, 6, report.Vectors)

	return chat
}

func TestAnswerIsGroundedInIngestedCorpus(t *testing.T) {
	chat := newChat(t)

	answer, err := chat.Answer(context.Background(), "What is X?", nil)
	require.NoError(t, err)

	require.Contains(t, answer.Text, "X is Y.")
	require.Contains(t, answer.Text, "QUESTION: What is X?")
	require.NotEmpty(t, answer.Sources)
	require.Equal(t, "q0", answer.Sources[0].Id)
}

func TestStatsReflectIngestedCorpus(t *testing.T) {
	chat := newChat(t)

	stats, err := chat.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, stats.Count)
}

func TestThreadedConversationOverFacade(t *testing.T) {
	chat := newChat(t)

	id := chat.ActiveThread()

	done, err := chat.Submit(context.Background(), id, "What is X?")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for assistant turn")
	}

	turns, err := chat.History(id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Contains(t, turns[1].Text, "X is Y.")

	second := chat.CreateThread()
	require.Equal(t, second, chat.ActiveThread())

	require.NoError(t, chat.DeleteThread(second))
	require.NoError(t, chat.SetActive(id))

	require.ErrorIs(t, chat.DeleteThread(id), ErrLastThread)

	titles := chat.Threads()
	require.Len(t, titles, 1)
	require.True(t, strings.HasPrefix(titles[0].Title, "What is X?"))
}
