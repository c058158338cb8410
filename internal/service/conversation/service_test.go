package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/w-h-a/faqchat/engine"
	"github.com/w-h-a/faqchat/generator"
)

type scriptedEngine struct {
	answer  func(query string, history []generator.Message) (*engine.Answer, error)
	queries []string
	history [][]generator.Message
	mtx     sync.Mutex
}

func (e *scriptedEngine) Answer(ctx context.Context, query string, history []generator.Message) (*engine.Answer, error) {
	e.mtx.Lock()
	e.queries = append(e.queries, query)
	e.history = append(e.history, history)
	e.mtx.Unlock()

	if e.answer != nil {
		return e.answer(query, history)
	}

	return &engine.Answer{Text: "echo: " + query}, nil
}

func await(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for assistant turn")
	}
}

func TestNewSeedsOneActiveThread(t *testing.T) {
	s := New(&scriptedEngine{})

	threads := s.Threads()
	require.Len(t, threads, 1)
	require.Equal(t, "New Chat", threads[0].Title)
	require.Equal(t, threads[0].Id, s.ActiveThread())
}

func TestDeleteLastThreadIsForbidden(t *testing.T) {
	s := New(&scriptedEngine{})

	err := s.DeleteThread(s.ActiveThread())
	require.ErrorIs(t, err, ErrLastThread)

	require.Len(t, s.Threads(), 1)
}

func TestDeleteActiveThreadActivatesEarliest(t *testing.T) {
	s := New(&scriptedEngine{})

	first := s.ActiveThread()
	second := s.CreateThread()
	third := s.CreateThread()

	require.Equal(t, third, s.ActiveThread())

	require.NoError(t, s.DeleteThread(third))
	require.Equal(t, first, s.ActiveThread())

	require.NoError(t, s.DeleteThread(first))
	require.Equal(t, second, s.ActiveThread())

	require.Error(t, s.DeleteThread("no-such-thread"))
}

func TestSubmitRecordsUserAndAssistantTurns(t *testing.T) {
	s := New(&scriptedEngine{})
	id := s.ActiveThread()

	done, err := s.Submit(context.Background(), id, "What is X?")
	require.NoError(t, err)
	await(t, done)

	turns, err := s.History(id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, generator.RoleUser, turns[0].Role)
	require.Equal(t, "What is X?", turns[0].Text)
	require.Equal(t, generator.RoleAssistant, turns[1].Role)
	require.Equal(t, "echo: What is X?", turns[1].Text)
}

func TestSubmitBlankTextIsNoOp(t *testing.T) {
	eng := &scriptedEngine{}
	s := New(eng)
	id := s.ActiveThread()

	done, err := s.Submit(context.Background(), id, "   \n\t")
	require.NoError(t, err)
	await(t, done)

	turns, err := s.History(id)
	require.NoError(t, err)
	require.Empty(t, turns)
	require.Empty(t, eng.queries)

	threads := s.Threads()
	require.Equal(t, "New Chat", threads[0].Title)
}

func TestSubmitsProcessInOrder(t *testing.T) {
	release := make(chan struct{})
	eng := &scriptedEngine{
		answer: func(query string, history []generator.Message) (*engine.Answer, error) {
			<-release
			return &engine.Answer{Text: "echo: " + query}, nil
		},
	}

	s := New(eng)
	id := s.ActiveThread()

	done1, err := s.Submit(context.Background(), id, "first")
	require.NoError(t, err)
	done2, err := s.Submit(context.Background(), id, "second")
	require.NoError(t, err)

	// both user turns are visible before any assistant turn lands
	turns, err := s.History(id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, generator.RoleUser, turns[0].Role)
	require.Equal(t, generator.RoleUser, turns[1].Role)

	close(release)
	await(t, done1)
	await(t, done2)

	turns, err = s.History(id)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	require.Equal(t, "first", turns[0].Text)
	require.Equal(t, "second", turns[1].Text)
	require.Equal(t, "echo: first", turns[2].Text)
	require.Equal(t, "echo: second", turns[3].Text)

	require.Equal(t, []string{"first", "second"}, eng.queries)
}

func TestSubmitSnapshotsHistoryBeforeAppending(t *testing.T) {
	eng := &scriptedEngine{}
	s := New(eng)
	id := s.ActiveThread()

	done, err := s.Submit(context.Background(), id, "first")
	require.NoError(t, err)
	await(t, done)

	done, err = s.Submit(context.Background(), id, "second")
	require.NoError(t, err)
	await(t, done)

	// the first submission saw an empty thread
	require.Empty(t, eng.history[0])

	// the second saw the first exchange but not its own user turn
	require.Equal(t, []generator.Message{
		{Role: generator.RoleUser, Content: "first"},
		{Role: generator.RoleAssistant, Content: "echo: first"},
	}, eng.history[1])
}

func TestSubmitFallsBackOnEngineFailure(t *testing.T) {
	eng := &scriptedEngine{
		answer: func(query string, history []generator.Message) (*engine.Answer, error) {
			return nil, fmt.Errorf("provider down")
		},
	}

	s := New(eng)
	id := s.ActiveThread()

	done, err := s.Submit(context.Background(), id, "What is X?")
	require.NoError(t, err)
	await(t, done)

	turns, err := s.History(id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, generator.RoleAssistant, turns[1].Role)
	require.Equal(t, "There was an error, can you try asking again?", turns[1].Text)
}

func TestFirstSubmissionSetsTitle(t *testing.T) {
	s := New(&scriptedEngine{})
	id := s.ActiveThread()

	long := strings.Repeat("x", 40)

	done, err := s.Submit(context.Background(), id, long)
	require.NoError(t, err)
	await(t, done)

	done, err = s.Submit(context.Background(), id, "a later turn")
	require.NoError(t, err)
	await(t, done)

	threads := s.Threads()
	require.Equal(t, strings.Repeat("x", 30)+"...", threads[0].Title)

	short := s.CreateThread()
	done, err = s.Submit(context.Background(), short, "short title")
	require.NoError(t, err)
	await(t, done)

	threads = s.Threads()
	require.Equal(t, "short title", threads[1].Title)
}

func TestThreadsListInCreationOrder(t *testing.T) {
	s := New(&scriptedEngine{})

	first := s.ActiveThread()
	second := s.CreateThread()
	third := s.CreateThread()

	threads := s.Threads()
	require.Len(t, threads, 3)
	require.Equal(t, first, threads[0].Id)
	require.Equal(t, second, threads[1].Id)
	require.Equal(t, third, threads[2].Id)
}

func TestSubmitToUnknownThreadFails(t *testing.T) {
	s := New(&scriptedEngine{})

	_, err := s.Submit(context.Background(), "no-such-thread", "hello")
	require.Error(t, err)
}

func TestDeleteReleasesPendingSubmissions(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	eng := &scriptedEngine{
		answer: func(query string, history []generator.Message) (*engine.Answer, error) {
			close(started)
			<-release
			return &engine.Answer{Text: "echo: " + query}, nil
		},
	}

	s := New(eng)
	victim := s.ActiveThread()
	s.CreateThread()

	done1, err := s.Submit(context.Background(), victim, "in flight")
	require.NoError(t, err)
	<-started

	done2, err := s.Submit(context.Background(), victim, "still queued")
	require.NoError(t, err)

	require.NoError(t, s.DeleteThread(victim))

	// the queued submission is released without ever reaching the engine
	await(t, done2)

	close(release)
	await(t, done1)

	require.Equal(t, []string{"in flight"}, eng.queries)

	_, err = s.History(victim)
	require.Error(t, err)
}
