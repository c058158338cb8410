package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/w-h-a/faqchat/engine"
	"github.com/w-h-a/faqchat/generator"
)

const (
	placeholderTitle = "New Chat"
	titleLength      = 30
)

// ErrLastThread guards the invariant that at least one thread always
// exists.
var ErrLastThread = errors.New("cannot delete the last remaining thread")

// Engine is the slice of the query engine the service needs.
type Engine interface {
	Answer(ctx context.Context, query string, history []generator.Message) (*engine.Answer, error)
}

// Info is a read-only view of a thread for listing.
type Info struct {
	Id    string
	Title string
}

// Service owns every conversation thread and routes user input to the
// engine. Threads are mutated only through CreateThread, DeleteThread,
// and Submit; within a thread, turns are recorded strictly in
// submission order, while distinct threads process in parallel.
type Service struct {
	engine  Engine
	options Options
	threads map[string]*Thread
	active  string
	seq     uint64
	mtx     sync.RWMutex
}

// CreateThread allocates an empty thread with a placeholder title and
// makes it the active one.
func (s *Service) CreateThread() string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.createThread()
}

func (s *Service) createThread() string {
	id := uuid.New().String()

	s.seq++

	s.threads[id] = &Thread{
		id:    id,
		seq:   s.seq,
		title: placeholderTitle,
	}

	s.active = id

	return id
}

// DeleteThread removes a thread. Deleting the only remaining thread is
// forbidden; deleting the active one activates the earliest-created
// survivor.
func (s *Service) DeleteThread(id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	thread, ok := s.threads[id]
	if !ok {
		return fmt.Errorf("thread %s not found", id)
	}

	if len(s.threads) == 1 {
		return ErrLastThread
	}

	thread.mtx.Lock()
	thread.deleted = true
	for _, job := range thread.pending {
		close(job.done)
	}
	thread.pending = nil
	thread.mtx.Unlock()

	delete(s.threads, id)

	if s.active == id {
		s.active = s.earliest()
	}

	return nil
}

func (s *Service) earliest() string {
	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.threads[ids[i]].seq < s.threads[ids[j]].seq
	})
	return ids[0]
}

// Submit records text as a user turn and queues an engine call whose
// assistant reply is appended when it resolves. Blank text is a no-op.
// The returned channel closes once the assistant turn is recorded; on
// engine failure the thread still gets a fallback apology turn rather
// than an error, so a conversation is never left hanging.
func (s *Service) Submit(ctx context.Context, id string, text string) (<-chan struct{}, error) {
	if len(strings.TrimSpace(text)) == 0 {
		done := make(chan struct{})
		close(done)
		return done, nil
	}

	s.mtx.RLock()
	thread, ok := s.threads[id]
	s.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("thread %s not found", id)
	}

	thread.mtx.Lock()
	defer thread.mtx.Unlock()

	if thread.deleted {
		return nil, fmt.Errorf("thread %s not found", id)
	}

	// history excludes the turn being appended; the engine receives the
	// raw query and composes its own context-laden turn
	job := &submission{
		ctx:     ctx,
		query:   text,
		history: thread.snapshot(),
		done:    make(chan struct{}),
	}

	if len(thread.turns) == 0 {
		thread.title = title(text)
	}

	thread.append(generator.RoleUser, text)
	thread.pending = append(thread.pending, job)

	if !thread.working {
		thread.working = true
		go s.drain(thread)
	}

	return job.done, nil
}

// drain processes a thread's queued submissions in FIFO order. One
// drain loop runs per thread at a time, which is what keeps appends
// within a thread sequential.
func (s *Service) drain(thread *Thread) {
	for {
		thread.mtx.Lock()
		if thread.deleted || len(thread.pending) == 0 {
			thread.working = false
			thread.mtx.Unlock()
			return
		}
		job := thread.pending[0]
		thread.pending = thread.pending[1:]
		thread.mtx.Unlock()

		text := s.options.Fallback

		answer, err := s.engine.Answer(job.ctx, job.query, job.history)
		if err != nil {
			s.options.Logger.ErrorContext(job.ctx, "engine call failed", "thread", thread.id, "error", err)
		} else {
			text = answer.Text
		}

		thread.mtx.Lock()
		if !thread.deleted {
			thread.append(generator.RoleAssistant, text)
		}
		thread.mtx.Unlock()

		close(job.done)
	}
}

// Threads lists every thread in creation order.
func (s *Service) Threads() []Info {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	threads := make([]*Thread, 0, len(s.threads))
	for _, thread := range s.threads {
		threads = append(threads, thread)
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].seq < threads[j].seq
	})

	infos := make([]Info, 0, len(threads))
	for _, thread := range threads {
		thread.mtx.Lock()
		infos = append(infos, Info{Id: thread.id, Title: thread.title})
		thread.mtx.Unlock()
	}

	return infos
}

// History returns a copy of a thread's recorded turns.
func (s *Service) History(id string) ([]Turn, error) {
	s.mtx.RLock()
	thread, ok := s.threads[id]
	s.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("thread %s not found", id)
	}

	thread.mtx.Lock()
	defer thread.mtx.Unlock()

	turns := make([]Turn, len(thread.turns))
	copy(turns, thread.turns)

	return turns, nil
}

// ActiveThread reports which thread currently receives UI input.
func (s *Service) ActiveThread() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.active
}

func (s *Service) SetActive(id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.threads[id]; !ok {
		return fmt.Errorf("thread %s not found", id)
	}

	s.active = id

	return nil
}

func title(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= titleLength {
		return text
	}
	return string(runes[:titleLength]) + "..."
}

// New creates a service seeded with one empty thread, which is active.
func New(e Engine, opts ...Option) *Service {
	if e == nil {
		panic("engine is required")
	}

	s := &Service{
		engine:  e,
		options: NewOptions(opts...),
		threads: map[string]*Thread{},
	}

	s.createThread()

	return s
}
