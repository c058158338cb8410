package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/w-h-a/faqchat/generator"
)

// Turn is one recorded message in a thread.
type Turn struct {
	Role      string
	Text      string
	CreatedAt time.Time
}

// submission is one queued engine call. The history snapshot is taken
// at submit time and excludes the turn the submission itself appended.
type submission struct {
	ctx     context.Context
	query   string
	history []generator.Message
	done    chan struct{}
}

// Thread is one conversation: an ordered turn list plus a FIFO queue of
// pending submissions. All fields are guarded by mtx; turns are only
// ever appended, and only by Submit (user turns) or the thread's drain
// loop (assistant turns), so recorded order is submission order.
type Thread struct {
	id      string
	seq     uint64
	title   string
	turns   []Turn
	pending []*submission
	working bool
	deleted bool
	mtx     sync.Mutex
}

func (t *Thread) append(role string, text string) {
	t.turns = append(t.turns, Turn{
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
}

// snapshot copies the current turn list into the role-tagged form the
// engine expects.
func (t *Thread) snapshot() []generator.Message {
	history := make([]generator.Message, 0, len(t.turns))
	for _, turn := range t.turns {
		history = append(history, generator.Message{
			Role:    turn.Role,
			Content: turn.Text,
		})
	}
	return history
}
