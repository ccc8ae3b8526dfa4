package messages

import (
	"context"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	schedulerChanSize   = 512
	schedulerMaxPending = 4096
)

// Dispatcher is the interface that describes a component that receives
// incoming messages.
type Dispatcher interface {
	// Schedules a message.
	Dispatch(ctx context.Context, msg Msg) error

	// Releases the messages scheduled since the previous frame.
	HandleFrame()

	// Stops holding messages until the next frame.
	Reset()
}

// Consumer is the interface that describes a component that provides the
// messages to handle.
type Consumer interface {
	Messages() <-chan Msg
}

// Scheduler is a Dispatcher and Consumer that releases messages at frame
// boundaries. Messages pass through directly until the first frame is handled
// and after a reset.
type Scheduler struct {
	mutex    sync.Mutex
	framed   bool
	pending  []Msg
	messages chan Msg

	closeOnce sync.Once
	done      chan struct{}
}

// NewScheduler creates a scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		messages: make(chan Msg, schedulerChanSize),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Dispatch(ctx context.Context, msg Msg) error {
	s.mutex.Lock()
	if s.framed {
		defer s.mutex.Unlock()

		if len(s.pending) >= schedulerMaxPending {
			return errors.New("too many pending messages").
				WithType(ErrTypeSchedulerFull).
				WithTag("pending", len(s.pending))
		}
		s.pending = append(s.pending, msg)
		return nil
	}
	s.mutex.Unlock()

	select {
	case s.messages <- msg:
		return nil

	case <-ctx.Done():
		return ctx.Err()

	case <-s.done:
		return errors.New("scheduler closed").WithType(ErrTypeSchedulerClosed)
	}
}

// HandleFrame moves the pending messages to the consumer channel. Messages
// that do not fit stay pending until the next frame. It never blocks.
func (s *Scheduler) HandleFrame() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.framed = true
	s.flush()
}

func (s *Scheduler) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.framed = false
	s.flush()

	// Pending messages that did not fit keep their order ahead of the newly
	// dispatched ones.
	if len(s.pending) != 0 {
		s.framed = true
	}
}

func (s *Scheduler) flush() {
	for i, msg := range s.pending {
		select {
		case s.messages <- msg:
		default:
			n := copy(s.pending, s.pending[i:])
			s.pending = s.pending[:n]
			return
		}
	}
	s.pending = s.pending[:0]
}

func (s *Scheduler) Messages() <-chan Msg {
	return s.messages
}

// Close unblocks pending dispatches. Dispatching after Close returns an
// error.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
