package weather

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/weather-sync/internal/stream"
)

// Sync tracks one remote sync attempt as a small state machine:
// Loading, then exactly one of Success or Error. Every state is kept, so a
// subscriber that attaches late still observes Loading before the terminal
// state. A Sync is one-shot; start a new one for another attempt.
type Sync struct {
	id       string
	notifier *stream.Notifier
	done     chan struct{}

	mu     sync.Mutex
	states []FetchResult
	err    error
}

func newSync() *Sync {
	s := &Sync{
		id:       uuid.NewString(),
		notifier: stream.NewNotifier(),
		done:     make(chan struct{}),
	}
	s.states = append(s.states, loading())
	return s
}

// ID uniquely identifies this attempt in logs and event streams.
func (s *Sync) ID() string {
	return s.id
}

// Current returns the latest state and its version (the number of states
// recorded so far).
func (s *Sync) Current() (FetchResult, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[len(s.states)-1], uint64(len(s.states))
}

// Done is closed when the attempt has finished.
func (s *Sync) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the attempt finishes and returns its terminal state. The
// error is non-nil only for storage faults during write-through, in which
// case no terminal state was recorded.
func (s *Sync) Wait(ctx context.Context) (FetchResult, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return FetchResult{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[len(s.states)-1], s.err
}

// Subscribe replays every state from Loading onward and closes the channel
// after the last one. Cancelling ctx only stops delivery; the underlying
// fetch and store write still complete.
func (s *Sync) Subscribe(ctx context.Context) <-chan FetchResult {
	ch := make(chan FetchResult)

	go func() {
		defer close(ch)
		next := 0
		for {
			_, changed := s.notifier.Watch()
			finished := s.finished()

			s.mu.Lock()
			pending := append([]FetchResult(nil), s.states[next:]...)
			s.mu.Unlock()

			for _, st := range pending {
				select {
				case ch <- st:
					next++
				case <-ctx.Done():
					return
				}
			}
			if finished {
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

func (s *Sync) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Sync) record(r FetchResult) {
	s.mu.Lock()
	s.states = append(s.states, r)
	s.mu.Unlock()
	s.notifier.Notify()
}

func (s *Sync) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
	s.notifier.Notify()
}
