// Package stream provides push-based observable sequences backed by a change
// notifier. Every subscription owns one goroutine, so producers never block on
// slow consumers; bursts of changes coalesce into the newest state.
package stream

import (
	"context"
	"sync"
)

// Subscription is a live sequence of values. Values arrive on C until the
// subscription is closed or its source fails, at which point C is closed and
// Err reports the failure (nil when closed by the caller).
type Subscription[T any] struct {
	ch     chan T
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newSubscription[T any](cancel context.CancelFunc) *Subscription[T] {
	return &Subscription[T]{
		ch:     make(chan T),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// C returns the delivery channel.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close stops delivery and waits for the subscription goroutine to exit.
// Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that terminated the sequence, if any.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription[T]) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Subscription[T]) finish() {
	close(s.ch)
	close(s.done)
}

// send delivers v unless ctx is cancelled first.
func (s *Subscription[T]) send(ctx context.Context, v T) bool {
	select {
	case s.ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// Watch emits query's result immediately and again after every change
// signalled by n, for as long as ctx is alive. A query error ends the
// sequence and is reported by Err.
func Watch[T any](ctx context.Context, n *Notifier, query func(context.Context) (T, error)) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := newSubscription[T](cancel)

	go func() {
		defer s.finish()
		for {
			_, changed := n.Watch()

			v, err := query(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.fail(err)
				}
				return
			}
			if !s.send(ctx, v) {
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return s
}

// Map projects every value of src through fn. Closing the result closes src.
func Map[T, U any](src *Subscription[T], fn func(T) U) *Subscription[U] {
	ctx, cancel := context.WithCancel(context.Background())
	dst := newSubscription[U](cancel)

	go func() {
		defer dst.finish()
		defer src.Close()
		for {
			select {
			case v, ok := <-src.C():
				if !ok {
					dst.fail(src.Err())
					return
				}
				if !dst.send(ctx, fn(v)) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return dst
}

// First returns the first value of sub and closes it.
func First[T any](ctx context.Context, sub *Subscription[T]) (T, error) {
	defer sub.Close()

	var zero T
	select {
	case v, ok := <-sub.C():
		if !ok {
			if err := sub.Err(); err != nil {
				return zero, err
			}
			return zero, context.Canceled
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
