package stream

import "sync"

// Notifier broadcasts change signals to any number of waiters. Each call to
// Notify bumps a version counter and wakes everyone currently watching.
type Notifier struct {
	mu      sync.Mutex
	version uint64
	changed chan struct{}
}

// NewNotifier returns a Notifier at version 0.
func NewNotifier() *Notifier {
	return &Notifier{changed: make(chan struct{})}
}

// Notify records a change and wakes all current watchers.
func (n *Notifier) Notify() {
	n.mu.Lock()
	n.version++
	close(n.changed)
	n.changed = make(chan struct{})
	n.mu.Unlock()
}

// Watch returns the current version together with a channel that is closed
// on the next Notify. Call Watch before reading the guarded state so that a
// change racing with the read is never lost.
func (n *Notifier) Watch() (uint64, <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.version, n.changed
}
