package store

import (
	"context"
	"sort"
	"sync"

	"github.com/i474232898/weather-sync/internal/stream"
	"github.com/i474232898/weather-sync/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: record ID
	data   map[int64]weather.Record
	nextID int64

	changes *stream.Notifier
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:    make(map[int64]weather.Record),
		nextID:  1,
		changes: stream.NewNotifier(),
	}
}

// Insert upserts rec, assigning an ID first if the record is transient.
func (s *MemoryStore) Insert(_ context.Context, rec *weather.Record) error {
	s.mu.Lock()
	if rec.Transient() {
		rec.ID = s.nextID
	}
	if rec.ID >= s.nextID {
		s.nextID = rec.ID + 1
	}
	s.data[rec.ID] = *rec
	s.mu.Unlock()

	s.changes.Notify()
	return nil
}

// QueryAll emits all records ordered by ID.
func (s *MemoryStore) QueryAll(ctx context.Context) *stream.Subscription[[]weather.Record] {
	return stream.Watch(ctx, s.changes, func(context.Context) ([]weather.Record, error) {
		return s.all(), nil
	})
}

// QueryByID emits the record with the given ID, or nil while absent.
func (s *MemoryStore) QueryByID(ctx context.Context, id int64) *stream.Subscription[*weather.Record] {
	return stream.Watch(ctx, s.changes, func(context.Context) (*weather.Record, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		rec, ok := s.data[id]
		if !ok {
			return nil, nil
		}
		return &rec, nil
	})
}

// ClearAll deletes every record.
func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	s.data = make(map[int64]weather.Record)
	s.mu.Unlock()

	s.changes.Notify()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) all() []weather.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Record, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
