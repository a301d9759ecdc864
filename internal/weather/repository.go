package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/i474232898/weather-sync/internal/stream"
)

// ErrRecordNotFound is returned when an operation targets an ID the store
// does not hold.
var ErrRecordNotFound = errors.New("weather record not found")

// Repository keeps the local store in sync with the remote API and exposes
// the store as observable sequences.
type Repository struct {
	client Client
	store  Store
	coords Coordinates
	logger *slog.Logger
}

// NewRepository creates a Repository for the fixed location coords.
func NewRepository(client Client, store Store, coords Coordinates, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		client: client,
		store:  store,
		coords: coords,
		logger: logger,
	}
}

// SyncRemote starts one fetch of the current weather and returns its
// progress. The returned Sync is already in the Loading state when this
// method returns. On success the record is written through to the store
// before Success is recorded; on failure the store is left untouched.
//
// Concurrent calls are not deduplicated: each performs its own request and
// write, and the last write wins.
func (r *Repository) SyncRemote(ctx context.Context) *Sync {
	s := newSync()
	logger := r.logger.With("sync_id", s.ID())
	logger.Debug("sync started", "lat", r.coords.Lat, "lon", r.coords.Lon)

	go r.runSync(context.WithoutCancel(ctx), s, logger)
	return s
}

func (r *Repository) runSync(ctx context.Context, s *Sync, logger *slog.Logger) {
	payload, err := r.client.Fetch(ctx, r.coords)
	if err != nil {
		fe := Classify(err)
		logger.Warn("remote fetch failed", "kind", fe.Kind.String(), "error", err)
		s.record(failure(fe))
		s.finish(nil)
		return
	}

	rec := payload.ToRecord()
	if err := r.store.Insert(ctx, &rec); err != nil {
		logger.Error("write-through failed", "error", err)
		s.finish(fmt.Errorf("storing fetched record: %w", err))
		return
	}

	logger.Info("weather synced",
		"record_id", rec.ID,
		"city", rec.CityName,
		"temp_k", rec.Temperature,
	)
	s.record(success(rec))
	s.finish(nil)
}

// ObserveAll emits the full record set immediately and after every change.
func (r *Repository) ObserveAll(ctx context.Context) *stream.Subscription[[]Record] {
	return r.store.QueryAll(ctx)
}

// ObserveByID emits the record with the given ID, or nil while absent.
func (r *Repository) ObserveByID(ctx context.Context, id int64) *stream.Subscription[*Record] {
	return r.store.QueryByID(ctx, id)
}

// Insert upserts rec into the store.
func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	return r.store.Insert(ctx, rec)
}

// ClearAll removes every stored record.
func (r *Repository) ClearAll(ctx context.Context) error {
	return r.store.ClearAll(ctx)
}

// SaveCityName stores a copy of record id under a new city name.
func (r *Repository) SaveCityName(ctx context.Context, id int64, name string) (Record, error) {
	current, err := stream.First(ctx, r.store.QueryByID(ctx, id))
	if err != nil {
		return Record{}, fmt.Errorf("loading record %d: %w", id, err)
	}
	if current == nil {
		return Record{}, ErrRecordNotFound
	}

	renamed := *current
	renamed.CityName = name
	if err := r.store.Insert(ctx, &renamed); err != nil {
		return Record{}, err
	}
	return renamed, nil
}
