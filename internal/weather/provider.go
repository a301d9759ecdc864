package weather

import (
	"context"

	"github.com/i474232898/weather-sync/internal/stream"
)

// Client abstracts the remote weather API. A non-2xx answer is reported as
// *HTTPFailure; anything else (transport, decoding) as a plain error.
type Client interface {
	Fetch(ctx context.Context, coords Coordinates) (Payload, error)
}

// Store is the contract the embedded database (and the in-memory store)
// must satisfy. Writes are serialized by the store itself.
type Store interface {
	// Insert upserts by ID. A transient record gets an ID assigned in place.
	Insert(ctx context.Context, rec *Record) error

	// QueryAll emits every record, ordered by ID, now and after each change.
	QueryAll(ctx context.Context) *stream.Subscription[[]Record]

	// QueryByID emits the record with the given ID, or nil while absent.
	QueryByID(ctx context.Context, id int64) *stream.Subscription[*Record]

	// ClearAll deletes every record.
	ClearAll(ctx context.Context) error

	Close() error
}
