package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weather-sync/internal/stream"
	"github.com/i474232898/weather-sync/internal/weather"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// stores runs every contract test against both implementations.
var stores = []struct {
	name string
	open func(t *testing.T) weather.Store
}{
	{"memory", func(t *testing.T) weather.Store { return NewMemoryStore() }},
	{"sqlite", func(t *testing.T) weather.Store { return newTestSQLiteStore(t) }},
}

func makeRecord(id int64, city string, tempK float64) weather.Record {
	return weather.Record{
		ID:          id,
		CityName:    city,
		Temperature: tempK,
		FeelsLike:   tempK - 1,
		TempMin:     tempK - 2,
		TempMax:     tempK + 2,
		Pressure:    1016,
		Humidity:    62,
		WindSpeed:   2.6,
		Condition:   weather.ConditionClear,
		Description: "clear sky",
		ObservedAt:  time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func next[T any](t *testing.T, sub *stream.Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if !ok {
			t.Fatalf("subscription closed: %v", sub.Err())
		}
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for emission")
	}
	var zero T
	return zero
}

func snapshot(t *testing.T, s weather.Store) []weather.Record {
	t.Helper()
	recs, err := stream.First(context.Background(), s.QueryAll(context.Background()))
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	return recs
}

func TestStore_InsertTransientAssignsID(t *testing.T) {
	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			s := st.open(t)
			ctx := context.Background()

			rec := makeRecord(0, "Santiago", 289.5)
			if err := s.Insert(ctx, &rec); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if rec.ID == 0 {
				t.Fatal("expected ID to be assigned")
			}

			other := makeRecord(0, "Valparaíso", 288.0)
			if err := s.Insert(ctx, &other); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if other.ID == rec.ID {
				t.Errorf("duplicate ID %d assigned", other.ID)
			}
			if n := len(snapshot(t, s)); n != 2 {
				t.Errorf("got %d records, want 2", n)
			}
		})
	}
}

func TestStore_UpsertByID(t *testing.T) {
	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			s := st.open(t)
			ctx := context.Background()

			rec := makeRecord(3871336, "Santiago", 289.5)
			for i := 0; i < 2; i++ {
				dup := rec
				if err := s.Insert(ctx, &dup); err != nil {
					t.Fatalf("Insert #%d: %v", i, err)
				}
			}
			if n := len(snapshot(t, s)); n != 1 {
				t.Fatalf("got %d records after duplicate insert, want 1", n)
			}

			updated := makeRecord(3871336, "Santiago", 295.0)
			if err := s.Insert(ctx, &updated); err != nil {
				t.Fatalf("Insert update: %v", err)
			}
			recs := snapshot(t, s)
			if len(recs) != 1 {
				t.Fatalf("got %d records after replace, want 1", len(recs))
			}
			if recs[0].Temperature != 295.0 {
				t.Errorf("temperature = %v, want 295.0", recs[0].Temperature)
			}
		})
	}
}

func TestStore_QueryAllEmitsCurrentThenChanges(t *testing.T) {
	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			s := st.open(t)
			ctx := context.Background()

			sub := s.QueryAll(ctx)
			defer sub.Close()

			if got := next(t, sub); len(got) != 0 {
				t.Fatalf("initial emission has %d records, want 0", len(got))
			}

			rec := makeRecord(1, "Santiago", 289.5)
			if err := s.Insert(ctx, &rec); err != nil {
				t.Fatalf("Insert: %v", err)
			}

			got := next(t, sub)
			if len(got) != 1 || got[0].CityName != "Santiago" {
				t.Fatalf("after insert got %+v", got)
			}

			if err := s.ClearAll(ctx); err != nil {
				t.Fatalf("ClearAll: %v", err)
			}
			if got := next(t, sub); len(got) != 0 {
				t.Errorf("after ClearAll got %d records, want 0", len(got))
			}
		})
	}
}

func TestStore_QueryAllOrderedByID(t *testing.T) {
	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			s := st.open(t)
			ctx := context.Background()

			for _, id := range []int64{30, 10, 20} {
				rec := makeRecord(id, "City", 280)
				if err := s.Insert(ctx, &rec); err != nil {
					t.Fatalf("Insert: %v", err)
				}
			}

			recs := snapshot(t, s)
			for i, want := range []int64{10, 20, 30} {
				if recs[i].ID != want {
					t.Errorf("recs[%d].ID = %d, want %d", i, recs[i].ID, want)
				}
			}
		})
	}
}

func TestStore_QueryByID(t *testing.T) {
	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			s := st.open(t)
			ctx := context.Background()

			sub := s.QueryByID(ctx, 42)
			defer sub.Close()

			if got := next(t, sub); got != nil {
				t.Fatalf("expected nil before insert, got %+v", got)
			}

			rec := makeRecord(42, "Santiago", 289.5)
			if err := s.Insert(ctx, &rec); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			got := next(t, sub)
			if got == nil || got.ID != 42 {
				t.Fatalf("expected record 42, got %+v", got)
			}

			if err := s.ClearAll(ctx); err != nil {
				t.Fatalf("ClearAll: %v", err)
			}
			if got := next(t, sub); got != nil {
				t.Errorf("expected nil after ClearAll, got %+v", got)
			}
		})
	}
}

func TestSQLiteStore_RoundTripFields(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := makeRecord(3871336, "Santiago", 289.5)
	rec.Sunrise = time.Date(2024, 6, 15, 11, 46, 0, 0, time.UTC)
	rec.Sunset = time.Date(2024, 6, 15, 21, 53, 0, 0, time.UTC)
	if err := s.Insert(ctx, &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := stream.First(ctx, s.QueryByID(ctx, rec.ID))
	if err != nil {
		t.Fatalf("QueryByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.CityName != rec.CityName || got.Temperature != rec.Temperature || got.Humidity != rec.Humidity {
		t.Errorf("got %+v, want %+v", got, rec)
	}
	if got.Condition != weather.ConditionClear || got.Description != "clear sky" {
		t.Errorf("condition = %q/%q", got.Condition, got.Description)
	}
	if !got.ObservedAt.Equal(rec.ObservedAt) || !got.Sunrise.Equal(rec.Sunrise) || !got.Sunset.Equal(rec.Sunset) {
		t.Errorf("times = %v %v %v", got.ObservedAt, got.Sunrise, got.Sunset)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	rec := makeRecord(7, "Santiago", 289.5)
	if err := s.Insert(ctx, &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close() //nolint:errcheck

	recs := snapshot(t, reopened)
	if len(recs) != 1 || recs[0].ID != 7 {
		t.Errorf("after reopen got %+v", recs)
	}
}

func TestSQLiteStore_QueryFailsAfterClose(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	_ = s.Close()

	sub := s.QueryAll(context.Background())
	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("expected closed subscription")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out")
	}
	if sub.Err() == nil {
		t.Error("expected storage error from closed database")
	}
}
