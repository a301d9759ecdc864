package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-sync/internal/store"
	"github.com/i474232898/weather-sync/internal/stream"
	"github.com/i474232898/weather-sync/internal/weather"
)

type countingClient struct {
	calls atomic.Int32
}

func (c *countingClient) Fetch(context.Context, weather.Coordinates) (weather.Payload, error) {
	c.calls.Add(1)
	return weather.Payload{CityID: 3871336, CityName: "Santiago", TempK: 289.5}, nil
}

func TestScheduler_RunsInitialSyncOnce(t *testing.T) {
	client := &countingClient{}
	mem := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := weather.NewRepository(client, mem, weather.Coordinates{}, logger)

	sub := repo.ObserveAll(context.Background())
	defer sub.Close()

	s := New(repo, logger)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	deadline := time.After(5 * time.Second)
	for synced := false; !synced; {
		select {
		case recs := <-sub.C():
			synced = len(recs) == 1
		case <-deadline:
			t.Fatal("initial sync never stored a record")
		}
	}

	time.Sleep(100 * time.Millisecond)
	if n := client.calls.Load(); n != 1 {
		t.Errorf("client called %d times, want 1", n)
	}
}

// gatedClient blocks every Fetch until release is closed.
type gatedClient struct {
	called  chan struct{}
	release chan struct{}
}

func (c *gatedClient) Fetch(context.Context, weather.Coordinates) (weather.Payload, error) {
	close(c.called)
	<-c.release
	return weather.Payload{CityID: 3871336, CityName: "Santiago", TempK: 289.5}, nil
}

func TestScheduler_StopWaitsForInFlightSync(t *testing.T) {
	client := &gatedClient{called: make(chan struct{}), release: make(chan struct{})}
	mem := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := weather.NewRepository(client, mem, weather.Coordinates{}, logger)

	s := New(repo, logger)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-client.called:
	case <-time.After(5 * time.Second):
		t.Fatal("initial sync never started")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the startup sync was still fetching")
	case <-time.After(100 * time.Millisecond):
	}

	close(client.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the sync finished")
	}

	recs, err := stream.First(context.Background(), mem.QueryAll(context.Background()))
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("got %d records after Stop, want the synced record", len(recs))
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop blocked although no job ever ran")
	}
}
