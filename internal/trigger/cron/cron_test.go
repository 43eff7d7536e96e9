package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/syncer"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (s *countingSyncer) SyncOne(_ context.Context, p models.Provider) syncer.ProviderResult {
	return syncer.ProviderResult{Provider: p, Err: s.err}
}

func (s *countingSyncer) SyncAll(ctx context.Context) syncer.Result {
	s.calls.Add(1)
	return syncer.Result{Providers: []syncer.ProviderResult{s.SyncOne(ctx, models.ProviderGitHub)}}
}

func TestExpression(t *testing.T) {
	cases := map[int]string{
		0:   "*/1 * * * *",
		5:   "*/5 * * * *",
		15:  "*/15 * * * *",
		60:  "0 * * * *",
		500: "0 * * * *",
	}
	for minutes, want := range cases {
		if got := Expression(minutes); got != want {
			t.Errorf("Expression(%d) = %q, want %q", minutes, got, want)
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{}, &countingSyncer{}); err == nil {
		t.Fatal("expected error when expression is missing")
	}
	if _, err := New(Config{Expression: "every five minutes"}, &countingSyncer{}); err == nil {
		t.Fatal("expected error for malformed expression")
	}
	if _, err := New(Config{Expression: "*/5 * * * *", Timezone: "Mars/Olympus"}, &countingSyncer{}); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestExtractLocationParsesTimezone(t *testing.T) {
	loc, err := extractLocation("UTC")
	if err != nil {
		t.Fatalf("extractLocation returned error: %v", err)
	}

	if loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}

func TestExtractLocationIgnoresEmpty(t *testing.T) {
	loc, err := extractLocation(" ")
	if err != nil {
		t.Fatalf("extractLocation returned error: %v", err)
	}

	if loc != nil {
		t.Fatalf("expected nil location, got %v", loc)
	}
}

func TestNextTick(t *testing.T) {
	c, err := New(Config{Expression: Expression(5), Timezone: "UTC"}, &countingSyncer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.now = func() time.Time { return time.Date(2026, 6, 1, 10, 7, 30, 0, time.UTC) }

	want := time.Date(2026, 6, 1, 10, 10, 0, 0, time.UTC)
	if got := c.nextTick(); !got.Equal(want) {
		t.Fatalf("nextTick = %v, want %v", got, want)
	}
}

func TestFireReportsSyncFailures(t *testing.T) {
	s := &countingSyncer{err: &provider.TransportError{Provider: models.ProviderGitHub, Err: errors.New("reset")}}
	c, err := New(Config{Expression: "*/5 * * * *"}, s)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Fire(context.Background()); err == nil {
		t.Fatal("expected the sync failure to surface")
	}
	if s.calls.Load() != 1 {
		t.Fatalf("SyncAll called %d times, want 1", s.calls.Load())
	}
	if c.ID() != "*/5 * * * *" {
		t.Fatalf("ID = %q", c.ID())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := &countingSyncer{}
	c, err := New(Config{Expression: "* * * * *"}, s)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
