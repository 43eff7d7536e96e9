package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/caesium-cloud/cimon/internal/event"
)

func TestEventsParsesStream(t *testing.T) {
	var gotQuery string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(": ping\n\n" +
			"id: 1\nevent: build_status_changed\ndata: {\"type\":\"build_status_changed\",\"pipeline_id\":\"github_1\",\"build_id\":\"github_9\"}\n\n" +
			"event: sync_completed\ndata: {\"provider\":\"GITHUB_ACTIONS\"}\n\n" +
			"data: not json\n\n"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := client.Events(ctx, EventFilter{Provider: "github", Types: []event.Type{event.TypeBuildStatusChanged, event.TypeSyncCompleted}})
	if err != nil {
		t.Fatalf("events: %v", err)
	}

	var got []event.Event
	for evt := range ch {
		got = append(got, evt)
	}

	if gotQuery != "provider=github&types=build_status_changed%2Csync_completed" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].BuildID != "github_9" || got[0].Type != event.TypeBuildStatusChanged {
		t.Fatalf("unexpected first event %+v", got[0])
	}
	if got[1].Type != event.TypeSyncCompleted {
		t.Fatalf("expected type from event line, got %q", got[1].Type)
	}
}

func TestEventsRejectsErrorStatus(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})

	if _, err := client.Events(context.Background(), EventFilter{}); err == nil {
		t.Fatal("expected error")
	}
}
