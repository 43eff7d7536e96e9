package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/google/uuid"
)

// Type represents the type of event.
type Type string

const (
	TypeSyncPhase          Type = "sync_phase"
	TypeSyncCompleted      Type = "sync_completed"
	TypeSyncFailed         Type = "sync_failed"
	TypeBuildStatusChanged Type = "build_status_changed"
	TypeBuildTriggered     Type = "build_triggered"
	TypeBuildRetried       Type = "build_retried"
	TypeBuildCancelled     Type = "build_cancelled"
	TypeCredentialSaved    Type = "credential_saved"
	TypeCredentialDeleted  Type = "credential_deleted"
)

// Event represents a system event.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	Provider   models.Provider `json:"provider,omitempty"`
	PipelineID string          `json:"pipeline_id,omitempty"`
	BuildID    string          `json:"build_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event stamped with a fresh id and the current time. The
// payload is marshalled when non-nil.
func NewEvent(t Type, p models.Provider, payload any) Event {
	e := Event{
		ID:        uuid.New(),
		Type:      t,
		Provider:  p,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		if buf, err := json.Marshal(payload); err == nil {
			e.Payload = buf
		}
	}
	return e
}

// Filter defines criteria for receiving events.
type Filter struct {
	Provider   models.Provider
	PipelineID string
	Types      []Type
}

// Bus defines the event bus interface.
type Bus interface {
	Publish(e Event)
	Subscribe(ctx context.Context, filter Filter) (<-chan Event, error)
}

type bus struct {
	subscribers map[chan Event]Filter
	mu          sync.RWMutex
}

// New creates a new event bus.
func New() Bus {
	return &bus{
		subscribers: make(map[chan Event]Filter),
	}
}

func (b *bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch, filter := range b.subscribers {
		if filter.Matches(e) {
			select {
			case ch <- e:
			default:
				// slow subscriber, drop
			}
		}
	}
}

func (b *bus) Subscribe(ctx context.Context, filter Filter) (<-chan Event, error) {
	ch := make(chan Event, 100)

	b.mu.Lock()
	b.subscribers[ch] = filter
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

// Matches reports whether e passes the filter.
func (f Filter) Matches(e Event) bool {
	if f.Provider != "" && f.Provider != e.Provider {
		return false
	}
	if f.PipelineID != "" && f.PipelineID != e.PipelineID {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Discard is a Bus that drops every event.
var Discard Bus = discard{}

type discard struct{}

func (discard) Publish(Event) {}

func (discard) Subscribe(ctx context.Context, _ Filter) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
