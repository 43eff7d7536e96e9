package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/metrics"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/pkg/log"
)

// Source supplies the preferences and pipeline names notifications need.
type Source interface {
	Preferences(ctx context.Context) (*models.Preferences, error)
	GetPipeline(ctx context.Context, id string) (*models.Pipeline, error)
}

// change mirrors the build_status_changed payload.
type change struct {
	Build    *models.Build      `json:"build"`
	Previous models.BuildStatus `json:"previous"`
}

type Subscriber struct {
	bus           event.Bus
	transport     Transport
	transportName string
	source        Source
	now           func() time.Time
}

func NewSubscriber(bus event.Bus, transport Transport, source Source) *Subscriber {
	return &Subscriber{
		bus:       bus,
		transport: transport,
		source:    source,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Subscriber) SetTransportName(name string) {
	s.transportName = name
}

// Start delivers notifications until ctx is done, then closes the transport.
func (s *Subscriber) Start(ctx context.Context) error {
	ch, err := s.bus.Subscribe(ctx, event.Filter{Types: []event.Type{event.TypeBuildStatusChanged}})
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return s.transport.Close()
		case evt, ok := <-ch:
			if !ok {
				return s.transport.Close()
			}
			s.handleEvent(ctx, evt)
		}
	}
}

func (s *Subscriber) handleEvent(ctx context.Context, evt event.Event) {
	var c change
	if err := json.Unmarshal(evt.Payload, &c); err != nil || c.Build == nil {
		log.Error("notify: failed to decode event", "event_type", string(evt.Type), "error", err)
		return
	}

	prefs, err := s.source.Preferences(ctx)
	if err != nil {
		log.Error("notify: failed to load preferences", "error", err)
		return
	}

	kind, ok := Decide(prefs, c.Build.Status)
	if !ok {
		return
	}

	name := ""
	if p, err := s.source.GetPipeline(ctx, c.Build.PipelineID); err == nil {
		name = p.Name
	}

	n := newNotification(kind, name, c.Build, c.Previous, evt.Provider, s.now())

	transportLabel := s.transportName
	if transportLabel == "" {
		transportLabel = "unknown"
	}

	if err := s.transport.Emit(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(transportLabel, "error").Inc()
		log.Error("notify: failed to emit notification",
			"kind", string(kind),
			"build_id", n.BuildID,
			"error", err,
		)
		return
	}
	metrics.NotificationsTotal.WithLabelValues(transportLabel, "ok").Inc()
}
