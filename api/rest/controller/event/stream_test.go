package event

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replayBus struct {
	filter event.Filter
	events []event.Event
}

func (b *replayBus) Publish(event.Event) {}

func (b *replayBus) Subscribe(_ context.Context, filter event.Filter) (<-chan event.Event, error) {
	b.filter = filter
	ch := make(chan event.Event, len(b.events))
	for _, e := range b.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func TestStreamWritesEvents(t *testing.T) {
	triggered := event.NewEvent(event.TypeBuildTriggered, models.ProviderGitLab, map[string]string{"id": "gitlab_9"})
	triggered.PipelineID = "gitlab_5"
	bus := &replayBus{events: []event.Event{triggered}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events?provider=gitlab&pipeline_id=gitlab_5&types=build_triggered,%20sync_failed", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, New(bus).Stream(e.NewContext(req, rec)))

	assert.Equal(t, models.ProviderGitLab, bus.filter.Provider)
	assert.Equal(t, "gitlab_5", bus.filter.PipelineID)
	assert.Equal(t, []event.Type{event.TypeBuildTriggered, event.TypeSyncFailed}, bus.filter.Types)

	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, ": ping\n\n"))
	assert.Contains(t, body, "event: build_triggered\n")
	assert.Contains(t, body, "id: "+triggered.ID.String()+"\n")
	assert.Contains(t, body, `"pipeline_id":"gitlab_5"`)
}

func TestStreamRejectsUnknownProvider(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events?provider=travis", nil)
	rec := httptest.NewRecorder()

	err := New(&replayBus{}).Stream(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
