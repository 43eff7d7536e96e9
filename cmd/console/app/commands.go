package app

import (
	"context"
	"time"

	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/syncer"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	buildLimit      = 25
	refreshInterval = 30 * time.Second
	requestTimeout  = 30 * time.Second
)

// Client is the subset of the REST client the console drives.
type Client interface {
	Pipelines(ctx context.Context, provider string, limit int) (models.Pipelines, error)
	Builds(ctx context.Context, pipelineID string, limit int) (models.Builds, error)
	AuthStatus(ctx context.Context) ([]account.Status, error)
	Trigger(ctx context.Context, pipelineID, branch string, inputs map[string]string) (*models.Build, error)
	Retry(ctx context.Context, buildID string) (*models.Build, error)
	Cancel(ctx context.Context, buildID string) error
	Sync(ctx context.Context, provider string) (*syncer.Result, error)
	Events(ctx context.Context, filter client.EventFilter) (<-chan event.Event, error)
}

func fetchData(c Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		pipelines, err := c.Pipelines(ctx, "", 0)
		if err != nil {
			return errMsg{err}
		}

		accounts, err := c.AuthStatus(ctx)
		if err != nil {
			return errMsg{err}
		}

		return dataLoadedMsg{pipelines: pipelines, accounts: accounts}
	}
}

func fetchBuilds(c Client, pipelineID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		builds, err := c.Builds(ctx, pipelineID, buildLimit)
		if err != nil {
			return buildsErrMsg{pipelineID: pipelineID, err: err}
		}
		return buildsLoadedMsg{pipelineID: pipelineID, builds: builds}
	}
}

func triggerPipeline(c Client, pipelineID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		build, err := c.Trigger(ctx, pipelineID, "", nil)
		return actionDoneMsg{action: "trigger", target: pipelineID, build: build, err: err}
	}
}

func retryBuild(c Client, buildID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		build, err := c.Retry(ctx, buildID)
		return actionDoneMsg{action: "retry", target: buildID, build: build, err: err}
	}
}

func cancelBuild(c Client, buildID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return actionDoneMsg{action: "cancel", target: buildID, err: c.Cancel(ctx, buildID)}
	}
}

func syncNow(c Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		result, err := c.Sync(ctx, "")
		return syncDoneMsg{result: result, err: err}
	}
}

// subscribe opens the event stream. A failure is reported but the console
// keeps working on the periodic refresh.
func subscribe(c Client) tea.Cmd {
	return func() tea.Msg {
		ch, err := c.Events(context.Background(), client.EventFilter{})
		if err != nil {
			return streamErrMsg{err}
		}
		return streamOpenedMsg{events: ch}
	}
}

func waitForEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{evt}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

type dataLoadedMsg struct {
	pipelines models.Pipelines
	accounts  []account.Status
}

type buildsLoadedMsg struct {
	pipelineID string
	builds     models.Builds
}

type buildsErrMsg struct {
	pipelineID string
	err        error
}

type actionDoneMsg struct {
	action string
	target string
	build  *models.Build
	err    error
}

type syncDoneMsg struct {
	result *syncer.Result
	err    error
}

type streamOpenedMsg struct {
	events <-chan event.Event
}

type streamErrMsg struct{ err error }

type streamClosedMsg struct{}

type eventMsg struct{ event event.Event }

type refreshMsg struct{}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }
