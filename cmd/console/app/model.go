package app

import (
	"encoding/json"
	"fmt"

	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/syncer"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

type status int

type section int

const (
	statusLoading status = iota
	statusReady
	statusError
)

const (
	sectionPipelines section = iota
	sectionBuilds
	sectionAccounts
)

var sections = []section{sectionPipelines, sectionBuilds, sectionAccounts}

func (s section) next() section {
	return section((int(s) + 1) % len(sections))
}

func (s section) prev() section {
	return section((int(s) + len(sections) - 1) % len(sections))
}

// Model represents the Bubble Tea program state.
type Model struct {
	client  Client
	spinner spinner.Model
	state   status
	err     error
	active  section

	pipelines table.Model
	builds    table.Model
	accounts  table.Model

	pipelineData models.Pipelines
	buildData    models.Builds
	accountData  []account.Status
	pipelineID   string
	buildsErr    error

	events  <-chan event.Event
	live    bool
	syncing bool

	actionStatus string
	actionErr    bool

	viewportWidth int
}

// New creates the root model with dependency references.
func New(c Client) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		client:    c,
		spinner:   sp,
		state:     statusLoading,
		active:    sectionPipelines,
		pipelines: createTable(pipelineColumnTitles, distributeWidths(0, pipelineColumnWeights), true),
		builds:    createTable(buildColumnTitles, distributeWidths(0, buildColumnWeights), false),
		accounts:  createTable(accountColumnTitles, distributeWidths(0, accountColumnWeights), false),
	}
}

// Init bootstraps async fetch, the event stream and the spinner tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchData(m.client), subscribe(m.client), scheduleRefresh())
}

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	case tea.WindowSizeMsg:
		height := max(5, msg.Height-7)
		width := max(20, msg.Width-4)
		m.viewportWidth = msg.Width
		for _, tbl := range []*table.Model{&m.pipelines, &m.builds, &m.accounts} {
			tbl.SetHeight(height)
			tbl.SetWidth(width)
		}
		m.resizeColumns(max(10, width-2))
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshRows()
		return m, cmd
	case dataLoadedMsg:
		m.state = statusReady
		m.err = nil
		m.pipelineData = msg.pipelines
		m.accountData = msg.accounts
		m.pipelines.SetRows(pipelinesToRows(m.pipelineData, m.spinner.View()))
		m.accounts.SetRows(accountsToRows(m.accountData))
		if m.pipelineID == "" && len(m.pipelineData) > 0 {
			m.pipelineID = m.pipelineData[0].ID
			return m, fetchBuilds(m.client, m.pipelineID)
		}
		return m, nil
	case buildsLoadedMsg:
		if msg.pipelineID != m.pipelineID {
			return m, nil
		}
		m.buildsErr = nil
		m.buildData = msg.builds
		m.builds.SetRows(buildsToRows(m.buildData, m.spinner.View()))
		return m, nil
	case buildsErrMsg:
		if msg.pipelineID == m.pipelineID {
			m.buildsErr = msg.err
		}
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.setActionStatus(fmt.Sprintf("%s %s failed: %v", msg.action, msg.target, msg.err), true)
			return m, nil
		}
		m.setActionStatus(actionSummary(msg), false)
		return m, m.reload()
	case syncDoneMsg:
		m.syncing = false
		switch {
		case msg.err != nil:
			m.setActionStatus("sync failed: "+msg.err.Error(), true)
		case msg.result != nil:
			m.setActionStatus(msg.result.Summary(), !msg.result.OK())
		}
		return m, m.reload()
	case streamOpenedMsg:
		m.events = msg.events
		m.live = true
		return m, waitForEvent(m.events)
	case streamErrMsg, streamClosedMsg:
		m.events = nil
		m.live = false
		return m, nil
	case eventMsg:
		cmd := m.handleEvent(msg.event)
		return m, tea.Batch(cmd, waitForEvent(m.events))
	case refreshMsg:
		return m, tea.Batch(m.reload(), scheduleRefresh())
	case errMsg:
		m.state = statusError
		m.err = msg.err
		return m, nil
	}

	if m.state != statusReady {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.active {
	case sectionPipelines:
		m.pipelines, cmd = m.pipelines.Update(msg)
	case sectionBuilds:
		m.builds, cmd = m.builds.Update(msg)
	case sectionAccounts:
		m.accounts, cmd = m.accounts.Update(msg)
	}

	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "r":
		m.state = statusLoading
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.reload()), true
	case "s":
		if m.syncing {
			return m, nil, true
		}
		m.syncing = true
		m.setActionStatus("syncing…", false)
		return m, syncNow(m.client), true
	case "1":
		return m.activate(sectionPipelines), nil, true
	case "2":
		return m.activate(sectionBuilds), nil, true
	case "3":
		return m.activate(sectionAccounts), nil, true
	case "tab":
		return m.activate(m.active.next()), nil, true
	case "shift+tab":
		return m.activate(m.active.prev()), nil, true
	case "esc":
		if m.active == sectionBuilds {
			return m.activate(sectionPipelines), nil, true
		}
	}

	if m.state != statusReady {
		return m, nil, false
	}

	switch m.active {
	case sectionPipelines:
		p := m.selectedPipeline()
		if p == nil {
			return m, nil, false
		}
		switch msg.String() {
		case "enter":
			m = m.focusPipeline(p.ID)
			return m.activate(sectionBuilds), fetchBuilds(m.client, p.ID), true
		case "t":
			m.setActionStatus("triggering "+p.Name+"…", false)
			return m, triggerPipeline(m.client, p.ID), true
		}
	case sectionBuilds:
		b := m.selectedBuild()
		if b == nil {
			return m, nil, false
		}
		switch msg.String() {
		case "R":
			if !b.CanRestart {
				m.setActionStatus("build #"+b.BuildNumber+" cannot be retried", true)
				return m, nil, true
			}
			return m, retryBuild(m.client, b.ID), true
		case "c":
			if !b.CanCancel {
				m.setActionStatus("build #"+b.BuildNumber+" cannot be cancelled", true)
				return m, nil, true
			}
			return m, cancelBuild(m.client, b.ID), true
		}
	}

	return m, nil, false
}

// handleEvent reloads whatever the event touched.
func (m *Model) handleEvent(evt event.Event) tea.Cmd {
	switch evt.Type {
	case event.TypeSyncPhase:
		var change syncer.PhaseChange
		if json.Unmarshal(evt.Payload, &change) == nil && change.Phase != "" {
			m.setActionStatus(fmt.Sprintf("%s: %s", evt.Provider.Prefix(), change.Phase), false)
		}
		return nil
	case event.TypeSyncFailed:
		m.setActionStatus(fmt.Sprintf("%s sync failed", evt.Provider.Prefix()), true)
		return nil
	case event.TypeSyncCompleted, event.TypeCredentialSaved, event.TypeCredentialDeleted:
		return m.reload()
	case event.TypeBuildStatusChanged, event.TypeBuildTriggered, event.TypeBuildRetried, event.TypeBuildCancelled:
		cmds := []tea.Cmd{fetchData(m.client)}
		if evt.PipelineID != "" && evt.PipelineID == m.pipelineID {
			cmds = append(cmds, fetchBuilds(m.client, m.pipelineID))
		}
		return tea.Batch(cmds...)
	}
	return nil
}

func (m Model) reload() tea.Cmd {
	cmds := []tea.Cmd{fetchData(m.client)}
	if m.pipelineID != "" {
		cmds = append(cmds, fetchBuilds(m.client, m.pipelineID))
	}
	return tea.Batch(cmds...)
}

func (m Model) focusPipeline(id string) Model {
	if id != m.pipelineID {
		m.buildData = nil
		m.buildsErr = nil
		m.builds.SetRows(nil)
		m.builds.SetCursor(0)
	}
	m.pipelineID = id
	return m
}

func (m Model) selectedPipeline() *models.Pipeline {
	idx := m.pipelines.Cursor()
	if idx < 0 || idx >= len(m.pipelineData) {
		return nil
	}
	return m.pipelineData[idx]
}

func (m Model) selectedBuild() *models.Build {
	idx := m.builds.Cursor()
	if idx < 0 || idx >= len(m.buildData) {
		return nil
	}
	return m.buildData[idx]
}

func (m Model) pipelineName(id string) string {
	for _, p := range m.pipelineData {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func (m Model) activate(sec section) Model {
	m.pipelines.Blur()
	m.builds.Blur()
	m.accounts.Blur()
	switch sec {
	case sectionPipelines:
		m.pipelines.Focus()
	case sectionBuilds:
		m.builds.Focus()
	case sectionAccounts:
		m.accounts.Focus()
	}
	m.active = sec
	return m
}

func (m *Model) refreshRows() {
	frame := m.spinner.View()
	m.pipelines.SetRows(pipelinesToRows(m.pipelineData, frame))
	m.builds.SetRows(buildsToRows(m.buildData, frame))
}

func (m *Model) resizeColumns(width int) {
	if width <= 0 {
		return
	}
	m.pipelines.SetColumns(buildColumns(pipelineColumnTitles, distributeWidths(width, pipelineColumnWeights)))
	m.builds.SetColumns(buildColumns(buildColumnTitles, distributeWidths(width, buildColumnWeights)))
	m.accounts.SetColumns(buildColumns(accountColumnTitles, distributeWidths(width, accountColumnWeights)))
}

func (m *Model) setActionStatus(text string, isErr bool) {
	m.actionStatus = text
	m.actionErr = isErr
}

func actionSummary(msg actionDoneMsg) string {
	switch {
	case msg.action == "cancel":
		return "cancel requested for " + msg.target
	case msg.build != nil && msg.build.BuildNumber != "":
		return fmt.Sprintf("%s accepted: build #%s", msg.action, msg.build.BuildNumber)
	default:
		return msg.action + " accepted"
	}
}
