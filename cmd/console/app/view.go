package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)
	liveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Padding(0, 1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	activeBox   = boxStyle.BorderForeground(lipgloss.Color("63"))
	placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tabActive   = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("57")).Bold(true)
	tabInactive = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("240"))
	logoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true).PaddingRight(1)

	sectionNames = map[section]string{
		sectionPipelines: "Pipelines",
		sectionBuilds:    "Builds",
		sectionAccounts:  "Accounts",
	}
)

// View renders the interface.
func (m Model) View() string {
	tabs := renderTabsBar(m.active, m.live, m.viewportWidth)

	var body string
	switch m.state {
	case statusLoading:
		body = centerText(fmt.Sprintf("%s Loading pipelines…", m.spinner.View()))
	case statusError:
		body = boxStyle.Render("Failed to load data: " + m.err.Error())
	case statusReady:
		body = m.renderSection()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabs, body, m.renderFooter())
}

func (m Model) renderSection() string {
	switch m.active {
	case sectionBuilds:
		title := placeholder.Render("Builds of " + m.pipelineName(m.pipelineID))
		switch {
		case m.pipelineID == "":
			return boxStyle.Render(placeholder.Render("Select a pipeline with [enter]"))
		case m.buildsErr != nil:
			return boxStyle.Render("Failed to load builds: " + m.buildsErr.Error())
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, renderPane(m.builds, true))
	case sectionAccounts:
		return renderPane(m.accounts, true)
	default:
		if len(m.pipelineData) == 0 {
			return boxStyle.Render(placeholder.Render("No pipelines cached yet. Sign in and press [s] to sync."))
		}
		return renderPane(m.pipelines, true)
	}
}

func (m Model) renderFooter() string {
	keys := "[1/2/3] switch  [tab] cycle  [r] reload  [s] sync  [q] quit"
	switch m.active {
	case sectionPipelines:
		keys += "  [enter] builds  [t] trigger"
	case sectionBuilds:
		keys += "  [esc] back  [R] retry  [c] cancel"
	}

	footer := barStyle.Render(keys)
	if status := strings.TrimSpace(m.actionStatus); status != "" {
		style := barStyle
		if m.actionErr {
			style = errStyle
		}
		footer = lipgloss.JoinHorizontal(lipgloss.Top, footer, style.Render(status))
	}
	return footer
}

func renderPane(tbl table.Model, active bool) string {
	style := boxStyle
	if active {
		style = activeBox
	}
	return style.Render(tbl.View())
}

func centerText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return lipgloss.NewStyle().Align(lipgloss.Center).Render(value)
}

func renderTabs(active section) string {
	tabs := make([]string, len(sections))
	for i, sec := range sections {
		label := fmt.Sprintf("%d %s", i+1, sectionNames[sec])
		if sec == active {
			tabs[i] = tabActive.Render(label)
		} else {
			tabs[i] = tabInactive.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderTabsBar(active section, live bool, totalWidth int) string {
	tabs := renderTabs(active)
	indicator := barStyle.Render("○ polling")
	if live {
		indicator = liveStyle.Render("● live")
	}
	logo := logoStyle.Render("cimon")
	right := lipgloss.JoinHorizontal(lipgloss.Top, indicator, logo)
	if totalWidth <= 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, tabs, right)
	}

	leftWidth := max(0, totalWidth-lipgloss.Width(right))
	left := lipgloss.NewStyle().Width(leftWidth).MaxWidth(leftWidth).Render(tabs)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
