// Package render formats cimon records for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/syncer"
	"github.com/charmbracelet/lipgloss"
)

const gap = "  "

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	statusStyles = map[models.BuildStatus]lipgloss.Style{
		models.BuildStatusSuccess:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.BuildStatusFailure:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		models.BuildStatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.BuildStatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		models.BuildStatusCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		models.BuildStatusSkipped:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

// Status renders a build status in its color.
func Status(s models.BuildStatus) string {
	if s == "" {
		return mutedStyle.Render("-")
	}
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return mutedStyle.Render(string(s))
}

// Table writes rows under headers with columns padded to the widest cell.
// Cells may already be styled.
func Table(w io.Writer, headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string) string {
		out := make([]string, len(cells))
		for i, cell := range cells {
			if i == len(cells)-1 {
				out[i] = cell
				continue
			}
			out[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		return strings.TrimRight(strings.Join(out, gap), " ")
	}

	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
	}
	if _, err := fmt.Fprintln(w, line(styled)); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, line(row)); err != nil {
			return err
		}
	}
	return nil
}

// Pipelines writes a pipeline table.
func Pipelines(w io.Writer, pipelines models.Pipelines) error {
	if len(pipelines) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No pipelines cached. Add a target and run `cimon sync`."))
		return err
	}

	rows := make([][]string, 0, len(pipelines))
	for _, p := range pipelines {
		var last models.BuildStatus
		if p.LastRunStatus != nil {
			last = *p.LastRunStatus
		}
		rows = append(rows, []string{
			p.ID,
			p.Name,
			p.Branch,
			Status(last),
			Since(p.LastRunTimestamp),
		})
	}
	return Table(w, []string{"ID", "NAME", "BRANCH", "LAST RUN", "WHEN"}, rows)
}

// Builds writes a build table.
func Builds(w io.Writer, builds models.Builds) error {
	if len(builds) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No builds."))
		return err
	}

	rows := make([][]string, 0, len(builds))
	for _, b := range builds {
		rows = append(rows, []string{
			b.ID,
			b.BuildNumber,
			Status(b.Status),
			b.Branch,
			Duration(b.Duration),
			firstLine(b.CommitMessage),
		})
	}
	return Table(w, []string{"ID", "#", "STATUS", "BRANCH", "DURATION", "COMMIT"}, rows)
}

// Build writes a one-line summary of a build.
func Build(w io.Writer, b *models.Build) error {
	if b.ID == "" {
		_, err := fmt.Fprintf(w, "%s run accepted on %s; it will appear after the next sync\n", Status(b.Status), b.Branch)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s %s\n", Status(b.Status), b.ID, mutedStyle.Render(b.WebURL))
	return err
}

// Accounts writes the sign-in state of every provider.
func Accounts(w io.Writer, statuses []account.Status) error {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		state, user := mutedStyle.Render("signed out"), ""
		if st.Authenticated {
			state = statusStyles[models.BuildStatusSuccess].Render("signed in")
		}
		if st.User != nil {
			user = st.User.Username
		}
		rows = append(rows, []string{string(st.Provider), state, user})
	}
	return Table(w, []string{"PROVIDER", "STATE", "USER"}, rows)
}

// SyncResult writes one line per provider followed by the summary.
func SyncResult(w io.Writer, result *syncer.Result) error {
	for _, pr := range result.Providers {
		var line string
		if pr.Error != "" {
			line = fmt.Sprintf("%s %s", errorStyle.Render("✗ "+string(pr.Provider)), pr.Error)
		} else {
			line = fmt.Sprintf("✓ %s %d pipelines, %d builds, %d changed",
				pr.Provider, pr.Pipelines, pr.Builds, pr.Changed)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Duration formats a millisecond duration.
func Duration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).Round(time.Second).String()
}

// Since formats how long ago t was.
func Since(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	d := time.Since(*t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	if len(line) > 60 {
		return line[:57] + "..."
	}
	return line
}
