package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/cmd/render"
	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	pipelineColumnTitles  = []string{"Pipeline", "Provider", "Branch", "Status", "Last Run", "Duration", "Commit"}
	pipelineColumnWeights = []int{4, 2, 2, 2, 2, 2, 4}
	buildColumnTitles     = []string{"Build", "Status", "Branch", "Started", "Duration", "Commit"}
	buildColumnWeights    = []int{2, 2, 2, 2, 2, 5}
	accountColumnTitles   = []string{"Provider", "State", "User", "Server", "Expires"}
	accountColumnWeights  = []int{3, 2, 3, 4, 2}
)

func pipelinesToRows(pipelines models.Pipelines, spinnerFrame string) []table.Row {
	rows := make([]table.Row, len(pipelines))
	for i, p := range pipelines {
		var status models.BuildStatus
		if p.LastRunStatus != nil {
			status = *p.LastRunStatus
		}
		rows[i] = table.Row{
			p.Name,
			p.Provider.Prefix(),
			orDash(p.Branch),
			formatStatus(status, spinnerFrame),
			render.Since(p.LastRunTimestamp),
			render.Duration(p.LastRunDuration),
			orDash(firstLine(p.LastCommitMessage)),
		}
	}
	return rows
}

func buildsToRows(builds models.Builds, spinnerFrame string) []table.Row {
	rows := make([]table.Row, len(builds))
	for i, b := range builds {
		rows[i] = table.Row{
			"#" + b.BuildNumber,
			formatStatus(b.Status, spinnerFrame),
			orDash(b.Branch),
			render.Since(b.StartedAt),
			formatBuildDuration(b),
			orDash(firstLine(b.CommitMessage)),
		}
	}
	return rows
}

func accountsToRows(statuses []account.Status) []table.Row {
	rows := make([]table.Row, len(statuses))
	for i, st := range statuses {
		state, user, server, expires := "signed out", "-", "-", "-"
		if st.Authenticated {
			state = "signed in"
		}
		if st.User != nil {
			user = st.User.Username
		}
		if st.Token != nil {
			server = orDash(st.Token.ServerURL)
			if st.Token.ExpiresAt != nil {
				expires = st.Token.ExpiresAt.Format(time.DateOnly)
			}
		}
		rows[i] = table.Row{string(st.Provider), state, user, server, expires}
	}
	return rows
}

func formatStatus(status models.BuildStatus, spinnerFrame string) string {
	switch status {
	case "":
		return "-"
	case models.BuildStatusRunning, models.BuildStatusPending:
		label := titleCase(string(status))
		if spinnerFrame != "" {
			return fmt.Sprintf("%s %s", spinnerFrame, label)
		}
		return label
	case models.BuildStatusSuccess:
		return "✅ Success"
	case models.BuildStatusFailure:
		return "❌ Failure"
	case models.BuildStatusCancelled:
		return "⏹ Cancelled"
	default:
		return titleCase(string(status))
	}
}

func formatBuildDuration(b *models.Build) string {
	if b.Duration != nil {
		return render.Duration(b.Duration)
	}
	if b.Status == models.BuildStatusRunning && b.StartedAt != nil {
		ms := time.Since(*b.StartedAt).Milliseconds()
		return render.Duration(&ms)
	}
	return "-"
}

func titleCase(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func createTable(titles []string, widths []int, focused bool) table.Model {
	tbl := table.New(
		table.WithColumns(buildColumns(titles, widths)),
		table.WithHeight(10),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true)

	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("63")).
		Bold(false)

	tbl.SetStyles(styles)
	if focused {
		tbl.Focus()
	}
	return tbl
}

func buildColumns(titles []string, widths []int) []table.Column {
	columns := make([]table.Column, len(titles))
	for i, title := range titles {
		width := 12
		if i < len(widths) && widths[i] > 0 {
			width = widths[i]
		}
		columns[i] = table.Column{Title: title, Width: width}
	}
	return columns
}

func distributeWidths(total int, weights []int) []int {
	if len(weights) == 0 {
		return nil
	}

	if total <= 0 {
		total = len(weights) * 12
	}

	// one character of gap between columns
	contentTotal := total - (len(weights) - 1)
	if contentTotal < len(weights)*minColumnWidth {
		contentTotal = len(weights) * minColumnWidth
	}

	sum := 0
	for _, w := range weights {
		sum += w
	}

	widths := make([]int, len(weights))
	remaining := contentTotal

	for i, weight := range weights {
		if i == len(weights)-1 {
			widths[i] = max(remaining, minColumnWidth)
			break
		}

		portion := max(weight*contentTotal/sum, minColumnWidth)
		minRemaining := minColumnWidth * (len(weights) - i - 1)
		if remaining-portion < minRemaining {
			portion = max(remaining-minRemaining, minColumnWidth)
		}

		widths[i] = portion
		remaining -= portion
	}

	return widths
}

const minColumnWidth = 8
