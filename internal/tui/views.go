package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/krishhsuri/Orbit/internal/cli"
)

// wideLayout is the width from which list and detail sit side by side.
const wideLayout = 110

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#333")).Padding(0, 1)
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading staged emails...")
	}

	var body string
	switch m.state {
	case StateDone:
		body = m.renderDone()
	case StateReason:
		body = m.renderReasons()
	default:
		body = m.renderList()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		cli.FormatTitle(fmt.Sprintf("Review (%d pending)", len(m.records))),
		body,
		m.renderStatus(),
		m.help.View(m.keymap),
	)
}

func (m Model) renderList() string {
	listWidth := m.width - 4
	if m.width >= wideLayout {
		listWidth = m.width/2 - 4
	}

	// Keep the cursor visible in short terminals.
	rows := max(m.height-16, 3)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.records))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r := m.records[i]
		company := r.Company
		if company == "" {
			company = "?"
		}
		line := fmt.Sprintf("%-18s %s", clip(company, 18), r.Subject)
		line = clip(line, listWidth-2)
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render("> "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	list := paneStyle.Width(listWidth).Render(strings.Join(lines, "\n"))
	detail := paneStyle.Width(listWidth).Render(cli.FormatStagingRecord(m.records[m.cursor]))

	if m.width >= wideLayout {
		return lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
	}
	return lipgloss.JoinVertical(lipgloss.Left, list, detail)
}

func (m Model) renderReasons() string {
	lines := []string{cli.BoldStyle.Render("Why reject \"" + clip(m.records[m.cursor].Subject, 50) + "\"?"), ""}
	for i, r := range rejectReasons {
		label := fmt.Sprintf("%d. %s", i+1, strings.ReplaceAll(string(r), "_", " "))
		if i == m.reasonCursor {
			lines = append(lines, selectedStyle.Render("> "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderDone() string {
	summary := fmt.Sprintf("Confirmed %d, rejected %d, skipped %d.", m.stats.Confirmed, m.stats.Rejected, m.stats.Skipped)
	return cli.RenderBox("Inbox zero", cli.FormatSuccess("Nothing left to review.")+"\n"+summary)
}

func (m Model) renderStatus() string {
	switch {
	case m.lastError != nil:
		return cli.FormatError(m.lastError.Error())
	case m.busy:
		return m.spinner.View() + " Saving..."
	case m.status != "":
		return cli.SubtleStyle.Render(m.status)
	}
	return ""
}

func clip(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
