package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

const dateLayout = "2006-01-02"

// FormatSyncReport renders the summary of one intake sweep.
func FormatSyncReport(r service.SyncReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fetched:    %d\n", r.Fetched)
	fmt.Fprintf(&b, "Staged:     %s\n", SuccessStyle.Render(fmt.Sprint(r.Staged)))
	fmt.Fprintf(&b, "Duplicates: %d\n", r.Duplicates)
	fmt.Fprintf(&b, "Filtered:   %d\n", r.Filtered)
	if r.Failed > 0 {
		fmt.Fprintf(&b, "Failed:     %s\n", ErrorStyle.Render(fmt.Sprint(r.Failed)))
	}
	if r.Marker != "" {
		fmt.Fprintf(&b, "Bookmark:   %s", SubtleStyle.Render(r.Marker))
	}
	out := RenderBox(InboxIcon+" Sync", strings.TrimRight(b.String(), "\n"))
	if r.Cancelled {
		out += "\n" + FormatWarning("Sync interrupted; progress up to the bookmark is saved.")
	}
	return out
}

// FormatCommitReport renders the summary of one deep-process run.
func FormatCommitReport(r service.CommitReport) string {
	if r.Processed == 0 {
		return FormatInfo("No pending records to process.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Processed: %d\n", r.Processed)
	fmt.Fprintf(&b, "Added:     %s\n", SuccessStyle.Render(fmt.Sprint(r.Added)))
	fmt.Fprintf(&b, "Updated:   %s\n", SuccessStyle.Render(fmt.Sprint(r.Updated)))
	fmt.Fprintf(&b, "Discarded: %d", r.Discarded)
	if r.Failed > 0 {
		fmt.Fprintf(&b, "\nLeft pending: %s", WarningStyle.Render(fmt.Sprint(r.Failed)))
	}
	return RenderBox("Process", b.String())
}

// FormatGhostEvents renders ghost transitions. preview selects the wording
// for a dry run.
func FormatGhostEvents(events []model.GhostEvent, thresholdDays int, preview bool) string {
	if len(events) == 0 {
		return FormatSuccess(fmt.Sprintf("No applications silent for %d days or more.", thresholdDays))
	}
	verb := "Ghosted"
	if preview {
		verb = "Would ghost"
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{e.CompanyName, e.RoleTitle, string(e.PreviousStatus), fmt.Sprintf("%dd", e.DaysSince)})
	}
	return TitleStyle.Render(fmt.Sprintf("%s %s %d application(s)", GhostIcon, verb, len(events))) + "\n" +
		renderTable([]string{"Company", "Role", "Was", "Silent"}, rows)
}

// FormatStagingRecord renders one staged email for review.
func FormatStagingRecord(r model.StagingRecord) string {
	company := r.Company
	if company == "" {
		company = SubtleStyle.Render("(unknown)")
	}
	role := r.Role
	if role == "" {
		role = SubtleStyle.Render("(unknown)")
	}
	lines := []string{
		BoldStyle.Render(r.Subject),
		SubtleStyle.Render(r.Sender + " · " + r.EmailDate.Format(dateLayout)),
		"",
		fmt.Sprintf("Company:    %s", company),
		fmt.Sprintf("Role:       %s", role),
		fmt.Sprintf("Category:   %s", r.Category),
		fmt.Sprintf("Confidence: %s (%s)", confidenceStyle(r.Confidence).Render(fmt.Sprintf("%.0f%%", r.Confidence*100)), r.Origin),
	}
	if r.Snippet != "" {
		lines = append(lines, "", SubtleStyle.Render(truncate(r.Snippet, 200)))
	}
	return strings.Join(lines, "\n")
}

// FormatApplications renders tracked applications as a table.
func FormatApplications(apps []model.TrackedApplication) string {
	if len(apps) == 0 {
		return FormatInfo("No tracked applications yet.")
	}
	rows := make([][]string, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, []string{
			a.CompanyName,
			a.RoleTitle,
			statusStyle(a.Status).Render(string(a.Status)),
			a.AppliedDate.Format(dateLayout),
			a.Source,
		})
	}
	return renderTable([]string{"Company", "Role", "Status", "Applied", "Source"}, rows)
}

func confidenceStyle(c float64) lipgloss.Style {
	switch {
	case c >= 0.8:
		return SuccessStyle
	case c >= 0.5:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

func statusStyle(s model.ApplicationStatus) lipgloss.Style {
	switch s {
	case model.StatusOffer, model.StatusAccepted, model.StatusInterview:
		return SuccessStyle
	case model.StatusRejected, model.StatusGhosted, model.StatusWithdrawn:
		return SubtleStyle
	default:
		return InfoStyle
	}
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = lipgloss.NewStyle().Width(widths[i] + 2).Render(h)
	}
	lines := []string{TableHeaderStyle.Render(strings.Join(cells, ""))}
	for _, row := range rows {
		for i, cell := range row {
			cells[i] = lipgloss.NewStyle().Width(widths[i] + 2).Render(cell)
		}
		lines = append(lines, strings.Join(cells, ""))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
