package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/policyready/policyctl/internal/job"
	"github.com/policyready/policyctl/internal/models"
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true)
	styleDim     = lipgloss.NewStyle().Faint(true)
	styleMet     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleNotMet  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	stylePartial = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// statusBadge renders a compliance verdict with its color.
func statusBadge(status models.ComplianceStatus) string {
	switch status {
	case models.StatusMet:
		return styleMet.Render("MET")
	case models.StatusNotMet:
		return styleNotMet.Render("NOT MET")
	case models.StatusPartial:
		return stylePartial.Render("PARTIAL")
	}
	return string(status)
}

// progressLine is the live status shown while a job runs.
func progressLine(snap job.Snapshot) string {
	label := snap.Phase.Label()
	if snap.State == job.StateFailed {
		return "Failed: " + snap.FailureMessage
	}
	if snap.Progress.Total == 0 {
		return label
	}
	return fmt.Sprintf("%s — %d/%d answered", label, snap.Progress.Answered, snap.Progress.Total)
}

// printReport renders a completed job: every question with its verdict, then
// the summary tally.
func printReport(w io.Writer, snap job.Snapshot) {
	fmt.Fprintf(w, "\n%s\n\n", styleHeader.Render("Compliance report: "+snap.Filename))

	for _, q := range snap.Questions {
		fmt.Fprintf(w, "%3d. %s\n", q.Index+1, q.Question)
		if q.Answer == nil {
			fmt.Fprintf(w, "     %s\n", styleDim.Render("unanswered"))
			continue
		}
		a := q.Answer
		fmt.Fprintf(w, "     %s  %s\n", statusBadge(a.Status), styleDim.Render(fmt.Sprintf("confidence %.0f%%", a.Confidence*100)))
		if a.Evidence != "" {
			fmt.Fprintf(w, "     %s\n", truncateText(a.Evidence, 100))
		}
		if a.Source != "" {
			src := a.Source
			if a.Page != nil {
				src = fmt.Sprintf("%s, p.%d", src, *a.Page)
			}
			fmt.Fprintf(w, "     %s\n", styleDim.Render(src))
		}
	}

	p := snap.Progress
	fmt.Fprintf(w, "\n%s  %s %d   %s %d   %s %d\n",
		styleHeader.Render(fmt.Sprintf("%d questions", p.Total)),
		styleMet.Render("met"), p.Met,
		stylePartial.Render("partial"), p.Partial,
		styleNotMet.Render("not met"), p.NotMet)
}

// printHistoryTable lists stored entries, most recent first.
func printHistoryTable(w io.Writer, entries []models.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No completed analyses yet.")
		return
	}

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		padRight(styleHeader.Render("ID"), 38),
		padRight(styleHeader.Render("WHEN"), 18),
		padRight(styleHeader.Render("DOCUMENT"), 32),
		styleHeader.Render("RESULT"))

	for _, e := range entries {
		result := fmt.Sprintf("%d/%d met", e.Met, e.TotalQuestions)
		if e.NotMet > 0 {
			result += fmt.Sprintf(", %d not met", e.NotMet)
		}
		if e.Partial > 0 {
			result += fmt.Sprintf(", %d partial", e.Partial)
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			e.ID,
			padRight(e.CreatedAt.Local().Format("2006-01-02 15:04"), 18),
			padRight(truncateText(e.Filename, 32), 32),
			result)
	}
}

// printEntryDetail renders one stored entry in full.
func printEntryDetail(w io.Writer, e models.HistoryEntry) {
	fmt.Fprintf(w, "%s\n", styleHeader.Render(e.Filename))
	fmt.Fprintf(w, "%s\n\n", styleDim.Render(fmt.Sprintf("%s · %s", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"))))

	for i, q := range e.Questions {
		fmt.Fprintf(w, "%3d. %s\n", i+1, q)
		a, ok := e.Answers[i]
		if !ok {
			fmt.Fprintf(w, "     %s\n", styleDim.Render("unanswered"))
			continue
		}
		fmt.Fprintf(w, "     %s  %s\n", statusBadge(a.Status), styleDim.Render(fmt.Sprintf("confidence %.0f%%", a.Confidence*100)))
		if a.Evidence != "" {
			fmt.Fprintf(w, "     %s\n", a.Evidence)
		}
		if a.Source != "" {
			src := a.Source
			if a.Page != nil {
				src = fmt.Sprintf("%s, p.%d", src, *a.Page)
			}
			fmt.Fprintf(w, "     %s\n", styleDim.Render(src))
		}
		if a.Reasoning != "" {
			fmt.Fprintf(w, "     %s\n", styleDim.Render(a.Reasoning))
		}
	}

	fmt.Fprintf(w, "\n%d questions: %d met, %d partial, %d not met\n",
		e.TotalQuestions, e.Met, e.Partial, e.NotMet)
}

// printPolicyTable lists corpus folders with their document counts.
func printPolicyTable(w io.Writer, catalog *models.PolicyCatalog) {
	fmt.Fprintf(w, "%s  %s\n", padRight(styleHeader.Render("FOLDER"), 40), styleHeader.Render("FILES"))
	for _, f := range catalog.Folders {
		fmt.Fprintf(w, "%s  %d\n", padRight(f.Name, 40), f.FileCount)
	}
	fmt.Fprintf(w, "\n%d files total\n", catalog.TotalFiles)
}

// printPolicyTree lists corpus folders and every document inside them.
func printPolicyTree(w io.Writer, catalog *models.PolicyCatalog, contents map[string]*models.FolderContents) {
	for _, f := range catalog.Folders {
		fmt.Fprintf(w, "%s\n", styleHeader.Render(f.Name))
		fc := contents[f.Name]
		if fc == nil {
			continue
		}
		for _, file := range fc.Files {
			fmt.Fprintf(w, "  %s\n", file.Name)
		}
	}
	fmt.Fprintf(w, "\n%d files total\n", catalog.TotalFiles)
}

// truncateText shortens s to maxLen runes, replacing the last rune with "…"
// if needed.
func truncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
