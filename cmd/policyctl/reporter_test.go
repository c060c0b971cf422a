package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/policyready/policyctl/internal/job"
	"github.com/policyready/policyctl/internal/models"
	"github.com/policyready/policyctl/internal/phase"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 10))
	assert.Equal(t, "exactly-10", truncateText("exactly-10", 10))
	assert.Equal(t, "much too …", truncateText("much too long for this", 10))

	// Truncation counts runes, not bytes.
	assert.Equal(t, "héllo wör…", truncateText("héllo wörld indeed", 10))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcde", padRight("abcde", 5))
	assert.Equal(t, "abcdef", padRight("abcdef", 5))

	// Wide runes occupy two cells; padding must account for display width.
	assert.Equal(t, "日本 ", padRight("日本", 5))
}

func TestProgressLine(t *testing.T) {
	snap := job.Snapshot{State: job.StateInFlight, Phase: phase.Uploading}
	assert.Equal(t, phase.Uploading.Label(), progressLine(snap))

	snap.Phase = phase.AnalyzingCompliance
	snap.Progress = models.ProgressSnapshot{Answered: 3, Total: 7}
	line := progressLine(snap)
	assert.Contains(t, line, phase.AnalyzingCompliance.Label())
	assert.Contains(t, line, "3/7 answered")

	snap.State = job.StateFailed
	snap.FailureMessage = "LLM quota exceeded"
	assert.Equal(t, "Failed: LLM quota exceeded", progressLine(snap))
}

func TestStatusBadge(t *testing.T) {
	assert.Contains(t, statusBadge(models.StatusMet), "MET")
	assert.Contains(t, statusBadge(models.StatusNotMet), "NOT MET")
	assert.Contains(t, statusBadge(models.StatusPartial), "PARTIAL")
	assert.Equal(t, "WEIRD", statusBadge(models.ComplianceStatus("WEIRD")))
}

func TestPrintReport(t *testing.T) {
	page := 3
	snap := job.Snapshot{
		State:    job.StateComplete,
		Filename: "rfp.pdf",
		Phase:    phase.Complete,
		Progress: models.ProgressSnapshot{Answered: 2, Total: 2, Met: 1, NotMet: 1},
		Questions: []models.QuestionRecord{
			{Index: 0, Question: "Is encryption used?", Answer: &models.Answer{
				Question:   "Is encryption used?",
				Status:     models.StatusMet,
				Evidence:   "AES-256 at rest.",
				Source:     "crypto-policy.pdf",
				Page:       &page,
				Confidence: 0.95,
			}},
			{Index: 1, Question: "Is MFA enforced?"},
		},
	}

	var buf bytes.Buffer
	printReport(&buf, snap)
	out := buf.String()

	assert.Contains(t, out, "rfp.pdf")
	assert.Contains(t, out, "1. Is encryption used?")
	assert.Contains(t, out, "AES-256 at rest.")
	assert.Contains(t, out, "crypto-policy.pdf, p.3")
	assert.Contains(t, out, "confidence 95%")
	assert.Contains(t, out, "2. Is MFA enforced?")
	assert.Contains(t, out, "unanswered")
	assert.Contains(t, out, "2 questions")
}

func TestPrintHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	printHistoryTable(&buf, nil)
	assert.Contains(t, buf.String(), "No completed analyses yet.")

	buf.Reset()
	printHistoryTable(&buf, []models.HistoryEntry{{
		ID:             "abc-123",
		Filename:       "rfp.pdf",
		CreatedAt:      time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		TotalQuestions: 4,
		Met:            2,
		NotMet:         1,
		Partial:        1,
	}})
	out := buf.String()
	assert.Contains(t, out, "abc-123")
	assert.Contains(t, out, "rfp.pdf")
	assert.Contains(t, out, "2/4 met, 1 not met, 1 partial")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, map[string]any{
		"terms":     float64(5312876),
		"avg_score": 0.3456,
		"built_at":  "2026-08-01",
	})
	out := buf.String()

	assert.Contains(t, out, "5,312,876")
	assert.Contains(t, out, "0.35")
	assert.Contains(t, out, "2026-08-01")
}

func TestFormatStatValue(t *testing.T) {
	p := message.NewPrinter(language.English)
	assert.Equal(t, "1,204", formatStatValue(p, float64(1204)))
	assert.Equal(t, "0.50", formatStatValue(p, 0.5))
	assert.Equal(t, "true", formatStatValue(p, true))
}
