package phase

import (
	"testing"

	"github.com/policyready/policyctl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusEvent(message string) *models.AnalysisEvent {
	return &models.AnalysisEvent{Type: models.EventStatus, Status: &models.StatusEvent{Message: message}}
}

func phaseEvent(name string) *models.AnalysisEvent {
	return &models.AnalysisEvent{Type: models.EventPhase, Phase: &models.PhaseEvent{Name: name}}
}

func questionsEvent(n int) *models.AnalysisEvent {
	return &models.AnalysisEvent{Type: models.EventQuestions, Questions: &models.QuestionsEvent{Total: n}}
}

func completeEvent() *models.AnalysisEvent {
	return &models.AnalysisEvent{Type: models.EventComplete, Complete: &models.CompleteEvent{}}
}

func errorEvent(msg string) *models.AnalysisEvent {
	return &models.AnalysisEvent{Type: models.EventError, Error: &models.ErrorEvent{Message: msg}}
}

func TestNew_SelectsStrategy(t *testing.T) {
	assert.IsType(t, &TextInferrer{}, New(SourceText))
	assert.IsType(t, &TaggedInferrer{}, New(SourceTagged))
	assert.IsType(t, &TextInferrer{}, New("bogus"))
}

func TestTextInferrer_ServerMessages(t *testing.T) {
	// The exact status messages the analysis service emits, in order.
	steps := []struct {
		message string
		want    Phase
	}{
		{"Extracting questions from PDF...", ExtractingQuestions},
		{"Extracting keywords for 12 questions...", GeneratingKeywords},
		{"Keywords extracted. Searching policy database...", SearchingPolicies},
		{"Analyzing compliance for each question...", AnalyzingCompliance},
	}

	inf := &TextInferrer{}
	for _, step := range steps {
		got := inf.Observe(statusEvent(step.message))
		assert.Equal(t, step.want, got, "message %q", step.message)
	}
}

func TestTextInferrer_LaterPhaseMatchWins(t *testing.T) {
	// "Keywords extracted. Searching..." matches both the keyword and the
	// search rows; the later phase must win.
	inf := &TextInferrer{}
	got := inf.Observe(statusEvent("Keywords extracted. Searching policy database..."))
	assert.Equal(t, SearchingPolicies, got)
}

func TestTextInferrer_UnrecognizedMessageKeepsPhase(t *testing.T) {
	inf := &TextInferrer{}
	inf.Observe(statusEvent("Extracting questions from PDF..."))
	got := inf.Observe(statusEvent("Please hold..."))
	assert.Equal(t, ExtractingQuestions, got)
}

func TestTextInferrer_MonotonicUnderStaleMessages(t *testing.T) {
	inf := &TextInferrer{}
	inf.Observe(statusEvent("Analyzing compliance for each question..."))
	// A stale earlier-phase message must not regress the phase.
	got := inf.Observe(statusEvent("Extracting questions from PDF..."))
	assert.Equal(t, AnalyzingCompliance, got)
}

func TestTextInferrer_ExplicitSignalIsAuthoritative(t *testing.T) {
	inf := &TextInferrer{}
	got := inf.Observe(phaseEvent("searching_policies"))
	assert.Equal(t, SearchingPolicies, got)

	// An out-of-order earlier signal is ignored.
	got = inf.Observe(phaseEvent("extracting_questions"))
	assert.Equal(t, SearchingPolicies, got)
}

func TestTaggedInferrer_IgnoresStatusText(t *testing.T) {
	inf := &TaggedInferrer{}
	got := inf.Observe(statusEvent("Analyzing compliance for each question..."))
	assert.Equal(t, Uploading, got)

	got = inf.Observe(phaseEvent("analyzing_compliance"))
	assert.Equal(t, AnalyzingCompliance, got)
}

func TestTaggedInferrer_UnknownNameIgnored(t *testing.T) {
	inf := &TaggedInferrer{}
	got := inf.Observe(phaseEvent("warming_up"))
	assert.Equal(t, Uploading, got)
}

func TestInferrer_QuestionsForceGeneratingKeywords(t *testing.T) {
	for _, inf := range []Inferrer{&TextInferrer{}, &TaggedInferrer{}} {
		got := inf.Observe(questionsEvent(3))
		assert.GreaterOrEqual(t, got, GeneratingKeywords)
	}
}

func TestInferrer_CompleteForcesComplete(t *testing.T) {
	for _, inf := range []Inferrer{&TextInferrer{}, &TaggedInferrer{}} {
		inf.Observe(statusEvent("Extracting questions from PDF..."))
		got := inf.Observe(completeEvent())
		assert.Equal(t, Complete, got)
	}
}

func TestInferrer_FailureHaltsInference(t *testing.T) {
	inf := &TextInferrer{}
	inf.Observe(statusEvent("Keywords extracted. Searching policy database..."))
	inf.Observe(errorEvent("boom"))

	// Later signals no longer move the phase.
	got := inf.Observe(statusEvent("Analyzing compliance for each question..."))
	assert.Equal(t, SearchingPolicies, got)
	got = inf.Observe(phaseEvent("complete"))
	assert.Equal(t, SearchingPolicies, got)
}

func TestPhase_MonotonicUnderAllEventSequences(t *testing.T) {
	events := []*models.AnalysisEvent{
		statusEvent("Analyzing compliance for each question..."),
		statusEvent("Extracting questions from PDF..."),
		phaseEvent("generating_keywords"),
		questionsEvent(2),
		statusEvent("Keywords extracted. Searching policy database..."),
		phaseEvent("uploading"),
		completeEvent(),
	}

	for _, inf := range []Inferrer{&TextInferrer{}, &TaggedInferrer{}} {
		prev := inf.Current()
		for i, ev := range events {
			got := inf.Observe(ev)
			require.GreaterOrEqual(t, got, prev, "event %d regressed phase", i)
			prev = got
		}
	}
}

func TestPhase_Names(t *testing.T) {
	assert.Equal(t, "searching_policies", SearchingPolicies.String())
	assert.Equal(t, "Searching policies", SearchingPolicies.Label())

	p, ok := parsePhase("analyzing_compliance")
	require.True(t, ok)
	assert.Equal(t, AnalyzingCompliance, p)

	_, ok = parsePhase("nope")
	assert.False(t, ok)
}
