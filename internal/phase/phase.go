// Package phase reconstructs a job's position in the analysis pipeline from
// stream events. The server signals phases either explicitly (tagged phase
// records) or implicitly (free-text status messages); both strategies sit
// behind one Inferrer interface and are selected by configuration.
package phase

import (
	"strings"

	"github.com/policyready/policyctl/internal/models"
)

// Phase is one ordered stage of the analysis pipeline. Values are ordered:
// a later phase compares greater than an earlier one.
type Phase int

const (
	Uploading Phase = iota
	ExtractingQuestions
	GeneratingKeywords
	SearchingPolicies
	AnalyzingCompliance
	Complete
)

var phaseNames = map[Phase]string{
	Uploading:           "uploading",
	ExtractingQuestions: "extracting_questions",
	GeneratingKeywords:  "generating_keywords",
	SearchingPolicies:   "searching_policies",
	AnalyzingCompliance: "analyzing_compliance",
	Complete:            "complete",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Label returns the phase name for display.
func (p Phase) Label() string {
	switch p {
	case Uploading:
		return "Uploading document"
	case ExtractingQuestions:
		return "Extracting questions"
	case GeneratingKeywords:
		return "Generating keywords"
	case SearchingPolicies:
		return "Searching policies"
	case AnalyzingCompliance:
		return "Analyzing compliance"
	case Complete:
		return "Complete"
	}
	return "Working"
}

// parsePhase maps a tagged phase name to its Phase. The second return is
// false for unrecognized names.
func parsePhase(name string) (Phase, bool) {
	for p, n := range phaseNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// Inferrer folds stream events into a monotonic non-decreasing Phase.
// Observe returns the phase after applying the event; once the job fails,
// inference halts and the last phase is sticky.
type Inferrer interface {
	Observe(ev *models.AnalysisEvent) Phase
	Current() Phase
}

// Source selects an inference strategy.
type Source string

const (
	// SourceText infers phase from free-text status messages using an
	// ordered keyword table.
	SourceText Source = "text"
	// SourceTagged trusts explicit phase records and ignores status text.
	SourceTagged Source = "tagged"
)

// New returns an Inferrer for the given source. Unrecognized sources fall
// back to text inference, which every server version supports.
func New(src Source) Inferrer {
	if src == SourceTagged {
		return &TaggedInferrer{}
	}
	return &TextInferrer{}
}

// base carries the event handling shared by both strategies: the monotonic
// clamp, the QuestionsExtracted floor, and the terminal transitions.
type base struct {
	current Phase
	halted  bool
}

func (b *base) Current() Phase { return b.current }

// advance raises the current phase, never lowers it. Out-of-order earlier
// signals are ignored.
func (b *base) advance(p Phase) {
	if p > b.current {
		b.current = p
	}
}

// observeCommon applies strategy-independent rules. It returns true when the
// event is fully handled.
func (b *base) observeCommon(ev *models.AnalysisEvent) bool {
	if b.halted {
		return true
	}
	switch ev.Type {
	case models.EventQuestions:
		// The question list only exists once extraction finished, so the
		// job is at least generating keywords by now.
		b.advance(GeneratingKeywords)
		return true
	case models.EventComplete:
		b.current = Complete
		return true
	case models.EventError:
		b.halted = true
		return true
	}
	return false
}

// TextInferrer matches status messages against an ordered keyword table,
// evaluated in phase order so a later-phase match always wins over a stale
// earlier match. Explicit phase records, when present, are authoritative.
type TextInferrer struct {
	base
}

// keywordTable is evaluated in ascending phase order; the last phase whose
// keywords match the message wins.
var keywordTable = []struct {
	phase    Phase
	keywords []string
}{
	{ExtractingQuestions, []string{"extracting questions", "questions from"}},
	{GeneratingKeywords, []string{"keyword"}},
	{SearchingPolicies, []string{"search"}},
	{AnalyzingCompliance, []string{"analyzing", "compliance"}},
}

func (t *TextInferrer) Observe(ev *models.AnalysisEvent) Phase {
	if t.observeCommon(ev) {
		return t.current
	}
	switch ev.Type {
	case models.EventPhase:
		if p, ok := parsePhase(ev.Phase.Name); ok {
			t.advance(p)
		}
	case models.EventStatus:
		if p, ok := matchKeywords(ev.Status.Message); ok {
			t.advance(p)
		}
	}
	return t.current
}

func matchKeywords(message string) (Phase, bool) {
	msg := strings.ToLower(message)
	matched := Phase(0)
	found := false
	for _, row := range keywordTable {
		for _, kw := range row.keywords {
			if strings.Contains(msg, kw) {
				matched = row.phase
				found = true
				break
			}
		}
	}
	return matched, found
}

// TaggedInferrer trusts explicit phase records only. Status text carries no
// phase information for servers that tag their phases.
type TaggedInferrer struct {
	base
}

func (t *TaggedInferrer) Observe(ev *models.AnalysisEvent) Phase {
	if t.observeCommon(ev) {
		return t.current
	}
	if ev.Type == models.EventPhase {
		if p, ok := parsePhase(ev.Phase.Name); ok {
			t.advance(p)
		}
	}
	return t.current
}
