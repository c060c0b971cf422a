// Package progress maintains the running answer tally for one job. State is
// owned by the caller and threaded through a pure, event-type-keyed reducer,
// so there are no shared counters to partially update.
package progress

import "github.com/policyready/policyctl/internal/models"

// Apply folds one event into the snapshot and returns the next snapshot.
//
// Snapshots are replaced wholesale, never recomputed locally: an answer event
// carries the server's own tally, and the terminal complete event overrides
// everything with the authoritative totals. Duplicated, reordered, or lost
// answer events therefore cannot make the final tally drift from the
// server's count.
func Apply(snap models.ProgressSnapshot, ev *models.AnalysisEvent) models.ProgressSnapshot {
	switch ev.Type {
	case models.EventQuestions:
		return models.ProgressSnapshot{Total: ev.Questions.Total}

	case models.EventAnswer:
		return ev.Answer.Progress

	case models.EventComplete:
		c := ev.Complete
		return models.ProgressSnapshot{
			Answered: c.Total,
			Total:    c.Total,
			Met:      c.Met,
			NotMet:   c.NotMet,
			Partial:  c.Partial,
		}
	}
	return snap
}
