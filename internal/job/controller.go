// Package job owns one analysis job's lifecycle end to end: it opens the
// event stream, folds events into derived state (phase, progress, answers),
// and persists a history entry when the job completes. Events are processed
// strictly in arrival order with no internal parallelism; the only
// suspension point is the network read between chunks.
package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/policyready/policyctl/internal/models"
	"github.com/policyready/policyctl/internal/phase"
	"github.com/policyready/policyctl/internal/progress"
	"github.com/policyready/policyctl/internal/stream"
)

// ErrJobInFlight is returned when a new job is started while one is active.
// The active job must finish or be abandoned first.
var ErrJobInFlight = errors.New("a job is already in flight")

// State is the controller's lifecycle position.
type State string

const (
	StateIdle     State = "idle"
	StateInFlight State = "in_flight"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

// AnalysisClient opens the event stream for one uploaded document.
type AnalysisClient interface {
	Analyze(ctx context.Context, path string) (io.ReadCloser, error)
}

// HistoryAppender persists one completed job.
type HistoryAppender interface {
	Append(entry models.HistoryEntry) models.HistoryEntry
}

// Snapshot is a read-only view of the job. Slices and maps are copies; the
// consumer can hold a snapshot across further controller updates.
type Snapshot struct {
	State          State
	Filename       string
	Phase          phase.Phase
	Progress       models.ProgressSnapshot
	Questions      []models.QuestionRecord
	FailureMessage string
	// Entry is the persisted history entry, set once the job completes.
	Entry *models.HistoryEntry
}

// Controller drives one job at a time.
type Controller struct {
	client      AnalysisClient
	store       HistoryAppender
	phaseSource phase.Source
	onUpdate    func(Snapshot)

	state      State
	filename   string
	inferrer   phase.Inferrer
	progress   models.ProgressSnapshot
	questions  []models.QuestionRecord
	failureMsg string
	entry      *models.HistoryEntry
}

// NewController wires a controller to a service client and a history store.
func NewController(client AnalysisClient, store HistoryAppender, phaseSource phase.Source) *Controller {
	return &Controller{
		client:      client,
		store:       store,
		phaseSource: phaseSource,
		state:       StateIdle,
	}
}

// OnUpdate registers a hook invoked synchronously after every state change.
// The hook observes through a read-only snapshot.
func (c *Controller) OnUpdate(fn func(Snapshot)) {
	c.onUpdate = fn
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Snapshot returns a read-only view of the job.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		State:          c.state,
		Filename:       c.filename,
		Progress:       c.progress,
		FailureMessage: c.failureMsg,
		Entry:          c.entry,
	}
	if c.inferrer != nil {
		snap.Phase = c.inferrer.Current()
	}
	if len(c.questions) > 0 {
		snap.Questions = append([]models.QuestionRecord(nil), c.questions...)
	}
	return snap
}

// Run starts a job for the document at path and drives it to a terminal
// state. It refuses to start while another job is in flight. The error
// return mirrors the Failed state: nil means the job completed and its
// history entry was persisted.
func (c *Controller) Run(ctx context.Context, path string) error {
	if c.state == StateInFlight {
		return ErrJobInFlight
	}

	c.reset()
	c.state = StateInFlight
	c.filename = filepath.Base(path)
	c.inferrer = phase.New(c.phaseSource)
	c.notify()

	body, err := c.client.Analyze(ctx, path)
	if err != nil {
		return c.fail(err.Error())
	}
	defer body.Close() //nolint:errcheck

	dec := stream.NewDecoder(body)
	for {
		ev, err := dec.Next(ctx)
		if err != nil {
			if err == io.EOF {
				// The source ended without a terminal record: partial
				// results stay visible in memory but are not persisted.
				return c.fail("analysis stream ended before completion")
			}
			if ctx.Err() != nil {
				return c.fail("analysis abandoned: " + ctx.Err().Error())
			}
			return c.fail(err.Error())
		}

		done, err := c.apply(ev)
		c.notify()
		if done || err != nil {
			return err
		}
	}
}

// apply folds one event into job state. It returns done=true when the event
// was terminal; err is non-nil only for the failed terminal.
func (c *Controller) apply(ev *models.AnalysisEvent) (done bool, err error) {
	c.inferrer.Observe(ev)
	c.progress = progress.Apply(c.progress, ev)

	switch ev.Type {
	case models.EventQuestions:
		c.installQuestions(ev.Questions)

	case models.EventAnswer:
		c.installAnswer(ev.Answer)

	case models.EventComplete:
		c.complete()
		return true, nil

	case models.EventError:
		return true, c.fail(ev.Error.Message)
	}
	return false, nil
}

// installQuestions fixes the ordered question list for the rest of the job.
func (c *Controller) installQuestions(ev *models.QuestionsEvent) {
	c.questions = make([]models.QuestionRecord, len(ev.Questions))
	for i, q := range ev.Questions {
		c.questions[i] = models.QuestionRecord{Index: i, Question: q}
	}
}

// installAnswer records the answer at its index. Indexes outside the
// established range are ignored; a duplicate answer for an already-answered
// index overwrites, consistent with latest-snapshot-wins aggregation.
func (c *Controller) installAnswer(ev *models.AnswerEvent) {
	if ev.Index < 0 || ev.Index >= len(c.questions) {
		slog.Debug("ignoring answer outside question range", "index", ev.Index, "questions", len(c.questions))
		return
	}
	answer := ev.Answer
	c.questions[ev.Index].Answer = &answer
}

// complete finalizes the job and persists its history entry. The progress
// snapshot already carries the authoritative totals from the terminal event.
func (c *Controller) complete() {
	entry := c.store.Append(c.buildEntry())
	c.entry = &entry
	c.state = StateComplete
}

// fail moves the job to Failed with a user-visible cause. Nothing is
// persisted; in-memory partial results remain observable until reset.
func (c *Controller) fail(message string) error {
	c.state = StateFailed
	c.failureMsg = message
	c.notify()
	return fmt.Errorf("analysis failed: %s", message)
}

// buildEntry captures the accumulated question and answer set at this
// instant, with totals from the finalized progress snapshot.
func (c *Controller) buildEntry() models.HistoryEntry {
	questions := make([]string, len(c.questions))
	answers := make(map[int]models.Answer, len(c.questions))
	for i, q := range c.questions {
		questions[i] = q.Question
		if q.Answer != nil {
			answers[i] = *q.Answer
		}
	}
	return models.HistoryEntry{
		Filename:       c.filename,
		TotalQuestions: c.progress.Total,
		Met:            c.progress.Met,
		NotMet:         c.progress.NotMet,
		Partial:        c.progress.Partial,
		Questions:      questions,
		Answers:        answers,
	}
}

// Reset returns a finished job to Idle, clearing in-memory state only.
// Persisted history is untouched. Resetting an in-flight job is refused.
func (c *Controller) Reset() error {
	if c.state == StateInFlight {
		return ErrJobInFlight
	}
	c.reset()
	c.notify()
	return nil
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.filename = ""
	c.inferrer = nil
	c.progress = models.ProgressSnapshot{}
	c.questions = nil
	c.failureMsg = ""
	c.entry = nil
}

func (c *Controller) notify() {
	if c.onUpdate != nil {
		c.onUpdate(c.Snapshot())
	}
}
