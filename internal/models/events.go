package models

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// EventType discriminates the records the analysis stream carries.
type EventType string

const (
	EventStatus    EventType = "status"    // free-text progress message
	EventPhase     EventType = "phase"     // explicit phase signal (optional variant)
	EventQuestions EventType = "questions" // full question list extracted from the document
	EventAnswer    EventType = "answer"    // one answered question plus a progress snapshot
	EventComplete  EventType = "complete"  // terminal: authoritative totals
	EventError     EventType = "error"     // terminal: job failed server-side
)

// AnalysisEvent is one decoded record from the analysis stream. Exactly one
// payload field is non-nil, matching Type.
type AnalysisEvent struct {
	Type      EventType
	Status    *StatusEvent
	Phase     *PhaseEvent
	Questions *QuestionsEvent
	Answer    *AnswerEvent
	Complete  *CompleteEvent
	Error     *ErrorEvent
}

// StatusEvent carries a human-readable progress message.
type StatusEvent struct {
	Message string `mapstructure:"message"`
}

// PhaseEvent names a phase explicitly. Servers that emit it make phase
// inference trivial; older ones only send status text.
type PhaseEvent struct {
	Name string `mapstructure:"name"`
}

// QuestionsEvent delivers the complete ordered question list. The list is
// fixed for the remainder of the job.
type QuestionsEvent struct {
	Questions []string `mapstructure:"questions"`
	Total     int      `mapstructure:"total"`
}

// AnswerEvent answers the question at Index and embeds the server's running
// progress snapshot.
type AnswerEvent struct {
	Index    int              `mapstructure:"index"`
	Answer   Answer           `mapstructure:"answer"`
	Progress ProgressSnapshot `mapstructure:"progress"`
}

// CompleteEvent carries the authoritative final tally.
type CompleteEvent struct {
	Total   int `mapstructure:"total"`
	Met     int `mapstructure:"met"`
	NotMet  int `mapstructure:"not_met"`
	Partial int `mapstructure:"partial"`
}

// ErrorEvent ends the job with a server-side failure message.
type ErrorEvent struct {
	Message string `mapstructure:"message"`
}

// ParseRecord decodes one JSON record from the stream into a typed event.
// Records are discriminated by their "type" field; payloads are decoded
// per-type so unknown sibling fields are tolerated. An unknown type or a
// record that fails to decode returns an error; callers drop those records
// and keep reading.
func ParseRecord(data []byte) (*AnalysisEvent, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}

	kind, _ := raw["type"].(string)

	switch EventType(kind) {
	case EventStatus:
		var p StatusEvent
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		return &AnalysisEvent{Type: EventStatus, Status: &p}, nil

	case EventPhase:
		var p PhaseEvent
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		return &AnalysisEvent{Type: EventPhase, Phase: &p}, nil

	case EventQuestions:
		var p QuestionsEvent
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		return &AnalysisEvent{Type: EventQuestions, Questions: &p}, nil

	case EventAnswer:
		var p AnswerEvent
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		return &AnalysisEvent{Type: EventAnswer, Answer: &p}, nil

	case EventComplete:
		var p CompleteEvent
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		return &AnalysisEvent{Type: EventComplete, Complete: &p}, nil

	case EventError:
		var p ErrorEvent
		if err := decodePayload(raw, &p); err != nil {
			return nil, err
		}
		return &AnalysisEvent{Type: EventError, Error: &p}, nil

	default:
		return nil, fmt.Errorf("unknown record type %q", kind)
	}
}

// decodePayload maps the raw record onto a typed payload. JSON numbers arrive
// as float64, so the decoder must convert weakly to land them in int fields.
func decodePayload(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building record decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding %q record: %w", raw["type"], err)
	}
	return nil
}

// Terminal reports whether the event ends the job's lifecycle.
func (e *AnalysisEvent) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
