package models

// ComplianceStatus is the server's verdict for one question.
type ComplianceStatus string

const (
	StatusMet     ComplianceStatus = "MET"
	StatusNotMet  ComplianceStatus = "NOT_MET"
	StatusPartial ComplianceStatus = "PARTIAL"
)

// Answer is the compliance verdict for a single question, including the
// evidence the server found in the policy corpus.
type Answer struct {
	Question   string           `json:"question" mapstructure:"question"`
	Status     ComplianceStatus `json:"status" mapstructure:"status"`
	Evidence   string           `json:"evidence,omitempty" mapstructure:"evidence"`
	Source     string           `json:"source,omitempty" mapstructure:"source"`
	Page       *int             `json:"page,omitempty" mapstructure:"page"`
	Confidence float64          `json:"confidence" mapstructure:"confidence"`
	Reasoning  string           `json:"reasoning" mapstructure:"reasoning"`
}

// ProgressSnapshot is the running answer tally. Snapshots arrive whole from
// the server and are replaced, never incremented, so duplicated or reordered
// answer events cannot cause drift.
type ProgressSnapshot struct {
	Answered int `json:"answered" mapstructure:"answered"`
	Total    int `json:"total" mapstructure:"total"`
	Met      int `json:"met" mapstructure:"met"`
	NotMet   int `json:"not_met" mapstructure:"not_met"`
	Partial  int `json:"partial" mapstructure:"partial"`
}

// QuestionRecord pairs one extracted question with its answer, if any.
// Index is the stable 0-based position assigned at extraction.
type QuestionRecord struct {
	Index    int     `json:"index"`
	Question string  `json:"question"`
	Answer   *Answer `json:"answer,omitempty"`
}
