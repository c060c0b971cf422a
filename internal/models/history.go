package models

import "time"

// HistoryEntry is a durable record of one completed analysis job. Entries are
// immutable once written; the only mutation the store supports is deletion.
type HistoryEntry struct {
	ID             string         `json:"id"`
	Filename       string         `json:"filename"`
	CreatedAt      time.Time      `json:"created_at"`
	TotalQuestions int            `json:"total_questions"`
	Met            int            `json:"met"`
	NotMet         int            `json:"not_met"`
	Partial        int            `json:"partial"`
	Questions      []string       `json:"questions"`
	Answers        map[int]Answer `json:"answers"`
}
