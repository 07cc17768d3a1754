package domain

import "time"

// Summary tallies a run. Invariant: 0 <= Passed <= Total.
type Summary struct {
	Passed int `json:"passed"`
	Total  int `json:"total"`
}

func (s Summary) Failed() int { return s.Total - s.Passed }

func (s Summary) AllPassed() bool { return s.Passed == s.Total }

// Run is the full report of one pass over the target list.
type Run struct {
	ID         string    `json:"id"`
	Endpoint   string    `json:"endpoint"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    Summary   `json:"summary"`
	Outcomes   []Outcome `json:"outcomes"`
}
