package model

import "time"

// UpdateResult is the terminal outcome of one read-modify-write-verify cycle.
type UpdateResult struct {
	Kind       ResourceKind
	Identifier string
	State      UpdateState
	Cause      FailureCause
	Success    bool
	// Submitted is true once the write was accepted, even if verification
	// failed afterwards.
	Submitted bool
	Reason    string
	Warning   string
	APIError  *APIError
}

// RunSummary aggregates the results of one orchestrator run.
type RunSummary struct {
	ID         int64
	Mode       RunMode
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
	Results    []UpdateResult
}

// Add appends r and updates the counters.
func (s *RunSummary) Add(r UpdateResult) {
	s.Results = append(s.Results, r)
	if r.Success {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// Attempted is the number of entries processed.
func (s *RunSummary) Attempted() int {
	return s.Succeeded + s.Failed
}
