package domain

import "time"

// Outcome is the recorded result of a single step attempt.
type Outcome string

const (
	// OutcomeSuccess means the attempt completed and its delta was merged.
	OutcomeSuccess Outcome = "success"
	// OutcomeRetry means the attempt failed Transient and will be re-run.
	OutcomeRetry Outcome = "retry"
	// OutcomeFatal means the attempt terminated the run.
	OutcomeFatal Outcome = "fatal"
)

// TraceEntry records one step attempt. Entries are appended in the exact
// order attempts occur; the trace is immutable once the run terminates.
type TraceEntry struct {
	StepID    string    `json:"step_id"`
	Attempt   int       `json:"attempt"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Outcome   Outcome   `json:"outcome"`
	Err       string    `json:"error,omitempty"`
}

// Trace is the ordered record of every attempt in a run.
type Trace []TraceEntry

// Result is what a run returns: the state as last merged, the full trace,
// and the terminal error if the run did not finish cleanly. Failures are
// surfaced here, never as a raw error out of Run.
type Result struct {
	FinalState State     `json:"final_state"`
	Trace      Trace     `json:"trace"`
	Err        *RunError `json:"error,omitempty"`
}

// Failed reports whether the run terminated with an error.
func (r *Result) Failed() bool { return r.Err != nil }
