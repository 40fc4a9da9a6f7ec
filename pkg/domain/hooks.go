package domain

import (
	"context"
	"time"
)

// StepEvent is the payload delivered to execution hooks around each attempt.
// StateKeys carries the sorted key set of the pre-attempt state snapshot,
// not the values, so sinks cannot leak or mutate run data.
type StepEvent struct {
	StepID    string
	Attempt   int
	StateKeys []string
	Elapsed   time.Duration
	Outcome   Outcome
}

// ExecutionHooks defines callbacks for engine observability. This is the
// sole channel for external telemetry and cost accounting; the engine makes
// no assumption about what a sink does with the data, and sinks must not
// block the run.
type ExecutionHooks struct {
	OnStepStart func(context.Context, *StepEvent)
	OnStepEnd   func(context.Context, *StepEvent)
}
