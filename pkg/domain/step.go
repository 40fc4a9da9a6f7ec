package domain

import (
	"context"
	"time"
)

// ExecuteFunc is the unit-of-work contract: it consumes a snapshot of the
// current state and returns a partial update to merge. Side effects
// (network, model calls) are expected; retry and timeout handling are not —
// those belong to the executor. Failures should be raised as *StepError so
// the executor can classify them.
type ExecuteFunc func(ctx context.Context, state State) (State, error)

// StepPolicy declares how the executor bounds and retries a step.
type StepPolicy struct {
	// Timeout bounds a single attempt's wall clock. Zero means unbounded.
	Timeout time.Duration

	// MaxRetries is the number of re-invocations after the first attempt.
	MaxRetries int

	// Classify maps a raised failure to Transient or Fatal. Nil falls back
	// to the default taxonomy (Classify).
	Classify func(error) FailureClass
}

// Step is a node in an extraction pipeline. Implementations are immutable
// after construction: anything injected (model client, fetch backend) is
// configuration, not run state, so a Step is reusable across runs.
type Step interface {
	// ID uniquely identifies the step within a graph.
	ID() string

	// Execute performs the work. See ExecuteFunc.
	Execute(ctx context.Context, state State) (State, error)

	// Policy declares the step's timeout and retry behavior.
	Policy() StepPolicy
}

// FuncStep adapts a plain function into a Step.
type FuncStep struct {
	id     string
	fn     ExecuteFunc
	policy StepPolicy
}

// StepOption configures a FuncStep at construction.
type StepOption func(*FuncStep)

// WithTimeout bounds each attempt of the step.
func WithTimeout(d time.Duration) StepOption {
	return func(s *FuncStep) { s.policy.Timeout = d }
}

// WithMaxRetries sets how many times a Transient failure is retried.
func WithMaxRetries(n int) StepOption {
	return func(s *FuncStep) { s.policy.MaxRetries = n }
}

// WithClassifier overrides the default failure taxonomy for this step.
func WithClassifier(fn func(error) FailureClass) StepOption {
	return func(s *FuncStep) { s.policy.Classify = fn }
}

// NewStep wraps fn as a Step with the given id.
func NewStep(id string, fn ExecuteFunc, opts ...StepOption) *FuncStep {
	s := &FuncStep{id: id, fn: fn}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FuncStep) ID() string { return s.id }

func (s *FuncStep) Execute(ctx context.Context, state State) (State, error) {
	return s.fn(ctx, state)
}

func (s *FuncStep) Policy() StepPolicy { return s.policy }
