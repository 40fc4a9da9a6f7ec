// Package runtime implements the Gleaner executor: the single-threaded walk
// over a compiled graph that invokes steps, applies timeout and retry
// policy, merges state, and records the execution trace.
package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/gleaner/internal/logging"
	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/graph"
)

// Executor walks a compiled graph. It is stateless between runs; every Run
// owns its own state and trace, so concurrent runs on the same graph are
// independent.
type Executor struct {
	graph    *graph.Graph
	logger   *slog.Logger
	hooks    domain.ExecutionHooks
	maxSteps int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets a structured logger. Default is a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers pre/post step callbacks for external telemetry.
func WithHooks(hooks domain.ExecutionHooks) Option {
	return func(e *Executor) { e.hooks = hooks }
}

// WithMaxSteps installs a step-count ceiling as a safety net against
// unbounded cycles. Zero (the default) means unlimited: bounding iteration
// via state-derived predicates is the pipeline author's job.
func WithMaxSteps(n int) Option {
	return func(e *Executor) { e.maxSteps = n }
}

// NewExecutor creates an executor for the given compiled graph.
func NewExecutor(g *graph.Graph, opts ...Option) *Executor {
	e := &Executor{
		graph:  g,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// attemptResult carries a finished attempt out of its goroutine.
type attemptResult struct {
	delta domain.State
	err   error
}

// Run executes the graph from its entry step against a copy of initial.
// It always returns a structured Result; step failures are classified and
// surfaced in Result.Err, never raised.
func (e *Executor) Run(ctx context.Context, initial domain.State) *domain.Result {
	state := initial.Clone()
	trace := domain.Trace{}
	current := e.graph.Entry()
	visited := 0

	for current != "" {
		if e.maxSteps > 0 && visited >= e.maxSteps {
			e.logger.Error("step ceiling reached", "limit", e.maxSteps, "step", current)
			return &domain.Result{
				FinalState: state,
				Trace:      trace,
				Err: &domain.RunError{
					StepID: current,
					Kind:   domain.KindStepLimit,
					Cause:  domain.Validationf("step ceiling of %d reached", e.maxSteps),
				},
			}
		}

		step, ok := e.graph.Step(current)
		if !ok {
			// Compile rejects dangling edges; this guards custom Graph impls.
			return &domain.Result{
				FinalState: state,
				Trace:      trace,
				Err: &domain.RunError{
					StepID: current,
					Kind:   domain.KindStepError,
					Cause:  domain.ErrUnknownStep,
				},
			}
		}

		merged, entries, runErr := e.runStep(ctx, step, state)
		trace = append(trace, entries...)
		if runErr != nil {
			return &domain.Result{FinalState: state, Trace: trace, Err: runErr}
		}
		state = merged
		visited++

		// Successors are resolved against the post-merge state.
		current = e.graph.Next(current, state)
	}

	e.logger.Debug("run complete", "steps", visited, "keys", state.Keys())
	return &domain.Result{FinalState: state, Trace: trace}
}

// runStep drives a single step through its retry budget. Retries re-invoke
// with the same pre-step state: a failed attempt never leaks partial output
// into the next one. On success it returns the merged state.
func (e *Executor) runStep(ctx context.Context, step domain.Step, state domain.State) (domain.State, []domain.TraceEntry, *domain.RunError) {
	policy := step.Policy()
	var entries []domain.TraceEntry

	for attempt := 1; ; attempt++ {
		snapshot := state.Clone()
		e.emitStart(ctx, step.ID(), attempt, snapshot.Keys())

		startedAt := time.Now()
		delta, err := e.invoke(ctx, step, policy, snapshot)
		endedAt := time.Now()
		elapsed := endedAt.Sub(startedAt)

		entry := domain.TraceEntry{
			StepID:    step.ID(),
			Attempt:   attempt,
			StartedAt: startedAt,
			EndedAt:   endedAt,
		}

		if err == nil {
			entry.Outcome = domain.OutcomeSuccess
			entries = append(entries, entry)
			e.emitEnd(ctx, step.ID(), attempt, snapshot.Keys(), elapsed, domain.OutcomeSuccess)
			e.logger.Debug("step succeeded",
				"step", step.ID(), "attempt", attempt, "elapsed", elapsed)
			return state.Merge(delta), entries, nil
		}

		entry.Err = err.Error()

		// Run-level cancellation is not a step failure and is never retried.
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			entry.Outcome = domain.OutcomeFatal
			entries = append(entries, entry)
			e.emitEnd(ctx, step.ID(), attempt, snapshot.Keys(), elapsed, domain.OutcomeFatal)
			return nil, entries, &domain.RunError{
				StepID:   step.ID(),
				Attempts: attempt,
				Kind:     domain.KindCanceled,
				Cause:    err,
			}
		}

		class := domain.Classify(err)
		if policy.Classify != nil {
			class = policy.Classify(err)
		}

		if class == domain.Transient && attempt <= policy.MaxRetries {
			entry.Outcome = domain.OutcomeRetry
			entries = append(entries, entry)
			e.emitEnd(ctx, step.ID(), attempt, snapshot.Keys(), elapsed, domain.OutcomeRetry)
			e.logger.Warn("step failed, retrying",
				"step", step.ID(), "attempt", attempt, "err", err)
			continue
		}

		entry.Outcome = domain.OutcomeFatal
		entries = append(entries, entry)
		e.emitEnd(ctx, step.ID(), attempt, snapshot.Keys(), elapsed, domain.OutcomeFatal)
		e.logger.Error("step failed, terminating run",
			"step", step.ID(), "attempt", attempt, "err", err)

		return nil, entries, &domain.RunError{
			StepID:   step.ID(),
			Attempts: attempt,
			Kind:     terminalKind(err, class, policy.MaxRetries),
			Cause:    err,
		}
	}
}

// invoke runs one attempt under the step's timeout. On expiry the executor
// stops waiting and synthesizes a TimeoutError; the in-flight attempt may
// keep running but its result is discarded (the channel is buffered so the
// goroutine can finish).
func (e *Executor) invoke(ctx context.Context, step domain.Step, policy domain.StepPolicy, snapshot domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if policy.Timeout <= 0 {
		return step.Execute(ctx, snapshot)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		delta, err := step.Execute(attemptCtx, snapshot)
		done <- attemptResult{delta: delta, err: err}
	}()

	select {
	case res := <-done:
		// A cooperative step may surface the deadline itself; report it as
		// the same TimeoutError the abandon path synthesizes.
		if res.err != nil && ctx.Err() == nil && errors.Is(res.err, context.DeadlineExceeded) {
			return nil, &domain.TimeoutError{StepID: step.ID(), Timeout: policy.Timeout}
		}
		return res.delta, res.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &domain.TimeoutError{StepID: step.ID(), Timeout: policy.Timeout}
	}
}

// terminalKind labels the RunError. A Transient failure that exhausted a
// positive retry budget reports as max_retries_exceeded; with no budget the
// root cause's own kind is more useful to the caller.
func terminalKind(err error, class domain.FailureClass, maxRetries int) domain.ErrorKind {
	if class == domain.Transient && maxRetries > 0 {
		return domain.KindMaxRetriesExceeded
	}
	var te *domain.TimeoutError
	if errors.As(err, &te) {
		return domain.KindTimeout
	}
	return domain.KindStepError
}

func (e *Executor) emitStart(ctx context.Context, stepID string, attempt int, keys []string) {
	if e.hooks.OnStepStart == nil {
		return
	}
	e.hooks.OnStepStart(ctx, &domain.StepEvent{
		StepID:    stepID,
		Attempt:   attempt,
		StateKeys: keys,
	})
}

func (e *Executor) emitEnd(ctx context.Context, stepID string, attempt int, keys []string, elapsed time.Duration, outcome domain.Outcome) {
	if e.hooks.OnStepEnd == nil {
		return
	}
	e.hooks.OnStepEnd(ctx, &domain.StepEvent{
		StepID:    stepID,
		Attempt:   attempt,
		StateKeys: keys,
		Elapsed:   elapsed,
		Outcome:   outcome,
	})
}
