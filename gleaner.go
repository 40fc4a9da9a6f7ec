package gleaner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/gleaner/internal/logging"
	"github.com/aretw0/gleaner/internal/runtime"
	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/graph"
	"github.com/aretw0/gleaner/pkg/ports"
)

// Engine is the high-level entry point for the Gleaner library.
// It wraps the internal executor and optionally persists results
// through a RunStore.
type Engine struct {
	graph    *graph.Graph
	exec     *runtime.Executor
	store    ports.RunStore
	logger   *slog.Logger
	hooks    []domain.ExecutionHooks
	maxSteps int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers an observability sink. The option can be given more
// than once; every sink sees every step event.
func WithHooks(hooks domain.ExecutionHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithStore attaches a run store so Submit can persist results.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithMaxSteps bounds the number of step executions in a single run.
// Zero (the default) means unbounded.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// New initializes an Engine around a compiled graph.
func New(g *graph.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}
	eng := &Engine{graph: g}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	execOpts := []runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithHooks(fanOut(eng.hooks)),
	}
	if eng.maxSteps > 0 {
		execOpts = append(execOpts, runtime.WithMaxSteps(eng.maxSteps))
	}
	eng.exec = runtime.NewExecutor(g, execOpts...)
	return eng, nil
}

// Run executes the pipeline against an initial state. The result is always
// non-nil; step and routing failures land in Result.Err, not in a returned
// error.
func (e *Engine) Run(ctx context.Context, initial domain.State) *domain.Result {
	return e.exec.Run(ctx, initial)
}

// Submit executes the pipeline and persists the result under a fresh run
// ID. Without a configured store the ID is still minted but nothing is
// written. The returned error covers persistence only.
func (e *Engine) Submit(ctx context.Context, initial domain.State) (string, *domain.Result, error) {
	runID := uuid.NewString()
	result := e.exec.Run(ctx, initial)
	if e.store == nil {
		return runID, result, nil
	}
	if err := e.store.Save(ctx, runID, result); err != nil {
		return runID, result, fmt.Errorf("failed to persist run %s: %w", runID, err)
	}
	return runID, result, nil
}

// Result loads a previously persisted run.
// Returns domain.ErrRunNotFound when the ID is unknown.
func (e *Engine) Result(ctx context.Context, runID string) (*domain.Result, error) {
	if e.store == nil {
		return nil, fmt.Errorf("no run store configured")
	}
	return e.store.Load(ctx, runID)
}

// Runs lists the IDs of persisted runs.
func (e *Engine) Runs(ctx context.Context) ([]string, error) {
	if e.store == nil {
		return nil, fmt.Errorf("no run store configured")
	}
	return e.store.List(ctx)
}

// Graph exposes the compiled graph, e.g. for inspection endpoints.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// fanOut merges hook sets so the executor only ever sees one.
func fanOut(sinks []domain.ExecutionHooks) domain.ExecutionHooks {
	switch len(sinks) {
	case 0:
		return domain.ExecutionHooks{}
	case 1:
		return sinks[0]
	}
	return domain.ExecutionHooks{
		OnStepStart: func(ctx context.Context, ev *domain.StepEvent) {
			for _, s := range sinks {
				if s.OnStepStart != nil {
					s.OnStepStart(ctx, ev)
				}
			}
		},
		OnStepEnd: func(ctx context.Context, ev *domain.StepEvent) {
			for _, s := range sinks {
				if s.OnStepEnd != nil {
					s.OnStepEnd(ctx, ev)
				}
			}
		},
	}
}
