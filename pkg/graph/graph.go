// Package graph builds and compiles extraction pipelines: a set of steps,
// an ordered transition table, and a designated entry step.
package graph

import (
	"github.com/aretw0/gleaner/pkg/domain"
)

// Builder accumulates steps and transitions until Compile is called.
// A Builder is sealed by Compile; further mutation is rejected so the
// compiled graph stays immutable.
type Builder struct {
	steps       map[string]domain.Step
	order       []string
	transitions map[string][]domain.Transition
	entry       string
	entrySet    bool
	sealed      bool
	err         error
}

// NewBuilder creates an empty pipeline builder.
func NewBuilder() *Builder {
	return &Builder{
		steps:       make(map[string]domain.Step),
		transitions: make(map[string][]domain.Transition),
	}
}

// fail records the first construction error; Compile reports it.
func (b *Builder) fail(err *domain.ValidationError) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// AddStep registers a step. Step ids must be unique within the graph.
func (b *Builder) AddStep(step domain.Step) *Builder {
	if b.sealed {
		return b.fail(domain.Validationf("graph already compiled"))
	}
	id := step.ID()
	if id == "" {
		return b.fail(domain.Validationf("step has empty id"))
	}
	if _, exists := b.steps[id]; exists {
		return b.fail(domain.Validationf("duplicate step id %q", id))
	}
	b.steps[id] = step
	b.order = append(b.order, id)
	return b
}

// AddEdge declares an unconditional transition from one step to another.
func (b *Builder) AddEdge(from, to string) *Builder {
	if b.sealed {
		return b.fail(domain.Validationf("graph already compiled"))
	}
	b.transitions[from] = append(b.transitions[from], domain.Transition{
		From: from,
		To:   to,
	})
	return b
}

// AddConditionalEdge declares a branch evaluated against the post-merge
// state. Conditional edges from the same step are evaluated in declaration
// order and the first predicate returning true wins. falseTarget may be
// empty; when set it acts as a declaration-ordered default for the step.
func (b *Builder) AddConditionalEdge(from string, pred domain.Predicate, trueTarget, falseTarget string) *Builder {
	if b.sealed {
		return b.fail(domain.Validationf("graph already compiled"))
	}
	if pred == nil {
		return b.fail(domain.Validationf("conditional edge from %q has nil predicate", from))
	}
	b.transitions[from] = append(b.transitions[from], domain.Transition{
		From: from,
		To:   trueTarget,
		When: pred,
		Else: falseTarget,
	})
	return b
}

// SetEntry designates the step at which execution begins. Exactly one entry
// is allowed; calling SetEntry twice is a compile error.
func (b *Builder) SetEntry(id string) *Builder {
	if b.sealed {
		return b.fail(domain.Validationf("graph already compiled"))
	}
	if b.entrySet {
		return b.fail(domain.Validationf("entry already set to %q", b.entry))
	}
	b.entry = id
	b.entrySet = true
	return b
}

// Compile validates the declarations and produces an immutable Graph.
// Cycles are allowed: bounded refinement loops are a legitimate pattern and
// are the pipeline author's responsibility to bound via predicates.
func (b *Builder) Compile() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.entrySet {
		return nil, domain.Validationf("no entry step set")
	}
	if _, ok := b.steps[b.entry]; !ok {
		return nil, domain.Validationf("entry step %q is not registered", b.entry)
	}
	for from, ts := range b.transitions {
		if _, ok := b.steps[from]; !ok {
			return nil, domain.Validationf("edge from unknown step %q", from)
		}
		for _, t := range ts {
			if _, ok := b.steps[t.To]; !ok {
				return nil, domain.Validationf("edge %q -> %q targets unknown step", from, t.To)
			}
			if t.Else != "" {
				if _, ok := b.steps[t.Else]; !ok {
					return nil, domain.Validationf("edge %q -> %q (else) targets unknown step", from, t.Else)
				}
			}
		}
	}

	b.sealed = true

	steps := make(map[string]domain.Step, len(b.steps))
	for id, s := range b.steps {
		steps[id] = s
	}
	transitions := make(map[string][]domain.Transition, len(b.transitions))
	for from, ts := range b.transitions {
		transitions[from] = append([]domain.Transition(nil), ts...)
	}

	return &Graph{
		steps:       steps,
		order:       append([]string(nil), b.order...),
		transitions: transitions,
		entry:       b.entry,
	}, nil
}

// Graph is a compiled, immutable pipeline. It is safe for concurrent Run
// calls: each run owns its own state and trace.
type Graph struct {
	steps       map[string]domain.Step
	order       []string
	transitions map[string][]domain.Transition
	entry       string
}

// Entry returns the id of the designated entry step.
func (g *Graph) Entry() string { return g.entry }

// Step resolves a step by id.
func (g *Graph) Step(id string) (domain.Step, bool) {
	s, ok := g.steps[id]
	return s, ok
}

// StepIDs returns all step ids in registration order, for introspection.
func (g *Graph) StepIDs() []string {
	return append([]string(nil), g.order...)
}

// Next resolves the successor of a step against the post-merge state.
// Conditional edges are scanned in declaration order and the first true
// predicate wins; otherwise the first declared default (an unconditional
// edge or a conditional's else target) is taken. An empty id means the
// step is terminal.
func (g *Graph) Next(from string, state domain.State) string {
	ts := g.transitions[from]

	for _, t := range ts {
		if t.Conditional() && t.When(state) {
			return t.To
		}
	}
	for _, t := range ts {
		if !t.Conditional() {
			return t.To
		}
		if t.Else != "" {
			return t.Else
		}
	}
	return ""
}
