package domain

// Predicate evaluates the post-merge state to decide a conditional branch.
// Predicates must be pure: same state, same answer.
type Predicate func(state State) bool

// Transition is one outgoing edge of a step.
//
// When is nil for an unconditional (default) edge. For a conditional edge,
// To is taken when the predicate fires and Else — if set — registers as a
// declaration-ordered default for the source step.
type Transition struct {
	From string
	To   string
	When Predicate
	Else string
}

// Conditional reports whether the transition carries a predicate.
func (t Transition) Conditional() bool { return t.When != nil }
