package graph_test

import (
	"context"
	"testing"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(id string) domain.Step {
	return domain.NewStep(id, func(ctx context.Context, state domain.State) (domain.State, error) {
		return nil, nil
	})
}

func TestCompile_Validation(t *testing.T) {
	t.Run("no entry", func(t *testing.T) {
		_, err := graph.NewBuilder().AddStep(step("a")).Compile()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Error(), "no entry")
	})

	t.Run("unknown entry", func(t *testing.T) {
		_, err := graph.NewBuilder().AddStep(step("a")).SetEntry("missing").Compile()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("duplicate entry declaration", func(t *testing.T) {
		_, err := graph.NewBuilder().
			AddStep(step("a")).AddStep(step("b")).
			SetEntry("a").SetEntry("b").
			Compile()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Error(), "entry already set")
	})

	t.Run("duplicate step id", func(t *testing.T) {
		_, err := graph.NewBuilder().
			AddStep(step("a")).AddStep(step("a")).
			SetEntry("a").
			Compile()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("dangling edge target", func(t *testing.T) {
		_, err := graph.NewBuilder().
			AddStep(step("a")).
			AddEdge("a", "ghost").
			SetEntry("a").
			Compile()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("dangling edge source", func(t *testing.T) {
		_, err := graph.NewBuilder().
			AddStep(step("a")).
			AddEdge("ghost", "a").
			SetEntry("a").
			Compile()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("dangling else target", func(t *testing.T) {
		_, err := graph.NewBuilder().
			AddStep(step("a")).AddStep(step("b")).
			AddConditionalEdge("a", func(domain.State) bool { return true }, "b", "ghost").
			SetEntry("a").
			Compile()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("nil predicate", func(t *testing.T) {
		_, err := graph.NewBuilder().
			AddStep(step("a")).AddStep(step("b")).
			AddConditionalEdge("a", nil, "b", "").
			SetEntry("a").
			Compile()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("cycles compile", func(t *testing.T) {
		g, err := graph.NewBuilder().
			AddStep(step("a")).AddStep(step("b")).
			AddEdge("a", "b").
			AddEdge("b", "a").
			SetEntry("a").
			Compile()
		require.NoError(t, err)
		assert.Equal(t, "a", g.Entry())
	})
}

func TestBuilder_SealedAfterCompile(t *testing.T) {
	b := graph.NewBuilder().AddStep(step("a")).SetEntry("a")

	_, err := b.Compile()
	require.NoError(t, err)

	_, err = b.AddStep(step("late")).Compile()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "already compiled")
}

func TestGraph_Next(t *testing.T) {
	isReady := func(s domain.State) bool { return s.Bool("ready") }
	isBig := func(s domain.State) bool { return s.Bool("big") }

	g, err := graph.NewBuilder().
		AddStep(step("src")).
		AddStep(step("ready_sink")).
		AddStep(step("big_sink")).
		AddStep(step("fallback")).
		AddConditionalEdge("src", isReady, "ready_sink", "").
		AddConditionalEdge("src", isBig, "big_sink", "").
		AddEdge("src", "fallback").
		SetEntry("src").
		Compile()
	require.NoError(t, err)

	assert.Equal(t, "ready_sink", g.Next("src", domain.State{"ready": true, "big": true}))
	assert.Equal(t, "big_sink", g.Next("src", domain.State{"big": true}))
	assert.Equal(t, "fallback", g.Next("src", domain.State{}))
	assert.Equal(t, "", g.Next("ready_sink", domain.State{}), "no edges means terminal")
}

func TestGraph_NextElseBeatsLaterDefault(t *testing.T) {
	// An else target declared before an unconditional edge wins the default.
	g, err := graph.NewBuilder().
		AddStep(step("src")).
		AddStep(step("t")).
		AddStep(step("e")).
		AddStep(step("u")).
		AddConditionalEdge("src", func(s domain.State) bool { return s.Bool("go") }, "t", "e").
		AddEdge("src", "u").
		SetEntry("src").
		Compile()
	require.NoError(t, err)

	assert.Equal(t, "t", g.Next("src", domain.State{"go": true}))
	assert.Equal(t, "e", g.Next("src", domain.State{}))
}

func TestGraph_StepIDsPreservesRegistrationOrder(t *testing.T) {
	g, err := graph.NewBuilder().
		AddStep(step("c")).AddStep(step("a")).AddStep(step("b")).
		SetEntry("c").
		Compile()
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b"}, g.StepIDs())
}
