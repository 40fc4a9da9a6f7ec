package steps_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedModel struct {
	reply   string
	err     error
	prompts []string
}

func (m *scriptedModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

func TestExtractStep_Execute(t *testing.T) {
	model := &scriptedModel{
		reply: "Here you go:\n```json\n{\"name\": \"Widget One\", \"price\": 10}\n```",
	}
	step := steps.NewExtract("extract", model, []string{"name", "price"}, nil)

	delta, err := step.Execute(context.Background(), domain.State{
		steps.KeyTitle: "Product Catalog",
		steps.KeyText:  "Widget One costs $10",
	})
	require.NoError(t, err)

	extracted, ok := delta[steps.KeyExtracted].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Widget One", extracted["name"])
	assert.Equal(t, float64(10), extracted["price"])
	assert.Contains(t, delta.String(steps.KeyExtractRaw), "Widget One")

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "name, price")
	assert.Contains(t, model.prompts[0], "Widget One costs $10")
	assert.Contains(t, model.prompts[0], "Product Catalog")
}

func TestExtractStep_ProseReplyIsTransient(t *testing.T) {
	model := &scriptedModel{reply: "I could not find any structured data, sorry."}
	step := steps.NewExtract("extract", model, []string{"name"}, nil)

	_, err := step.Execute(context.Background(), domain.State{steps.KeyText: "x"})
	require.Error(t, err)
	assert.Equal(t, domain.Transient, domain.Classify(err))
}

func TestExtractStep_ModelErrorPassesThrough(t *testing.T) {
	cause := domain.Transientf("HTTP 429")
	model := &scriptedModel{err: cause}
	step := steps.NewExtract("extract", model, []string{"name"}, nil)

	_, err := step.Execute(context.Background(), domain.State{steps.KeyText: "x"})
	require.Error(t, err)

	var se *domain.StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.Transient, se.Class)
}

func TestExtractStep_FallsBackToRawHTML(t *testing.T) {
	model := &scriptedModel{reply: `{"name": null}`}
	step := steps.NewExtract("extract", model, []string{"name"}, nil)

	_, err := step.Execute(context.Background(), domain.State{
		steps.KeyRawHTML: "<html>raw only</html>",
	})
	require.NoError(t, err)
	assert.Contains(t, model.prompts[0], "raw only")
}

func TestExtractStep_MissingInputIsFatal(t *testing.T) {
	step := steps.NewExtract("extract", &scriptedModel{}, []string{"name"}, nil)

	_, err := step.Execute(context.Background(), domain.State{})
	require.Error(t, err)
	assert.Equal(t, domain.Fatal, domain.Classify(err))
}

func TestExtractStep_MaxInputTruncates(t *testing.T) {
	model := &scriptedModel{reply: `{"ok": true}`}
	step := steps.NewExtract("extract", model, []string{"ok"},
		[]steps.ExtractOption{steps.WithMaxInput(100)})

	long := strings.Repeat("waffle ", 1000)
	_, err := step.Execute(context.Background(), domain.State{steps.KeyText: long})
	require.NoError(t, err)
	assert.Less(t, len(model.prompts[0]), 600)
}
