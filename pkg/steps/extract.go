package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/ports"
	"github.com/tidwall/gjson"
)

const extractPromptTemplate = `You are a data extraction engine.
Extract the following fields from the page content and answer with a single
JSON object containing exactly those fields. Use null for fields you cannot
determine. Do not add commentary.

Fields: %s

Page title: %s

Page content:
%s`

// ExtractStep asks a chat model to pull the requested fields out of the
// parsed page text and merges the recovered JSON object into the state.
type ExtractStep struct {
	base
	model    ports.ChatModel
	fields   []string
	maxInput int
}

// ExtractOption configures the extract step beyond the shared policy knobs.
type ExtractOption func(*ExtractStep)

// WithMaxInput caps how many characters of page text are sent to the model.
func WithMaxInput(n int) ExtractOption {
	return func(s *ExtractStep) { s.maxInput = n }
}

// NewExtract creates an extract step for the given fields. Defaults: 90s
// timeout, 2 retries (model backends fail transiently all the time).
func NewExtract(id string, model ports.ChatModel, fields []string, extractOpts []ExtractOption, opts ...Option) *ExtractStep {
	s := &ExtractStep{
		base: newBase(id, domain.StepPolicy{
			Timeout:    90 * time.Second,
			MaxRetries: 2,
		}, opts),
		model:    model,
		fields:   fields,
		maxInput: 12000,
	}
	for _, opt := range extractOpts {
		opt(s)
	}
	return s
}

func (s *ExtractStep) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	text := state.String(KeyText)
	if text == "" {
		text = state.String(KeyRawHTML)
	}
	if text == "" {
		return nil, domain.Fatalf("extract: state has neither %q nor %q", KeyText, KeyRawHTML)
	}
	if len(text) > s.maxInput {
		text = text[:s.maxInput]
	}

	prompt := fmt.Sprintf(extractPromptTemplate,
		strings.Join(s.fields, ", "), state.String(KeyTitle), text)

	reply, err := s.model.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	extracted, err := recoverJSON(reply)
	if err != nil {
		// The model produced prose instead of JSON; another sample usually fixes it.
		return nil, domain.Transientf("extract: %v", err)
	}

	return domain.State{
		KeyExtracted:  extracted,
		KeyExtractRaw: reply,
	}, nil
}

// recoverJSON pulls the first JSON object out of a model reply, tolerating
// markdown fences and surrounding prose.
func recoverJSON(reply string) (map[string]any, error) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	candidate := reply[start : end+1]
	if !gjson.Valid(candidate) {
		return nil, fmt.Errorf("model reply is not valid JSON")
	}

	value, ok := gjson.Parse(candidate).Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("model reply is not a JSON object")
	}
	return value, nil
}
