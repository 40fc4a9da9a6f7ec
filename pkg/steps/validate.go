package steps

import (
	"context"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
)

// ValidateStep checks the extracted payload against an OpenAPI schema.
// Schema violations are Fatal: malformed data does not improve on retry,
// and re-running the model call that produced it is the loop author's
// decision, expressed through edges, not retry policy.
type ValidateStep struct {
	base
	schema *openapi3.Schema
}

// NewValidate creates a validate step for the given schema.
func NewValidate(id string, schema *openapi3.Schema, opts ...Option) *ValidateStep {
	return &ValidateStep{
		base: newBase(id, domain.StepPolicy{
			Classify: func(error) domain.FailureClass { return domain.Fatal },
		}, opts),
		schema: schema,
	}
}

func (s *ValidateStep) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	value, ok := state[KeyExtracted]
	if !ok {
		return nil, domain.Fatalf("validate: state has no %q key", KeyExtracted)
	}

	if err := s.schema.VisitJSON(value); err != nil {
		return nil, domain.Fatalf("validate: extracted payload rejected: %v", err)
	}

	return domain.State{KeyValidated: true}, nil
}
