package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/graph"
	"github.com/aretw0/gleaner/pkg/ports"
	"github.com/aretw0/gleaner/pkg/steps"
)

// Dependencies carries the external collaborators that declarative steps
// need at construction time. Model is required only when the pipeline uses
// an extract step; Fetcher, when set, overrides the default HTTP fetcher
// for fetch steps.
type Dependencies struct {
	Model   ports.ChatModel
	Fetcher ports.Fetcher
}

type fetchParams struct {
	UserAgent string `mapstructure:"user_agent"`
}

type browserParams struct {
	WaitSelector string `mapstructure:"wait_selector"`
}

type extractParams struct {
	Fields   []string `mapstructure:"fields"`
	MaxInput int      `mapstructure:"max_input"`
}

type validateParams struct {
	Schema map[string]any `mapstructure:"schema"`
}

// Compile turns a decoded pipeline into an executable graph, instantiating
// the built-in step kinds and wiring the declared edges. All structural
// problems surface as a ValidationError from the graph builder or from the
// step factories.
func Compile(p *Pipeline, deps Dependencies) (*graph.Graph, error) {
	if p == nil {
		return nil, domain.Validationf("pipeline definition is nil")
	}
	b := graph.NewBuilder()
	for _, spec := range p.Steps {
		step, err := buildStep(spec, deps)
		if err != nil {
			return nil, err
		}
		b.AddStep(step)
	}
	for _, edge := range p.Edges {
		if edge.When == nil {
			b.AddEdge(edge.From, edge.To)
			continue
		}
		pred, err := predicate(edge.When)
		if err != nil {
			return nil, err
		}
		b.AddConditionalEdge(edge.From, pred, edge.To, edge.Else)
	}
	b.SetEntry(p.Entry)
	return b.Compile()
}

func buildStep(spec StepSpec, deps Dependencies) (domain.Step, error) {
	opts, err := policyOptions(spec)
	if err != nil {
		return nil, err
	}
	switch spec.Kind {
	case "fetch":
		var params fetchParams
		if err := decodeParams(spec, &params); err != nil {
			return nil, err
		}
		fetcher := deps.Fetcher
		if fetcher == nil {
			var fOpts []steps.FetcherOption
			if params.UserAgent != "" {
				fOpts = append(fOpts, steps.WithUserAgent(params.UserAgent))
			}
			fetcher = steps.NewHTTPFetcher(fOpts...)
		}
		return steps.NewFetch(spec.ID, fetcher, opts...), nil
	case "browser_fetch":
		var params browserParams
		if err := decodeParams(spec, &params); err != nil {
			return nil, err
		}
		var bOpts []steps.BrowserOption
		if params.WaitSelector != "" {
			bOpts = append(bOpts, steps.WithWaitSelector(params.WaitSelector))
		}
		return steps.NewFetch(spec.ID, steps.NewBrowserFetcher(bOpts...), opts...), nil
	case "parse":
		return steps.NewParse(spec.ID, opts...), nil
	case "extract":
		if deps.Model == nil {
			return nil, domain.Validationf("step %q: extract requires a chat model", spec.ID)
		}
		var params extractParams
		if err := decodeParams(spec, &params); err != nil {
			return nil, err
		}
		if len(params.Fields) == 0 {
			return nil, domain.Validationf("step %q: extract requires at least one field", spec.ID)
		}
		var eOpts []steps.ExtractOption
		if params.MaxInput > 0 {
			eOpts = append(eOpts, steps.WithMaxInput(params.MaxInput))
		}
		return steps.NewExtract(spec.ID, deps.Model, params.Fields, eOpts, opts...), nil
	case "validate":
		var params validateParams
		if err := decodeParams(spec, &params); err != nil {
			return nil, err
		}
		schema, err := schemaFromMap(params.Schema)
		if err != nil {
			return nil, domain.Validationf("step %q: %v", spec.ID, err)
		}
		return steps.NewValidate(spec.ID, schema, opts...), nil
	default:
		return nil, domain.Validationf("step %q: unknown kind %q", spec.ID, spec.Kind)
	}
}

func policyOptions(spec StepSpec) ([]steps.Option, error) {
	var opts []steps.Option
	if spec.Timeout != "" {
		d, err := time.ParseDuration(spec.Timeout)
		if err != nil {
			return nil, domain.Validationf("step %q: invalid timeout %q", spec.ID, spec.Timeout)
		}
		opts = append(opts, steps.WithTimeout(d))
	}
	if spec.MaxRetries != nil {
		if *spec.MaxRetries < 0 {
			return nil, domain.Validationf("step %q: max_retries must not be negative", spec.ID)
		}
		opts = append(opts, steps.WithMaxRetries(*spec.MaxRetries))
	}
	return opts, nil
}

func decodeParams(spec StepSpec, out any) error {
	if err := mapstructure.Decode(spec.Params, out); err != nil {
		return domain.Validationf("step %q: invalid params: %v", spec.ID, err)
	}
	return nil
}

// schemaFromMap converts the free-form YAML schema node into an OpenAPI
// schema by round-tripping through JSON, which is the canonical encoding
// kin-openapi understands.
func schemaFromMap(raw map[string]any) (*openapi3.Schema, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("validate requires a schema")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("schema is not encodable: %w", err)
	}
	var schema openapi3.Schema
	if err := schema.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("schema is not a valid OpenAPI schema: %w", err)
	}
	return &schema, nil
}

// predicate builds the runtime check for a declarative condition. Without
// an equals clause the key is tested for truthiness.
func predicate(cond *ConditionSpec) (domain.Predicate, error) {
	if cond.Key == "" {
		return nil, domain.Validationf("condition missing key")
	}
	key := cond.Key
	if cond.Equals == nil {
		return func(s domain.State) bool { return truthy(s[key]) }, nil
	}
	want := cond.Equals
	return func(s domain.State) bool { return looseEqual(s[key], want) }, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int, int64, float64:
		f, _ := toFloat(t)
		return f != 0
	default:
		return true
	}
}

// looseEqual compares state values against YAML literals, normalizing
// numbers so that an int in the file matches a float64 produced by a step.
func looseEqual(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(want); ok {
			return gf == wf
		}
		return false
	}
	return reflect.DeepEqual(got, want)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	default:
		return 0, false
	}
}
