package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gleaner/pkg/config"
	"github.com/aretw0/gleaner/pkg/domain"
)

const samplePipeline = `
name: products
entry: fetch
steps:
  - id: fetch
    kind: fetch
    timeout: 10s
    max_retries: 1
    params:
      user_agent: "gleaner-test/1.0"
  - id: parse
    kind: parse
  - id: extract_table
    kind: extract
    params:
      fields: [name, price]
      max_input: 4000
  - id: extract_text
    kind: extract
    params:
      fields: [name, price]
  - id: validate
    kind: validate
    params:
      schema:
        type: object
        required: [name]
        properties:
          name:
            type: string
edges:
  - from: fetch
    to: parse
  - from: parse
    when: {key: has_table}
    to: extract_table
    else: extract_text
  - from: extract_table
    to: validate
  - from: extract_text
    to: validate
`

type stubModel struct{}

func (stubModel) Complete(context.Context, string) (string, error) { return "{}", nil }

func TestParse_DecodesPipeline(t *testing.T) {
	p, err := config.Parse([]byte(samplePipeline))
	require.NoError(t, err)

	assert.Equal(t, "products", p.Name)
	assert.Equal(t, "fetch", p.Entry)
	assert.Len(t, p.Steps, 5)
	assert.Len(t, p.Edges, 4)

	fetch := p.Steps[0]
	assert.Equal(t, "fetch", fetch.Kind)
	assert.Equal(t, "10s", fetch.Timeout)
	require.NotNil(t, fetch.MaxRetries)
	assert.Equal(t, 1, *fetch.MaxRetries)

	routed := p.Edges[1]
	require.NotNil(t, routed.When)
	assert.Equal(t, "has_table", routed.When.Key)
	assert.Equal(t, "extract_text", routed.Else)
}

func TestCompile_BuildsRunnableGraph(t *testing.T) {
	p, err := config.Parse([]byte(samplePipeline))
	require.NoError(t, err)

	g, err := config.Compile(p, config.Dependencies{Model: stubModel{}})
	require.NoError(t, err)

	assert.Equal(t, "fetch", g.Entry())
	assert.Equal(t, []string{"fetch", "parse", "extract_table", "extract_text", "validate"}, g.StepIDs())

	assert.Equal(t, "extract_table", g.Next("parse", domain.State{"has_table": true}))
	assert.Equal(t, "extract_text", g.Next("parse", domain.State{"has_table": false}))
	assert.Equal(t, "", g.Next("validate", domain.State{}))

	step, ok := g.Step("fetch")
	require.True(t, ok)
	assert.Equal(t, 1, step.Policy().MaxRetries)
}

func TestCompile_EqualsCondition(t *testing.T) {
	p, err := config.Parse([]byte(`
entry: a
steps:
  - id: a
    kind: parse
  - id: b
    kind: parse
  - id: c
    kind: parse
edges:
  - from: a
    when: {key: status_code, equals: 200}
    to: b
    else: c
`))
	require.NoError(t, err)

	g, err := config.Compile(p, config.Dependencies{})
	require.NoError(t, err)

	// Steps report numbers as ints, YAML literals decode as ints too, but
	// a float-producing step must still match.
	assert.Equal(t, "b", g.Next("a", domain.State{"status_code": 200}))
	assert.Equal(t, "b", g.Next("a", domain.State{"status_code": float64(200)}))
	assert.Equal(t, "c", g.Next("a", domain.State{"status_code": 404}))
}

func TestCompile_Errors(t *testing.T) {
	compile := func(t *testing.T, src string, deps config.Dependencies) error {
		t.Helper()
		p, err := config.Parse([]byte(src))
		require.NoError(t, err)
		_, err = config.Compile(p, deps)
		return err
	}

	t.Run("unknown kind", func(t *testing.T) {
		err := compile(t, `
entry: a
steps:
  - id: a
    kind: teleport
`, config.Dependencies{})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "teleport")
	})

	t.Run("extract without model", func(t *testing.T) {
		err := compile(t, `
entry: a
steps:
  - id: a
    kind: extract
    params:
      fields: [name]
`, config.Dependencies{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chat model")
	})

	t.Run("extract without fields", func(t *testing.T) {
		err := compile(t, `
entry: a
steps:
  - id: a
    kind: extract
`, config.Dependencies{Model: stubModel{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field")
	})

	t.Run("bad timeout", func(t *testing.T) {
		err := compile(t, `
entry: a
steps:
  - id: a
    kind: parse
    timeout: soonish
`, config.Dependencies{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("validate without schema", func(t *testing.T) {
		err := compile(t, `
entry: a
steps:
  - id: a
    kind: validate
`, config.Dependencies{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema")
	})

	t.Run("condition without key", func(t *testing.T) {
		err := compile(t, `
entry: a
steps:
  - id: a
    kind: parse
  - id: b
    kind: parse
edges:
  - from: a
    when: {equals: 1}
    to: b
`, config.Dependencies{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key")
	})
}

func TestLoad_ReadsYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(samplePipeline), 0o644))
	p, err := config.Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "products", p.Name)

	jsonPath := filepath.Join(dir, "pipeline.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name":"mini","entry":"a","steps":[{"id":"a","kind":"parse"}]}`), 0o644))
	p, err = config.Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "mini", p.Name)
	assert.Equal(t, "a", p.Entry)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
