package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInitialState(t *testing.T) {
	state, err := ParseInitialState([]string{"url=https://example.com", "label=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", state["url"])
	assert.Equal(t, "a=b", state["label"], "only the first = splits")

	_, err = ParseInitialState([]string{"no-equals"})
	require.Error(t, err)

	_, err = ParseInitialState([]string{"=value"})
	require.Error(t, err)
}

func TestBuild_CompilesPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entry: fetch
steps:
  - id: fetch
    kind: fetch
  - id: parse
    kind: parse
edges:
  - from: fetch
    to: parse
`), 0o644))

	rt, err := Build(Options{PipelinePath: path})
	require.NoError(t, err)
	require.NotNil(t, rt.Engine)
	require.NotNil(t, rt.Registry)
	assert.Equal(t, "fetch", rt.Engine.Graph().Entry())
}

func TestBuild_MissingPipeline(t *testing.T) {
	_, err := Build(Options{PipelinePath: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}

func TestBuild_ExtractNeedsModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entry: extract
steps:
  - id: extract
    kind: extract
    params:
      fields: [name]
`), 0o644))

	_, err := Build(Options{PipelinePath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat model")
}
