// Package cli assembles engines from CLI conventions: a pipeline file,
// model credentials from flags or the environment, and an optional Redis
// store for run persistence.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/gleaner"
	"github.com/aretw0/gleaner/internal/logging"
	"github.com/aretw0/gleaner/pkg/adapters/memory"
	"github.com/aretw0/gleaner/pkg/adapters/redis"
	"github.com/aretw0/gleaner/pkg/config"
	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/llm"
	"github.com/aretw0/gleaner/pkg/observability"
	"github.com/aretw0/gleaner/pkg/ports"
)

// Options carries everything a command needs to build an engine.
type Options struct {
	PipelinePath string

	Model   string
	APIKey  string
	BaseURL string
	RPS     float64
	Burst   int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MaxSteps int
	Verbose  bool

	// StubModel substitutes a placeholder model when none is configured,
	// so pipelines with extract steps can be compiled without credentials
	// (validate-only flows).
	StubModel bool
}

// Runtime is the assembled result: the engine plus the pieces a command
// may want to mount elsewhere (metrics registry, logger).
type Runtime struct {
	Engine   *gleaner.Engine
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Build loads the pipeline definition, compiles it, and wires the engine
// with standard CLI conventions.
func Build(opts Options) (*Runtime, error) {
	logger := newLogger(opts.Verbose)

	pipeline, err := config.Load(opts.PipelinePath)
	if err != nil {
		return nil, err
	}

	deps := config.Dependencies{Model: buildModel(opts)}
	g, err := config.Compile(pipeline, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pipeline %q: %w", opts.PipelinePath, err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	engineOpts := []gleaner.Option{
		gleaner.WithLogger(logger),
		gleaner.WithHooks(metrics.Hooks()),
		gleaner.WithStore(buildStore(opts)),
	}
	if opts.MaxSteps > 0 {
		engineOpts = append(engineOpts, gleaner.WithMaxSteps(opts.MaxSteps))
	}

	engine, err := gleaner.New(g, engineOpts...)
	if err != nil {
		return nil, err
	}
	return &Runtime{Engine: engine, Registry: registry, Logger: logger}, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logging.New(level)
}

// buildModel constructs the chat model client when one is configured.
// Extract-less pipelines run fine without it.
func buildModel(opts Options) ports.ChatModel {
	if opts.Model == "" {
		if opts.StubModel {
			return unconfiguredModel{}
		}
		return nil
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	var clientOpts []llm.ClientOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, llm.WithBaseURL(opts.BaseURL))
	}
	var model ports.ChatModel = llm.NewClient(opts.Model, apiKey, clientOpts...)
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		model = llm.NewRateLimited(model, opts.RPS, burst)
	}
	return model
}

// unconfiguredModel satisfies the port for validate-only builds. Running it
// is a configuration mistake, so it fails fatally.
type unconfiguredModel struct{}

func (unconfiguredModel) Complete(context.Context, string) (string, error) {
	return "", domain.Fatalf("no chat model configured: pass --model")
}

func buildStore(opts Options) ports.RunStore {
	if opts.RedisAddr == "" {
		return memory.NewStore()
	}
	return redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
}

// ParseInitialState turns repeated --set key=value flags into the initial
// run state.
func ParseInitialState(pairs []string) (map[string]any, error) {
	state := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q: expected key=value", pair)
		}
		state[key] = value
	}
	return state, nil
}
