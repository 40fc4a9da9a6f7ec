/*
Package gleaner is a deterministic graph execution engine for structured
data extraction pipelines: fetch a document, parse it, have a language
model pull typed fields out of it, validate the result.

The engine treats a pipeline as a directed graph of steps. Each step
receives an immutable snapshot of the run state and returns a partial
update; the executor owns merging, routing, retries, and timeouts, so a
run over the same graph and inputs always takes the same path through the
trace. Cycles are legal as long as a predicate eventually routes out.

# Usage

Build a graph with the builder, wrap it in an Engine, and run it:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/gleaner"
		"github.com/aretw0/gleaner/pkg/domain"
		"github.com/aretw0/gleaner/pkg/graph"
	)

	func main() {
		g, err := graph.NewBuilder().
			AddStep(domain.NewStep("greet", func(ctx context.Context, s domain.State) (domain.State, error) {
				return domain.State{"greeting": "hello, " + s.String("name")}, nil
			})).
			SetEntry("greet").
			Compile()
		if err != nil {
			log.Fatal(err)
		}

		eng, err := gleaner.New(g)
		if err != nil {
			log.Fatal(err)
		}

		result := eng.Run(context.Background(), domain.State{"name": "world"})
		if result.Failed() {
			log.Fatal(result.Err)
		}
		fmt.Println(result.FinalState["greeting"])
	}

Pipelines can also be declared in YAML and compiled with the config
package; the shipped step kinds (fetch, browser_fetch, parse, extract,
validate) live in pkg/steps. The cmd/gleaner CLI runs and serves
pipelines directly from those definitions.
*/
package gleaner
