package gleaner_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/gleaner"
	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/graph"
)

// Example shows the minimal loop: build a graph, wrap it in an engine, run
// it against an initial state.
func Example() {
	g, err := graph.NewBuilder().
		AddStep(domain.NewStep("greet", func(_ context.Context, s domain.State) (domain.State, error) {
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
	fmt.Println(result.FinalState["greeting"])
	// Output: hello, world
}

// Example_routing demonstrates conditional edges: the predicate picks the
// branch, the second target is the fallback.
func Example_routing() {
	constant := func(id string, delta domain.State) *domain.FuncStep {
		return domain.NewStep(id, func(_ context.Context, _ domain.State) (domain.State, error) {
			return delta, nil
		})
	}

	g, err := graph.NewBuilder().
		AddStep(constant("inspect", domain.State{"has_table": true})).
		AddStep(constant("extract_table", domain.State{"strategy": "table"})).
		AddStep(constant("extract_text", domain.State{"strategy": "text"})).
		AddConditionalEdge("inspect",
			func(s domain.State) bool { return s.Bool("has_table") },
			"extract_table", "extract_text").
		SetEntry("inspect").
		Compile()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := gleaner.New(g)
	if err != nil {
		log.Fatal(err)
	}

	result := eng.Run(context.Background(), domain.State{})
	fmt.Println(result.FinalState["strategy"])
	// Output: table
}
