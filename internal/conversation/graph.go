package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Start and End are the virtual entry and exit nodes of a graph.
const (
	Start = "__start__"
	End   = "__end__"
)

// maxSteps bounds a single run so a miswired graph cannot spin.
const maxSteps = 100

// ErrAwaitInput is returned by a node that needs user input before it
// can proceed. The run pauses there and resumes on the next Run call.
var ErrAwaitInput = errors.New("awaiting user input")

// NodeFunc mutates the state at one workflow step.
type NodeFunc func(ctx context.Context, st *State) error

// RouterFunc picks the label of the outgoing conditional edge.
type RouterFunc func(st *State) string

type conditional struct {
	router  RouterFunc
	targets map[string]string
}

// GraphBuilder assembles nodes and edges before compilation.
type GraphBuilder struct {
	nodes        map[string]NodeFunc
	edges        map[string]string
	conditionals map[string]conditional
}

// NewGraphBuilder creates an empty workflow builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		nodes:        make(map[string]NodeFunc),
		edges:        make(map[string]string),
		conditionals: make(map[string]conditional),
	}
}

// AddNode registers a named step.
func (b *GraphBuilder) AddNode(name string, fn NodeFunc) *GraphBuilder {
	b.nodes[name] = fn
	return b
}

// AddEdge registers an unconditional transition.
func (b *GraphBuilder) AddEdge(from, to string) *GraphBuilder {
	b.edges[from] = to
	return b
}

// AddConditionalEdges registers a router on a node. The router's
// return value selects the next node from targets.
func (b *GraphBuilder) AddConditionalEdges(from string, router RouterFunc, targets map[string]string) *GraphBuilder {
	b.conditionals[from] = conditional{router: router, targets: targets}
	return b
}

// Compile validates the graph and returns a runnable form. Every edge
// must point at a registered node or End, every node must have a way
// out, and Start must lead somewhere.
func (b *GraphBuilder) Compile() (*Graph, error) {
	if _, ok := b.edges[Start]; !ok {
		return nil, errors.New("graph has no entry edge")
	}

	check := func(from, to string) error {
		if to == End {
			return nil
		}
		if _, ok := b.nodes[to]; !ok {
			return fmt.Errorf("edge from %q targets unknown node %q", from, to)
		}
		return nil
	}

	for from, to := range b.edges {
		if from != Start {
			if _, ok := b.nodes[from]; !ok {
				return nil, fmt.Errorf("edge from unknown node %q", from)
			}
		}
		if err := check(from, to); err != nil {
			return nil, err
		}
	}
	for from, c := range b.conditionals {
		if _, ok := b.nodes[from]; !ok {
			return nil, fmt.Errorf("conditional edge from unknown node %q", from)
		}
		for _, to := range c.targets {
			if err := check(from, to); err != nil {
				return nil, err
			}
		}
	}
	for name := range b.nodes {
		_, hasEdge := b.edges[name]
		_, hasCond := b.conditionals[name]
		if !hasEdge && !hasCond {
			return nil, fmt.Errorf("node %q has no outgoing edge", name)
		}
	}

	return &Graph{
		nodes:        b.nodes,
		edges:        b.edges,
		conditionals: b.conditionals,
	}, nil
}

// Graph is a compiled workflow.
type Graph struct {
	nodes        map[string]NodeFunc
	edges        map[string]string
	conditionals map[string]conditional
}

// Run executes the workflow from st.NextNode (or the entry edge when
// empty) until it reaches End or a node pauses with ErrAwaitInput.
// After a pause st.NextNode names the node to resume at; after End
// st.Ended is true.
func (g *Graph) Run(ctx context.Context, st *State) error {
	current := st.NextNode
	if current == "" {
		current = g.edges[Start]
	}
	st.NextNode = ""

	for steps := 0; ; steps++ {
		if steps >= maxSteps {
			return fmt.Errorf("graph exceeded %d steps at node %q", maxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if current == End {
			st.Ended = true
			return nil
		}

		fn, ok := g.nodes[current]
		if !ok {
			return fmt.Errorf("unknown node %q", current)
		}

		log.Debug().Str("sessionId", st.SessionID).Str("node", current).Msg("Running workflow node")

		if err := fn(ctx, st); err != nil {
			if errors.Is(err, ErrAwaitInput) {
				st.NextNode = current
				return nil
			}
			return fmt.Errorf("node %q: %w", current, err)
		}

		next, err := g.next(current, st)
		if err != nil {
			return err
		}
		current = next
	}
}

func (g *Graph) next(current string, st *State) (string, error) {
	if c, ok := g.conditionals[current]; ok {
		label := c.router(st)
		to, ok := c.targets[label]
		if !ok {
			return "", fmt.Errorf("node %q router returned unknown label %q", current, label)
		}
		return to, nil
	}
	if to, ok := g.edges[current]; ok {
		return to, nil
	}
	return "", fmt.Errorf("node %q has no outgoing edge", current)
}
