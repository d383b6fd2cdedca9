package toolkit

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/balizero/zantara-agentic/domain/tool"
)

// Triple is one subject-predicate-object fact in the knowledge graph.
type Triple struct {
	Subject   string  `json:"subject"`
	Predicate string  `json:"predicate"`
	Object    string  `json:"object"`
	Weight    float64 `json:"weight"` // relevance weight, reported as the citation score
}

// Graph is a small in-memory triple store for entity lookups.
type Graph struct {
	mu      sync.RWMutex
	triples []Triple
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add inserts facts into the graph.
func (g *Graph) Add(triples ...Triple) {
	g.mu.Lock()
	g.triples = append(g.triples, triples...)
	g.mu.Unlock()
}

// Lookup returns every triple whose subject or object contains the entity,
// case-insensitively.
func (g *Graph) Lookup(entity string) []Triple {
	needle := strings.ToLower(entity)
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Triple
	for _, t := range g.triples {
		if strings.Contains(strings.ToLower(t.Subject), needle) ||
			strings.Contains(strings.ToLower(t.Object), needle) {
			out = append(out, t)
		}
	}
	return out
}

type graphSearchInput struct {
	Entity string `json:"entity"`
}

// NewGraphSearch builds the entity relationship lookup tool.
func NewGraphSearch(graph *Graph) tool.Tool {
	return tool.NewBuilder("graph_search").
		WithDescription("Look up relationships for an entity in the knowledge graph. Input: {\"entity\": \"...\"}").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"entity": stringProp("the entity to look up"),
		}, []string{"entity"})).
		WithHandler(func(_ context.Context, raw json.RawMessage) (tool.Result, error) {
			var input graphSearchInput
			if err := json.Unmarshal(raw, &input); err != nil || input.Entity == "" {
				return tool.Result{}, tool.ErrInvalidInput
			}

			triples := graph.Lookup(input.Entity)
			payload := retrievalPayload{}
			for i, t := range triples {
				if payload.Content != "" {
					payload.Content += "\n"
				}
				payload.Content += t.Subject + " " + t.Predicate + " " + t.Object + "."
				payload.Sources = append(payload.Sources, sourceOut{
					ID:    "graph-" + input.Entity + "-" + strconv.Itoa(i),
					Score: t.Weight,
					Title: t.Subject + " " + t.Predicate,
				})
			}
			if payload.Content == "" {
				payload.Content = "No graph relationships found for " + input.Entity + "."
			}

			out, err := json.Marshal(payload)
			if err != nil {
				return tool.Result{}, err
			}
			return tool.NewResult(out), nil
		}).
		MustBuild()
}
