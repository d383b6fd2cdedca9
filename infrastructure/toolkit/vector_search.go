// Package toolkit provides the built-in tools registered with the
// reasoning engine: semantic retrieval, graph lookup, and arithmetic.
// Retrieval tools emit the structured content+sources payload the engine
// extracts citations from.
package toolkit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/balizero/zantara-agentic/domain/knowledge"
	"github.com/balizero/zantara-agentic/domain/tool"
)

type vectorSearchInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type sourceOut struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Title    string            `json:"title,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type retrievalPayload struct {
	Content string      `json:"content"`
	Sources []sourceOut `json:"sources,omitempty"`
}

// NewVectorSearch builds the semantic retrieval tool over a vector store.
func NewVectorSearch(store knowledge.Store, embedder knowledge.Embedder, defaultTopK int) tool.Tool {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return tool.NewBuilder("vector_search").
		WithDescription("Semantic search over the knowledge base. Input: {\"query\": \"...\"}").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"query": stringProp("the search query"),
			"top_k": intProp("number of results (optional)"),
		}, []string{"query"})).
		WithHandler(func(ctx context.Context, raw json.RawMessage) (tool.Result, error) {
			var input vectorSearchInput
			if err := json.Unmarshal(raw, &input); err != nil || input.Query == "" {
				return tool.Result{}, tool.ErrInvalidInput
			}
			topK := input.TopK
			if topK <= 0 {
				topK = defaultTopK
			}

			embedding, err := embedder.Embed(ctx, input.Query)
			if err != nil {
				return tool.Result{}, fmt.Errorf("embedding query: %w", err)
			}
			results, err := store.Search(ctx, embedding, topK)
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector search: %w", err)
			}

			payload := retrievalPayload{}
			for _, r := range results {
				if payload.Content != "" {
					payload.Content += "\n\n"
				}
				payload.Content += r.Text
				payload.Sources = append(payload.Sources, sourceOut{
					ID:       r.ID,
					Score:    float64(r.Score),
					Title:    r.Metadata["title"],
					Metadata: r.Metadata,
				})
			}
			if payload.Content == "" {
				payload.Content = "No matching documents found."
			}

			out, err := json.Marshal(payload)
			if err != nil {
				return tool.Result{}, err
			}
			return tool.NewResult(out), nil
		}).
		MustBuild()
}
