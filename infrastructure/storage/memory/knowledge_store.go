package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/balizero/zantara-agentic/domain/knowledge"
)

// KnowledgeStore is an in-memory knowledge.Store using brute-force cosine
// search. Adequate for corpora up to a few tens of thousands of vectors.
type KnowledgeStore struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]*knowledge.Vector
}

// NewKnowledgeStore creates a store for embeddings of the given dimension.
func NewKnowledgeStore(dimension int) *KnowledgeStore {
	return &KnowledgeStore{
		dimension: dimension,
		vectors:   make(map[string]*knowledge.Vector),
	}
}

// Upsert stores or replaces a vector.
func (s *KnowledgeStore) Upsert(_ context.Context, v *knowledge.Vector) error {
	if v == nil || v.ID == "" {
		return knowledge.ErrInvalidID
	}
	if len(v.Embedding) == 0 {
		return knowledge.ErrInvalidEmbedding
	}
	if len(v.Embedding) != s.dimension {
		return knowledge.ErrDimensionMismatch
	}

	stored := *v
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.Embedding = append([]float32(nil), v.Embedding...)
	if v.Metadata != nil {
		stored.Metadata = make(map[string]string, len(v.Metadata))
		for k, val := range v.Metadata {
			stored.Metadata[k] = val
		}
	}

	s.mu.Lock()
	s.vectors[stored.ID] = &stored
	s.mu.Unlock()
	return nil
}

// Search returns up to topK results sorted by cosine similarity.
func (s *KnowledgeStore) Search(_ context.Context, embedding []float32, topK int) ([]knowledge.SearchResult, error) {
	if len(embedding) != s.dimension {
		return nil, knowledge.ErrDimensionMismatch
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	results := make([]knowledge.SearchResult, 0, len(s.vectors))
	for _, v := range s.vectors {
		results = append(results, knowledge.SearchResult{
			ID:       v.ID,
			Text:     v.Text,
			Score:    cosineSimilarity(embedding, v.Embedding),
			Metadata: v.Metadata,
		})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of stored vectors.
func (s *KnowledgeStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.vectors)), nil
}

// cosineSimilarity maps to [0,1]; orthogonal vectors score 0.5.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32((cos + 1) / 2)
}
