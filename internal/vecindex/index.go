// Package vecindex is the gateway to the external vector store. The core only
// depends on the three operations below; index creation, dimension setup and
// persistence are deployment concerns of the chosen backend.
package vecindex

import (
	"context"
	"math"
)

type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Index is the vector store contract. Query returns matches in descending
// score order; topK is a hard cap, not a minimum. The filter is an exact-match
// conjunction over metadata key/value pairs.
type Index interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error)
	Delete(ctx context.Context, ids []string) error
}

// Lister is an optional capability: backends that can enumerate their ids
// support stale-entry sweeping. ListIDs pages in ascending id order,
// returning ids strictly greater than afterID.
type Lister interface {
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
