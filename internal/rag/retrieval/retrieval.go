package retrieval

import (
	"errors"
	"math"
	"sort"

	"github.com/smehrotra/docpod/internal/domain/docModel"
)

var ErrDimensionMismatch = errors.New("embedding dimensions do not match")

// ScoredChunk pairs a stored chunk with its similarity to the query.
type ScoredChunk struct {
	Text  string
	Score float64
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Zero vectors score zero rather than NaN.
func CosineSimilarity(a []float32, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// TopK ranks the chunks against the query embedding and returns the best k
// above the floor. Chunks whose vectors cannot be compared are skipped.
func TopK(query []float32, chunks []docModel.ChunkEmbedding, k int, floor float64) []ScoredChunk {
	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score, err := CosineSimilarity(query, chunk.Embedding)
		if err != nil {
			continue
		}
		if score >= floor {
			scored = append(scored, ScoredChunk{Text: chunk.Text, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
