package embedding

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
}

// Result carries the outcome for one chunk. Failed results keep their slot
// so callers can line results up with their input chunks.
type Result struct {
	Vector []float32
	Failed bool
}

// FailureEmbedding is the sentinel stored when no chunk could be embedded.
// All zeroes at the model dimensionality, it matches nothing at retrieval
// time but keeps the record shape intact.
func FailureEmbedding() []float32 {
	return make([]float32, config.EmbeddingOutputDimensionality)
}

// Manager fans chunk embedding out in small parallel groups and paces the
// groups against the provider rate limit.
type Manager struct {
	embedder  Embedder
	limiter   *rate.Limiter
	groupSize int
	logger    *logger_i.Logger
}

func NewManager(embedder Embedder) *Manager {
	return &Manager{
		embedder:  embedder,
		limiter:   rate.NewLimiter(rate.Limit(config.EmbeddingGroupsPerSecond), 1),
		groupSize: config.EmbeddingGroupSize,
		logger:    logger_i.NewLogger("EmbeddingManager"),
	}
}

// EmbedChunks embeds every chunk, groupSize at a time in parallel. A chunk
// whose call fails is marked Failed rather than sinking the whole batch.
func (m *Manager) EmbedChunks(ctx context.Context, chunks []string) []Result {
	log := m.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chunks", len(chunks))
	results := make([]Result, len(chunks))
	metrics.AddChunksEmbedded(len(chunks))

	for start := 0; start < len(chunks); start += m.groupSize {
		if err := m.limiter.Wait(ctx); err != nil {
			log.Error("embedding cancelled", "err", err)
			for i := start; i < len(chunks); i++ {
				results[i] = Result{Failed: true}
			}
			return results
		}

		end := start + m.groupSize
		if end > len(chunks) {
			end = len(chunks)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				callStart := time.Now()
				vector, err := m.embedder.GetEmbedding(ctx, chunks[idx])
				metrics.CaptureExecutionMetrics("embedding", time.Since(callStart))
				if err != nil || len(vector) == 0 {
					log.Error("chunk embedding failed", "chunk", idx, "err", err)
					metrics.IncrementEmbeddingFailures()
					results[idx] = Result{Failed: true}
					return
				}
				results[idx] = Result{Vector: vector}
			}(i)
		}
		wg.Wait()
	}
	return results
}

// SuccessfulVectors drops failed slots, preserving order.
func SuccessfulVectors(results []Result) [][]float32 {
	vectors := make([][]float32, 0, len(results))
	for _, r := range results {
		if !r.Failed {
			vectors = append(vectors, r.Vector)
		}
	}
	return vectors
}

// AverageEmbeddings computes the unweighted mean of the vectors. With no
// vectors to average it returns the failure sentinel.
func AverageEmbeddings(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return FailureEmbedding()
	}
	avg := make([]float32, len(vectors[0]))
	for _, vector := range vectors {
		for i, v := range vector {
			avg[i] += v
		}
	}
	for i := range avg {
		avg[i] /= float32(len(vectors))
	}
	return avg
}
