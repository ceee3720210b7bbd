package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/internal/rag/retrieval"
)

const chatSystemPrompt = "You are a helpful assistant that answers questions about documents. " +
	"Use the provided document context to answer accurately. " +
	"If the context does not contain the answer, say so instead of guessing."

func (s *service) executeEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, question)
}

func (s *service) executeCacheCheckStep(ctx context.Context, documentID string, queryVector []float32) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	ans, found, _ := s.cache.Lookup(ctx, documentID, queryVector)
	return ans, found
}

func (s *service) executeLLMStep(ctx context.Context, question string, matches []retrieval.ScoredChunk,
	summary string, history []string, extraContext string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Complete(ctx, chatSystemPrompt, buildChatPrompt(question, matches, summary, history, extraContext))
}

// buildChatPrompt layers the context sections: retrieved chunks first,
// then the document summary, recent conversation and any caller supplied
// context, ending with the question.
func buildChatPrompt(question string, matches []retrieval.ScoredChunk, summary string, history []string, extraContext string) string {
	var b strings.Builder

	for i, match := range matches {
		fmt.Fprintf(&b, "Relevant Section %d (score: %.2f):\n%s\n\n", i+1, match.Score, match.Text)
	}
	if summary != "" {
		b.WriteString("Document Summary:\n" + summary + "\n\n")
	}
	if len(history) > 0 {
		b.WriteString("Previous Conversation:\n" + strings.Join(history, "\n") + "\n\n")
	}
	if extraContext != "" {
		b.WriteString("Additional Context:\n" + extraContext + "\n\n")
	}

	b.WriteString("User Question: " + question)
	return b.String()
}
