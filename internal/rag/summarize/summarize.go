package summarize

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/rag/chunker"
	"github.com/smehrotra/docpod/internal/rag/llm"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

const partSystemPrompt = "You are a helpful assistant that provides concise but informative summaries of document sections."

const combineSystemPrompt = "You are a helpful assistant that combines multiple document summaries into a single coherent summary. " +
	"Maintain the key points while eliminating redundancy."

// Summarizer produces a document summary hierarchically: each part within
// the model's context budget is summarized on its own, then the part
// summaries are combined. Part calls are paced against the provider rate
// limit.
type Summarizer struct {
	provider llm.Provider
	limiter  *rate.Limiter
	logger   *logger_i.Logger
}

func New(provider llm.Provider) *Summarizer {
	return &Summarizer{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(1), 1),
		logger:   logger_i.NewLogger("Summarizer"),
	}
}

func (s *Summarizer) Summarize(ctx context.Context, name string, fullText string) (string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "document", name)

	parts := chunker.SplitIntoChunks(fullText, config.MaxChunkTokens)
	if len(parts) == 0 {
		return "", fmt.Errorf("nothing to summarize")
	}
	log.Debug("Summarizing document", "parts", len(parts))

	summaries := make([]string, 0, len(parts))
	for i, part := range parts {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
		prompt := fmt.Sprintf("Please summarize this section of the document titled %q (Part %d of %d):\n\n%s",
			name, i+1, len(parts), part)
		summary, err := s.provider.Complete(ctx, partSystemPrompt, prompt)
		if err != nil {
			log.Error("Part summary failed", "part", i+1, "err", err)
			return "", fmt.Errorf("summarizing part %d: %w", i+1, err)
		}
		summaries = append(summaries, strings.TrimSpace(summary))
	}

	if len(summaries) == 1 {
		return summaries[0], nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	prompt := fmt.Sprintf("Please combine these summaries of the document %q into a single coherent summary:\n\n%s",
		name, strings.Join(summaries, "\n\n"))
	combined, err := s.provider.Complete(ctx, combineSystemPrompt, prompt)
	if err != nil {
		log.Error("Combining summaries failed", "err", err)
		return "", fmt.Errorf("combining summaries: %w", err)
	}
	return strings.TrimSpace(combined), nil
}
