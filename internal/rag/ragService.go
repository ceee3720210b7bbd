package rag

import (
	"context"
	"errors"
	"time"

	"github.com/smehrotra/docpod/internal/adapter/utils"
	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/data/tieredStore"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/internal/rag/answerCache"
	"github.com/smehrotra/docpod/internal/rag/embedding"
	"github.com/smehrotra/docpod/internal/rag/llm"
	"github.com/smehrotra/docpod/internal/rag/retrieval"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

// ErrNeedsEmbeddings means the document has no stored embeddings yet and
// chat cannot run until an analysis pass creates them.
var ErrNeedsEmbeddings = errors.New("document has no embeddings")

type ChatResult struct {
	Answer         string
	RelevantChunks int
}

// Service answers questions about a document using its stored embeddings.
type Service interface {
	Chat(ctx context.Context, documentID string, question string, extraContext string) (ChatResult, error)
}

type service struct {
	tiered      *tieredStore.Store
	records     docModel.RecordStore
	messages    docModel.MessageStore
	cache       answerCache.Cache
	embedder    embedding.Embedder
	llmProvider llm.Provider
	logger      *logger_i.Logger
}

// NewService constructor. The cache and message store may be nil, chat
// degrades to uncached stateless answers.
func NewService(tiered *tieredStore.Store, records docModel.RecordStore, messages docModel.MessageStore,
	cache answerCache.Cache, em embedding.Embedder, provider llm.Provider) Service {
	return &service{
		tiered:      tiered,
		records:     records,
		messages:    messages,
		cache:       cache,
		embedder:    em,
		llmProvider: provider,
		logger:      logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) Chat(ctx context.Context, documentID string, question string, extraContext string) (ChatResult, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)

	processContext, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	set, err := s.tiered.Load(processContext, documentID)
	if err != nil {
		log.Error("Loading embeddings failed", "error", err)
		return ChatResult{}, err
	}
	if set == nil || len(set.DocumentEmbedding) == 0 {
		return ChatResult{}, ErrNeedsEmbeddings
	}

	queryVector, err := s.executeEmbeddingStep(processContext, question)
	if err != nil {
		log.Error("Embedding the question failed", "error", err)
		return ChatResult{}, err
	}

	if cached, found := s.executeCacheCheckStep(processContext, documentID, queryVector); found {
		s.saveExchange(ctx, log, documentID, question, cached)
		return ChatResult{Answer: cached}, nil
	}

	matches := s.executeRetrievalStep(queryVector, set)
	log.Debug("Retrieved chunks", "count", len(matches))

	history := s.recentHistory(processContext, log, documentID)

	summary := ""
	if record, recErr := s.records.GetRecord(processContext, documentID); recErr == nil && record != nil {
		summary = record.Summary
	}

	answer, err := s.executeLLMStep(processContext, question, matches, summary, history, extraContext)
	if err != nil {
		log.Error("Answer generation failed", "error", err)
		return ChatResult{}, err
	}

	s.saveExchange(ctx, log, documentID, question, answer)

	if s.cache != nil {
		go func() {
			if err := s.cache.Store(context.WithoutCancel(ctx), documentID, utils.GetNewUUID(), queryVector, answer); err != nil {
				s.logger.Error("Failed to save to cache")
			}
		}()
	}

	return ChatResult{Answer: answer, RelevantChunks: len(matches)}, nil
}

func (s *service) saveExchange(ctx context.Context, log *logger_i.Logger, documentID string, question string, answer string) {
	if s.messages == nil {
		return
	}
	if err := s.messages.SaveExchange(ctx, documentID, question, answer); err != nil {
		log.Error("Failed to save chat exchange", "error", err)
	}
}

func (s *service) recentHistory(ctx context.Context, log *logger_i.Logger, documentID string) []string {
	if s.messages == nil {
		return nil
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("chat_history", time.Since(start)) }()

	history, err := s.messages.RecentHistory(ctx, documentID, config.ChatHistoryWindow)
	if err != nil {
		log.Error("Failed to load chat history", "error", err)
		return nil
	}
	return history
}

func (s *service) executeRetrievalStep(queryVector []float32, set *docModel.EmbeddingSet) []retrieval.ScoredChunk {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	return retrieval.TopK(queryVector, set.Chunks, config.RetrievalTopK, config.SimilarityFloor)
}
