package rag_test

import (
	"context"

	"github.com/smehrotra/docpod/internal/domain/docModel"
)

// MockRecords implements docModel.RecordStore
type MockRecords struct {
	// Control fields to simulate different behaviors
	OnGetRecord      func(ctx context.Context, documentID string) (*docModel.AnalysisRecord, error)
	OnSaveEmbeddings func(ctx context.Context, documentID string, embeddingData string, url string, chunksCount int, method string) error
	OnSaveSummary    func(ctx context.Context, documentID string, name string, summary string, processingMethod string) error
	OnSetStatus      func(ctx context.Context, documentID string, status docModel.PipelineStatus, errMsg string) error
}

func (m *MockRecords) GetRecord(ctx context.Context, documentID string) (*docModel.AnalysisRecord, error) {
	if m.OnGetRecord != nil {
		return m.OnGetRecord(ctx, documentID)
	}
	return nil, nil
}

func (m *MockRecords) SaveEmbeddings(ctx context.Context, documentID string, embeddingData string, url string, chunksCount int, method string) error {
	if m.OnSaveEmbeddings != nil {
		return m.OnSaveEmbeddings(ctx, documentID, embeddingData, url, chunksCount, method)
	}
	return nil
}

func (m *MockRecords) SaveSummary(ctx context.Context, documentID string, name string, summary string, processingMethod string) error {
	if m.OnSaveSummary != nil {
		return m.OnSaveSummary(ctx, documentID, name, summary, processingMethod)
	}
	return nil
}

func (m *MockRecords) SetAnalysisStatus(ctx context.Context, documentID string, status docModel.PipelineStatus, errMsg string) error {
	if m.OnSetStatus != nil {
		return m.OnSetStatus(ctx, documentID, status, errMsg)
	}
	return nil
}

func (m *MockRecords) MarkPodcastProcessing(ctx context.Context, documentID string, name string) error {
	return nil
}

func (m *MockRecords) CompletePodcast(ctx context.Context, documentID string, script string, audioURL string) error {
	return nil
}

func (m *MockRecords) FailPodcast(ctx context.Context, documentID string, errMsg string) error {
	return nil
}

// MockCache implements answerCache.Cache
type MockCache struct {
	OnLookup func(ctx context.Context, documentID string, queryVector []float32) (string, bool, error)
	OnStore  func(ctx context.Context, documentID string, id string, vector []float32, answer string) error
}

func (m *MockCache) Lookup(ctx context.Context, documentID string, queryVector []float32) (string, bool, error) {
	if m.OnLookup != nil {
		return m.OnLookup(ctx, documentID, queryVector)
	}
	return "", false, nil
}

func (m *MockCache) Store(ctx context.Context, documentID string, id string, vector []float32, answer string) error {
	if m.OnStore != nil {
		return m.OnStore(ctx, documentID, id, vector, answer)
	}
	return nil
}

// MockMessages implements docModel.MessageStore
type MockMessages struct {
	OnSaveExchange  func(ctx context.Context, documentID string, question string, answer string) error
	OnRecentHistory func(ctx context.Context, documentID string, limit int) ([]string, error)
}

func (m *MockMessages) SaveExchange(ctx context.Context, documentID string, question string, answer string) error {
	if m.OnSaveExchange != nil {
		return m.OnSaveExchange(ctx, documentID, question, answer)
	}
	return nil
}

func (m *MockMessages) RecentHistory(ctx context.Context, documentID string, limit int) ([]string, error) {
	if m.OnRecentHistory != nil {
		return m.OnRecentHistory(ctx, documentID, limit)
	}
	return nil, nil
}

type MockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, system string, user string) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, system string, user string) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, system, user)
	}
	return "mocked llm response", nil
}
