package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/data/store"
	"github.com/smehrotra/docpod/internal/data/tieredStore"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/rag/embedding"
)

type recordsMock struct {
	record       *docModel.AnalysisRecord
	savedData    string
	savedMethod  string
	savedSummary string
	statuses     []docModel.PipelineStatus
}

func (m *recordsMock) GetRecord(ctx context.Context, documentID string) (*docModel.AnalysisRecord, error) {
	return m.record, nil
}

func (m *recordsMock) SaveEmbeddings(ctx context.Context, documentID string, embeddingData string, url string, chunksCount int, method string) error {
	m.savedData = embeddingData
	m.savedMethod = method
	return nil
}

func (m *recordsMock) SaveSummary(ctx context.Context, documentID string, name string, summary string, processingMethod string) error {
	m.savedSummary = summary
	m.statuses = append(m.statuses, docModel.StatusCompleted)
	return nil
}

func (m *recordsMock) SetAnalysisStatus(ctx context.Context, documentID string, status docModel.PipelineStatus, errMsg string) error {
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *recordsMock) MarkPodcastProcessing(ctx context.Context, documentID string, name string) error {
	return nil
}

func (m *recordsMock) CompletePodcast(ctx context.Context, documentID string, script string, audioURL string) error {
	return nil
}

func (m *recordsMock) FailPodcast(ctx context.Context, documentID string, errMsg string) error {
	return nil
}

type extractorMock struct {
	extractFn func(ctx context.Context, doc docModel.Document) (*docModel.ExtractedText, error)
	called    bool
}

func (m *extractorMock) Extract(ctx context.Context, doc docModel.Document) (*docModel.ExtractedText, error) {
	m.called = true
	return m.extractFn(ctx, doc)
}

type summarizerMock struct {
	summarizeFn func(ctx context.Context, name string, fullText string) (string, error)
}

func (m *summarizerMock) Summarize(ctx context.Context, name string, fullText string) (string, error) {
	return m.summarizeFn(ctx, name, fullText)
}

type embedderStub struct{}

func (embedderStub) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 2}, nil
}

func newTestAnalyzer(records *recordsMock, extractor *extractorMock, summarizer *summarizerMock) *Analyzer {
	tiered := tieredStore.New(records, nil)
	return NewAnalyzer(records, tiered, store.InitLeaseStore(), extractor,
		embedding.NewManager(embedderStub{}), summarizer)
}

func testDoc() docModel.Document {
	return docModel.Document{Id: "doc-1", SourceURL: "https://cdn.example.com/doc.pdf", Name: "Test Doc"}
}

func TestAnalyze_ReturnsCachedSummary(t *testing.T) {
	records := &recordsMock{record: &docModel.AnalysisRecord{
		DocumentID:       "doc-1",
		Summary:          "cached summary",
		ProcessingMethod: "direct",
		AnalysisStatus:   docModel.StatusCompleted,
	}}
	extractor := &extractorMock{}
	a := newTestAnalyzer(records, extractor, &summarizerMock{})

	result, err := a.Analyze(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !result.Cached || result.Summary != "cached summary" {
		t.Errorf("Expected cached result, got %+v", result)
	}
	if extractor.called {
		t.Error("Extractor should not run for a cached document")
	}
}

func TestAnalyze_FullRun(t *testing.T) {
	records := &recordsMock{}
	extractor := &extractorMock{
		extractFn: func(ctx context.Context, doc docModel.Document) (*docModel.ExtractedText, error) {
			return &docModel.ExtractedText{Pages: []docModel.PageText{
				{Number: 1, Text: "First page text here.", Method: docModel.MethodDirect},
				{Number: 2, Text: "Second page text here.", Method: docModel.MethodDirect},
			}}, nil
		},
	}
	summarizer := &summarizerMock{
		summarizeFn: func(ctx context.Context, name string, fullText string) (string, error) {
			if !strings.Contains(fullText, "First page") || !strings.Contains(fullText, "Second page") {
				t.Errorf("Summarizer did not receive the full text: %q", fullText)
			}
			return "fresh summary", nil
		},
	}
	a := newTestAnalyzer(records, extractor, summarizer)

	result, err := a.Analyze(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Cached {
		t.Error("Fresh run should not report cached")
	}
	if result.Summary != "fresh summary" {
		t.Errorf("Unexpected summary: %q", result.Summary)
	}
	if result.ProcessingMethod != "direct" {
		t.Errorf("Unexpected method: %q", result.ProcessingMethod)
	}

	var set docModel.EmbeddingSet
	if err := json.Unmarshal([]byte(records.savedData), &set); err != nil {
		t.Fatalf("Stored embeddings are not valid JSON: %v", err)
	}
	if len(set.Chunks) == 0 {
		t.Error("Expected stored chunks")
	}
	if len(set.DocumentEmbedding) != 2 {
		t.Errorf("Expected averaged document embedding, got %v", set.DocumentEmbedding)
	}
	if records.savedSummary != "fresh summary" {
		t.Error("Summary was not persisted")
	}

	if len(records.statuses) < 2 || records.statuses[0] != docModel.StatusProcessing {
		t.Errorf("Expected processing status first, got %v", records.statuses)
	}
	if records.statuses[len(records.statuses)-1] != docModel.StatusCompleted {
		t.Errorf("Expected completed status last, got %v", records.statuses)
	}
}

func TestAnalyze_ExtractionFailureStoresSentinelAndCompletes(t *testing.T) {
	records := &recordsMock{}
	extractor := &extractorMock{
		extractFn: func(ctx context.Context, doc docModel.Document) (*docModel.ExtractedText, error) {
			return nil, errors.New("unreadable pdf")
		},
	}
	summarizer := &summarizerMock{
		summarizeFn: func(ctx context.Context, name string, fullText string) (string, error) {
			if fullText != extractionFailureChunk {
				t.Errorf("Summarizer should receive the sentinel text, got %q", fullText)
			}
			return "This document could not be read.", nil
		},
	}
	a := newTestAnalyzer(records, extractor, summarizer)

	result, err := a.Analyze(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Failed extraction should still produce an analysis: %v", err)
	}
	if result.Cached {
		t.Error("Sentinel analysis should not report cached")
	}
	if result.Summary != "This document could not be read." {
		t.Errorf("Expected sentinel-derived summary, got %q", result.Summary)
	}

	var set docModel.EmbeddingSet
	if err := json.Unmarshal([]byte(records.savedData), &set); err != nil {
		t.Fatalf("Sentinel record is not valid JSON: %v", err)
	}
	if !set.Metadata.Error {
		t.Error("Sentinel metadata should carry the error flag")
	}
	if len(set.Chunks) != 1 || set.Chunks[0].Text != extractionFailureChunk {
		t.Errorf("Unexpected sentinel chunks: %+v", set.Chunks)
	}
	if len(set.DocumentEmbedding) != int(config.EmbeddingOutputDimensionality) {
		t.Error("Sentinel embedding has wrong dimensionality")
	}
	for _, v := range set.DocumentEmbedding {
		if v != 0 {
			t.Fatal("Sentinel embedding must be all zeroes")
		}
	}

	if records.statuses[len(records.statuses)-1] != docModel.StatusCompleted {
		t.Errorf("Expected completed status last, got %v", records.statuses)
	}
	if records.savedSummary != "This document could not be read." {
		t.Error("Sentinel summary was not persisted")
	}
}

func TestAnalyze_LeaseBlocksConcurrentRun(t *testing.T) {
	records := &recordsMock{}
	extractor := &extractorMock{
		extractFn: func(ctx context.Context, doc docModel.Document) (*docModel.ExtractedText, error) {
			return &docModel.ExtractedText{Pages: []docModel.PageText{{Number: 1, Text: "text"}}}, nil
		},
	}
	leases := store.InitLeaseStore()
	tiered := tieredStore.New(records, nil)
	a := NewAnalyzer(records, tiered, leases, extractor,
		embedding.NewManager(embedderStub{}), &summarizerMock{
			summarizeFn: func(ctx context.Context, name string, fullText string) (string, error) {
				return "summary", nil
			},
		})

	if !leases.TryAcquire(context.Background(), docModel.KindAnalysis, "doc-1", config.AnalysisLeaseTTL) {
		t.Fatal("Pre-acquiring lease failed")
	}

	if _, err := a.Analyze(context.Background(), testDoc()); !errors.Is(err, ErrAlreadyProcessing) {
		t.Errorf("Expected ErrAlreadyProcessing, got %v", err)
	}
}

func TestCreateEmbeddings_ReturnsChunkCount(t *testing.T) {
	records := &recordsMock{}
	extractor := &extractorMock{
		extractFn: func(ctx context.Context, doc docModel.Document) (*docModel.ExtractedText, error) {
			return &docModel.ExtractedText{Pages: []docModel.PageText{
				{Number: 1, Text: "Some document text worth embedding."},
			}}, nil
		},
	}
	a := newTestAnalyzer(records, extractor, &summarizerMock{})

	count, err := a.CreateEmbeddings(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("CreateEmbeddings failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 chunk, got %d", count)
	}
	if records.savedData == "" {
		t.Error("Embeddings were not stored")
	}
}
