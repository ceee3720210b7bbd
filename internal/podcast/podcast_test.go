package podcast

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/data/store"
	"github.com/smehrotra/docpod/internal/data/tieredStore"
	"github.com/smehrotra/docpod/internal/domain/docModel"
)

func TestParseScript(t *testing.T) {
	script := "[ALEX:] Hello there.\n[JORDAN:] Hi Alex!\nMore Jordan text."

	segments := ParseScript(script)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Speaker != docModel.SpeakerAlex || segments[0].Text != "Hello there." {
		t.Errorf("unexpected first segment: %+v", segments[0])
	}
	if segments[1].Speaker != docModel.SpeakerJordan || segments[1].Text != "Hi Alex! More Jordan text." {
		t.Errorf("unexpected second segment: %+v", segments[1])
	}
}

func TestParseScript_TagVariants(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		speaker docModel.Speaker
		text    string
	}{
		{"bracketed with colon", "[ALEX:] first line", docModel.SpeakerAlex, "first line"},
		{"bare colon", "JORDAN: second line", docModel.SpeakerJordan, "second line"},
		{"lowercase", "alex: third line", docModel.SpeakerAlex, "third line"},
		{"bracket no inner colon", "[JORDAN]: fourth line", docModel.SpeakerJordan, "fourth line"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			segments := ParseScript(tc.line)
			if len(segments) != 1 {
				t.Fatalf("expected 1 segment, got %d", len(segments))
			}
			if segments[0].Speaker != tc.speaker || segments[0].Text != tc.text {
				t.Errorf("got %+v", segments[0])
			}
		})
	}
}

func TestParseScript_TagOnOwnLine(t *testing.T) {
	script := "[ALEX:]\nHello there.\n[JORDAN:]\nHi, great to be here.\nReally glad."

	segments := ParseScript(script)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Speaker != docModel.SpeakerAlex || segments[0].Text != "Hello there." {
		t.Errorf("unexpected first segment: %+v", segments[0])
	}
	if segments[1].Speaker != docModel.SpeakerJordan || segments[1].Text != "Hi, great to be here. Really glad." {
		t.Errorf("unexpected second segment: %+v", segments[1])
	}
}

func TestParseScript_DiscardsUntaggedPreamble(t *testing.T) {
	script := "Here is your podcast script:\n\n[ALEX:] Welcome to the show."

	segments := ParseScript(script)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Text != "Welcome to the show." {
		t.Errorf("unexpected text %q", segments[0].Text)
	}
}

func TestParseScript_EmptyScript(t *testing.T) {
	if segments := ParseScript(""); len(segments) != 0 {
		t.Errorf("expected no segments, got %d", len(segments))
	}
}

type recordsMock struct {
	record       *docModel.AnalysisRecord
	processing   bool
	completed    bool
	script       string
	audioURL     string
	failedWith   string
	savedSummary string
}

func (m *recordsMock) GetRecord(ctx context.Context, documentID string) (*docModel.AnalysisRecord, error) {
	return m.record, nil
}

func (m *recordsMock) SaveEmbeddings(ctx context.Context, documentID string, embeddingData string, url string, chunksCount int, method string) error {
	return nil
}

func (m *recordsMock) SaveSummary(ctx context.Context, documentID string, name string, summary string, processingMethod string) error {
	m.savedSummary = summary
	return nil
}

func (m *recordsMock) SetAnalysisStatus(ctx context.Context, documentID string, status docModel.PipelineStatus, errMsg string) error {
	return nil
}

func (m *recordsMock) MarkPodcastProcessing(ctx context.Context, documentID string, name string) error {
	m.processing = true
	return nil
}

func (m *recordsMock) CompletePodcast(ctx context.Context, documentID string, script string, audioURL string) error {
	m.completed = true
	m.script = script
	m.audioURL = audioURL
	return nil
}

func (m *recordsMock) FailPodcast(ctx context.Context, documentID string, errMsg string) error {
	m.failedWith = errMsg
	return nil
}

type blobsMock struct {
	uploadedKey string
	uploaded    []byte
	uploadErr   error
	stored      map[string][]byte
}

func (m *blobsMock) Upload(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploadedKey = key
	m.uploaded = payload
	return "http://blobs.local/" + key, nil
}

func (m *blobsMock) Download(ctx context.Context, key string) ([]byte, error) {
	if data, ok := m.stored[key]; ok {
		return data, nil
	}
	return nil, errors.New("object not found")
}

func (m *blobsMock) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.stored[key]
	return ok, nil
}

type providerMock struct {
	script string
	err    error
}

func (m *providerMock) Complete(ctx context.Context, systemInstruction string, userPrompt string) (string, error) {
	return m.script, m.err
}

type synthMock struct {
	calls []docModel.Speaker
	err   error
}

func (m *synthMock) Synthesize(ctx context.Context, text string, speaker docModel.Speaker) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.calls = append(m.calls, speaker)
	return []byte(string(speaker) + "|"), nil
}

type summarizerMock struct {
	received string
	summary  string
	err      error
}

func (m *summarizerMock) Summarize(ctx context.Context, name string, fullText string) (string, error) {
	m.received = fullText
	return m.summary, m.err
}

func newTestService(records *recordsMock, blobs *blobsMock, provider *providerMock, synth *synthMock) *Service {
	return NewService(records, tieredStore.New(records, blobs), store.InitLeaseStore(), blobs, provider, nil, synth)
}

func TestGenerate_FullPipeline(t *testing.T) {
	records := &recordsMock{
		record: &docModel.AnalysisRecord{
			DocumentID: "doc-1",
			Summary:    "A document about Go concurrency.",
		},
	}
	blobs := &blobsMock{}
	provider := &providerMock{script: "[ALEX:] Welcome.\n[JORDAN:] Thanks Alex."}
	synth := &synthMock{}

	s := newTestService(records, blobs, provider, synth)

	result, err := s.Generate(context.Background(), "doc-1", "Go Concurrency", false)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if !records.processing || !records.completed {
		t.Error("expected record to pass through processing and completed")
	}
	if result.Status != docModel.StatusCompleted {
		t.Errorf("expected completed status, got %q", result.Status)
	}
	if len(synth.calls) != 2 || synth.calls[0] != docModel.SpeakerAlex || synth.calls[1] != docModel.SpeakerJordan {
		t.Errorf("unexpected synthesis order: %v", synth.calls)
	}
	if got := string(blobs.uploaded); got != "Alex|Jordan|" {
		t.Errorf("expected concatenated clips, got %q", got)
	}
	if !strings.HasPrefix(blobs.uploadedKey, "podcasts/go_concurrency/doc-1/") || !strings.HasSuffix(blobs.uploadedKey, ".mp3") {
		t.Errorf("unexpected audio key %q", blobs.uploadedKey)
	}
	stamp := strings.TrimSuffix(blobs.uploadedKey[strings.LastIndex(blobs.uploadedKey, "/")+1:], ".mp3")
	if _, err := time.Parse(time.RFC3339, stamp); err != nil {
		t.Errorf("audio key timestamp %q is not RFC 3339: %v", stamp, err)
	}
	if result.AudioURL != records.audioURL {
		t.Errorf("result audio URL %q does not match stored %q", result.AudioURL, records.audioURL)
	}
}

func TestGenerate_ReturnsExistingWithoutForce(t *testing.T) {
	records := &recordsMock{
		record: &docModel.AnalysisRecord{
			DocumentID:      "doc-1",
			PodcastStatus:   docModel.StatusCompleted,
			PodcastScript:   "[ALEX:] Old episode.",
			PodcastAudioURL: "http://blobs.local/podcasts/old.mp3",
		},
	}
	provider := &providerMock{err: errors.New("should not be called")}
	synth := &synthMock{err: errors.New("should not be called")}

	s := newTestService(records, &blobsMock{}, provider, synth)

	result, err := s.Generate(context.Background(), "doc-1", "Old", false)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if result.Script != "[ALEX:] Old episode." || result.AudioURL != "http://blobs.local/podcasts/old.mp3" {
		t.Errorf("expected stored episode, got %+v", result)
	}
	if records.processing {
		t.Error("existing episode should not re-enter processing")
	}
}

func TestGenerate_ForceRegenerates(t *testing.T) {
	records := &recordsMock{
		record: &docModel.AnalysisRecord{
			DocumentID:    "doc-1",
			Summary:       "Fresh content.",
			PodcastStatus: docModel.StatusCompleted,
			PodcastScript: "[ALEX:] Old episode.",
		},
	}
	provider := &providerMock{script: "[ALEX:] New episode."}
	synth := &synthMock{}

	s := newTestService(records, &blobsMock{}, provider, synth)

	result, err := s.Generate(context.Background(), "doc-1", "Fresh", true)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if result.Script != "[ALEX:] New episode." {
		t.Errorf("expected regenerated script, got %q", result.Script)
	}
	if !records.processing || !records.completed {
		t.Error("forced regeneration should run the full pipeline")
	}
}

func TestGenerate_FallsBackToChunks(t *testing.T) {
	set := docModel.EmbeddingSet{
		DocumentEmbedding: []float32{0.1},
		Chunks: []docModel.ChunkEmbedding{
			{Text: "First chunk.", Embedding: []float32{0.1}},
			{Text: "Second chunk.", Embedding: []float32{0.2}},
		},
		Metadata: docModel.EmbeddingMetadata{ChunksCount: 2},
	}
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}

	records := &recordsMock{
		record: &docModel.AnalysisRecord{
			DocumentID:    "doc-1",
			EmbeddingData: string(data),
		},
	}
	provider := &providerMock{script: "[ALEX:] Based on the chunks."}
	summarizer := &summarizerMock{summary: "A digest of both chunks."}

	blobs := &blobsMock{}
	s := NewService(records, tieredStore.New(records, blobs), store.InitLeaseStore(), blobs, provider, summarizer, &synthMock{})

	if _, err := s.Generate(context.Background(), "doc-1", "Chunks", false); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if summarizer.received != "First chunk.\n\nSecond chunk." {
		t.Errorf("summarizer received %q", summarizer.received)
	}
	if records.savedSummary != "A digest of both chunks." {
		t.Errorf("expected derived summary to be persisted, got %q", records.savedSummary)
	}
}

func TestGenerate_RegeneratesWhenAudioMissing(t *testing.T) {
	records := &recordsMock{
		record: &docModel.AnalysisRecord{
			DocumentID:    "doc-1",
			Summary:       "Content survived, audio did not.",
			PodcastStatus: docModel.StatusCompleted,
			PodcastScript: "[ALEX:] Old episode.",
		},
	}
	provider := &providerMock{script: "[ALEX:] Rebuilt episode."}
	synth := &synthMock{}

	s := newTestService(records, &blobsMock{}, provider, synth)

	result, err := s.Generate(context.Background(), "doc-1", "Rebuilt", false)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !records.processing || !records.completed {
		t.Error("missing audio URL should trigger a full regeneration")
	}
	if result.Script != "[ALEX:] Rebuilt episode." {
		t.Errorf("expected regenerated script, got %q", result.Script)
	}
}

func TestGenerate_NoContentFails(t *testing.T) {
	records := &recordsMock{record: &docModel.AnalysisRecord{DocumentID: "doc-1"}}

	s := newTestService(records, &blobsMock{}, &providerMock{}, &synthMock{})

	_, err := s.Generate(context.Background(), "doc-1", "Empty", false)
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
	if records.failedWith == "" {
		t.Error("expected failure to be recorded")
	}
}

func TestGenerate_SynthesisFailureRecorded(t *testing.T) {
	records := &recordsMock{
		record: &docModel.AnalysisRecord{DocumentID: "doc-1", Summary: "Some content."},
	}
	provider := &providerMock{script: "[ALEX:] Hello."}
	synth := &synthMock{err: errors.New("tts unavailable")}

	s := newTestService(records, &blobsMock{}, provider, synth)

	if _, err := s.Generate(context.Background(), "doc-1", "Broken", false); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(records.failedWith, "tts unavailable") {
		t.Errorf("expected recorded failure, got %q", records.failedWith)
	}
	if records.completed {
		t.Error("failed run must not be marked completed")
	}
}

func TestGenerate_LeaseBlocksConcurrentRun(t *testing.T) {
	records := &recordsMock{
		record: &docModel.AnalysisRecord{DocumentID: "doc-1", Summary: "Content."},
	}
	blobs := &blobsMock{}
	provider := &providerMock{script: "[ALEX:] Hello."}

	leases := store.InitLeaseStore()
	s := NewService(records, tieredStore.New(records, blobs), leases, blobs, provider, nil, &synthMock{})

	if !leases.TryAcquire(context.Background(), docModel.KindPodcast, "doc-1", config.PodcastLeaseTTL) {
		t.Fatal("setup lease acquisition failed")
	}

	_, err := s.Generate(context.Background(), "doc-1", "Busy", false)
	if !errors.Is(err, ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	generatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		record *docModel.AnalysisRecord
		want   docModel.PipelineStatus
	}{
		{"unknown document", nil, docModel.StatusNotStarted},
		{"no podcast yet", &docModel.AnalysisRecord{DocumentID: "doc-1"}, docModel.StatusNotStarted},
		{
			"completed",
			&docModel.AnalysisRecord{
				DocumentID:         "doc-1",
				PodcastStatus:      docModel.StatusCompleted,
				PodcastScript:      "[ALEX:] Done.",
				PodcastAudioURL:    "http://blobs.local/podcasts/done.mp3",
				PodcastGeneratedAt: generatedAt,
			},
			docModel.StatusCompleted,
		},
		{
			"failed",
			&docModel.AnalysisRecord{
				DocumentID:    "doc-1",
				PodcastStatus: docModel.StatusFailed,
				PodcastError:  "tts unavailable",
			},
			docModel.StatusFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestService(&recordsMock{record: tc.record}, &blobsMock{}, &providerMock{}, &synthMock{})

			result, err := s.Status(context.Background(), "doc-1")
			if err != nil {
				t.Fatalf("Status returned error: %v", err)
			}
			if result.Status != tc.want {
				t.Errorf("expected status %q, got %q", tc.want, result.Status)
			}
			if tc.record != nil && tc.record.PodcastStatus == docModel.StatusCompleted {
				if result.GeneratedAt == nil || !result.GeneratedAt.Equal(generatedAt) {
					t.Errorf("expected generatedAt %v, got %v", generatedAt, result.GeneratedAt)
				}
			}
		})
	}
}
