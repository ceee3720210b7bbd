package podcast

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/data/tieredStore"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/internal/podcast/tts"
	"github.com/smehrotra/docpod/internal/rag/llm"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

var (
	// ErrAlreadyProcessing reports that another run holds the podcast lease
	// for the document.
	ErrAlreadyProcessing = errors.New("podcast generation already in progress")

	// ErrNoContent reports that neither a summary nor embedded chunks exist
	// to script the episode from.
	ErrNoContent = errors.New("no document content available for podcast")

	keyUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

type Result struct {
	Script   string
	AudioURL string
	Status   docModel.PipelineStatus
}

type StatusResult struct {
	Script      string
	AudioURL    string
	Status      docModel.PipelineStatus
	Error       string
	GeneratedAt *time.Time
}

// Summarizer produces the document summary the episode is scripted from
// when the analysis pipeline has not stored one yet.
type Summarizer interface {
	Summarize(ctx context.Context, name string, fullText string) (string, error)
}

// Service turns an analyzed document into a two-host audio episode.
type Service struct {
	records    docModel.RecordStore
	tiered     *tieredStore.Store
	leases     docModel.LeaseStore
	blobs      docModel.BlobStore
	provider   llm.Provider
	summarizer Summarizer
	tts        tts.Synthesizer
	logger     *logger_i.Logger
}

func NewService(
	records docModel.RecordStore,
	tiered *tieredStore.Store,
	leases docModel.LeaseStore,
	blobs docModel.BlobStore,
	provider llm.Provider,
	summarizer Summarizer,
	synth tts.Synthesizer,
) *Service {
	return &Service{
		records:    records,
		tiered:     tiered,
		leases:     leases,
		blobs:      blobs,
		provider:   provider,
		summarizer: summarizer,
		tts:        synth,
		logger:     logger_i.NewLogger("Podcast Service"),
	}
}

// Generate produces the script and audio for a document. A completed
// episode is returned as-is unless force is set.
func (s *Service) Generate(ctx context.Context, documentID string, name string, force bool) (Result, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)
	start := time.Now()

	record, err := s.records.GetRecord(ctx, documentID)
	if err != nil {
		return Result{}, err
	}

	// A record only counts as complete when both artifacts survived. A
	// completed status with a missing script or audio URL is regenerated.
	if record != nil && record.PodcastStatus == docModel.StatusCompleted &&
		record.PodcastScript != "" && record.PodcastAudioURL != "" && !force {
		log.Info("Returning existing podcast")
		return Result{
			Script:   record.PodcastScript,
			AudioURL: record.PodcastAudioURL,
			Status:   docModel.StatusCompleted,
		}, nil
	}

	if !s.leases.TryAcquire(ctx, docModel.KindPodcast, documentID, config.PodcastLeaseTTL) {
		return Result{}, ErrAlreadyProcessing
	}
	defer s.leases.Release(ctx, docModel.KindPodcast, documentID)

	if err := s.records.MarkPodcastProcessing(ctx, documentID, name); err != nil {
		return Result{}, err
	}

	result, err := s.generate(ctx, record, documentID, name)
	if err != nil {
		log.Error("Podcast generation failed", "error", err)
		if failErr := s.records.FailPodcast(ctx, documentID, err.Error()); failErr != nil {
			log.Error("Recording podcast failure failed", "error", failErr)
		}
		metrics.RecordPipelineRun("podcast", "failure")
		return Result{}, err
	}

	metrics.RecordPipelineRun("podcast", "success")
	metrics.CapturePipelineMetrics("podcast", time.Since(start))
	log.Info("Podcast generated", "audioUrl", result.AudioURL)
	return result, nil
}

func (s *Service) generate(ctx context.Context, record *docModel.AnalysisRecord, documentID string, name string) (Result, error) {
	if s.tts == nil {
		return Result{}, errors.New("speech synthesis is not configured")
	}
	if s.blobs == nil {
		return Result{}, errors.New("blob storage is not configured")
	}

	content, err := s.sourceContent(ctx, record, documentID, name)
	if err != nil {
		return Result{}, err
	}

	script, err := generateScript(ctx, s.provider, name, content)
	if err != nil {
		return Result{}, fmt.Errorf("generating script: %w", err)
	}

	segments := ParseScript(script)
	if len(segments) == 0 {
		return Result{}, errors.New("script contained no speaker segments")
	}

	audio, err := s.synthesize(ctx, segments)
	if err != nil {
		return Result{}, err
	}

	key := audioKey(name, documentID)
	audioURL, err := s.blobs.Upload(ctx, key, audio, "audio/mpeg")
	if err != nil {
		return Result{}, fmt.Errorf("uploading audio: %w", err)
	}

	if err := s.records.CompletePodcast(ctx, documentID, script, audioURL); err != nil {
		return Result{}, err
	}

	return Result{Script: script, AudioURL: audioURL, Status: docModel.StatusCompleted}, nil
}

// sourceContent prefers the stored summary. When only embeddings exist the
// chunk texts are summarized first and the summary is persisted, so the
// episode always scripts from a digest rather than raw chunk text.
func (s *Service) sourceContent(ctx context.Context, record *docModel.AnalysisRecord, documentID string, name string) (string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)

	if record != nil && record.Summary != "" {
		return record.Summary, nil
	}

	set, err := s.tiered.Load(ctx, documentID)
	if err != nil {
		return "", err
	}
	if set == nil || len(set.Chunks) == 0 {
		return "", ErrNoContent
	}

	texts := make([]string, 0, len(set.Chunks))
	for _, chunk := range set.Chunks {
		if chunk.Text != "" {
			texts = append(texts, chunk.Text)
		}
	}
	if len(texts) == 0 {
		return "", ErrNoContent
	}
	joined := strings.Join(texts, "\n\n")

	if s.summarizer == nil {
		return joined, nil
	}

	summary, err := s.summarizer.Summarize(ctx, name, joined)
	if err != nil {
		return "", fmt.Errorf("summarizing chunk text: %w", err)
	}

	method := ""
	if record != nil {
		method = record.ProcessingMethod
	}
	if err := s.records.SaveSummary(ctx, documentID, name, summary, method); err != nil {
		log.Error("Persisting derived summary failed", "error", err)
	}
	return summary, nil
}

// synthesize renders segments in script order and concatenates the MP3
// frames into one stream.
func (s *Service) synthesize(ctx context.Context, segments []docModel.PodcastSegment) ([]byte, error) {
	var audio []byte
	for i, segment := range segments {
		clip, err := s.tts.Synthesize(ctx, segment.Text, segment.Speaker)
		if err != nil {
			return nil, fmt.Errorf("synthesizing segment %d: %w", i+1, err)
		}
		audio = append(audio, clip...)
	}
	return audio, nil
}

// Status reports the podcast pipeline state for a document. Unknown
// documents report not_started.
func (s *Service) Status(ctx context.Context, documentID string) (StatusResult, error) {
	record, err := s.records.GetRecord(ctx, documentID)
	if err != nil {
		return StatusResult{}, err
	}
	if record == nil || record.PodcastStatus == "" {
		return StatusResult{Status: docModel.StatusNotStarted}, nil
	}

	result := StatusResult{
		Script:   record.PodcastScript,
		AudioURL: record.PodcastAudioURL,
		Status:   record.PodcastStatus,
		Error:    record.PodcastError,
	}
	if !record.PodcastGeneratedAt.IsZero() {
		generatedAt := record.PodcastGeneratedAt
		result.GeneratedAt = &generatedAt
	}
	return result, nil
}

func audioKey(name string, documentID string) string {
	sanitized := strings.Trim(keyUnsafe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if sanitized == "" {
		sanitized = "untitled"
	}
	return fmt.Sprintf("%s/%s/%s/%s.mp3", config.PodcastBucket, sanitized, documentID, time.Now().UTC().Format(time.RFC3339))
}
