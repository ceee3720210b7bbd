package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/data/tieredStore"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/internal/rag/chunker"
	"github.com/smehrotra/docpod/internal/rag/embedding"
	"github.com/smehrotra/docpod/internal/rag/extract"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

// ErrAlreadyProcessing means another run currently holds the lease for
// this document.
var ErrAlreadyProcessing = errors.New("document is already being processed")

const extractionFailureChunk = "Document data could not be extracted"

type Extractor interface {
	Extract(ctx context.Context, doc docModel.Document) (*docModel.ExtractedText, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, name string, fullText string) (string, error)
}

type AnalyzeResult struct {
	Summary          string
	Cached           bool
	ProcessingMethod string
}

// Analyzer runs the full document pipeline: fetch and extract, chunk,
// embed, store tiered, summarize. A per-document lease keeps concurrent
// requests from doing the work twice.
type Analyzer struct {
	records    docModel.RecordStore
	tiered     *tieredStore.Store
	leases     docModel.LeaseStore
	extractor  Extractor
	manager    *embedding.Manager
	summarizer Summarizer
	logger     *logger_i.Logger
}

func NewAnalyzer(records docModel.RecordStore, tiered *tieredStore.Store, leases docModel.LeaseStore,
	extractor Extractor, manager *embedding.Manager, summarizer Summarizer) *Analyzer {
	return &Analyzer{
		records:    records,
		tiered:     tiered,
		leases:     leases,
		extractor:  extractor,
		manager:    manager,
		summarizer: summarizer,
		logger:     logger_i.NewLogger("Analyzer"),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, doc docModel.Document) (AnalyzeResult, error) {
	log := a.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)

	record, err := a.records.GetRecord(ctx, doc.Id)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if record != nil && record.AnalysisStatus == docModel.StatusCompleted && record.Summary != "" {
		log.Debug("Returning cached analysis")
		return AnalyzeResult{
			Summary:          record.Summary,
			Cached:           true,
			ProcessingMethod: record.ProcessingMethod,
		}, nil
	}

	if !a.leases.TryAcquire(ctx, docModel.KindAnalysis, doc.Id, config.AnalysisLeaseTTL) {
		return AnalyzeResult{}, ErrAlreadyProcessing
	}
	defer a.leases.Release(ctx, docModel.KindAnalysis, doc.Id)

	start := time.Now()
	result, err := a.run(ctx, log, doc)
	metrics.CapturePipelineMetrics(string(docModel.KindAnalysis), time.Since(start))
	if err != nil {
		metrics.RecordPipelineRun(string(docModel.KindAnalysis), "failure")
		return AnalyzeResult{}, err
	}
	metrics.RecordPipelineRun(string(docModel.KindAnalysis), "success")
	return result, nil
}

func (a *Analyzer) run(ctx context.Context, log *logger_i.Logger, doc docModel.Document) (AnalyzeResult, error) {
	if err := a.records.SetAnalysisStatus(ctx, doc.Id, docModel.StatusProcessing, ""); err != nil {
		return AnalyzeResult{}, err
	}

	fullText := extractionFailureChunk
	var method docModel.ExtractionMethod

	extracted, err := a.extractor.Extract(ctx, doc)
	if err != nil {
		// The analysis still completes: the sentinel set is stored and the
		// summary describes the failure, so repeat requests get a terminal
		// answer instead of re-running the extraction.
		log.Error("Extraction failed, analyzing the failure sentinel", "error", err)
		a.storeFailureSet(ctx, log, doc.Id)
	} else {
		fullText = extracted.FullText()
		method = extract.Method(extracted)

		set := a.buildEmbeddingSet(ctx, log, fullText, method)
		if err := a.tiered.Save(ctx, doc.Id, set); err != nil {
			log.Error("Storing embeddings failed", "error", err)
			if statusErr := a.records.SetAnalysisStatus(ctx, doc.Id, docModel.StatusFailed, err.Error()); statusErr != nil {
				log.Error("Could not record failed status", "error", statusErr)
			}
			return AnalyzeResult{}, err
		}
	}

	summary, err := a.summarizer.Summarize(ctx, doc.Name, fullText)
	if err != nil {
		log.Error("Summarization failed", "error", err)
		if statusErr := a.records.SetAnalysisStatus(ctx, doc.Id, docModel.StatusFailed, err.Error()); statusErr != nil {
			log.Error("Could not record failed status", "error", statusErr)
		}
		return AnalyzeResult{}, err
	}

	if err := a.records.SaveSummary(ctx, doc.Id, doc.Name, summary, string(method)); err != nil {
		return AnalyzeResult{}, err
	}

	return AnalyzeResult{
		Summary:          summary,
		ProcessingMethod: string(method),
	}, nil
}

// CreateEmbeddings runs only the embedding side of the pipeline when a
// document has no stored embeddings yet.
func (a *Analyzer) CreateEmbeddings(ctx context.Context, doc docModel.Document) (int, error) {
	log := a.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)

	if !a.leases.TryAcquire(ctx, docModel.KindAnalysis, doc.Id, config.AnalysisLeaseTTL) {
		return 0, ErrAlreadyProcessing
	}
	defer a.leases.Release(ctx, docModel.KindAnalysis, doc.Id)

	extracted, err := a.extractor.Extract(ctx, doc)
	if err != nil {
		log.Error("Extraction failed", "error", err)
		a.storeFailureSet(ctx, log, doc.Id)
		return 0, fmt.Errorf("extracting document: %w", err)
	}

	set := a.buildEmbeddingSet(ctx, log, extracted.FullText(), extract.Method(extracted))
	if err := a.tiered.Save(ctx, doc.Id, set); err != nil {
		log.Error("Storing embeddings failed", "error", err)
		return 0, err
	}
	return len(set.Chunks), nil
}

// buildEmbeddingSet chunks the text, embeds the chunks and averages the
// survivors into the document embedding. When every chunk fails, the
// zero sentinel takes its place so the record still exists.
func (a *Analyzer) buildEmbeddingSet(ctx context.Context, log *logger_i.Logger, fullText string, method docModel.ExtractionMethod) *docModel.EmbeddingSet {
	texts := chunker.SplitIntoChunks(fullText, config.StoredChunkTokens)
	if len(texts) > config.MaxChunksToStore {
		log.Debug("Capping stored chunks", "from", len(texts), "to", config.MaxChunksToStore)
		texts = texts[:config.MaxChunksToStore]
	}

	results := a.manager.EmbedChunks(ctx, texts)

	var chunks []docModel.ChunkEmbedding
	for i, r := range results {
		if r.Failed {
			continue
		}
		chunks = append(chunks, docModel.ChunkEmbedding{Text: texts[i], Embedding: r.Vector})
	}

	docEmbedding := embedding.AverageEmbeddings(embedding.SuccessfulVectors(results))
	if len(chunks) == 0 {
		log.Error("No chunk could be embedded, storing sentinel")
	}

	return &docModel.EmbeddingSet{
		DocumentEmbedding: docEmbedding,
		Chunks:            chunks,
		Metadata: docModel.EmbeddingMetadata{
			Model:       config.GoogleEmbeddingModel,
			Method:      string(method),
			GeneratedAt: time.Now().UTC(),
		},
	}
}

// storeFailureSet records a sentinel embedding for a document whose text
// could not be extracted, so later checks see a terminal state instead of
// retrying the extraction forever.
func (a *Analyzer) storeFailureSet(ctx context.Context, log *logger_i.Logger, documentID string) {
	set := &docModel.EmbeddingSet{
		DocumentEmbedding: embedding.FailureEmbedding(),
		Chunks: []docModel.ChunkEmbedding{
			{Text: extractionFailureChunk, Embedding: embedding.FailureEmbedding()},
		},
		Metadata: docModel.EmbeddingMetadata{
			Model:       config.GoogleEmbeddingModel,
			GeneratedAt: time.Now().UTC(),
			Error:       true,
		},
	}
	if err := a.tiered.Save(ctx, documentID, set); err != nil {
		log.Error("Could not store failure sentinel", "error", err)
	}
}
