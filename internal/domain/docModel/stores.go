package docModel

import (
	"context"
	"time"
)

// RecordStore is the relational persistence surface. GetRecord returns
// (nil, nil) when no row exists for the document.
type RecordStore interface {
	GetRecord(ctx context.Context, documentID string) (*AnalysisRecord, error)
	SaveEmbeddings(ctx context.Context, documentID string, embeddingData string, url string, chunksCount int, method string) error
	SaveSummary(ctx context.Context, documentID string, name string, summary string, processingMethod string) error
	SetAnalysisStatus(ctx context.Context, documentID string, status PipelineStatus, errMsg string) error
	MarkPodcastProcessing(ctx context.Context, documentID string, name string) error
	CompletePodcast(ctx context.Context, documentID string, script string, audioURL string) error
	FailPodcast(ctx context.Context, documentID string, errMsg string) error
}

type BlobStore interface {
	Upload(ctx context.Context, key string, payload []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// MessageStore keeps per-document chat history. Failures are non-fatal to
// the chat flow, callers log and move on.
type MessageStore interface {
	SaveExchange(ctx context.Context, documentID string, question string, answer string) error
	RecentHistory(ctx context.Context, documentID string, limit int) ([]string, error)
}

// LeaseStore hands out short-lived advisory leases per document and
// pipeline kind. TryAcquire returning false means another run holds the
// lease. Implementations degrade to always-acquire when the backing store
// is unavailable.
type LeaseStore interface {
	TryAcquire(ctx context.Context, kind PipelineKind, documentID string, ttl time.Duration) bool
	Release(ctx context.Context, kind PipelineKind, documentID string)
}
