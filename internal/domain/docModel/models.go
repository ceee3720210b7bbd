package docModel

import (
	"time"
)

type PipelineStatus string
type PipelineKind string
type ExtractionMethod string
type Speaker string

const (
	StatusNotStarted PipelineStatus = "not_started"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"

	KindAnalysis PipelineKind = "analysis"
	KindPodcast  PipelineKind = "podcast"

	MethodDirect ExtractionMethod = "direct"
	MethodOCR    ExtractionMethod = "ocr"

	SpeakerAlex   Speaker = "Alex"
	SpeakerJordan Speaker = "Jordan"
)

type Document struct {
	Id        string `json:"document_id"`
	SourceURL string `json:"source_url"`
	Name      string `json:"name"`
}

type PageText struct {
	Number int              `json:"number"`
	Text   string           `json:"text"`
	Method ExtractionMethod `json:"method"`
}

type ExtractedText struct {
	Pages []PageText `json:"pages"`
}

// FullText joins all pages in document order.
func (e ExtractedText) FullText() string {
	var out string
	for i, p := range e.Pages {
		if i > 0 {
			out += "\n\n"
		}
		out += p.Text
	}
	return out
}

type ChunkEmbedding struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

type EmbeddingMetadata struct {
	Model           string    `json:"model,omitempty"`
	Method          string    `json:"method,omitempty"`
	GeneratedAt     time.Time `json:"generated_at,omitempty"`
	StorageLocation string    `json:"storage_location,omitempty"` //inline or external
	StorageURL      string    `json:"storage_url,omitempty"`
	ChunksCount     int       `json:"chunks_count,omitempty"`
	Compressed      bool      `json:"compressed,omitempty"`
	OriginalSize    int       `json:"original_size,omitempty"`
	Fallback        bool      `json:"fallback,omitempty"`
	Error           bool      `json:"error,omitempty"`
}

type EmbeddingSet struct {
	DocumentEmbedding []float32         `json:"document_embedding"`
	Chunks            []ChunkEmbedding  `json:"chunks"`
	Metadata          EmbeddingMetadata `json:"metadata"`
}

type PodcastSegment struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// AnalysisRecord is the durable per-document row other collaborators poll
// against. EmbeddingData holds the serialized inline EmbeddingSet payload.
type AnalysisRecord struct {
	DocumentID           string         `json:"document_id" gorm:"column:document_id;type:char(64);primaryKey"`
	Name                 string         `json:"name" gorm:"type:varchar(255)"`
	Summary              string         `json:"summary" gorm:"type:longtext"`
	ProcessingMethod     string         `json:"processing_method" gorm:"type:varchar(32)"`
	EmbeddingData        string         `json:"-" gorm:"type:longtext"`
	EmbeddingURL         string         `json:"embedding_url" gorm:"type:varchar(512)"`
	EmbeddingChunksCount int            `json:"embedding_chunks_count"`
	EmbeddingMethod      string         `json:"embedding_method" gorm:"type:varchar(32)"`
	AnalysisStatus       PipelineStatus `json:"analysis_status" gorm:"type:varchar(16)"`
	AnalysisError        string         `json:"analysis_error" gorm:"type:varchar(1024)"`
	AnalysisGeneratedAt  time.Time      `json:"analysis_generated_at"`
	PodcastScript        string         `json:"podcast_script" gorm:"type:longtext"`
	PodcastAudioURL      string         `json:"podcast_audio_url" gorm:"type:varchar(512)"`
	PodcastStatus        PipelineStatus `json:"podcast_status" gorm:"type:varchar(16)"`
	PodcastError         string         `json:"podcast_error" gorm:"type:varchar(1024)"`
	PodcastGeneratedAt   time.Time      `json:"podcast_generated_at"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

func (AnalysisRecord) TableName() string {
	return "pdf_analysis"
}
