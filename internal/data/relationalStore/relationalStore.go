package relationalStore

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

var (
	instance *RecordStore
	mu       sync.Mutex
)

type RecordStore struct {
	db     *gorm.DB
	logger *logger_i.Logger
}

// GetRecordStore opens the shared MySQL connection and runs migrations.
// Returns nil when the database is unreachable so callers can refuse work
// instead of crashing.
func GetRecordStore(ctx context.Context) *RecordStore {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	log := logger_i.NewLogger("RecordStore")

	logLevel := gormlogger.Error
	if !config.IS_PROD {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               config.MySQLDSN(),
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Error("could not connect to mysql", "err", err)
		return nil
	}

	if err := db.AutoMigrate(&docModel.AnalysisRecord{}); err != nil {
		log.Error("migration failed", "err", err)
		return nil
	}

	log.Info("Record store init successfully")
	instance = &RecordStore{db: db, logger: log}
	return instance
}

// NewTestRecordStore wires the store onto an injected gorm handle. Only
// for use from _test.go files.
func NewTestRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db, logger: logger_i.NewLogger("RecordStore")}
}

func (s *RecordStore) GetRecord(ctx context.Context, documentID string) (*docModel.AnalysisRecord, error) {
	var record docModel.AnalysisRecord
	err := s.db.WithContext(ctx).Where("document_id = ?", documentID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *RecordStore) SaveEmbeddings(ctx context.Context, documentID string, embeddingData string, url string, chunksCount int, method string) error {
	return s.upsert(ctx, documentID, map[string]interface{}{
		"embedding_data":         embeddingData,
		"embedding_url":          url,
		"embedding_chunks_count": chunksCount,
		"embedding_method":       method,
	})
}

func (s *RecordStore) SaveSummary(ctx context.Context, documentID string, name string, summary string, processingMethod string) error {
	now := time.Now().UTC()
	return s.upsert(ctx, documentID, map[string]interface{}{
		"name":                  name,
		"summary":               summary,
		"processing_method":     processingMethod,
		"analysis_status":       docModel.StatusCompleted,
		"analysis_error":        "",
		"analysis_generated_at": now,
	})
}

func (s *RecordStore) SetAnalysisStatus(ctx context.Context, documentID string, status docModel.PipelineStatus, errMsg string) error {
	return s.upsert(ctx, documentID, map[string]interface{}{
		"analysis_status": status,
		"analysis_error":  errMsg,
	})
}

func (s *RecordStore) MarkPodcastProcessing(ctx context.Context, documentID string, name string) error {
	return s.upsert(ctx, documentID, map[string]interface{}{
		"name":           name,
		"podcast_status": docModel.StatusProcessing,
		"podcast_error":  "",
	})
}

func (s *RecordStore) CompletePodcast(ctx context.Context, documentID string, script string, audioURL string) error {
	now := time.Now().UTC()
	return s.upsert(ctx, documentID, map[string]interface{}{
		"podcast_script":       script,
		"podcast_audio_url":    audioURL,
		"podcast_status":       docModel.StatusCompleted,
		"podcast_error":        "",
		"podcast_generated_at": now,
	})
}

func (s *RecordStore) FailPodcast(ctx context.Context, documentID string, errMsg string) error {
	return s.upsert(ctx, documentID, map[string]interface{}{
		"podcast_status": docModel.StatusFailed,
		"podcast_error":  errMsg,
	})
}

// upsert creates the row on first touch and patches only the given columns
// afterwards, so analysis and podcast state never clobber each other.
func (s *RecordStore) upsert(ctx context.Context, documentID string, updates map[string]interface{}) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing docModel.AnalysisRecord
		err := tx.Where("document_id = ?", documentID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record := docModel.AnalysisRecord{DocumentID: documentID}
			if err := tx.Create(&record).Error; err != nil {
				log.Error("failed to create analysis record", "err", err)
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Model(&docModel.AnalysisRecord{}).
			Where("document_id = ?", documentID).
			Updates(updates).Error; err != nil {
			log.Error("failed to update analysis record", "err", err)
			return err
		}
		return nil
	})
}
