package tieredStore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

// Store routes embedding payloads by size. Small sets live inline in the
// analysis record, large ones go to blob storage with a pointer row, and
// sets that will not fit anywhere keep only the document embedding.
type Store struct {
	records docModel.RecordStore
	blobs   docModel.BlobStore
	logger  *logger_i.Logger
}

func New(records docModel.RecordStore, blobs docModel.BlobStore) *Store {
	return &Store{
		records: records,
		blobs:   blobs,
		logger:  logger_i.NewLogger("TieredStore"),
	}
}

func embeddingKey(documentID string) string {
	return "embeddings/" + documentID + ".json"
}

func (s *Store) Save(ctx context.Context, documentID string, set *docModel.EmbeddingSet) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)

	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("serializing embeddings: %w", err)
	}

	if len(payload) <= config.DirectDBSizeLimit {
		log.Debug("storing embeddings inline", "bytes", len(payload))
		return s.records.SaveEmbeddings(ctx, documentID, string(payload), "", len(set.Chunks), set.Metadata.Method)
	}

	if s.blobs != nil {
		url, uploadErr := s.blobs.Upload(ctx, embeddingKey(documentID), payload, "application/json")
		if uploadErr == nil {
			pointer := docModel.EmbeddingSet{
				DocumentEmbedding: set.DocumentEmbedding,
				Metadata:          set.Metadata,
			}
			pointer.Metadata.StorageLocation = "external"
			pointer.Metadata.StorageURL = url
			pointer.Metadata.ChunksCount = len(set.Chunks)

			inline, err := json.Marshal(pointer)
			if err != nil {
				return fmt.Errorf("serializing embedding pointer: %w", err)
			}
			log.Info("stored embeddings externally", "bytes", len(payload), "url", url)
			return s.records.SaveEmbeddings(ctx, documentID, string(inline), url, len(set.Chunks), set.Metadata.Method)
		}
		log.Error("external storage failed, falling back to inline", "err", uploadErr)
	}

	if len(payload) > config.MaxEmbeddingJSONSize {
		lossy := docModel.EmbeddingSet{
			DocumentEmbedding: set.DocumentEmbedding,
			Chunks:            []docModel.ChunkEmbedding{},
			Metadata:          set.Metadata,
		}
		lossy.Metadata.Compressed = true
		lossy.Metadata.OriginalSize = len(payload)
		lossy.Metadata.ChunksCount = 0

		inline, err := json.Marshal(lossy)
		if err != nil {
			return fmt.Errorf("serializing lossy embeddings: %w", err)
		}
		log.Error("embeddings exceed inline ceiling, dropping chunks", "bytes", len(payload))
		return s.records.SaveEmbeddings(ctx, documentID, string(inline), "", 0, set.Metadata.Method)
	}

	log.Debug("storing oversized embeddings inline", "bytes", len(payload))
	return s.records.SaveEmbeddings(ctx, documentID, string(payload), "", len(set.Chunks), set.Metadata.Method)
}

// Load returns the stored embedding set, re-hydrating external payloads.
// A dangling external pointer degrades to the document embedding alone with
// Fallback set, so chat can still answer without chunk retrieval.
func (s *Store) Load(ctx context.Context, documentID string) (*docModel.EmbeddingSet, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)

	record, err := s.records.GetRecord(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.EmbeddingData == "" {
		return nil, nil
	}

	var set docModel.EmbeddingSet
	if err := json.Unmarshal([]byte(record.EmbeddingData), &set); err != nil {
		return nil, fmt.Errorf("parsing stored embeddings: %w", err)
	}

	if set.Metadata.StorageLocation != "external" {
		return &set, nil
	}

	if s.blobs != nil {
		payload, downloadErr := s.blobs.Download(ctx, embeddingKey(documentID))
		if downloadErr == nil {
			var full docModel.EmbeddingSet
			if err := json.Unmarshal(payload, &full); err != nil {
				return nil, fmt.Errorf("parsing external embeddings: %w", err)
			}
			return &full, nil
		}
		log.Error("external embeddings unreachable, using fallback", "err", downloadErr)
	}

	set.Chunks = nil
	set.Metadata.Fallback = true
	return &set, nil
}

// Check reports whether usable embeddings exist without hydrating them.
// External pointers are verified against blob storage.
func (s *Store) Check(ctx context.Context, documentID string) (bool, int, string, error) {
	record, err := s.records.GetRecord(ctx, documentID)
	if err != nil {
		return false, 0, "", err
	}
	if record == nil || record.EmbeddingData == "" {
		return false, 0, "", nil
	}

	if record.EmbeddingURL != "" {
		if s.blobs == nil {
			return false, 0, "", nil
		}
		exists, err := s.blobs.Exists(ctx, embeddingKey(documentID))
		if err != nil || !exists {
			return false, 0, "", err
		}
	}
	return true, record.EmbeddingChunksCount, record.EmbeddingMethod, nil
}
