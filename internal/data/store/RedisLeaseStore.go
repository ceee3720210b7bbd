package store

import (
	"context"
	"time"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/data/redisStore"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

// RedisLeaseStore hands out short lived per-document leases so only one
// pipeline run works on a document at a time, even across replicas.
type RedisLeaseStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisLeaseStore(ctx context.Context) *RedisLeaseStore {
	red := redisStore.GetRedisStore(ctx, config.RedisLeaseStore)
	if red == nil {
		return nil
	}
	return &RedisLeaseStore{
		store:  red,
		logger: logger_i.NewLogger("LeaseStore"),
	}
}

// NewTestLeaseStore wires the store onto an injected redis client. Only
// for use from _test.go files.
func NewTestLeaseStore(red *redisStore.Store) *RedisLeaseStore {
	return &RedisLeaseStore{
		store:  red,
		logger: logger_i.NewLogger("LeaseStore"),
	}
}

func (s *RedisLeaseStore) TryAcquire(ctx context.Context, kind docModel.PipelineKind, documentID string, ttl time.Duration) bool {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID, "kind", kind)
	acquired, err := s.store.SetNX(ctx, leaseKey(kind, documentID), time.Now().UTC().Format(time.RFC3339), ttl)
	if err != nil {
		// Leases are advisory. When Redis is unreachable the pipeline
		// proceeds without one rather than refusing every request.
		log.Error("Failed to acquire lease, proceeding without one", "err", err)
		return true
	}
	if !acquired {
		log.Debug("Lease already held")
	}
	return acquired
}

func (s *RedisLeaseStore) Release(ctx context.Context, kind docModel.PipelineKind, documentID string) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID, "kind", kind)
	if err := s.store.Del(ctx, leaseKey(kind, documentID)); err != nil {
		log.Error("Failed to release lease", "err", err)
	}
}

func leaseKey(kind docModel.PipelineKind, documentID string) string {
	return "lease:" + string(kind) + ":" + documentID
}
