package store

import (
	"context"
	"sync"
	"time"

	"github.com/smehrotra/docpod/internal/domain/docModel"
)

type InMemoryLeaseStore struct {
	leaseLock *sync.Mutex
	leases    map[string]time.Time
}

func InitLeaseStore() *InMemoryLeaseStore {
	return &InMemoryLeaseStore{
		leaseLock: new(sync.Mutex),
		leases:    make(map[string]time.Time),
	}
}

func (store *InMemoryLeaseStore) TryAcquire(ctx context.Context, kind docModel.PipelineKind, documentID string, ttl time.Duration) bool {
	store.leaseLock.Lock()
	defer store.leaseLock.Unlock()

	key := leaseKey(kind, documentID)
	if expiry, held := store.leases[key]; held && time.Now().Before(expiry) {
		return false
	}
	store.leases[key] = time.Now().Add(ttl)
	return true
}

func (store *InMemoryLeaseStore) Release(ctx context.Context, kind docModel.PipelineKind, documentID string) {
	store.leaseLock.Lock()
	defer store.leaseLock.Unlock()
	delete(store.leases, leaseKey(kind, documentID))
}
