package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/data/redisStore"
	"github.com/smehrotra/docpod/internal/data/store"
)

func TestRedisMessageStore_Lifecycle(t *testing.T) {
	// 1. Start miniredis
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	messageStore := store.NewTestMessageStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	docID := "doc_abc_123"

	t.Run("Save and Read Roundtrip", func(t *testing.T) {
		err := messageStore.SaveExchange(ctx, docID, "What is this document about?", "It covers invoice processing.")
		if err != nil {
			t.Fatalf("SaveExchange failed: %v", err)
		}

		history, err := messageStore.RecentHistory(ctx, docID, config.ChatHistoryWindow)
		if err != nil {
			t.Fatalf("RecentHistory failed: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("Expected 2 history lines, got %d", len(history))
		}
		if history[0] != "User: What is this document about?" {
			t.Errorf("Unexpected question line: %s", history[0])
		}
		if history[1] != "Assistant: It covers invoice processing." {
			t.Errorf("Unexpected answer line: %s", history[1])
		}
	})

	t.Run("History For Unknown Document", func(t *testing.T) {
		history, err := messageStore.RecentHistory(ctx, "ghost-id", config.ChatHistoryWindow)
		if err != nil {
			t.Fatalf("RecentHistory failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("Expected empty history, got %d lines", len(history))
		}
	})

	t.Run("Window Keeps Only Recent Exchanges", func(t *testing.T) {
		for i := 0; i < 6; i++ {
			if err := messageStore.SaveExchange(ctx, "windowed", "q", "a"); err != nil {
				t.Fatalf("SaveExchange failed: %v", err)
			}
		}
		history, err := messageStore.RecentHistory(ctx, "windowed", 4)
		if err != nil {
			t.Fatalf("RecentHistory failed: %v", err)
		}
		if len(history) != 8 {
			t.Errorf("Expected last 4 exchanges (8 lines), got %d", len(history))
		}
	})
}

func TestRedisLeaseStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	leaseStore := store.NewTestLeaseStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "lease-trace")

	t.Run("Second Acquire Fails While Held", func(t *testing.T) {
		if !leaseStore.TryAcquire(ctx, "analysis", "doc-1", time.Minute) {
			t.Fatal("First acquire should succeed")
		}
		if leaseStore.TryAcquire(ctx, "analysis", "doc-1", time.Minute) {
			t.Error("Second acquire should fail while lease is held")
		}
	})

	t.Run("Kinds Are Independent", func(t *testing.T) {
		if !leaseStore.TryAcquire(ctx, "podcast", "doc-1", time.Minute) {
			t.Error("Different kind should get its own lease")
		}
	})

	t.Run("Release Frees The Lease", func(t *testing.T) {
		leaseStore.Release(ctx, "analysis", "doc-1")
		if !leaseStore.TryAcquire(ctx, "analysis", "doc-1", time.Minute) {
			t.Error("Acquire should succeed after release")
		}
	})

	t.Run("Expired Lease Can Be Reacquired", func(t *testing.T) {
		if !leaseStore.TryAcquire(ctx, "analysis", "doc-2", time.Second) {
			t.Fatal("First acquire should succeed")
		}
		mr.FastForward(2 * time.Second)
		if !leaseStore.TryAcquire(ctx, "analysis", "doc-2", time.Second) {
			t.Error("Acquire should succeed after TTL expiry")
		}
	})
}

func TestRedisLeaseStore_UnreachableRedisDoesNotBlock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	leaseStore := store.NewTestLeaseStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "lease-trace")

	mr.Close()

	if !leaseStore.TryAcquire(ctx, "analysis", "doc-1", time.Minute) {
		t.Error("Acquire should succeed when Redis is unreachable")
	}
}

func TestInMemoryLeaseStore(t *testing.T) {
	leaseStore := store.InitLeaseStore()
	ctx := context.Background()

	if !leaseStore.TryAcquire(ctx, "analysis", "doc-1", time.Minute) {
		t.Fatal("First acquire should succeed")
	}
	if leaseStore.TryAcquire(ctx, "analysis", "doc-1", time.Minute) {
		t.Error("Second acquire should fail while lease is held")
	}
	leaseStore.Release(ctx, "analysis", "doc-1")
	if !leaseStore.TryAcquire(ctx, "analysis", "doc-1", time.Minute) {
		t.Error("Acquire should succeed after release")
	}
}
