package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/data/redisStore"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

type chatExchange struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	At       time.Time `json:"at"`
}

type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMessageStore(ctx context.Context) *RedisMessageStore {
	red := redisStore.GetRedisStore(ctx, config.RedisMessageStore)
	if red == nil {
		return nil
	}
	return &RedisMessageStore{
		store:  red,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

// NewTestMessageStore wires the store onto an injected redis client. Only
// for use from _test.go files.
func NewTestMessageStore(red *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  red,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) SaveExchange(ctx context.Context, documentID string, question string, answer string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)
	payload, err := json.Marshal(chatExchange{Question: question, Answer: answer, At: time.Now().UTC()})
	if err != nil {
		log.Error("Error marshalling exchange", "err", err)
		return err
	}
	err = s.store.ListPush(ctx, chatKey(documentID), payload, config.RedisMessageStoreTTL)
	if err != nil {
		log.Error("error saving chat exchange", "error:", err)
		return err
	}
	log.Debug("Saved chat exchange successfully")
	return nil
}

func (s *RedisMessageStore) RecentHistory(ctx context.Context, documentID string, limit int) ([]string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentID)
	log.Debug("Getting message history")

	res, err := s.store.ListGetRecent(ctx, chatKey(documentID), int64(limit))
	if err != nil && !s.store.IsNil(err) {
		log.Error("Error getting history", "error:", err)
		return nil, err
	}

	lines := make([]string, 0, len(res)*2)
	for _, raw := range res {
		var exchange chatExchange
		if err := json.Unmarshal([]byte(raw), &exchange); err != nil {
			log.Error("Skipping unreadable exchange", "err", err)
			continue
		}
		lines = append(lines, "User: "+exchange.Question, "Assistant: "+exchange.Answer)
	}
	return lines, nil
}

func chatKey(documentID string) string {
	return "chat:" + documentID
}
