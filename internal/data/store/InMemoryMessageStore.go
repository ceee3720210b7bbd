package store

import (
	"context"
	"sync"

	"github.com/smehrotra/docpod/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem Store")

type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]chatExchange
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]chatExchange),
	}
}

func (store *InMemoryMessageStore) SaveExchange(ctx context.Context, documentID string, question string, answer string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[documentID] = append(store.chatMap[documentID], chatExchange{Question: question, Answer: answer})
	inMemLogger.Debug(documentID, " : Saved exchange to chat message store")
	return nil
}

func (store *InMemoryMessageStore) RecentHistory(ctx context.Context, documentID string, limit int) ([]string, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()

	exchanges := store.chatMap[documentID]
	if len(exchanges) > limit {
		exchanges = exchanges[len(exchanges)-limit:]
	}
	lines := make([]string, 0, len(exchanges)*2)
	for _, exchange := range exchanges {
		lines = append(lines, "User: "+exchange.Question, "Assistant: "+exchange.Answer)
	}
	return lines, nil
}
