package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/smehrotra/docpod/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var (
	pooledClient *http.Client
	pooledOnce   sync.Once
)

// GetPooledClient returns the shared client used for document fetches and
// storage checks so connections get reused across pipeline runs.
func GetPooledClient() *http.Client {
	pooledOnce.Do(func() {
		pooledClient = &http.Client{
			Transport: customTransport,
			Timeout:   config.FetchTimeout,
		}
	})
	return pooledClient
}
