// @title           Document Intelligence API
// @version         1.0
// @description     PDF analysis, retrieval-augmented chat, and podcast generation
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/customHttpClient"
	"github.com/smehrotra/docpod/internal/data/blobStore"
	"github.com/smehrotra/docpod/internal/data/relationalStore"
	"github.com/smehrotra/docpod/internal/data/store"
	"github.com/smehrotra/docpod/internal/data/tieredStore"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/handlers"
	"github.com/smehrotra/docpod/internal/pipeline"
	"github.com/smehrotra/docpod/internal/podcast"
	"github.com/smehrotra/docpod/internal/podcast/tts"
	"github.com/smehrotra/docpod/internal/rag"
	"github.com/smehrotra/docpod/internal/rag/answerCache"
	"github.com/smehrotra/docpod/internal/rag/embedding"
	"github.com/smehrotra/docpod/internal/rag/embedding/googleEmbedding"
	"github.com/smehrotra/docpod/internal/rag/extract"
	"github.com/smehrotra/docpod/internal/rag/llm/gemini"
	"github.com/smehrotra/docpod/internal/rag/summarize"
	"github.com/smehrotra/docpod/internal/server"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

var listenAddr string

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//relational record store is the source of truth, without it nothing works
	records := relationalStore.GetRecordStore(serviceContext)
	if records == nil {
		logger.Error("Record store failed to initialize. Shutting down.")
		return
	}

	//redis-backed stores degrade to in-memory when redis is offline
	var messages docModel.MessageStore
	var leases docModel.LeaseStore
	if redisMessages := store.GetRedisMessageStore(serviceContext); redisMessages != nil {
		messages = redisMessages
	}
	if redisLeases := store.GetRedisLeaseStore(serviceContext); redisLeases != nil {
		leases = redisLeases
	}
	if (messages == nil || leases == nil) && config.FALLBACK_REDIS_TO_INTERNALSTORE {
		logger.Error("Redis stores are offline, falling back to in-memory")
		if messages == nil {
			messages = store.InitMessageStore()
		}
		if leases == nil {
			leases = store.InitLeaseStore()
		}
	}

	//blob storage is optional, the tiered store degrades to inline-only
	var blobs docModel.BlobStore
	if s3 := blobStore.GetS3Store(serviceContext); s3 != nil {
		blobs = s3
	} else {
		logger.Warn("Blob store unavailable, large embedding sets will be stored lossy")
	}
	tiered := tieredStore.New(records, blobs)

	embedder := googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, config.GeminiAPIKey())
	llmProvider := gemini.GetGeminiClient(serviceContext, config.GeminiModelName, config.GeminiAPIKey())
	if embedder == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "EmbeddingService", embedder != nil, "LLMProvider", llmProvider != nil)
		return
	}

	vision := gemini.GetVisionClient(serviceContext, config.GeminiVisionModel, config.GeminiAPIKey())
	if vision == nil {
		logger.Warn("Vision client unavailable, scanned pages will not be recovered")
	}

	cache := answerCache.GetQdrantCache(serviceContext)
	if cache == nil {
		logger.Warn("Answer cache unavailable, every chat question hits the model")
	}

	synth := tts.GetOpenAIClient(serviceContext, config.OpenAIAPIKey())
	if synth == nil {
		logger.Warn("Speech synthesis unavailable, podcast generation is disabled")
	}

	manager := embedding.NewManager(embedder)
	extractor := extract.New(customHttpClient.GetPooledClient(), vision)
	summarizer := summarize.New(llmProvider)

	analyzer := pipeline.NewAnalyzer(records, tiered, leases, extractor, manager, summarizer)
	chatService := rag.NewService(tiered, records, messages, cache, embedder, llmProvider)
	podcastService := podcast.NewService(records, tiered, leases, blobs, llmProvider, summarizer, synth)

	handlers.InitDocumentsHandler(analyzer, chatService, podcastService, tiered)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
