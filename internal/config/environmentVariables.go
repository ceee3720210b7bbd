package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internal in-memory store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5
	CacheSimilarityCutoff           = 0.97

	//document intake
	MaxPDFSizeBytes   = 20 * 1024 * 1024
	FetchTimeout      = 60 * time.Second
	PdfExtractTimeout = 10 * time.Second
	MinReadableRatio  = 0.6 //share of plain chars below which a page is considered scanned
	ScannedPageMinLen = 50  //pages under this many chars also go through vision fallback
	VisionPageTimeout = 45 * time.Second
	VisionMaxPages    = 30

	//chunking, token counts estimated as len/4
	MaxChunkTokens       = 6000
	StoredChunkTokens    = 2000
	MaxChunksToStore     = 50
	CharsPerTokenDivisor = 4

	//embeddings
	EmbeddingOutputDimensionality int32 = 1536
	EmbeddingGroupSize                  = 5
	EmbeddingGroupsPerSecond            = 1 //pacing between request groups
	EmbeddingDBName                     = "docpod-answers"

	//tiered storage
	DirectDBSizeLimit    = 1 * 1024 * 1024
	MaxEmbeddingJSONSize = 6 * 1024 * 1024

	//retrieval
	RetrievalTopK     = 3
	SimilarityFloor   = 0.1
	ChatHistoryWindow = 10

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 120 * time.Second //analysis and podcast runs respond inline
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = ""
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false //set for https
	QdrantPoolSize          = 1     //2-5 is preferred for prod according to documentation
	QdrantKeepAliveTimeout  = 30 * time.Second

	//llm
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GeminiVisionModel    = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"

	ModelTemperature float32 = 0.7

	//tts
	TTSModel         = "tts-1"
	TTSSpeed         = 1.0
	TTSFormat        = "mp3"
	PodcastBucket    = "podcasts"
	PodcastLeaseTTL  = 15 * time.Minute
	AnalysisLeaseTTL = 15 * time.Minute

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisLeaseStore   = 0
	RedisMessageStore = 1

	//redis timeouts
	RedisMessageStoreTTL = 24 * time.Hour
)

// EnvOr reads an environment variable with a fallback for local runs.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func MySQLDSN() string {
	return EnvOr("DOCPOD_MYSQL_DSN", "docpod:docpod@tcp(127.0.0.1:3306)/docpod?charset=utf8mb4&parseTime=True&loc=Local")
}

func RedisAddress() string {
	return EnvOr("DOCPOD_REDIS_ADDR", RedisAddr)
}

func S3Endpoint() string {
	return os.Getenv("DOCPOD_S3_ENDPOINT")
}

func S3Region() string {
	return EnvOr("DOCPOD_S3_REGION", "us-east-1")
}

func S3AccessKey() string {
	return os.Getenv("DOCPOD_S3_ACCESS_KEY")
}

func S3SecretKey() string {
	return os.Getenv("DOCPOD_S3_SECRET_KEY")
}

func S3Bucket() string {
	return EnvOr("DOCPOD_S3_BUCKET", "docpod")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func APIBearerToken() string {
	return os.Getenv("DOCPOD_API_TOKEN")
}
