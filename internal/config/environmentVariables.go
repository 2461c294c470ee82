package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internals in-memory store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5
	NoAuthBypass                    = false
	AuthToken                       = "" //set DOCUMIND_AUTH_TOKEN

	EnvPrefix      = "DOCUMIND"
	ConfigFileName = "config"

	EmbeddingOutputDimensionality int32 = 1536
	EmbeddingDBName                     = "documind-chunks"
	EmbeddingBatchSize                  = 5

	//chunking
	ChunkSize    = 500
	ChunkOverlap = 50

	//upload validation
	MaxFileSize = 50 << 20 //50mb

	//worker pool - 5 workers matches the old hangfire setup
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 5
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	JobTimeout                      = 5 * time.Minute
	MaxJobAttempts                  = 3
	RetryBackoff                    = 10 * time.Second

	//queues
	QueueDefault    = "default"
	QueueProcessing = "processing"

	QueuePollInterval      = 500 * time.Millisecond
	DelayedPromoteInterval = 1 * time.Second
	CleanupInterval        = 1 * time.Hour
	StaleProcessingTimeout = 30 * time.Minute

	//serverTimeouts
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 120 * time.Second //synchronous /ask waits on the llm
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	VectorDriver            = "qdrant"
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = "localhost"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false //set for https
	QdrantPoolSize          = 1     //2-5 is preferred for prod according to documentation

	ElasticAddress = "http://localhost:9200"
	ElasticIndex   = "documind-chunks"

	//llm
	LLMProvider          = "gemini"
	LLMConnectionTimeout = 60 * time.Second
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	OpenAIModelName      = "gpt-4o-mini"

	//embeddings
	EmbeddingProvider     = "gemini"
	GoogleEmbeddingModel  = "gemini-embedding-001"
	OpenAIEmbeddingModel  = "text-embedding-3-small"
	EmbeddingTaskDocument = "RETRIEVAL_DOCUMENT"
	EmbeddingTaskQuery    = "RETRIEVAL_QUERY"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//storage
	StorageDriver   = "local"
	LocalStorageDir = "temporary_data"
	MinioEndpoint   = "localhost:9000"
	MinioBucket     = "documind"

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore      = 0
	RedisSessionStore  = 1
	RedisDocumentStore = 2
	RedisQueueStore    = 3

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour

	RecentMessageCount = 5
)

var AllowedExtensions = []string{".pdf", ".docx", ".odt", ".rtf", ".txt"}
