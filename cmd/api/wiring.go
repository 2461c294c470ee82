package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/customHttpClient"
	"github.com/akolanti/DocuMind/internal/data/queue"
	"github.com/akolanti/DocuMind/internal/data/redisStore"
	"github.com/akolanti/DocuMind/internal/data/sqlStore"
	"github.com/akolanti/DocuMind/internal/data/store"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/internal/rag"
	"github.com/akolanti/DocuMind/internal/rag/chunker"
	"github.com/akolanti/DocuMind/internal/rag/embedding"
	"github.com/akolanti/DocuMind/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/DocuMind/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/DocuMind/internal/rag/extract"
	"github.com/akolanti/DocuMind/internal/rag/ingest"
	"github.com/akolanti/DocuMind/internal/rag/intent"
	"github.com/akolanti/DocuMind/internal/rag/llm"
	"github.com/akolanti/DocuMind/internal/rag/llm/gemini"
	"github.com/akolanti/DocuMind/internal/rag/llm/openaiLLM"
	"github.com/akolanti/DocuMind/internal/rag/retrieval"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB/elasticDB"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/DocuMind/internal/storage"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/openai/openai-go/option"
)

var wiringLogger = logger_i.NewLogger("wiring")

type appStores struct {
	jobs      jobModel.JobStore
	queue     jobModel.Queue
	documents commonModels.DocumentStore
	sessions  chatModel.SessionStore
}

// initStores prefers mysql for documents and sessions when enabled, then redis.
// Anything unreachable falls back to the in-memory stores when redis.fallback_to_memory is set,
// otherwise it stays nil.
func initStores(ctx context.Context, settings *config.Settings) appStores {
	conn := redisStore.Connection{Addr: settings.Redis.Addr, Password: settings.Redis.Password}
	stores := appStores{}

	if s := redisStore.GetRedisStore(ctx, conn, settings.Redis.JobDB); s != nil {
		stores.jobs = store.GetRedisJobStore(s, settings.Redis.JobTTL)
	}
	if s := redisStore.GetRedisStore(ctx, conn, settings.Redis.QueueDB); s != nil {
		stores.queue = queue.NewRedisQueue(s)
	}

	if settings.MySQL.Enabled {
		db, err := sqlStore.Open(ctx, settings.MySQL.DSN)
		if err == nil {
			err = sqlStore.Migrate(ctx, db)
		}
		if err != nil {
			wiringLogger.Error("MySQL is offline, trying redis for documents and sessions", "error", err)
		} else {
			stores.documents = sqlStore.NewDocumentRepository(db)
			stores.sessions = sqlStore.NewSessionRepository(db)
		}
	}
	if stores.documents == nil {
		if s := redisStore.GetRedisStore(ctx, conn, settings.Redis.DocumentDB); s != nil {
			stores.documents = store.GetRedisDocumentStore(s)
		}
	}
	if stores.sessions == nil {
		if s := redisStore.GetRedisStore(ctx, conn, settings.Redis.SessionDB); s != nil {
			stores.sessions = store.GetRedisSessionStore(s)
		}
	}

	if !settings.Redis.FallbackToMemory {
		return stores
	}
	if stores.jobs == nil {
		wiringLogger.Warn("Job store falls back to memory")
		stores.jobs = store.InitInMemoryJobStore()
	}
	if stores.queue == nil {
		wiringLogger.Warn("Job queue falls back to memory, queued work is lost on restart")
		stores.queue = queue.NewMemoryQueue()
	}
	if stores.documents == nil {
		wiringLogger.Warn("Document store falls back to memory")
		stores.documents = store.InitInMemoryDocumentStore()
	}
	if stores.sessions == nil {
		wiringLogger.Warn("Session store falls back to memory")
		stores.sessions = store.InitInMemorySessionStore()
	}
	return stores
}

// missing names the stores that could not be initialised.
func (s appStores) missing() []string {
	var names []string
	if s.jobs == nil {
		names = append(names, "jobs")
	}
	if s.queue == nil {
		names = append(names, "queue")
	}
	if s.documents == nil {
		names = append(names, "documents")
	}
	if s.sessions == nil {
		names = append(names, "sessions")
	}
	return names
}

func initFileStorage(ctx context.Context, s config.StorageSettings) (storage.FileStorage, error) {
	switch strings.ToLower(s.Driver) {
	case "minio":
		m, err := storage.NewMinio(ctx, storage.MinioOptions{
			Endpoint:  s.Minio.Endpoint,
			AccessKey: s.Minio.AccessKey,
			SecretKey: s.Minio.SecretKey,
			Bucket:    s.Minio.Bucket,
			UseSSL:    s.Minio.UseSSL,
			Transport: customHttpClient.Transport(),
		})
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return m, nil
	case "local", "":
		return storage.NewLocal(s.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.Driver)
	}
}

func janitorOf(files storage.FileStorage) storage.Janitor {
	if j, ok := files.(storage.Janitor); ok {
		return j
	}
	return nil
}

func initIndex(ctx context.Context, s config.VectorSettings, dimension int32) (vectorDB.Index, error) {
	var index vectorDB.Index
	switch strings.ToLower(s.Driver) {
	case "qdrant", "":
		holder, err := qdrantDB.GetQuadrantClient(ctx, qdrantDB.Options{
			Host:       s.Qdrant.Host,
			Port:       s.Qdrant.Port,
			APIKey:     s.Qdrant.APIKey,
			UseTLS:     s.Qdrant.UseTLS,
			PoolSize:   uint(s.Qdrant.PoolSize),
			Collection: s.Collection,
			Dimension:  uint64(dimension),
		})
		if err != nil {
			return nil, err
		}
		index = holder
	case "elastic", "elasticsearch":
		es, err := elasticDB.New(elasticDB.Options{
			Addresses: s.Elastic.Addresses,
			Username:  s.Elastic.Username,
			Password:  s.Elastic.Password,
			Index:     s.Elastic.Index,
			Dimension: int(dimension),
			Transport: customHttpClient.Transport(),
		})
		if err != nil {
			return nil, err
		}
		index = es
	case "memory":
		index = memoryDB.NewStorage()
	default:
		return nil, fmt.Errorf("unknown vector driver %q", s.Driver)
	}
	if err := index.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	return index, nil
}

func initEmbedder(ctx context.Context, s config.EmbeddingSettings, keys config.LLMSettings) (embedding.Embedder, error) {
	switch strings.ToLower(s.Provider) {
	case "openai":
		return openaiEmbedding.New(s.OpenAIModel, s.Dimension, openaiOptions(keys)...), nil
	case "gemini", "google", "":
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, googleEmbedding.Options{
			Model:      s.GoogleModel,
			APIKey:     keys.GoogleAPIKey,
			Dimension:  s.Dimension,
			HTTPClient: customHttpClient.New(0),
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", s.Provider)
	}
}

func initLLM(ctx context.Context, s config.LLMSettings) (llm.Provider, error) {
	switch strings.ToLower(s.Provider) {
	case "openai":
		return openaiLLM.New(s.OpenAIModel, openaiOptions(s)...), nil
	case "gemini", "google", "":
		return gemini.GetGeminiClient(ctx, s.GeminiModel, s.GoogleAPIKey, customHttpClient.New(0))
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
}

func openaiOptions(s config.LLMSettings) []option.RequestOption {
	opts := []option.RequestOption{option.WithHTTPClient(customHttpClient.New(0))}
	if s.OpenAIAPIKey != "" {
		opts = append(opts, option.WithAPIKey(s.OpenAIAPIKey))
	}
	if s.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.OpenAIBaseURL))
	}
	return opts
}

func initRag(ctx context.Context, settings *config.Settings, stores appStores, files storage.FileStorage) (rag.Service, error) {
	index, err := initIndex(ctx, settings.Vector, settings.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}
	embedder, err := initEmbedder(ctx, settings.Embedding, settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	llmProvider, err := initLLM(ctx, settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	extractor := extract.New(settings.Ingestion.MaxFileSize)
	ingestor := ingest.New(ingest.Options{
		Documents: stores.documents,
		Files:     files,
		Extractor: extractor,
		Chunker:   chunker.New(settings.Ingestion.ChunkSize, settings.Ingestion.ChunkOverlap),
		Embedder:  embedder,
		Index:     index,
		BatchSize: settings.Embedding.BatchSize,
	})
	retriever := retrieval.New(retrieval.Options{
		Documents: stores.documents,
		Files:     files,
		Extractor: extractor,
		Embedder:  embedder,
		Index:     index,
	})

	return rag.NewService(rag.Dependencies{
		Sessions:   stores.sessions,
		Classifier: intent.NewClassifier(llmProvider, settings.LLM.Timeout),
		Retriever:  retriever,
		LLM:        llmProvider,
		Ingestor:   ingestor,
	}), nil
}
