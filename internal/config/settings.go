package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Settings struct {
	Server    ServerSettings    `mapstructure:"server"`
	Auth      AuthSettings      `mapstructure:"auth"`
	Log       LogSettings       `mapstructure:"log"`
	Redis     RedisSettings     `mapstructure:"redis"`
	MySQL     MySQLSettings     `mapstructure:"mysql"`
	Storage   StorageSettings   `mapstructure:"storage"`
	Vector    VectorSettings    `mapstructure:"vector"`
	LLM       LLMSettings       `mapstructure:"llm"`
	Embedding EmbeddingSettings `mapstructure:"embedding"`
	Ingestion IngestionSettings `mapstructure:"ingestion"`
	Workers   WorkerSettings    `mapstructure:"workers"`
	Jobs      JobSettings       `mapstructure:"jobs"`
}

type ServerSettings struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthSettings struct {
	Token         string  `mapstructure:"token"`
	Bypass        bool    `mapstructure:"bypass"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

type LogSettings struct {
	Prod  bool   `mapstructure:"prod"`
	Level string `mapstructure:"level"`
}

type RedisSettings struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	JobDB      int           `mapstructure:"job_db"`
	SessionDB  int           `mapstructure:"session_db"`
	DocumentDB int           `mapstructure:"document_db"`
	QueueDB    int           `mapstructure:"queue_db"`
	JobTTL     time.Duration `mapstructure:"job_ttl"`
	// FallbackToMemory swaps unreachable redis stores for in-memory ones instead of refusing to start.
	FallbackToMemory bool `mapstructure:"fallback_to_memory"`
}

// MySQLSettings switches document and session records to a relational store when Enabled.
type MySQLSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type StorageSettings struct {
	Driver   string        `mapstructure:"driver"`
	LocalDir string        `mapstructure:"local_dir"`
	Minio    MinioSettings `mapstructure:"minio"`
}

type MinioSettings struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type VectorSettings struct {
	Driver     string          `mapstructure:"driver"`
	Collection string          `mapstructure:"collection"`
	Qdrant     QdrantSettings  `mapstructure:"qdrant"`
	Elastic    ElasticSettings `mapstructure:"elastic"`
}

type QdrantSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	UseTLS   bool   `mapstructure:"use_tls"`
	PoolSize int    `mapstructure:"pool_size"`
	APIKey   string `mapstructure:"api_key"`
}

type ElasticSettings struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type LLMSettings struct {
	Provider      string        `mapstructure:"provider"`
	GeminiModel   string        `mapstructure:"gemini_model"`
	OpenAIModel   string        `mapstructure:"openai_model"`
	GoogleAPIKey  string        `mapstructure:"google_api_key"`
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type EmbeddingSettings struct {
	Provider    string `mapstructure:"provider"`
	GoogleModel string `mapstructure:"google_model"`
	OpenAIModel string `mapstructure:"openai_model"`
	Dimension   int32  `mapstructure:"dimension"`
	BatchSize   int    `mapstructure:"batch_size"`
}

type IngestionSettings struct {
	ChunkSize         int      `mapstructure:"chunk_size"`
	ChunkOverlap      int      `mapstructure:"chunk_overlap"`
	MaxFileSize       int64    `mapstructure:"max_file_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

type WorkerSettings struct {
	Min                  int64         `mapstructure:"min"`
	Max                  int64         `mapstructure:"max"`
	RequestsPerNewWorker int64         `mapstructure:"requests_per_new_worker"`
	IdleTimeout          time.Duration `mapstructure:"idle_timeout"`
	BufferLimit          int           `mapstructure:"buffer_limit"`
	JobTimeout           time.Duration `mapstructure:"job_timeout"`
	MaxAttempts          int           `mapstructure:"max_attempts"`
	RetryBackoff         time.Duration `mapstructure:"retry_backoff"`
}

type JobSettings struct {
	PollInterval           time.Duration `mapstructure:"poll_interval"`
	PromoteInterval        time.Duration `mapstructure:"promote_interval"`
	CleanupInterval        time.Duration `mapstructure:"cleanup_interval"`
	StaleProcessingTimeout time.Duration `mapstructure:"stale_processing_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ServerListenAddr)
	v.SetDefault("server.read_timeout", ReadTimeout)
	v.SetDefault("server.write_timeout", WriteTimeout)
	v.SetDefault("server.idle_timeout", IdleTimeout)
	v.SetDefault("server.shutdown_timeout", ShutdownContextTimeout)

	v.SetDefault("auth.token", AuthToken)
	v.SetDefault("auth.bypass", NoAuthBypass)
	v.SetDefault("auth.rate_per_second", RATE_LIMIT_PER_SECOND)
	v.SetDefault("auth.burst", BURST_RATE_LIMIT_PER_SECOND)

	v.SetDefault("log.prod", IS_PROD)
	v.SetDefault("log.level", "debug")

	v.SetDefault("redis.addr", RedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.job_db", RedisJobStore)
	v.SetDefault("redis.session_db", RedisSessionStore)
	v.SetDefault("redis.document_db", RedisDocumentStore)
	v.SetDefault("redis.queue_db", RedisQueueStore)
	v.SetDefault("redis.job_ttl", RedisJobStoreTTL)
	v.SetDefault("redis.fallback_to_memory", FALLBACK_REDIS_TO_INTERNALSTORE)

	v.SetDefault("mysql.enabled", false)
	v.SetDefault("mysql.dsn", "")

	v.SetDefault("storage.driver", StorageDriver)
	v.SetDefault("storage.local_dir", LocalStorageDir)
	v.SetDefault("storage.minio.endpoint", MinioEndpoint)
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", MinioBucket)
	v.SetDefault("storage.minio.use_ssl", false)

	v.SetDefault("vector.driver", VectorDriver)
	v.SetDefault("vector.collection", EmbeddingDBName)
	v.SetDefault("vector.qdrant.host", QdrantHost)
	v.SetDefault("vector.qdrant.port", QdrantGrpcPort)
	v.SetDefault("vector.qdrant.use_tls", QdrantUseTLS)
	v.SetDefault("vector.qdrant.pool_size", QdrantPoolSize)
	v.SetDefault("vector.qdrant.api_key", "")
	v.SetDefault("vector.elastic.addresses", []string{ElasticAddress})
	v.SetDefault("vector.elastic.username", "")
	v.SetDefault("vector.elastic.password", "")
	v.SetDefault("vector.elastic.index", ElasticIndex)

	v.SetDefault("llm.provider", LLMProvider)
	v.SetDefault("llm.gemini_model", GeminiModelName)
	v.SetDefault("llm.openai_model", OpenAIModelName)
	v.SetDefault("llm.google_api_key", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openai_base_url", "")
	v.SetDefault("llm.timeout", LLMConnectionTimeout)

	v.SetDefault("embedding.provider", EmbeddingProvider)
	v.SetDefault("embedding.google_model", GoogleEmbeddingModel)
	v.SetDefault("embedding.openai_model", OpenAIEmbeddingModel)
	v.SetDefault("embedding.dimension", EmbeddingOutputDimensionality)
	v.SetDefault("embedding.batch_size", EmbeddingBatchSize)

	v.SetDefault("ingestion.chunk_size", ChunkSize)
	v.SetDefault("ingestion.chunk_overlap", ChunkOverlap)
	v.SetDefault("ingestion.max_file_size", MaxFileSize)
	v.SetDefault("ingestion.allowed_extensions", AllowedExtensions)

	v.SetDefault("workers.min", MinWorkerCount)
	v.SetDefault("workers.max", MaxWorkerCount)
	v.SetDefault("workers.requests_per_new_worker", RequestsPerNewWorkerCount)
	v.SetDefault("workers.idle_timeout", IdleWorkerTimeout)
	v.SetDefault("workers.buffer_limit", BufferLimit)
	v.SetDefault("workers.job_timeout", JobTimeout)
	v.SetDefault("workers.max_attempts", MaxJobAttempts)
	v.SetDefault("workers.retry_backoff", RetryBackoff)

	v.SetDefault("jobs.poll_interval", QueuePollInterval)
	v.SetDefault("jobs.promote_interval", DelayedPromoteInterval)
	v.SetDefault("jobs.cleanup_interval", CleanupInterval)
	v.SetDefault("jobs.stale_processing_timeout", StaleProcessingTimeout)
}

// Load reads config.yaml (from path, or ./ and ./config when path is empty) and
// DOCUMIND_* environment overrides on top of the compiled defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//the old deployment used these names, keep them working
	_ = v.BindEnv("redis.addr", EnvPrefix+"_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("vector.qdrant.host", EnvPrefix+"_VECTOR_QDRANT_HOST", "QDRANT_HOST")
	_ = v.BindEnv("vector.qdrant.port", EnvPrefix+"_VECTOR_QDRANT_PORT", "QDRANT_PORT")
	_ = v.BindEnv("llm.google_api_key", EnvPrefix+"_LLM_GOOGLE_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.openai_api_key", EnvPrefix+"_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	if s.Ingestion.ChunkSize <= 0 {
		return fmt.Errorf("ingestion.chunk_size must be positive, got %d", s.Ingestion.ChunkSize)
	}
	if s.Ingestion.ChunkOverlap < 0 || s.Ingestion.ChunkOverlap >= s.Ingestion.ChunkSize {
		return fmt.Errorf("ingestion.chunk_overlap must be in [0, chunk_size), got %d", s.Ingestion.ChunkOverlap)
	}
	if s.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", s.Embedding.BatchSize)
	}
	if s.Workers.Max < s.Workers.Min || s.Workers.Min < 1 {
		return fmt.Errorf("workers.min/max invalid: %d/%d", s.Workers.Min, s.Workers.Max)
	}
	return nil
}

// TraceId returns the trace id stored on ctx, or "" when there is none.
func TraceId(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(TRACE_ID_KEY).(string)
	return id
}
