package redisStore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[int]*Store)
	mu        sync.RWMutex
	logger    *logger_i.Logger
	once      sync.Once
)

type Connection struct {
	Addr     string
	Password string
}

type Store struct {
	client *redis.Client
	Type   int
}

// GetRedisStore returns one shared client per logical DB, or nil when redis is unreachable.
func GetRedisStore(ctx context.Context, conn Connection, DBType int) *Store {

	mu.RLock()
	instance, exists := instances[DBType]
	mu.RUnlock()

	if exists {
		return instance
	}

	mu.Lock()
	defer mu.Unlock()

	if instance, exists = instances[DBType]; exists {
		return instance
	}
	return createNewStore(ctx, conn, DBType)

}

func initLogger() {
	if logger == nil {
		logger = logger_i.NewLogger("Redis Store")
	}
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis Stores")
	mu.Lock()
	defer mu.Unlock()
	for _, store := range instances {
		err := store.client.Close()
		if err != nil {
			logger.Error("Error closing redis client", "error", err)
		}
	}
	logger.Info("Redis Store Closed successfully")
}

func createNewStore(ctx context.Context, conn Connection, dbType int) *Store {
	if conn.Addr == "" {
		conn.Addr = config.RedisAddr
	}
	newClient := redis.NewClient(&redis.Options{
		Addr:                  conn.Addr,
		Password:              conn.Password,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	initLogger()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis is offline: ", "db", dbType, "error", err.Error())
		_ = newClient.Close()
		return nil
	}

	logger.Info(fmt.Sprintf("Redis DB %d init successfully", dbType))

	newStore := NewStore(newClient, dbType)
	instances[dbType] = newStore
	once.Do(func() {
		go closeRedisStores(ctx)
	})
	return newStore

}

// NewStore wraps an existing client; tests hand in a miniredis backed one.
func NewStore(client *redis.Client, dbType int) *Store {
	initLogger()
	return &Store{
		client: client,
		Type:   dbType,
	}
}
