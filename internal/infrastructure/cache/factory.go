package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/scheduler"
)

// JobStoreFactory creates job stores based on configuration
type JobStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// JobStoreFactoryOption is a functional option for configuring the factory
type JobStoreFactoryOption func(*JobStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) JobStoreFactoryOption {
	return func(f *JobStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) JobStoreFactoryOption {
	return func(f *JobStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewJobStoreFactory creates a new factory
func NewJobStoreFactory(cfg config.RedisConfig, opts ...JobStoreFactoryOption) *JobStoreFactory {
	f := &JobStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore creates a Redis job store, falling back to memory when Redis
// is disabled or unreachable and fallback is allowed.
// WARNING: an in-memory store only guards generations started by this process.
func (f *JobStoreFactory) CreateStore() (scheduler.JobStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory job store")
		return scheduler.NewMemoryJobStore(), nil
	}

	store, err := NewRedisJobStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis job store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for job state but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory job store. "+
		"Concurrent generations on other instances will not be detected.",
		zap.Error(err),
	)
	return scheduler.NewMemoryJobStore(), nil
}
