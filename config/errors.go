package config

import "errors"

// Validation errors. Validate joins every failure it finds.
var (
	ErrInvalidRegion     = errors.New("config: cache.region is required")
	ErrInvalidRowLimit   = errors.New("config: cache.row_limit must be non-negative")
	ErrEmptyAllowlist    = errors.New("config: cache.safe_column_types is empty")
	ErrInvalidStoreKind  = errors.New("config: store.kind must be memory, lru or redis")
	ErrInvalidLRUSize    = errors.New("config: store.lru_size must be positive")
	ErrMissingRedisAddr  = errors.New("config: store.redis.addr is required")
	ErrInvalidTimeout    = errors.New("config: store.redis.query_timeout must be positive")
	ErrInvalidBreaker    = errors.New("config: store.breaker settings must be positive")
	ErrMissingEnvVar     = errors.New("config: missing required environment variables")
	ErrInvalidObserveCfg = errors.New("config: invalid observe settings")
)
