package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/reportcache/cache"
	"github.com/jonwraymond/reportcache/observe"
	"github.com/jonwraymond/reportcache/resilience"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REPORTCACHE"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreLRU    = "lru"
	StoreRedis  = "redis"
)

// Config is the complete reportcache configuration.
type Config struct {
	Cache   CacheConfig    `mapstructure:"cache"`
	Store   StoreConfig    `mapstructure:"store"`
	Observe observe.Config `mapstructure:"observe"`
}

// CacheConfig holds admission settings. They are read once when the cache
// is built.
type CacheConfig struct {
	Region          string   `mapstructure:"region"`
	RowLimit        int      `mapstructure:"row_limit"`
	SafeColumnTypes []string `mapstructure:"safe_column_types"`

	// ClearOnClose clears the region when the cache closes. Unset means
	// true for memory and lru stores and false for redis.
	ClearOnClose *bool `mapstructure:"clear_on_close"`
}

// StoreConfig selects and tunes the backing store.
type StoreConfig struct {
	Kind    string        `mapstructure:"kind"`
	LRUSize int           `mapstructure:"lru_size"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// RedisConfig configures the Redis store and session-end channel.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Prefix       string        `mapstructure:"prefix"`
	Channel      string        `mapstructure:"channel"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// BreakerConfig configures the circuit breaker guarding the store.
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxFailures  int           `mapstructure:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.region", cache.DefaultRegion)
	v.SetDefault("cache.row_limit", cache.DefaultRowLimit)
	v.SetDefault("cache.safe_column_types", []string{
		string(cache.TypeString), string(cache.TypeInt), string(cache.TypeFloat), string(cache.TypeBool),
		string(cache.TypeTime), string(cache.TypeDecimal), string(cache.TypeBytes),
	})

	v.SetDefault("store.kind", StoreMemory)
	v.SetDefault("store.lru_size", 1024)
	v.SetDefault("store.redis.addr", "")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "reportcache")
	v.SetDefault("store.redis.channel", "reportcache:session-end")
	v.SetDefault("store.redis.query_timeout", 5*time.Second)
	v.SetDefault("store.breaker.enabled", false)
	v.SetDefault("store.breaker.max_failures", 5)
	v.SetDefault("store.breaker.reset_timeout", 30*time.Second)

	v.SetDefault("observe.service_name", "reportcache")
	v.SetDefault("observe.version", "")
	v.SetDefault("observe.tracing.enabled", false)
	v.SetDefault("observe.tracing.exporter", "none")
	v.SetDefault("observe.tracing.sample_pct", 1.0)
	v.SetDefault("observe.metrics.enabled", false)
	v.SetDefault("observe.metrics.exporter", "none")
	v.SetDefault("observe.logging.enabled", true)
	v.SetDefault("observe.logging.level", "info")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No default, so AutomaticEnv alone would not surface it.
	_ = v.BindEnv("cache.clear_on_close")
	return v
}

// Default returns the built-in defaults. The environment is not consulted.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults alone always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from path, if non-empty, and the environment.
// The result is validated and Redis values are env-expanded.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expand() error {
	var err error
	if c.Store.Redis.Addr, err = ExpandEnvStrict(c.Store.Redis.Addr); err != nil {
		return fmt.Errorf("store.redis.addr: %w", err)
	}
	if c.Store.Redis.Password, err = ExpandEnvStrict(c.Store.Redis.Password); err != nil {
		return fmt.Errorf("store.redis.password: %w", err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Cache.Region) == "" {
		errs = append(errs, ErrInvalidRegion)
	}
	if c.Cache.RowLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidRowLimit, c.Cache.RowLimit))
	}
	if len(c.Cache.SafeColumnTypes) == 0 {
		errs = append(errs, ErrEmptyAllowlist)
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StoreLRU:
		if c.Store.LRUSize <= 0 {
			errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidLRUSize, c.Store.LRUSize))
		}
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, ErrMissingRedisAddr)
		}
		if c.Store.Redis.QueryTimeout <= 0 {
			errs = append(errs, fmt.Errorf("%w: got %s", ErrInvalidTimeout, c.Store.Redis.QueryTimeout))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidStoreKind, c.Store.Kind))
	}

	if c.Store.Breaker.Enabled && (c.Store.Breaker.MaxFailures <= 0 || c.Store.Breaker.ResetTimeout <= 0) {
		errs = append(errs, ErrInvalidBreaker)
	}

	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidObserveCfg, err))
	}

	return errors.Join(errs...)
}

// Policy builds the cache admission policy from the cache settings.
func (c *Config) Policy() cache.Policy {
	types := make([]cache.ColumnType, len(c.Cache.SafeColumnTypes))
	for i, t := range c.Cache.SafeColumnTypes {
		types[i] = cache.ColumnType(t)
	}
	return cache.Policy{
		RowLimit:   c.Cache.RowLimit,
		Classifier: cache.NewTypeAllowlist(types...),
	}
}

// ClearOnClose reports whether closing the cache should clear its region.
// A Redis region is shared with other processes, so it is kept by default.
func (c *Config) ClearOnClose() bool {
	if c.Cache.ClearOnClose != nil {
		return *c.Cache.ClearOnClose
	}
	return c.Store.Kind != StoreRedis
}

// Breaker returns the breaker settings for the guarded store.
func (c *Config) Breaker() resilience.BreakerConfig {
	return resilience.BreakerConfig{
		MaxFailures:  c.Store.Breaker.MaxFailures,
		ResetTimeout: c.Store.Breaker.ResetTimeout,
	}
}
