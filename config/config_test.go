package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/reportcache/cache"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Cache.Region != cache.DefaultRegion {
		t.Errorf("Cache.Region = %q, want %q", cfg.Cache.Region, cache.DefaultRegion)
	}
	if cfg.Cache.RowLimit != cache.DefaultRowLimit {
		t.Errorf("Cache.RowLimit = %d, want %d", cfg.Cache.RowLimit, cache.DefaultRowLimit)
	}
	if len(cfg.Cache.SafeColumnTypes) != 7 {
		t.Errorf("len(Cache.SafeColumnTypes) = %d, want 7", len(cfg.Cache.SafeColumnTypes))
	}
	if cfg.Store.Kind != StoreMemory {
		t.Errorf("Store.Kind = %q, want %q", cfg.Store.Kind, StoreMemory)
	}
	if cfg.Store.Redis.QueryTimeout != 5*time.Second {
		t.Errorf("Store.Redis.QueryTimeout = %v, want 5s", cfg.Store.Redis.QueryTimeout)
	}
	if cfg.Observe.ServiceName != "reportcache" {
		t.Errorf("Observe.ServiceName = %q, want reportcache", cfg.Observe.ServiceName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "reportcache.yaml", `
cache:
  region: finance-reports
  row_limit: 250
  safe_column_types: [string, int]
store:
  kind: lru
  lru_size: 64
  breaker:
    enabled: true
    max_failures: 3
    reset_timeout: 2s
observe:
  logging:
    level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Region != "finance-reports" {
		t.Errorf("Cache.Region = %q, want finance-reports", cfg.Cache.Region)
	}
	if cfg.Cache.RowLimit != 250 {
		t.Errorf("Cache.RowLimit = %d, want 250", cfg.Cache.RowLimit)
	}
	if cfg.Store.Kind != StoreLRU || cfg.Store.LRUSize != 64 {
		t.Errorf("Store = %+v, want lru/64", cfg.Store)
	}
	if !cfg.Store.Breaker.Enabled || cfg.Store.Breaker.ResetTimeout != 2*time.Second {
		t.Errorf("Store.Breaker = %+v, want enabled with 2s reset", cfg.Store.Breaker)
	}
	if cfg.Observe.Logging.Level != "debug" {
		t.Errorf("Observe.Logging.Level = %q, want debug", cfg.Observe.Logging.Level)
	}
	// Unset keys keep their defaults.
	if cfg.Observe.ServiceName != "reportcache" {
		t.Errorf("Observe.ServiceName = %q, want reportcache", cfg.Observe.ServiceName)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "reportcache.yaml", "cache:\n  row_limit: 250\n")
	t.Setenv("REPORTCACHE_CACHE_ROW_LIMIT", "50")
	t.Setenv("REPORTCACHE_CACHE_SAFE_COLUMN_TYPES", "string,decimal")
	t.Setenv("REPORTCACHE_STORE_KIND", "lru")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.RowLimit != 50 {
		t.Errorf("Cache.RowLimit = %d, want 50", cfg.Cache.RowLimit)
	}
	if len(cfg.Cache.SafeColumnTypes) != 2 || cfg.Cache.SafeColumnTypes[1] != "decimal" {
		t.Errorf("Cache.SafeColumnTypes = %v, want [string decimal]", cfg.Cache.SafeColumnTypes)
	}
	if cfg.Store.Kind != StoreLRU {
		t.Errorf("Store.Kind = %q, want lru", cfg.Store.Kind)
	}
}

func TestLoad_ExpandsRedisSettings(t *testing.T) {
	t.Setenv("RC_TEST_REDIS_HOST", "10.0.0.7")
	t.Setenv("RC_TEST_REDIS_PASS", "hunter2")
	path := writeFile(t, "reportcache.yaml", `
store:
  kind: redis
  redis:
    addr: ${RC_TEST_REDIS_HOST}:6379
    password: ${RC_TEST_REDIS_PASS}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Redis.Addr != "10.0.0.7:6379" {
		t.Errorf("Store.Redis.Addr = %q, want 10.0.0.7:6379", cfg.Store.Redis.Addr)
	}
	if cfg.Store.Redis.Password != "hunter2" {
		t.Errorf("Store.Redis.Password = %q, want hunter2", cfg.Store.Redis.Password)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "missing env var",
			body: "store:\n  kind: redis\n  redis:\n    addr: ${RC_TEST_UNSET_HOST}\n",
			want: ErrMissingEnvVar,
		},
		{
			name: "negative row limit",
			body: "cache:\n  row_limit: -1\n",
			want: ErrInvalidRowLimit,
		},
		{
			name: "unknown store",
			body: "store:\n  kind: etcd\n",
			want: ErrInvalidStoreKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "reportcache.yaml", tt.body)
			_, err := Load(path)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:   "blank region",
			mutate: func(c *Config) { c.Cache.Region = "  " },
			want:   []error{ErrInvalidRegion},
		},
		{
			name:   "empty allowlist",
			mutate: func(c *Config) { c.Cache.SafeColumnTypes = nil },
			want:   []error{ErrEmptyAllowlist},
		},
		{
			name:   "lru without size",
			mutate: func(c *Config) { c.Store.Kind = StoreLRU; c.Store.LRUSize = 0 },
			want:   []error{ErrInvalidLRUSize},
		},
		{
			name: "redis without addr or timeout",
			mutate: func(c *Config) {
				c.Store.Kind = StoreRedis
				c.Store.Redis.QueryTimeout = 0
			},
			want: []error{ErrMissingRedisAddr, ErrInvalidTimeout},
		},
		{
			name: "enabled breaker needs thresholds",
			mutate: func(c *Config) {
				c.Store.Breaker.Enabled = true
				c.Store.Breaker.MaxFailures = 0
			},
			want: []error{ErrInvalidBreaker},
		},
		{
			name:   "observe",
			mutate: func(c *Config) { c.Observe.ServiceName = "" },
			want:   []error{ErrInvalidObserveCfg},
		},
		{
			name: "reports every failure",
			mutate: func(c *Config) {
				c.Cache.Region = ""
				c.Cache.RowLimit = -5
				c.Store.Kind = "disk"
			},
			want: []error{ErrInvalidRegion, ErrInvalidRowLimit, ErrInvalidStoreKind},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.want) == 0 {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("Validate() error = %v, want it to wrap %v", err, want)
				}
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	cfg := Default()
	cfg.Cache.RowLimit = 2
	cfg.Cache.SafeColumnTypes = []string{"String", "int"}

	p := cfg.Policy()
	if p.RowLimit != 2 {
		t.Errorf("Policy().RowLimit = %d, want 2", p.RowLimit)
	}
	allow, ok := p.Classifier.(cache.TypeAllowlist)
	if !ok {
		t.Fatalf("Policy().Classifier = %T, want cache.TypeAllowlist", p.Classifier)
	}
	if !allow.Allows(cache.TypeString) || !allow.Allows(cache.TypeInt) {
		t.Errorf("allowlist %v missing configured types", allow)
	}
	if allow.Allows(cache.TypeFloat) {
		t.Errorf("allowlist %v allows float, want only configured types", allow)
	}
}

func TestClearOnClose(t *testing.T) {
	on, off := true, false

	tests := []struct {
		name     string
		kind     string
		override *bool
		want     bool
	}{
		{name: "memory default", kind: StoreMemory, want: true},
		{name: "lru default", kind: StoreLRU, want: true},
		{name: "redis default", kind: StoreRedis, want: false},
		{name: "redis forced on", kind: StoreRedis, override: &on, want: true},
		{name: "memory forced off", kind: StoreMemory, override: &off, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Store.Kind = tt.kind
			cfg.Cache.ClearOnClose = tt.override
			if got := cfg.ClearOnClose(); got != tt.want {
				t.Errorf("ClearOnClose() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_ClearOnCloseFromEnv(t *testing.T) {
	t.Setenv("REPORTCACHE_CACHE_CLEAR_ON_CLOSE", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.ClearOnClose == nil || *cfg.Cache.ClearOnClose {
		t.Errorf("Cache.ClearOnClose = %v, want false", cfg.Cache.ClearOnClose)
	}
	if cfg.ClearOnClose() {
		t.Error("ClearOnClose() = true, want false")
	}
}

func TestBreaker(t *testing.T) {
	cfg := Default()
	cfg.Store.Breaker.MaxFailures = 9
	cfg.Store.Breaker.ResetTimeout = time.Minute

	b := cfg.Breaker()
	if b.MaxFailures != 9 || b.ResetTimeout != time.Minute {
		t.Errorf("Breaker() = %+v, want 9 failures and 1m reset", b)
	}
}
