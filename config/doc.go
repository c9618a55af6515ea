// Package config loads reportcache settings with Viper.
//
// Settings come from defaults, an optional file (YAML, JSON or TOML) and
// REPORTCACHE_* environment variables, in increasing precedence. Nested
// keys map to variables by replacing dots with underscores, so
// cache.row_limit is REPORTCACHE_CACHE_ROW_LIMIT.
//
// Redis address and password values may reference the environment as
// ${VAR}; a referenced variable that is unset is an error.
package config
