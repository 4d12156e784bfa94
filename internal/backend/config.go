package backend

import (
	"fmt"

	"bilancio/internal/config"
)

// FromAppConfig converts the application config to store and cache configs
func FromAppConfig(appConfig *config.Config) (Config, CacheConfig, error) {
	if appConfig == nil {
		return Config{}, CacheConfig{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresDSN:  appConfig.PostgresDSN,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, CacheConfig{}, err
	}

	cacheCfg := CacheConfig{
		Type:          CacheType(appConfig.CacheBackend),
		Size:          appConfig.CacheSize,
		TTL:           appConfig.CacheTTL,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	}
	if err := cacheCfg.Validate(); err != nil {
		return Config{}, CacheConfig{}, err
	}
	return cfg, cacheCfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresDSN == "" {
			return fmt.Errorf("Postgres DSN is required for postgres backend")
		}
	}
	return nil
}

func (c CacheConfig) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid cache type: %s", c.Type)
	}
	if c.Type == NoCache {
		return nil
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Type == MemoryCache && c.Size < 1 {
		return fmt.Errorf("cache size must be positive")
	}
	if c.Type == RedisCache && c.RedisAddr == "" {
		return fmt.Errorf("Redis address is required for redis cache")
	}
	return nil
}

