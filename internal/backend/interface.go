// Package backend builds the ledger store and the report cache selected by
// configuration.
package backend

import (
	"context"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/ledger"
	"bilancio/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and its cleanup function
type BackendResult struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// CacheResult holds the report cache. Store is nil when caching is off.
type CacheResult struct {
	Store   cache.Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateCache(ctx context.Context, config CacheConfig) (*CacheResult, error)
	CreateReportWriter(ctx context.Context, config WriterConfig) (sheets.ReportWriter, error)
}

// WriterConfig selects where yearly reports are exported. An empty
// SpreadsheetID keeps exports in memory.
type WriterConfig struct {
	SpreadsheetID string
	ReportName    string
}

// Config holds configuration for store creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string
}

// CacheConfig holds configuration for the report cache
type CacheConfig struct {
	Type CacheType

	Size int
	TTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

type CacheType string

const (
	NoCache     CacheType = "none"
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	switch ct {
	case NoCache, MemoryCache, RedisCache:
		return true
	default:
		return false
	}
}
