package backend

import (
	"context"
	"fmt"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/log"
	"bilancio/internal/sheets"
	gsheet "bilancio/internal/sheets/google"
	sheetsmem "bilancio/internal/sheets/memory"
	"bilancio/internal/storage"
	"bilancio/internal/storage/memory"
)

const (
	redisNamespace      = "bilancio"
	cacheSweepDivisor   = 2
	minCacheSweepPeriod = time.Second
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLBackend(ctx, storage.DriverSQLite, config.SQLiteDBPath, "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		return f.createSQLBackend(ctx, storage.DriverPostgres, config.PostgresDSN, "driver", "postgres")
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return &BackendResult{Store: memory.New(), Cleanup: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLBackend(ctx context.Context, driver storage.Driver, dsn string, attrs ...any) (*BackendResult, error) {
	repo, err := storage.NewRepository(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", driver, err)
	}
	f.logger.InfoContext(ctx, "Initialized SQL backend", attrs...)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

// CreateCache implements Factory.CreateCache
func (f *DefaultFactory) CreateCache(ctx context.Context, config CacheConfig) (*CacheResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case NoCache:
		f.logger.InfoContext(ctx, "Report cache disabled")
		return &CacheResult{Cleanup: func() error { return nil }}, nil

	case MemoryCache:
		store := cache.NewLocalStore(config.Size, config.TTL)
		manager := cache.NewManager()
		manager.Register(store)
		manager.StartCleanup(sweepInterval(config.TTL))
		f.logger.InfoContext(ctx, "Initialized in-memory report cache", "size", config.Size, "ttl", config.TTL)
		return &CacheResult{
			Store:   store,
			Cleanup: func() error { manager.Stop(); return nil },
		}, nil

	case RedisCache:
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized redis report cache", "addr", config.RedisAddr, "ttl", config.TTL)
		return &CacheResult{
			Store:   cache.NewRedisStore(client, config.TTL, redisNamespace),
			Cleanup: client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}

// CreateReportWriter implements Factory.CreateReportWriter. Credentials come
// from the environment, see gsheet.ConfigFromEnv.
func (f *DefaultFactory) CreateReportWriter(ctx context.Context, config WriterConfig) (sheets.ReportWriter, error) {
	if config.SpreadsheetID == "" {
		f.logger.InfoContext(ctx, "Google Sheets disabled, keeping report exports in memory")
		return sheetsmem.New(), nil
	}

	cfg := gsheet.ConfigFromEnv()
	cfg.SpreadsheetID = config.SpreadsheetID
	cfg.ReportName = config.ReportName
	cli, err := gsheet.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets report writer", "spreadsheet_id", config.SpreadsheetID)
	return cli, nil
}

func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/cacheSweepDivisor, minCacheSweepPeriod)
}
