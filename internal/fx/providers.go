package fx

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Srinathnulidonda/Savlinks/config"
	"github.com/Srinathnulidonda/Savlinks/internal/domain"
	"github.com/Srinathnulidonda/Savlinks/internal/infrastructure/brevo"
	cacheInfra "github.com/Srinathnulidonda/Savlinks/internal/infrastructure/cache"
	memoryRepo "github.com/Srinathnulidonda/Savlinks/internal/infrastructure/memory"
	postgresRepo "github.com/Srinathnulidonda/Savlinks/internal/infrastructure/postgres"
	redisCache "github.com/Srinathnulidonda/Savlinks/internal/infrastructure/redis"
	sqliteRepo "github.com/Srinathnulidonda/Savlinks/internal/infrastructure/sqlite"
	"github.com/Srinathnulidonda/Savlinks/internal/infrastructure/supabase"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/metrics"
	"github.com/Srinathnulidonda/Savlinks/internal/slug"
)

// ProvideLogger creates and configures the application logger
func ProvideLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// ProvideRepository creates the appropriate repository based on configuration
func ProvideRepository(cfg *config.Config, logger *slog.Logger) (domain.LinkRepository, error) {
	switch cfg.Database.Type {
	case "memory":
		logger.Info("Using in-memory repository")
		return memoryRepo.NewLinkRepository(), nil

	case "sqlite":
		dbURL := cfg.GetDatabaseURL()
		logger.Info("Using SQLite repository", "path", dbURL)

		// Create data directory if it doesn't exist
		if err := os.MkdirAll("./data", 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		db, err := sqlx.Connect("sqlite3", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}

		if err := runMigrations(db, "sqlite3", "sqlite"); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return sqliteRepo.NewLinkRepository(db), nil

	case "postgres":
		dbURL := cfg.GetDatabaseURL()
		logger.Info("Using PostgreSQL repository")

		db, err := sqlx.Connect("postgres", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		if err := runMigrations(db, "postgres", "postgres"); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return postgresRepo.NewLinkRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// runMigrations runs database migrations
func runMigrations(db interface{}, driverName, migrationDir string) error {
	var driver database.Driver
	var err error

	sqlDB, ok := db.(*sqlx.DB)
	if ok {
		db = sqlDB.DB
	}

	rawDB, ok := db.(*sql.DB)
	if !ok {
		return fmt.Errorf("expected *sql.DB, got %T", db)
	}

	switch driverName {
	case "sqlite3":
		driver, err = migratesqlite.WithInstance(rawDB, &migratesqlite.Config{})
	case "postgres":
		driver, err = migratepg.WithInstance(rawDB, &migratepg.Config{})
	default:
		return fmt.Errorf("unsupported driver: %s", driverName)
	}

	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := fmt.Sprintf("file://migrations/%s", migrationDir)
	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		driverName,
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Migrations completed successfully")
	return nil
}

// ProvideRedisClient creates a Redis client when caching is enabled,
// nil otherwise.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return redis.NewClient(opts), nil
}

// ProvideCache selects the cache implementation based on configuration
func ProvideCache(cfg *config.Config, client *redis.Client, logger *slog.Logger) domain.LinkCache {
	if !cfg.Cache.Enabled || client == nil {
		logger.Info("Redirect cache disabled")
		return cacheInfra.NewNoOpCache()
	}

	logger.Info("Using Redis redirect cache")
	return redisCache.NewRedisCache(client, logger)
}

// ProvideCacheTTL exposes the configured cache entry TTL
func ProvideCacheTTL(cfg *config.Config) time.Duration {
	return cfg.CacheTTL()
}

// ProvideSlugGenerator creates the slug generator from configuration
func ProvideSlugGenerator(cfg *config.Config) *slug.Generator {
	return slug.NewGenerator(cfg.App.SlugLength, cfg.App.ReservedSlugs)
}

// ProvideVerifier creates the bearer token verifier. An empty secret
// selects a static verifier so local setups run without an identity
// provider.
func ProvideVerifier(cfg *config.Config, logger *slog.Logger) (domain.TokenVerifier, error) {
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("No JWT secret configured, using static dev verifier")
		return supabase.NewStaticVerifier(map[string]domain.Identity{
			"dev-token": {UserID: "dev-user", Email: "dev@localhost"},
		}), nil
	}

	return supabase.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience)
}

// ProvideEmailSender creates the transactional email sender
func ProvideEmailSender(cfg *config.Config, logger *slog.Logger) domain.EmailSender {
	if !cfg.Email.Enabled || cfg.Email.APIKey == "" {
		return brevo.NewNoOpSender(logger)
	}

	return brevo.NewSender(cfg.Email.APIURL, cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName, logger)
}

// ProvideMetricsRegistry creates the metrics registry based on configuration
func ProvideMetricsRegistry(cfg *config.Config) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoOpRegistry(), nil
	}

	return metrics.NewPrometheusRegistry(cfg.Metrics)
}

// RepositoryParams holds the parameters needed for repository lifecycle management
type RepositoryParams struct {
	fx.In

	Repository domain.LinkRepository
	Logger     *slog.Logger
}

// RegisterRepositoryHooks registers repository lifecycle hooks with FX
func RegisterRepositoryHooks(lc fx.Lifecycle, params RepositoryParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := params.Repository.Close(); err != nil {
				params.Logger.Error("Failed to close repository resources", "error", err)
				return err
			}
			params.Logger.Info("Repository resources closed successfully")
			return nil
		},
	})
}

// CacheParams holds the parameters needed for cache lifecycle management
type CacheParams struct {
	fx.In

	Client *redis.Client
	Cache  domain.LinkCache
	Logger *slog.Logger
}

// RegisterCacheHooks registers cache lifecycle hooks with FX
func RegisterCacheHooks(lc fx.Lifecycle, params CacheParams) {
	if params.Client == nil {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.Cache.Ping(ctx); err != nil {
				params.Logger.Error("Failed to ping cache", "error", err)
				return err
			}
			params.Logger.Info("Cache connection established")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := params.Client.Close(); err != nil {
				params.Logger.Error("Failed to close cache connection", "error", err)
				return err
			}
			params.Logger.Info("Cache connection closed")
			return nil
		},
	})
}
