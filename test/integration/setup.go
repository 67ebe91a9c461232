package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	redisContainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Srinathnulidonda/Savlinks/internal/application"
	postgresRepo "github.com/Srinathnulidonda/Savlinks/internal/infrastructure/postgres"
	redisCache "github.com/Srinathnulidonda/Savlinks/internal/infrastructure/redis"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/metrics"
	"github.com/Srinathnulidonda/Savlinks/internal/slug"
)

var (
	sharedPostgres *postgresContainer.PostgresContainer
	sharedRedis    *redisContainer.RedisContainer
	sharedDB       *sqlx.DB
	sharedClient   *redis.Client
	containerOnce  sync.Once
	cleanupOnce    sync.Once
)

// TestEnvironment holds the test setup
type TestEnvironment struct {
	DB       *sqlx.DB
	Cache    *redisCache.RedisCache
	Service  *application.LinkService
	Resolver *application.RedirectResolver
	Repo     *postgresRepo.LinkRepository
}

// SetupTestEnvironment starts shared PostgreSQL and Redis containers,
// runs migrations, and returns wired application services
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	containerOnce.Do(func() {
		ctx := context.Background()

		pg, err := postgresContainer.Run(ctx,
			"postgres:16-alpine",
			postgresContainer.WithDatabase("savlinks_test"),
			postgresContainer.WithUsername("test"),
			postgresContainer.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		sharedPostgres = pg

		connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed to get connection string: %v", err)
		}

		db, err := sqlx.Connect("postgres", connStr)
		if err != nil {
			t.Fatalf("failed to connect to database: %v", err)
		}
		sharedDB = db

		if err := runMigrations(db.DB); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		rd, err := redisContainer.Run(ctx, "redis:7-alpine")
		if err != nil {
			t.Fatalf("failed to start redis container: %v", err)
		}
		sharedRedis = rd

		redisURL, err := rd.ConnectionString(ctx)
		if err != nil {
			t.Fatalf("failed to get redis connection string: %v", err)
		}

		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			t.Fatalf("failed to parse redis url: %v", err)
		}
		sharedClient = redis.NewClient(opts)
		if err := sharedClient.Ping(ctx).Err(); err != nil {
			t.Fatalf("failed to ping redis: %v", err)
		}
	})

	cleanState(t)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := postgresRepo.NewLinkRepository(sharedDB)
	cache := redisCache.NewRedisCache(sharedClient, logger)
	gen := slug.NewGenerator(7, nil)
	registry := metrics.NewNoOpRegistry()

	return &TestEnvironment{
		DB:       sharedDB,
		Cache:    cache,
		Repo:     repo,
		Service:  application.NewLinkService(repo, cache, gen, time.Hour),
		Resolver: application.NewRedirectResolver(repo, cache, gen, registry, time.Hour),
	}
}

// CleanupSharedResources should be called once at the end of all tests
func CleanupSharedResources() {
	cleanupOnce.Do(func() {
		ctx := context.Background()
		if sharedDB != nil {
			_ = sharedDB.Close()
		}
		if sharedClient != nil {
			_ = sharedClient.Close()
		}
		if sharedPostgres != nil {
			_ = sharedPostgres.Terminate(ctx)
		}
		if sharedRedis != nil {
			_ = sharedRedis.Terminate(ctx)
		}
	})
}

// cleanState truncates tables and flushes the cache for test isolation
func cleanState(t *testing.T) {
	if _, err := sharedDB.Exec("TRUNCATE TABLE links RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	if err := sharedClient.FlushAll(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

func runMigrations(db *sql.DB) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationsPath, err := filepath.Abs("../../migrations/postgres")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// TestMain handles setup and teardown for the entire test suite
func TestMain(m *testing.M) {
	code := m.Run()

	CleanupSharedResources()

	os.Exit(code)
}
