package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/logging"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/metrics"
	"github.com/Srinathnulidonda/Savlinks/internal/slug"
)

const clickTimeout = 5 * time.Second

// Resolution is the terminal Redirect state of a resolution request.
type Resolution struct {
	Slug      string
	TargetURL string
}

// RedirectResolver drives a resolution request through cache lookup,
// store fallback, active/expiry validation and click accounting. Each
// resolution is independent and stateless; the repository and cache are
// the only shared state.
type RedirectResolver struct {
	repo     domain.LinkRepository
	cache    domain.LinkCache
	gen      *slug.Generator
	registry metrics.Registry
	cacheTTL time.Duration
}

func NewRedirectResolver(repo domain.LinkRepository, cache domain.LinkCache, gen *slug.Generator, registry metrics.Registry, cacheTTL time.Duration) *RedirectResolver {
	return &RedirectResolver{
		repo:     repo,
		cache:    cache,
		gen:      gen,
		registry: registry,
		cacheTTL: cacheTTL,
	}
}

// Resolve returns the redirect target for a slug, or ErrLinkNotFound /
// ErrLinkGone. On success the click increment fires as a detached
// side effect; its failure never affects the response.
func (r *RedirectResolver) Resolve(ctx context.Context, rawSlug string) (*Resolution, error) {
	logger := logging.FromContext(ctx)

	slugValue, err := r.normalize(rawSlug)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	entry, err := r.cache.Get(ctx, slugValue)
	if err != nil {
		// A degraded cache must not fail the redirect; fall through to
		// the store.
		logger.Warn("Cache lookup failed, falling back to store", "slug", slugValue, "error", err)
		entry = nil
	}

	if entry != nil {
		r.registry.IncCacheHit()
		return r.finish(ctx, *entry, now)
	}
	r.registry.IncCacheMiss()

	link, err := r.repo.GetBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, fmt.Errorf("resolve %q: %w", slugValue, err)
	}

	if err := r.cache.Set(ctx, link.CacheEntry(), r.cacheTTL); err != nil {
		logger.Warn("Failed to populate cache", "slug", slugValue, "error", err)
	}

	return r.finish(ctx, link.CacheEntry(), now)
}

// Preview returns link metadata without redirecting or counting a click.
func (r *RedirectResolver) Preview(ctx context.Context, rawSlug string) (*domain.Link, error) {
	slugValue, err := r.normalize(rawSlug)
	if err != nil {
		return nil, err
	}

	link, err := r.repo.GetBySlug(ctx, slugValue)
	if err != nil {
		return nil, err
	}
	if !link.Resolvable(time.Now().UTC()) {
		return nil, domain.ErrLinkGone
	}
	return link, nil
}

func (r *RedirectResolver) normalize(rawSlug string) (string, error) {
	slugValue := strings.ToLower(strings.TrimSpace(rawSlug))
	if slugValue == "" {
		return "", domain.ErrLinkNotFound
	}
	// Reserved words are routing paths, never stored links.
	if r.gen.IsReserved(slugValue) {
		return "", domain.ErrLinkNotFound
	}
	return slugValue, nil
}

func (r *RedirectResolver) finish(ctx context.Context, entry domain.CacheEntry, now time.Time) (*Resolution, error) {
	logger := logging.FromContext(ctx)

	if !entry.IsActive {
		return nil, domain.ErrLinkGone
	}
	if entry.Expired(now) {
		// The entry outlived the link; drop it so later lookups restate
		// Gone from the store.
		if err := r.cache.Invalidate(ctx, entry.Slug); err != nil {
			logger.Warn("Failed to invalidate expired cache entry", "slug", entry.Slug, "error", err)
		}
		return nil, domain.ErrLinkGone
	}

	r.recordClick(entry.Slug, logger)
	r.registry.IncRedirects()

	return &Resolution{Slug: entry.Slug, TargetURL: entry.TargetURL}, nil
}

// recordClick increments the click counter off the request path. The
// increment is atomic at the storage layer; errors are logged and
// swallowed.
func (r *RedirectResolver) recordClick(slugValue string, logger *slog.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), clickTimeout)
		defer cancel()

		if err := r.repo.IncrementClicks(ctx, slugValue); err != nil {
			logger.Error("Failed to increment clicks", "slug", slugValue, "error", err)
		}
	}()
}
