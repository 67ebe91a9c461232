package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
	"github.com/Srinathnulidonda/Savlinks/internal/infrastructure/cache"
	"github.com/Srinathnulidonda/Savlinks/internal/infrastructure/memory"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/metrics"
	"github.com/Srinathnulidonda/Savlinks/internal/slug"
)

type resolverFixture struct {
	repo     *memory.LinkRepository
	cache    *cache.MemoryCache
	service  *LinkService
	resolver *RedirectResolver
}

func newResolverFixture() *resolverFixture {
	repo := memory.NewLinkRepository()
	memCache := cache.NewMemoryCache()
	gen := slug.NewGenerator(7, nil)

	return &resolverFixture{
		repo:     repo,
		cache:    memCache,
		service:  NewLinkService(repo, memCache, gen, time.Hour),
		resolver: NewRedirectResolver(repo, memCache, gen, metrics.NewNoOpRegistry(), time.Hour),
	}
}

// waitForClicks polls until the slug reaches the wanted click count.
// Click increments run detached from the request, so the test has to
// wait for them to land.
func waitForClicks(t *testing.T, repo *memory.LinkRepository, slugValue string, want int64) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		link, err := repo.GetBySlug(context.Background(), slugValue)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if link.Clicks >= want {
			if link.Clicks > want {
				t.Fatalf("expected %d clicks, got %d", want, link.Clicks)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("clicks for %q did not reach %d in time", slugValue, want)
}

func TestRedirectResolver_Resolve(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	created, err := f.service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:        "https://example.com/spring",
		CustomSlug: "promo",
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolution, err := f.resolver.Resolve(ctx, "promo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolution.TargetURL != "https://example.com/spring" {
		t.Errorf("expected target https://example.com/spring, got %s", resolution.TargetURL)
	}
	if resolution.Slug != created.Slug {
		t.Errorf("expected slug %q, got %q", created.Slug, resolution.Slug)
	}

	waitForClicks(t, f.repo, "promo", 1)
}

func TestRedirectResolver_Resolve_SlugNormalization(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	if _, err := f.service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:        "https://example.com",
		CustomSlug: "promo",
	}, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.resolver.Resolve(ctx, "  PROMO  "); err != nil {
		t.Fatalf("expected case-insensitive lookup to succeed, got %v", err)
	}
}

func TestRedirectResolver_Resolve_NotFound(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		slug string
	}{
		{name: "unknown slug", slug: "missing"},
		{name: "empty slug", slug: ""},
		{name: "whitespace slug", slug: "   "},
		{name: "reserved word", slug: "metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.resolver.Resolve(ctx, tt.slug); !errors.Is(err, domain.ErrLinkNotFound) {
				t.Fatalf("expected ErrLinkNotFound, got %v", err)
			}
		})
	}
}

func TestRedirectResolver_Resolve_DisabledLink(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	created, err := f.service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:        "https://example.com",
		CustomSlug: "paused",
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The create warmed the cache. Disabling must invalidate it so the
	// very next resolution observes the new state.
	if _, err := f.resolver.Resolve(ctx, "paused"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.service.ToggleLink(ctx, testOwner, created.ID, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.resolver.Resolve(ctx, "paused"); !errors.Is(err, domain.ErrLinkGone) {
		t.Fatalf("expected ErrLinkGone after disable, got %v", err)
	}

	// Re-enabling restores resolution.
	if _, err := f.service.ToggleLink(ctx, testOwner, created.ID, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.resolver.Resolve(ctx, "paused"); err != nil {
		t.Fatalf("expected resolution after re-enable, got %v", err)
	}
}

func TestRedirectResolver_Resolve_ExpiredLink(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	// Seed the repository directly so the expiry can sit in the past.
	expired := time.Now().UTC().Add(-time.Minute)
	link := &domain.Link{
		ID:        "11111111-1111-1111-1111-111111111111",
		OwnerID:   testOwner,
		Slug:      "old",
		TargetURL: "https://example.com",
		IsActive:  true,
		ExpiresAt: &expired,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		UpdatedAt: time.Now().UTC().Add(-time.Hour),
	}
	if _, err := f.repo.Create(ctx, link); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.resolver.Resolve(ctx, "old"); !errors.Is(err, domain.ErrLinkGone) {
		t.Fatalf("expected ErrLinkGone for expired link, got %v", err)
	}

	// No click is counted for a Gone outcome.
	time.Sleep(50 * time.Millisecond)
	got, err := f.repo.GetBySlug(ctx, "old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Clicks != 0 {
		t.Errorf("expected 0 clicks on expired link, got %d", got.Clicks)
	}
}

func TestRedirectResolver_Resolve_CachedEntryExpiresUnderTTL(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	// A cached entry whose link expiry passes while cached must resolve
	// Gone based on the embedded expiry, not the cache TTL.
	expiresAt := time.Now().UTC().Add(30 * time.Millisecond)
	entry := domain.CacheEntry{
		Slug:      "flash",
		TargetURL: "https://example.com/flash",
		IsActive:  true,
		ExpiresAt: &expiresAt,
	}
	if err := f.cache.Set(ctx, entry, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.repo.Create(ctx, &domain.Link{
		ID:        "22222222-2222-2222-2222-222222222222",
		OwnerID:   testOwner,
		Slug:      "flash",
		TargetURL: "https://example.com/flash",
		IsActive:  true,
		ExpiresAt: &expiresAt,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.resolver.Resolve(ctx, "flash"); err != nil {
		t.Fatalf("expected resolution before expiry, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, err := f.resolver.Resolve(ctx, "flash"); !errors.Is(err, domain.ErrLinkGone) {
		t.Fatalf("expected ErrLinkGone once expiry passes, got %v", err)
	}

	// The stale entry was dropped on the way out.
	cached, err := f.cache.Get(ctx, "flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached != nil {
		t.Error("expected expired cache entry to be invalidated")
	}
}

func TestRedirectResolver_Resolve_PopulatesCacheOnMiss(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	if _, err := f.repo.Create(ctx, &domain.Link{
		ID:        "33333333-3333-3333-3333-333333333333",
		OwnerID:   testOwner,
		Slug:      "warm",
		TargetURL: "https://example.com/warm",
		IsActive:  true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.resolver.Resolve(ctx, "warm"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cached, err := f.cache.Get(ctx, "warm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached == nil {
		t.Fatal("expected cache to be populated after a store hit")
	}
	if cached.TargetURL != "https://example.com/warm" {
		t.Errorf("expected cached target https://example.com/warm, got %s", cached.TargetURL)
	}
}

func TestRedirectResolver_Resolve_AccumulatesClicks(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	if _, err := f.service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:        "https://example.com",
		CustomSlug: "busy",
	}, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const n = 10
	for i := 0; i < n; i++ {
		if _, err := f.resolver.Resolve(ctx, "busy"); err != nil {
			t.Fatalf("unexpected error on resolution %d: %v", i, err)
		}
	}

	waitForClicks(t, f.repo, "busy", n)
}

func TestRedirectResolver_Preview(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	title := "Landing"
	if _, err := f.service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:        "https://example.com/landing",
		CustomSlug: "look",
		Title:      &title,
	}, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	link, err := f.resolver.Preview(ctx, "look")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Title == nil || *link.Title != "Landing" {
		t.Errorf("expected title Landing, got %v", link.Title)
	}

	// Previews do not count clicks.
	time.Sleep(50 * time.Millisecond)
	got, err := f.repo.GetBySlug(ctx, "look")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Clicks != 0 {
		t.Errorf("expected 0 clicks after preview, got %d", got.Clicks)
	}

	if _, err := f.resolver.Preview(ctx, "missing"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}
