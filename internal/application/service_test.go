package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
	"github.com/Srinathnulidonda/Savlinks/internal/infrastructure/cache"
	"github.com/Srinathnulidonda/Savlinks/internal/infrastructure/memory"
	"github.com/Srinathnulidonda/Savlinks/internal/slug"
)

const (
	testBaseURL = "http://localhost:8080"
	testOwner   = "owner-1"
	otherOwner  = "owner-2"
)

func newTestService() *LinkService {
	repo := memory.NewLinkRepository()
	return NewLinkService(repo, cache.NewMemoryCache(), slug.NewGenerator(7, nil), time.Hour)
}

func TestLinkService_CreateLink_GeneratedSlug(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	resp, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL: "https://example.com/landing",
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Slug) != 7 {
		t.Errorf("expected slug length 7, got %d (%q)", len(resp.Slug), resp.Slug)
	}
	if resp.Slug != strings.ToLower(resp.Slug) {
		t.Errorf("expected lowercase slug, got %q", resp.Slug)
	}
	if resp.ShortURL != testBaseURL+"/"+resp.Slug {
		t.Errorf("expected ShortURL %s, got %s", testBaseURL+"/"+resp.Slug, resp.ShortURL)
	}
	if resp.TargetURL != "https://example.com/landing" {
		t.Errorf("expected TargetURL to round-trip, got %s", resp.TargetURL)
	}
	if !resp.IsActive {
		t.Error("expected new link to be active")
	}
	if resp.Clicks != 0 {
		t.Errorf("expected zero clicks, got %d", resp.Clicks)
	}
}

func TestLinkService_CreateLink_CustomSlug(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	tests := []struct {
		name     string
		slug     string
		wantSlug string
		wantErr  error
	}{
		{name: "valid custom slug", slug: "summer-sale", wantSlug: "summer-sale"},
		{name: "uppercase is normalized", slug: "PROMO24", wantSlug: "promo24"},
		{name: "too short", slug: "abc", wantErr: domain.ErrInvalidSlug},
		{name: "bad characters", slug: "with space", wantErr: domain.ErrInvalidSlug},
		{name: "leading hyphen", slug: "-lead", wantErr: domain.ErrInvalidSlug},
		{name: "reserved word", slug: "links", wantErr: domain.ErrSlugReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
				URL:        "https://example.com",
				CustomSlug: tt.slug,
			}, testBaseURL)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Slug != tt.wantSlug {
				t.Errorf("expected slug %q, got %q", tt.wantSlug, resp.Slug)
			}
		})
	}
}

func TestLinkService_CreateLink_DuplicateSlug(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	if _, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:        "https://example.com/a",
		CustomSlug: "promo",
	}, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A second claim of the same slug, even by another owner, conflicts.
	_, err := service.CreateLink(ctx, otherOwner, CreateLinkRequest{
		URL:        "https://example.com/b",
		CustomSlug: "promo",
	}, testBaseURL)
	if !errors.Is(err, domain.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestLinkService_CreateLink_ExpiryValidation(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	_, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:       "https://example.com",
		ExpiresAt: &past,
	}, testBaseURL)
	if !errors.Is(err, domain.ErrExpiryInPast) {
		t.Fatalf("expected ErrExpiryInPast, got %v", err)
	}

	future := time.Now().UTC().Add(time.Hour)
	resp, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:       "https://example.com",
		ExpiresAt: &future,
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ExpiresAt == nil || !resp.ExpiresAt.Equal(future) {
		t.Errorf("expected ExpiresAt %v, got %v", future, resp.ExpiresAt)
	}
	if resp.IsExpired {
		t.Error("expected link with future expiry to not be expired")
	}
}

func TestLinkService_CreateLink_InvalidURL(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	for _, raw := range []string{"", "not-a-url", "   "} {
		if _, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{URL: raw}, testBaseURL); err == nil {
			t.Errorf("expected error for URL %q", raw)
		}
	}
}

func TestLinkService_GetLink_Ownership(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	created, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL: "https://example.com",
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := service.GetLink(ctx, testOwner, created.ID, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Slug != created.Slug {
		t.Errorf("expected slug %q, got %q", created.Slug, got.Slug)
	}

	// Another owner cannot even observe that the link exists.
	if _, err := service.GetLink(ctx, otherOwner, created.ID, testBaseURL); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound for foreign owner, got %v", err)
	}
}

func TestLinkService_UpdateLink(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	future := time.Now().UTC().Add(time.Hour)
	created, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:       "https://example.com",
		ExpiresAt: &future,
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inactive := false
	title := "Campaign"
	updated, err := service.UpdateLink(ctx, testOwner, created.ID, UpdateLinkRequest{
		IsActive: &inactive,
		Title:    &title,
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.IsActive {
		t.Error("expected link to be inactive after update")
	}
	if updated.Title == nil || *updated.Title != "Campaign" {
		t.Errorf("expected title Campaign, got %v", updated.Title)
	}
	if updated.ExpiresAt == nil {
		t.Error("expected expiry to be untouched")
	}

	cleared, err := service.UpdateLink(ctx, testOwner, created.ID, UpdateLinkRequest{
		ClearExpiry: true,
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared.ExpiresAt != nil {
		t.Errorf("expected expiry cleared, got %v", cleared.ExpiresAt)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := service.UpdateLink(ctx, testOwner, created.ID, UpdateLinkRequest{
		ExpiresAt: &past,
	}, testBaseURL); !errors.Is(err, domain.ErrExpiryInPast) {
		t.Fatalf("expected ErrExpiryInPast, got %v", err)
	}

	if _, err := service.UpdateLink(ctx, otherOwner, created.ID, UpdateLinkRequest{
		ClearExpiry: true,
	}, testBaseURL); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound for foreign owner, got %v", err)
	}
}

func TestLinkService_ToggleLink(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	created, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL: "https://example.com",
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	toggled, err := service.ToggleLink(ctx, testOwner, created.ID, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toggled.IsActive {
		t.Error("expected first toggle to deactivate")
	}

	toggled, err = service.ToggleLink(ctx, testOwner, created.ID, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !toggled.IsActive {
		t.Error("expected second toggle to reactivate")
	}
}

func TestLinkService_DeleteLink_FreesSlug(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	created, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:        "https://example.com",
		CustomSlug: "promo",
	}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := service.DeleteLink(ctx, testOwner, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := service.GetLink(ctx, testOwner, created.ID, testBaseURL); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound after delete, got %v", err)
	}

	// The slug is free to claim again.
	if _, err := service.CreateLink(ctx, otherOwner, CreateLinkRequest{
		URL:        "https://example.com/other",
		CustomSlug: "promo",
	}, testBaseURL); err != nil {
		t.Fatalf("expected freed slug to be claimable, got %v", err)
	}
}

func TestLinkService_ListLinks(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
			URL: "https://example.com/page",
		}, testBaseURL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := service.CreateLink(ctx, otherOwner, CreateLinkRequest{
		URL: "https://example.com/foreign",
	}, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := service.ListLinks(ctx, testOwner, domain.ListOptions{Page: 1, PerPage: 2}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Links) != 2 {
		t.Errorf("expected 2 links on first page, got %d", len(resp.Links))
	}
	if resp.Pagination.TotalItems != 5 {
		t.Errorf("expected 5 total items, got %d", resp.Pagination.TotalItems)
	}
	if resp.Pagination.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", resp.Pagination.TotalPages)
	}
	if !resp.Pagination.HasNext || resp.Pagination.HasPrev {
		t.Errorf("unexpected pagination flags: %+v", resp.Pagination)
	}

	// Out-of-range values fall back to defaults.
	resp, err = service.ListLinks(ctx, testOwner, domain.ListOptions{Page: -1, PerPage: 1000}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Pagination.Page != 1 || resp.Pagination.PerPage != 100 {
		t.Errorf("expected clamped pagination, got %+v", resp.Pagination)
	}
}

func TestLinkService_ListLinks_ActiveFilter(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	created, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{URL: "https://example.com/a"}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{URL: "https://example.com/b"}, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.ToggleLink(ctx, testOwner, created.ID, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := true
	resp, err := service.ListLinks(ctx, testOwner, domain.ListOptions{IsActive: &active}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Links) != 1 {
		t.Fatalf("expected 1 active link, got %d", len(resp.Links))
	}
	if resp.Links[0].ID == created.ID {
		t.Error("expected the deactivated link to be filtered out")
	}
}

func TestLinkService_Stats(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	created, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{URL: "https://example.com/a"}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{URL: "https://example.com/b"}, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.ToggleLink(ctx, testOwner, created.ID, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := service.Stats(ctx, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalLinks != 2 {
		t.Errorf("expected 2 total links, got %d", stats.TotalLinks)
	}
	if stats.ActiveLinks != 1 {
		t.Errorf("expected 1 active link, got %d", stats.ActiveLinks)
	}
	if stats.InactiveLinks != 1 {
		t.Errorf("expected 1 inactive link, got %d", stats.InactiveLinks)
	}
}

func TestLinkService_CheckSlug(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	if _, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
		URL:        "https://example.com",
		CustomSlug: "taken",
	}, testBaseURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	normalized, available, err := service.CheckSlug(ctx, "FreeSlug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if normalized != "freeslug" {
		t.Errorf("expected normalized slug freeslug, got %q", normalized)
	}
	if !available {
		t.Error("expected freeslug to be available")
	}

	_, available, err = service.CheckSlug(ctx, "taken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available {
		t.Error("expected taken to be unavailable")
	}

	if _, _, err := service.CheckSlug(ctx, "api"); !errors.Is(err, domain.ErrSlugReserved) {
		t.Fatalf("expected ErrSlugReserved, got %v", err)
	}
}

func TestLinkService_GeneratedSlug_ExhaustionBumpsLength(t *testing.T) {
	repo := memory.NewLinkRepository()
	// Length 1 over a 31-character alphabet collides fast once most
	// candidates are claimed.
	service := NewLinkService(repo, cache.NewMemoryCache(), slug.NewGenerator(1, nil), time.Hour)
	ctx := context.Background()

	seen := map[int]bool{}
	for i := 0; i < 40; i++ {
		resp, err := service.CreateLink(ctx, testOwner, CreateLinkRequest{
			URL: "https://example.com",
		}, testBaseURL)
		if err != nil {
			if errors.Is(err, domain.ErrGenerationExhausted) {
				return
			}
			t.Fatalf("unexpected error: %v", err)
		}
		seen[len(resp.Slug)] = true
	}

	if !seen[4] {
		t.Error("expected allocation to fall back to the bumped length")
	}
}
