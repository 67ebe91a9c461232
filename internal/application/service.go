package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/logging"
	"github.com/Srinathnulidonda/Savlinks/internal/slug"
)

// maxGenerateAttempts bounds the create-retry loop at the base slug
// length. On exhaustion one more round runs at an increased length
// before ErrGenerationExhausted surfaces.
const (
	maxGenerateAttempts = 5
	lengthBump          = 3
)

type LinkService struct {
	repo     domain.LinkRepository
	cache    domain.LinkCache
	gen      *slug.Generator
	validate *validator.Validate
	cacheTTL time.Duration
}

func NewLinkService(repo domain.LinkRepository, cache domain.LinkCache, gen *slug.Generator, cacheTTL time.Duration) *LinkService {
	return &LinkService{
		repo:     repo,
		cache:    cache,
		gen:      gen,
		validate: validator.New(),
		cacheTTL: cacheTTL,
	}
}

type CreateLinkRequest struct {
	URL         string     `json:"url" validate:"required,url,max=2048"`
	CustomSlug  string     `json:"customSlug,omitempty" validate:"omitempty,min=1,max=30"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type UpdateLinkRequest struct {
	IsActive    *bool      `json:"isActive,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ClearExpiry bool       `json:"clearExpiry,omitempty"`
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type LinkResponse struct {
	domain.Link
	ShortURL  string `json:"shortUrl"`
	IsExpired bool   `json:"isExpired"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
	TotalItems int64 `json:"totalItems"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

type LinkListResponse struct {
	Links      []LinkResponse `json:"links"`
	Pagination Pagination     `json:"pagination"`
}

func (s *LinkService) toResponse(link *domain.Link, baseURL string) *LinkResponse {
	return &LinkResponse{
		Link:      *link,
		ShortURL:  baseURL + "/" + link.Slug,
		IsExpired: link.Expired(time.Now().UTC()),
	}
}

// CreateLink allocates a slug (custom or generated) and persists the
// link for the owner. A custom slug that is already taken surfaces as
// domain.ErrSlugTaken; random allocation retries on collision up to a
// bound, then once more at an increased length.
func (s *LinkService) CreateLink(ctx context.Context, ownerID string, req CreateLinkRequest, baseURL string) (*LinkResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now().UTC()) {
		return nil, domain.ErrExpiryInPast
	}

	var created *domain.Link
	var err error
	if req.CustomSlug != "" {
		created, err = s.createWithCustomSlug(ctx, ownerID, req)
	} else {
		created, err = s.createWithGeneratedSlug(ctx, ownerID, req)
	}
	if err != nil {
		return nil, err
	}

	// Warm the redirect cache. Failure only costs the first resolution
	// a store lookup.
	if cacheErr := s.cache.Set(ctx, created.CacheEntry(), s.cacheTTL); cacheErr != nil {
		logging.FromContext(ctx).Warn("Failed to cache new link", "slug", created.Slug, "error", cacheErr)
	}

	return s.toResponse(created, baseURL), nil
}

func (s *LinkService) createWithCustomSlug(ctx context.Context, ownerID string, req CreateLinkRequest) (*domain.Link, error) {
	normalized, err := s.gen.ValidateCustom(req.CustomSlug)
	if err != nil {
		return nil, err
	}

	link, err := s.newLink(ownerID, normalized, req)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, link)
}

func (s *LinkService) createWithGeneratedSlug(ctx context.Context, ownerID string, req CreateLinkRequest) (*domain.Link, error) {
	for _, length := range []int{s.gen.Length(), s.gen.Length() + lengthBump} {
		for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
			candidate, err := s.gen.Generate(length)
			if err != nil {
				return nil, err
			}

			link, err := s.newLink(ownerID, candidate, req)
			if err != nil {
				return nil, err
			}

			created, err := s.repo.Create(ctx, link)
			if err == nil {
				return created, nil
			}
			if !errors.Is(err, domain.ErrSlugTaken) {
				return nil, err
			}
			logging.FromContext(ctx).Debug("Slug collision, regenerating", "slug", candidate, "attempt", attempt+1)
		}
	}
	return nil, fmt.Errorf("%w: no free slug after %d attempts", domain.ErrGenerationExhausted, 2*maxGenerateAttempts)
}

func (s *LinkService) newLink(ownerID, slugValue string, req CreateLinkRequest) (*domain.Link, error) {
	link, err := domain.NewLink(ownerID, slugValue, req.URL, req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	link.Title = req.Title
	link.Description = req.Description
	return link, nil
}

func (s *LinkService) GetLink(ctx context.Context, ownerID, id string, baseURL string) (*LinkResponse, error) {
	link, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(link, baseURL), nil
}

func (s *LinkService) ListLinks(ctx context.Context, ownerID string, opts domain.ListOptions, baseURL string) (*LinkListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 {
		opts.PerPage = 20
	}
	if opts.PerPage > 100 {
		opts.PerPage = 100
	}
	switch opts.Sort {
	case "created_at", "clicks", "expires_at", "slug":
	default:
		opts.Sort = "created_at"
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	links, total, err := s.repo.List(ctx, ownerID, opts)
	if err != nil {
		return nil, err
	}

	items := make([]LinkResponse, 0, len(links))
	for i := range links {
		items = append(items, *s.toResponse(&links[i], baseURL))
	}

	totalPages := int((total + int64(opts.PerPage) - 1) / int64(opts.PerPage))
	return &LinkListResponse{
		Links: items,
		Pagination: Pagination{
			Page:       opts.Page,
			PerPage:    opts.PerPage,
			TotalPages: totalPages,
			TotalItems: total,
			HasNext:    opts.Page < totalPages,
			HasPrev:    opts.Page > 1,
		},
	}, nil
}

// UpdateLink mutates owner-editable fields. The corresponding cache
// entry is invalidated before the mutation is acknowledged so staleness
// is zero in the normal case and bounded by the TTL otherwise.
func (s *LinkService) UpdateLink(ctx context.Context, ownerID, id string, req UpdateLinkRequest, baseURL string) (*LinkResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	link, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	if req.ClearExpiry {
		link.ExpiresAt = nil
	} else if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(time.Now().UTC()) {
			return nil, domain.ErrExpiryInPast
		}
		link.ExpiresAt = req.ExpiresAt
	}
	if req.Title != nil {
		link.Title = req.Title
	}
	if req.Description != nil {
		link.Description = req.Description
	}

	updated, err := s.repo.Update(ctx, link)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, updated.Slug)
	return s.toResponse(updated, baseURL), nil
}

// ToggleLink flips the active flag.
func (s *LinkService) ToggleLink(ctx context.Context, ownerID, id string, baseURL string) (*LinkResponse, error) {
	link, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	link.IsActive = !link.IsActive
	updated, err := s.repo.Update(ctx, link)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, updated.Slug)
	return s.toResponse(updated, baseURL), nil
}

// DeleteLink removes the link and frees its slug.
func (s *LinkService) DeleteLink(ctx context.Context, ownerID, id string) error {
	link, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.invalidateCache(ctx, link.Slug)
	return nil
}

func (s *LinkService) Stats(ctx context.Context, ownerID string) (*domain.OwnerStats, error) {
	return s.repo.Stats(ctx, ownerID)
}

// CheckSlug reports whether a custom slug is valid and unclaimed.
func (s *LinkService) CheckSlug(ctx context.Context, raw string) (string, bool, error) {
	normalized, err := s.gen.ValidateCustom(raw)
	if err != nil {
		return "", false, err
	}

	exists, err := s.repo.SlugExists(ctx, normalized)
	if err != nil {
		return "", false, err
	}
	return normalized, !exists, nil
}

// invalidateCache removes a cache entry synchronously. A failure here is
// the crash/partition case: staleness stays bounded by the cache TTL.
func (s *LinkService) invalidateCache(ctx context.Context, slugValue string) {
	if err := s.cache.Invalidate(ctx, slugValue); err != nil {
		logging.FromContext(ctx).Warn("Failed to invalidate link cache", "slug", slugValue, "error", err)
	}
}
