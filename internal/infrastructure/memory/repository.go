package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

// LinkRepository is an in-memory store used for development and tests.
// All operations hold the mutex, so increments behave like atomic
// storage-layer updates.
type LinkRepository struct {
	bySlug map[string]*domain.Link
	byID   map[string]string // id -> slug
	mu     sync.RWMutex
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{
		bySlug: make(map[string]*domain.Link),
		byID:   make(map[string]string),
	}
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySlug[link.Slug]; exists {
		return nil, domain.ErrSlugTaken
	}

	stored := *link
	r.bySlug[stored.Slug] = &stored
	r.byID[stored.ID] = stored.Slug

	result := stored
	return &result, nil
}

func (r *LinkRepository) GetBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.bySlug[slug]
	if !exists {
		return nil, domain.ErrLinkNotFound
	}

	result := *link
	return &result, nil
}

func (r *LinkRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.getOwnedLocked(ownerID, id)
}

func (r *LinkRepository) getOwnedLocked(ownerID, id string) (*domain.Link, error) {
	slug, exists := r.byID[id]
	if !exists {
		return nil, domain.ErrLinkNotFound
	}
	link := r.bySlug[slug]
	if link.OwnerID != ownerID {
		// Ownership is not derivable from the slug; a foreign link is
		// indistinguishable from a missing one.
		return nil, domain.ErrLinkNotFound
	}

	result := *link
	return &result, nil
}

func (r *LinkRepository) List(ctx context.Context, ownerID string, opts domain.ListOptions) ([]domain.Link, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Link, 0)
	for _, link := range r.bySlug {
		if link.OwnerID != ownerID {
			continue
		}
		if opts.IsActive != nil && link.IsActive != *opts.IsActive {
			continue
		}
		matched = append(matched, *link)
	}

	sortLinks(matched, opts.Sort, opts.Order)

	total := int64(len(matched))
	start := (opts.Page - 1) * opts.PerPage
	if start >= len(matched) {
		return []domain.Link{}, total, nil
	}
	end := start + opts.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *LinkRepository) Update(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.getOwnedLocked(link.OwnerID, link.ID)
	if err != nil {
		return nil, err
	}

	stored := r.bySlug[existing.Slug]
	stored.TargetURL = link.TargetURL
	stored.Title = link.Title
	stored.Description = link.Description
	stored.IsActive = link.IsActive
	stored.ExpiresAt = link.ExpiresAt
	stored.UpdatedAt = time.Now().UTC()

	result := *stored
	return &result, nil
}

func (r *LinkRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, err := r.getOwnedLocked(ownerID, id)
	if err != nil {
		return err
	}

	delete(r.bySlug, link.Slug)
	delete(r.byID, id)
	return nil
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.bySlug[slug]
	if !exists {
		return domain.ErrLinkNotFound
	}

	link.Clicks++
	return nil
}

func (r *LinkRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.bySlug[slug]
	return exists, nil
}

func (r *LinkRepository) Stats(ctx context.Context, ownerID string) (*domain.OwnerStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.OwnerStats{}
	for _, link := range r.bySlug {
		if link.OwnerID != ownerID {
			continue
		}
		stats.TotalLinks++
		if link.IsActive {
			stats.ActiveLinks++
		} else {
			stats.InactiveLinks++
		}
		stats.TotalClicks += link.Clicks
	}
	return stats, nil
}

func (r *LinkRepository) Close() error {
	return nil
}

func (r *LinkRepository) HealthCheck(ctx context.Context) error {
	return nil
}

func sortLinks(links []domain.Link, field, order string) {
	less := func(i, j int) bool {
		switch field {
		case "clicks":
			return links[i].Clicks < links[j].Clicks
		case "slug":
			return strings.Compare(links[i].Slug, links[j].Slug) < 0
		case "expires_at":
			switch {
			case links[i].ExpiresAt == nil:
				return false
			case links[j].ExpiresAt == nil:
				return true
			default:
				return links[i].ExpiresAt.Before(*links[j].ExpiresAt)
			}
		default:
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
	}
	if order != "asc" {
		original := less
		less = func(i, j int) bool { return original(j, i) }
	}
	sort.SliceStable(links, less)
}
