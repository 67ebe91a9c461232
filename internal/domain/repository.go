package domain

import "context"

// ListOptions controls pagination and ordering of owner link listings.
type ListOptions struct {
	Page     int
	PerPage  int
	IsActive *bool
	Sort     string // created_at, clicks, expires_at, slug
	Order    string // asc, desc
}

// OwnerStats aggregates link counters for a single owner.
type OwnerStats struct {
	TotalLinks    int64 `db:"total_links" json:"totalLinks"`
	ActiveLinks   int64 `db:"active_links" json:"activeLinks"`
	InactiveLinks int64 `db:"inactive_links" json:"inactiveLinks"`
	TotalClicks   int64 `db:"total_clicks" json:"totalClicks"`
}

// LinkRepository is the persistent store of links. Mutating operations
// are scoped to the requesting owner; a link belonging to another owner
// behaves as if it did not exist.
type LinkRepository interface {
	Create(ctx context.Context, link *Link) (*Link, error)
	GetBySlug(ctx context.Context, slug string) (*Link, error)
	GetByID(ctx context.Context, ownerID, id string) (*Link, error)
	List(ctx context.Context, ownerID string, opts ListOptions) ([]Link, int64, error)
	Update(ctx context.Context, link *Link) (*Link, error)
	Delete(ctx context.Context, ownerID, id string) error
	// IncrementClicks performs an atomic storage-layer increment so
	// concurrent clicks on the same slug are never lost.
	IncrementClicks(ctx context.Context, slug string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	Stats(ctx context.Context, ownerID string) (*OwnerStats, error)
	Close() error
	HealthCheck(ctx context.Context) error
}
