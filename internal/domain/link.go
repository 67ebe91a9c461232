package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLinkNotFound        = errors.New("link not found")
	ErrLinkGone            = errors.New("link expired or disabled")
	ErrSlugTaken           = errors.New("slug already exists")
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidSlug         = errors.New("invalid slug")
	ErrSlugReserved        = errors.New("slug is reserved")
	ErrGenerationExhausted = errors.New("slug generation exhausted")
	ErrExpiryInPast        = errors.New("expiration must be in the future")
)

// Link maps a slug to a target URL for a single owner. The slug is
// immutable once assigned and unique across all links regardless of the
// active flag.
type Link struct {
	ID          string     `db:"id" json:"id"`
	OwnerID     string     `db:"owner_id" json:"-"`
	Slug        string     `db:"slug" json:"slug"`
	TargetURL   string     `db:"target_url" json:"targetUrl"`
	Title       *string    `db:"title" json:"title,omitempty"`
	Description *string    `db:"description" json:"description,omitempty"`
	Clicks      int64      `db:"clicks" json:"clicks"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

func NewLink(ownerID, slug, targetURL string, expiresAt *time.Time) (*Link, error) {
	if ownerID == "" {
		return nil, errors.New("owner id is required")
	}
	if slug == "" {
		return nil, ErrInvalidSlug
	}
	targetURL = strings.TrimSpace(targetURL)
	if err := validateTargetURL(targetURL); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Link{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Slug:      strings.ToLower(strings.TrimSpace(slug)),
		TargetURL: targetURL,
		IsActive:  true,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// validateTargetURL accepts absolute http(s) URLs only.
func validateTargetURL(raw string) error {
	if raw == "" {
		return ErrInvalidURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}
	if parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// Expired reports whether the link is past its expiry instant. The
// comparison is inclusive: a link expires exactly at ExpiresAt.
func (l *Link) Expired(now time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return !now.Before(*l.ExpiresAt)
}

// Resolvable reports whether a redirect may be served for the link.
func (l *Link) Resolvable(now time.Time) bool {
	return l.IsActive && !l.Expired(now)
}

// CacheEntry is the ephemeral projection of a Link held by the redirect
// cache. Its TTL is independent of the link's own expiry.
type CacheEntry struct {
	Slug      string     `json:"slug"`
	TargetURL string     `json:"targetUrl"`
	IsActive  bool       `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (l *Link) CacheEntry() CacheEntry {
	return CacheEntry{
		Slug:      l.Slug,
		TargetURL: l.TargetURL,
		IsActive:  l.IsActive,
		ExpiresAt: l.ExpiresAt,
	}
}

func (e CacheEntry) Expired(now time.Time) bool {
	if e.ExpiresAt == nil {
		return false
	}
	return !now.Before(*e.ExpiresAt)
}

func (e CacheEntry) Resolvable(now time.Time) bool {
	return e.IsActive && !e.Expired(now)
}
