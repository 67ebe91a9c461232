package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

const linkColumns = "id, owner_id, slug, target_url, title, description, clicks, is_active, expires_at, created_at, updated_at"

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	query := `
		INSERT INTO links (id, owner_id, slug, target_url, title, description, clicks, is_active, expires_at, created_at, updated_at)
		VALUES (:id, :owner_id, :slug, :target_url, :title, :description, :clicks, :is_active, :expires_at, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	return r.GetBySlug(ctx, link.Slug)
}

func (r *LinkRepository) GetBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	var link domain.Link
	query := `SELECT ` + linkColumns + ` FROM links WHERE slug = $1`

	if err := r.db.GetContext(ctx, &link, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *LinkRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Link, error) {
	var link domain.Link
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1 AND owner_id = $2`

	if err := r.db.GetContext(ctx, &link, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *LinkRepository) List(ctx context.Context, ownerID string, opts domain.ListOptions) ([]domain.Link, int64, error) {
	where := `WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if opts.IsActive != nil {
		where += ` AND is_active = $2`
		args = append(args, *opts.IsActive)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM links `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM links %s ORDER BY %s %s LIMIT %d OFFSET %d",
		linkColumns, where, sortColumn(opts.Sort), sortOrder(opts.Order),
		opts.PerPage, (opts.Page-1)*opts.PerPage)

	links := []domain.Link{}
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

func (r *LinkRepository) Update(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	query := `
		UPDATE links
		SET target_url = $3, title = $4, description = $5, is_active = $6, expires_at = $7, updated_at = $8
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		link.ID, link.OwnerID, link.TargetURL, link.Title, link.Description,
		link.IsActive, link.ExpiresAt, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrLinkNotFound
	}

	return r.GetByID(ctx, link.OwnerID, link.ID)
}

func (r *LinkRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, slug string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE slug = $1`, slug)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

func (r *LinkRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM links WHERE slug = $1)`, slug)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *LinkRepository) Stats(ctx context.Context, ownerID string) (*domain.OwnerStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_links,
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_links,
			COALESCE(SUM(CASE WHEN is_active THEN 0 ELSE 1 END), 0) AS inactive_links,
			COALESCE(SUM(clicks), 0) AS total_clicks
		FROM links
		WHERE owner_id = $1`

	var stats domain.OwnerStats
	if err := r.db.GetContext(ctx, &stats, query, ownerID); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *LinkRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *LinkRepository) HealthCheck(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection is nil")
	}
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func sortColumn(sort string) string {
	switch sort {
	case "clicks", "expires_at", "slug":
		return sort
	default:
		return "created_at"
	}
}

func sortOrder(order string) string {
	if order == "asc" {
		return "ASC"
	}
	return "DESC"
}
