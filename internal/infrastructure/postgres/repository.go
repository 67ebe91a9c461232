package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + linkColumns

	var result domain.Link
	err := r.db.GetContext(ctx, &result, query,
		link.ID, link.OwnerID, link.Slug, link.TargetURL, link.Title, link.Description,
		link.Clicks, link.IsActive, link.ExpiresAt, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return nil, r.translateError(err, "create link")
	}

	slog.Debug("Link created", "slug", result.Slug, "id", result.ID)
	return &result, nil
}

func (r *LinkRepository) GetBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	var link domain.Link
	query := `SELECT ` + linkColumns + ` FROM links WHERE slug = $1`

	if err := r.db.GetContext(ctx, &link, query, slug); err != nil {
		return nil, r.translateError(err, "get link by slug")
	}
	return &link, nil
}

func (r *LinkRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Link, error) {
	var link domain.Link
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1 AND owner_id = $2`

	if err := r.db.GetContext(ctx, &link, query, id, ownerID); err != nil {
		return nil, r.translateError(err, "get link by id")
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
		return nil, 0, r.translateError(err, "count links")
	}

	query := fmt.Sprintf("SELECT %s FROM links %s ORDER BY %s %s LIMIT %d OFFSET %d",
		linkColumns, where, sortColumn(opts.Sort), sortOrder(opts.Order),
		opts.PerPage, (opts.Page-1)*opts.PerPage)

	links := []domain.Link{}
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, 0, r.translateError(err, "list links")
	}
	return links, total, nil
}

func (r *LinkRepository) Update(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	query := `
		UPDATE links
		SET target_url = $3, title = $4, description = $5, is_active = $6, expires_at = $7, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + linkColumns

	var result domain.Link
	err := r.db.GetContext(ctx, &result, query,
		link.ID, link.OwnerID, link.TargetURL, link.Title, link.Description,
		link.IsActive, link.ExpiresAt,
	)
	if err != nil {
		return nil, r.translateError(err, "update link")
	}
	return &result, nil
}

func (r *LinkRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return r.translateError(err, "delete link")
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

// IncrementClicks is a single atomic UPDATE so concurrent clicks on the
// same slug never lose updates.
func (r *LinkRepository) IncrementClicks(ctx context.Context, slug string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE slug = $1`, slug)
	if err != nil {
		return r.translateError(err, "increment clicks")
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
		return false, r.translateError(err, "check slug existence")
	}
	return exists, nil
}

func (r *LinkRepository) Stats(ctx context.Context, ownerID string) (*domain.OwnerStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_links,
			COUNT(*) FILTER (WHERE is_active) AS active_links,
			COUNT(*) FILTER (WHERE NOT is_active) AS inactive_links,
			COALESCE(SUM(clicks), 0) AS total_clicks
		FROM links
		WHERE owner_id = $1`

	var stats domain.OwnerStats
	if err := r.db.GetContext(ctx, &stats, query, ownerID); err != nil {
		return nil, r.translateError(err, "owner stats")
	}
	return &stats, nil
}

// translateError converts PostgreSQL driver errors to domain errors
func (r *LinkRepository) translateError(err error, operation string) error {
	if pqErr, ok := err.(*pq.Error); ok {
		slog.Error("PostgreSQL error",
			"operation", operation,
			"code", pqErr.Code,
			"message", pqErr.Message,
			"detail", pqErr.Detail,
		)

		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "links_slug_key" {
				return domain.ErrSlugTaken
			}
			return fmt.Errorf("unique constraint violation: %s", pqErr.Detail)
		case "23502": // not_null_violation
			return fmt.Errorf("required field missing: %s", pqErr.Column)
		case "08000", "08003", "08006": // connection errors
			return fmt.Errorf("database connection error: %s", pqErr.Message)
		default:
			return fmt.Errorf("database error [%s]: %s", pqErr.Code, pqErr.Message)
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrLinkNotFound
	}

	return err
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
