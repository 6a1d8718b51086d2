package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsDistributor/internal/domain"
	"NewsDistributor/internal/ports"
)

// PostgresRepository persists news social-distribution state in Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.NewsRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Get loads one news row or domain.ErrNewsNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (domain.NewsItem, error) {
	query := r.builder.
		Select("id", "content", "social_status",
			"shared_facebook", "shared_instagram",
			"link_facebook", "link_instagram", "status_changed_at").
		From("news").
		Where(sq.Eq{"id": id})

	var (
		item     domain.NewsItem
		fbLink   sql.NullString
		igLink   sql.NullString
		changed  sql.NullTime
		rawState string
	)

	err := query.RunWith(r.db).QueryRowContext(ctx).Scan(
		&item.ID, &item.Content, &rawState,
		&item.SharedFacebook, &item.SharedInstagram,
		&fbLink, &igLink, &changed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewsItem{}, domain.ErrNewsNotFound
	}
	if err != nil {
		return domain.NewsItem{}, fmt.Errorf("query news %d: %w", id, err)
	}

	item.SocialStatus = domain.SocialStatus(rawState)
	if fbLink.Valid {
		item.LinkFacebook = &fbLink.String
	}
	if igLink.Valid {
		item.LinkInstagram = &igLink.String
	}
	if changed.Valid {
		item.StatusChangedAt = changed.Time
	}

	return item, nil
}

// SetStatus writes the lifecycle status and bumps status_changed_at.
func (r *PostgresRepository) SetStatus(ctx context.Context, id int64, status domain.SocialStatus) error {
	query := r.builder.
		Update("news").
		Set("social_status", string(status)).
		Set("status_changed_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id})

	res, err := query.RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("set status %s on news %d: %w", status, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set status rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNewsNotFound
	}

	return nil
}

// MarkShared records a confirmed publish: the platform's shared flag and its
// canonical link land in one statement, so shared=true always has a link.
func (r *PostgresRepository) MarkShared(ctx context.Context, id int64, platform domain.Platform, link string) error {
	sharedColumn, linkColumn, err := platformColumns(platform)
	if err != nil {
		return err
	}

	query := r.builder.
		Update("news").
		Set(sharedColumn, true).
		Set(linkColumn, link).
		Where(sq.Eq{"id": id})

	res, err := query.RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark %s shared on news %d: %w", platform, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark shared rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNewsNotFound
	}

	return nil
}

// ResetStuck flips over-age processing rows back to pending in one statement
// and returns the ids it touched, so callers report exactly what changed.
// Link and shared columns are deliberately left alone.
func (r *PostgresRepository) ResetStuck(ctx context.Context, olderThan time.Time) ([]int64, error) {
	query := r.builder.
		Update("news").
		Set("social_status", string(domain.StatusPending)).
		Set("status_changed_at", sq.Expr("NOW()")).
		Where(sq.Eq{"social_status": string(domain.StatusProcessing)}).
		Where(sq.Lt{"status_changed_at": olderThan}).
		Suffix("RETURNING id")

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset stuck rows: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reset id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ids, nil
}

func platformColumns(platform domain.Platform) (shared, link string, err error) {
	switch platform {
	case domain.PlatformFacebook:
		return "shared_facebook", "link_facebook", nil
	case domain.PlatformInstagram:
		return "shared_instagram", "link_instagram", nil
	default:
		return "", "", fmt.Errorf("unknown platform %q", platform)
	}
}
