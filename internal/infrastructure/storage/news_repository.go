package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

// NewsRepository persists delivered news items into SQLite.
type NewsRepository struct {
	db *DB
}

var _ ports.NewsRepository = (*NewsRepository)(nil)

// NewNewsRepository wires a DB implementation.
func NewNewsRepository(db *DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// ExistingTitles returns which of titles are already stored.
func (r *NewsRepository) ExistingTitles(ctx context.Context, titles []string) ([]string, error) {
	if r.db == nil || len(titles) == 0 {
		return nil, nil
	}

	query, args, err := sq.Select("DISTINCT title").
		From("news").
		Where(sq.Eq{"title": titles}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build titles query: %w", err)
	}

	var existing []string
	if err := r.db.SelectContext(ctx, &existing, query, args...); err != nil {
		return nil, fmt.Errorf("query titles: %w", err)
	}

	return existing, nil
}

// DeleteCreatedBefore removes items whose creation time is at or before cutoff.
func (r *NewsRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if r.db == nil {
		return 0, nil
	}

	query, args, err := sq.Delete("news").
		Where(sq.LtOrEq{"created_at": cutoff.Unix()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cleanup query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return int(deleted), nil
}

// SaveBatch inserts all items in a single transaction. CreatedAt must be set.
func (r *NewsRepository) SaveBatch(ctx context.Context, items []domain.NewsItem) error {
	if r.db == nil || len(items) == 0 {
		return nil
	}

	insert := sq.Insert("news").Columns(
		"id", "title", "url", "publisher", "published_at",
		"thumbnail", "summary", "created_at", "expires_at",
	)
	for _, item := range items {
		if item.CreatedAt == nil {
			return fmt.Errorf("item %q has no creation time", item.Title)
		}
		expires := *item.CreatedAt
		if item.ExpiresAt != nil {
			expires = *item.ExpiresAt
		}
		insert = insert.Values(
			uuid.NewString(),
			item.Title,
			item.URL,
			item.Publisher,
			item.PublishedAt.Unix(),
			nullable(item.Thumbnail),
			nullable(item.Summary),
			item.CreatedAt.Unix(),
			expires.Unix(),
		)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert news: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit news: %w", err)
	}

	return nil
}

// Count returns the number of stored items.
func (r *NewsRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM news"); err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return n, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
