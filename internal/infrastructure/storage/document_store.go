package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ExclusiveScanner/internal/ports"
)

// DocumentStore keeps small JSON documents in the config table.
type DocumentStore struct {
	db  *DB
	now func() time.Time
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore wires a DB implementation.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db, now: time.Now}
}

// GetDocument decodes the document stored under key into v.
func (s *DocumentStore) GetDocument(ctx context.Context, key string, v any) (bool, error) {
	query, args, err := sq.Select("value").From("config").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build document query: %w", err)
	}

	var raw string
	if err := s.db.GetContext(ctx, &raw, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get document %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode document %s: %w", key, err)
	}

	return true, nil
}

// PutDocument replaces the document stored under key.
func (s *DocumentStore) PutDocument(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}

	query, args, err := sq.Insert("config").
		Columns("key", "value", "updated_at").
		Values(key, string(raw), s.now().Unix()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build document upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put document %s: %w", key, err)
	}

	return nil
}
