package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConn is the subset of *pgxpool.Pool the store needs.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PgStore backs the store with the kv_values and kv_list_items tables
// created by migrations/000001_kv_store. Items are kept as text so the
// stored bytes round-trip unchanged.
type PgStore struct {
	pool pgConn
}

func NewPgStore(pool pgConn) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value
		FROM kv_values
		WHERE key = $1
	`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("postgres get "+key, err)
	}
	return []byte(value), nil
}

func (s *PgStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_values (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = now()
	`, key, string(value))
	if err != nil {
		return unavailable("postgres set "+key, err)
	}
	return nil
}

func (s *PgStore) ListAppend(ctx context.Context, key string, item []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_list_items (key, item, created_at)
		VALUES ($1, $2, now())
	`, key, string(item))
	if err != nil {
		return unavailable("postgres append "+key, err)
	}
	return nil
}

func (s *PgStore) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item
		FROM kv_list_items
		WHERE key = $1
		ORDER BY seq
	`, key)
	if err != nil {
		return nil, unavailable("postgres range "+key, err)
	}
	defer rows.Close()

	var items [][]byte
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, unavailable("postgres scan "+key, err)
		}
		items = append(items, []byte(item))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("postgres range "+key, err)
	}

	from, to, ok := rangeBounds(int64(len(items)), start, stop)
	if !ok {
		return [][]byte{}, nil
	}
	return items[from:to], nil
}

func (s *PgStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_values WHERE key = $1`, key); err != nil {
		return unavailable("postgres delete "+key, err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_list_items WHERE key = $1`, key); err != nil {
		return unavailable("postgres delete "+key, err)
	}
	return nil
}

// ListRemove deletes matching rows in a single statement.
func (s *PgStore) ListRemove(ctx context.Context, key string, item []byte) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM kv_list_items
		WHERE key = $1
		  AND item = $2
	`, key, string(item))
	if err != nil {
		return 0, unavailable("postgres remove "+key, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
