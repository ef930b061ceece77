package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	DSN      string
	MaxConns int32
}

// NewPool creates a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	const op = "storage.postgres.NewPool"

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return pool, nil
}

// Store is an ordered key-value backend on a single Postgres table.
// BYTEA keys compare bytewise, so ORDER BY k matches the LevelDB driver's
// iteration order.
type Store struct {
	pool *pgxpool.Pool
}

// Open ensures the schema exists and returns the store.
func Open(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	const op = "storage.postgres.Open"

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			k BYTEA PRIMARY KEY,
			v BYTEA NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var v []byte

	err := s.pool.QueryRow(ctx, `SELECT v FROM kv WHERE k = $1`, key).Scan(&v)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return v, true, nil
}

func (s *Store) Put(ctx context.Context, key, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv (k, v) VALUES ($1, $2)
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v`, key, value)

	return err
}

func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	var rows pgx.Rows
	var err error

	if upper, ok := prefixUpperBound(prefix); ok {
		rows, err = s.pool.Query(ctx,
			`SELECT k, v FROM kv WHERE k >= $1 AND k < $2 ORDER BY k`, prefix, upper)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT k, v FROM kv WHERE k >= $1 ORDER BY k`, prefix)
	}
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix. ok is false when no such bound exists (all-0xff prefix).
func prefixUpperBound(prefix []byte) ([]byte, bool) {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1], true
		}
	}

	return nil, false
}
