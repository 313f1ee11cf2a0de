package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/stocklens/stocklens/internal/db"
	"github.com/stocklens/stocklens/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"get_cached_bundle": `SELECT bundle FROM bundle_cache WHERE ticker = $1 AND expires_at > now()`,
	"set_cached_bundle": `INSERT INTO bundle_cache (id, ticker, bundle, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (ticker) DO UPDATE SET bundle = $3, fetched_at = $4, expires_at = $5`,
	"insert_analysis":   `INSERT INTO analyses (id, ticker, strategy, result, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_analysis":      `SELECT id, ticker, strategy, result, created_at, expires_at FROM analyses WHERE id = $1`,
	"latest_analysis":   `SELECT id, ticker, strategy, result, created_at, expires_at FROM analyses WHERE ticker = $1 AND strategy = $2 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS bundle_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	ticker     TEXT NOT NULL UNIQUE,
	bundle     JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	ticker     TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS fundamental_series (
	ticker      TEXT NOT NULL,
	field       TEXT NOT NULL,
	fiscal_year INTEGER NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (ticker, field, fiscal_year)
);

CREATE INDEX IF NOT EXISTS idx_bundle_cache_expires_at ON bundle_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_analyses_ticker_strategy ON analyses(ticker, strategy, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_expires_at ON analyses(expires_at);
CREATE INDEX IF NOT EXISTS idx_fundamental_series_ticker ON fundamental_series(ticker);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetCachedBundle(ctx context.Context, ticker string) (*model.FundamentalsBundle, error) {
	var bundleJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT bundle FROM bundle_cache WHERE ticker = $1 AND expires_at > now()`,
		ticker,
	).Scan(&bundleJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached bundle")
	}

	var b model.FundamentalsBundle
	if err := json.Unmarshal(bundleJSON, &b); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached bundle")
	}
	return &b, nil
}

func (s *PostgresStore) SetCachedBundle(ctx context.Context, bundle *model.FundamentalsBundle, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	bundleJSON, err := json.Marshal(bundle)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal bundle")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO bundle_cache (id, ticker, bundle, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (ticker) DO UPDATE SET bundle = $3, fetched_at = $4, expires_at = $5`,
		id, bundle.Ticker, bundleJSON, now, now.Add(ttl),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: set cached bundle")
	}

	return s.upsertSeries(ctx, bundle, now)
}

// upsertSeries flattens the bundle's annual series into the normalized
// fundamental_series table, which outlives the bundle cache TTL and
// feeds historical queries.
func (s *PostgresStore) upsertSeries(ctx context.Context, bundle *model.FundamentalsBundle, now time.Time) error {
	var rows [][]any
	for field, series := range bundle.Series {
		for _, av := range series {
			rows = append(rows, []any{bundle.Ticker, field, av.Year, av.Value, now})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "fundamental_series",
		Columns:      []string{"ticker", "field", "fiscal_year", "value", "fetched_at"},
		ConflictKeys: []string{"ticker", "field", "fiscal_year"},
	}, rows)
	return eris.Wrapf(err, "postgres: upsert series for %s", bundle.Ticker)
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, result *model.AnalysisResult, ttl time.Duration) (*AnalysisRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal analysis")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, ticker, strategy, result, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, result.Ticker, string(result.Strategy), resultJSON, now, now.Add(ttl),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert analysis")
	}

	return &AnalysisRecord{
		ID:        id,
		Ticker:    result.Ticker,
		Strategy:  result.Strategy,
		Result:    result,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, ticker, strategy, result, created_at, expires_at FROM analyses WHERE id = $1`,
		id,
	)
	return scanPgAnalysis(row)
}

func (s *PostgresStore) LatestAnalysis(ctx context.Context, ticker string, strategy model.Strategy) (*AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, ticker, strategy, result, created_at, expires_at FROM analyses
		 WHERE ticker = $1 AND strategy = $2 AND expires_at > now()
		 ORDER BY created_at DESC LIMIT 1`,
		ticker, string(strategy),
	)
	return scanPgAnalysis(row)
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]AnalysisRecord, error) {
	query := `SELECT id, ticker, strategy, result, created_at, expires_at FROM analyses WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Ticker != "" {
		query += fmt.Sprintf(` AND ticker = $%d`, argIdx)
		args = append(args, filter.Ticker)
		argIdx++
	}
	if filter.Strategy != "" {
		query += fmt.Sprintf(` AND strategy = $%d`, argIdx)
		args = append(args, string(filter.Strategy))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		rec, err := scanPgAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	var total int64
	for _, table := range []string{"bundle_cache", "analyses"} {
		tag, err := s.pool.Exec(ctx,
			`DELETE FROM `+table+` WHERE expires_at <= now()`,
		)
		if err != nil {
			return int(total), eris.Wrapf(err, "postgres: delete expired %s", table)
		}
		total += tag.RowsAffected()
	}
	return int(total), nil
}

func scanPgAnalysis(row pgx.Row) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	var strategy string
	var resultJSON []byte

	err := row.Scan(&rec.ID, &rec.Ticker, &strategy, &resultJSON, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrap(ErrNotFound, "postgres: analysis")
		}
		return nil, eris.Wrap(err, "postgres: scan analysis")
	}

	rec.Strategy = model.Strategy(strategy)
	rec.Result = &model.AnalysisResult{}
	if err := json.Unmarshal(resultJSON, rec.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal analysis result")
	}
	return &rec, nil
}
