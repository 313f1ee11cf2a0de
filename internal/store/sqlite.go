package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/stocklens/stocklens/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if strings.Contains(dsn, ":memory:") {
		// Each pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS bundle_cache (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL UNIQUE,
	bundle     TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bundle_cache_ticker ON bundle_cache(ticker);
CREATE INDEX IF NOT EXISTS idx_bundle_cache_expires_at ON bundle_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_analyses_ticker_strategy ON analyses(ticker, strategy);
CREATE INDEX IF NOT EXISTS idx_analyses_expires_at ON analyses(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCachedBundle(ctx context.Context, ticker string) (*model.FundamentalsBundle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT bundle FROM bundle_cache
		 WHERE ticker = ? AND expires_at > ?`,
		ticker, time.Now().UTC(),
	)

	var bundleJSON string
	err := row.Scan(&bundleJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached bundle")
	}

	var b model.FundamentalsBundle
	if err := json.Unmarshal([]byte(bundleJSON), &b); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached bundle")
	}
	return &b, nil
}

func (s *SQLiteStore) SetCachedBundle(ctx context.Context, bundle *model.FundamentalsBundle, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	bundleJSON, err := json.Marshal(bundle)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal bundle")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bundle_cache (id, ticker, bundle, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (ticker) DO UPDATE SET bundle = excluded.bundle,
		   fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		id, bundle.Ticker, string(bundleJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached bundle")
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, result *model.AnalysisResult, ttl time.Duration) (*AnalysisRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal analysis")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, ticker, strategy, result, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, result.Ticker, string(result.Strategy), string(resultJSON), now, now.Add(ttl),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert analysis")
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

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ticker, strategy, result, created_at, expires_at FROM analyses WHERE id = ?`,
		id,
	)
	return scanAnalysis(row)
}

func (s *SQLiteStore) LatestAnalysis(ctx context.Context, ticker string, strategy model.Strategy) (*AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ticker, strategy, result, created_at, expires_at FROM analyses
		 WHERE ticker = ? AND strategy = ? AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		ticker, string(strategy), time.Now().UTC(),
	)
	return scanAnalysis(row)
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]AnalysisRecord, error) {
	query := `SELECT id, ticker, strategy, result, created_at, expires_at FROM analyses WHERE 1=1`
	var args []any

	if filter.Ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, filter.Ticker)
	}
	if filter.Strategy != "" {
		query += ` AND strategy = ?`
		args = append(args, string(filter.Strategy))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	var total int64

	for _, table := range []string{"bundle_cache", "analyses"} {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE expires_at <= ?`, now,
		)
		if err != nil {
			return int(total), eris.Wrapf(err, "sqlite: delete expired %s", table)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return int(total), eris.Wrap(err, "sqlite: rows affected")
		}
		total += n
	}
	return int(total), nil
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	var strategy, resultJSON string

	err := row.Scan(&rec.ID, &rec.Ticker, &strategy, &resultJSON, &rec.CreatedAt, &rec.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "sqlite: analysis")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis")
	}

	rec.Strategy = model.Strategy(strategy)
	rec.Result = &model.AnalysisResult{}
	if err := json.Unmarshal([]byte(resultJSON), rec.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal analysis result")
	}
	return &rec, nil
}
