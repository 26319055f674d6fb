package store

import (
	"context"
	"time"

	"sjsage522/skinpricer/internal/pricing"
	"sjsage522/skinpricer/internal/resolver"
	"sjsage522/skinpricer/logger"
	apperrors "sjsage522/skinpricer/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS quote_history (
	id            BIGSERIAL PRIMARY KEY,
	run_id        TEXT NOT NULL,
	item_name     TEXT NOT NULL,
	category      TEXT NOT NULL,
	url           TEXT NOT NULL,
	variant_price TEXT NOT NULL DEFAULT '',
	variant_usd   DOUBLE PRECISION,
	market_name   TEXT NOT NULL DEFAULT '',
	market_price  TEXT NOT NULL DEFAULT '',
	market_usd    DOUBLE PRECISION,
	cached        BOOLEAN NOT NULL DEFAULT FALSE,
	resolved_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS quote_history_item_idx ON quote_history (item_name, resolved_at DESC);
`

const insertQuote = `
INSERT INTO quote_history
	(run_id, item_name, category, url, variant_price, variant_usd, market_name, market_price, market_usd, cached, resolved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Store records resolved quotes
type Store interface {
	SaveResults(ctx context.Context, results []resolver.Result) error
	Close()
}

// PostgresStore appends quotes to the quote_history table
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// Connect opens a pool for databaseURL, checks it and ensures the schema exists
func Connect(ctx context.Context, databaseURL string, maxConns int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, apperrors.NewConfiguration("invalid DATABASE_URL", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.NewStore("", "create pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewStore("", "ping database", err)
	}

	s := &PostgresStore{pool: pool, log: logger.ForStore()}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return apperrors.NewStore("", "create quote_history schema", err)
	}
	return nil
}

// SaveResults inserts one history row per result in a single batch
func (s *PostgresStore) SaveResults(ctx context.Context, results []resolver.Result) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range results {
		row := newHistoryRow(r)
		batch.Queue(insertQuote,
			row.RunID, row.ItemName, row.Category, row.URL,
			row.VariantPrice, row.VariantUSD,
			row.MarketName, row.MarketPrice, row.MarketUSD,
			row.Cached, row.ResolvedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range results {
		if _, err := br.Exec(); err != nil {
			return apperrors.NewStore(results[i].Name, "insert quote history", err)
		}
	}

	s.log.Debug().Int("rows", len(results)).Msg("Quote history saved")
	return nil
}

// Close closes the pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// historyRow is one quote_history record; USD amounts are nil when the
// displayed price could not be read as a number.
type historyRow struct {
	RunID        string
	ItemName     string
	Category     string
	URL          string
	VariantPrice string
	VariantUSD   *float64
	MarketName   string
	MarketPrice  string
	MarketUSD    *float64
	Cached       bool
	ResolvedAt   time.Time
}

func newHistoryRow(r resolver.Result) historyRow {
	resolvedAt := r.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now()
	}
	return historyRow{
		RunID:        r.RunID,
		ItemName:     r.Name,
		Category:     string(r.Category),
		URL:          r.URL,
		VariantPrice: r.Quote.VariantPrice,
		VariantUSD:   usd(r.Quote.VariantPrice),
		MarketName:   r.Quote.MarketName,
		MarketPrice:  r.Quote.MarketPrice,
		MarketUSD:    usd(r.Quote.MarketPrice),
		Cached:       r.Cached,
		ResolvedAt:   resolvedAt.UTC(),
	}
}

func usd(text string) *float64 {
	v, ok := pricing.ParseUSD(text)
	if !ok {
		return nil
	}
	return &v
}
