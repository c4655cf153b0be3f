// Package postgres reads known message keys from a localisation cache table.
//
// The table layout is the one MediaWiki uses for its database backed localisation
// cache: one row per (language, item), where message items are stored under
// "messages:<key>".
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// DefaultTable is the localisation cache table name.
	DefaultTable = "l10n_cache"

	messagePrefix = "messages:"
)

// Querier is the part of pgxpool.Pool the provider needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Provider lists message keys stored in a localisation cache table.
type Provider struct {
	db    Querier
	query string
}

// Option configures a Provider.
type Option func(*Provider)

// WithTable reads from table instead of DefaultTable.
func WithTable(table string) Option {
	return func(p *Provider) {
		p.query = buildQuery(table)
	}
}

func buildQuery(table string) string {
	ident := pgx.Identifier{table}.Sanitize()
	return fmt.Sprintf(
		"SELECT substr(lc_key, %d) FROM %s WHERE lc_lang = $1 AND starts_with(lc_key, $2) ORDER BY lc_key",
		len(messagePrefix)+1, ident,
	)
}

// New creates a Provider over db.
func New(db Querier, opts ...Option) *Provider {
	p := &Provider{db: db, query: buildQuery(DefaultTable)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect opens a connection pool for dsn and returns a Provider using it.
// The caller closes the pool.
func Connect(ctx context.Context, dsn string, opts ...Option) (*Provider, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog database: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping catalog database: %w", err)
	}
	return New(pool, opts...), pool, nil
}

func (p *Provider) MessageKeys(ctx context.Context, locale string) ([]string, error) {
	if p.db == nil {
		return nil, errors.New("catalog database not configured")
	}

	rows, err := p.db.Query(ctx, p.query, locale, messagePrefix)
	if err != nil {
		return nil, fmt.Errorf("query message keys for %q: %w", locale, err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read message keys for %q: %w", locale, err)
	}
	return keys, nil
}
