package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgx used to read the products table.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadPostgres reads the product map with query, which must return two
// columns: the product name and its id. The id keeps the type Postgres
// returns it as (integers stay numbers, text stays a string).
func LoadPostgres(ctx context.Context, db Querier, query string) (*ProductMap, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			name string
			id   any
		)
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		raw, err := scalarID(id)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", name, err)
		}
		if _, dup := entries[name]; dup {
			return nil, fmt.Errorf("duplicate product name %q", Canonical(name))
		}
		entries[name] = raw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("products query returned no rows")
	}
	return New(entries)
}
