package employee

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresQuerier runs queries against the employees database.
type PostgresQuerier struct {
	pool *pgxpool.Pool
}

func NewPostgresQuerier(ctx context.Context, databaseURL string) (*PostgresQuerier, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect employees db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping employees db: %w", err)
	}
	return &PostgresQuerier{pool: pool}, nil
}

func (q *PostgresQuerier) Search(ctx context.Context, sql string, params []any) ([]map[string]any, error) {
	rows, err := q.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		record := make(map[string]any, len(fields))
		for i, field := range fields {
			record[field.Name] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (q *PostgresQuerier) Close() error {
	q.pool.Close()
	return nil
}
