package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Counters implements sequence.CounterStore on a sequence_counters row per
// entity type. The upsert is a single statement, so concurrent callers are
// serialized by the row lock and can never read the same value.
type Counters struct {
	pool *pgxpool.Pool
}

func NewCounters(pool *pgxpool.Pool) *Counters {
	return &Counters{pool: pool}
}

func (c *Counters) Next(ctx context.Context, entityType string) (int64, error) {
	var next int64
	row := c.pool.QueryRow(ctx, `
		INSERT INTO sequence_counters (entity_type, last_value, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (entity_type)
		DO UPDATE SET last_value = sequence_counters.last_value + 1, updated_at = NOW()
		RETURNING last_value
	`, entityType)
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

// RecordFormatted keeps the advisory last_formatted column current. It is
// debug output only and never read back by the issuer.
func (c *Counters) RecordFormatted(ctx context.Context, entityType, formatted string) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE sequence_counters
		SET last_formatted = $2
		WHERE entity_type = $1
	`, entityType, formatted)
	return err
}
