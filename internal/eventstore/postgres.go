package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-fulfillment-command/internal/domain"
)

// PostgresStream stores events in a single table keyed by (stream_id,
// version). The primary key makes the conditional append race-safe: two
// writers inserting at the same version collide on the key, and the loser
// gets a version conflict.
type PostgresStream struct {
	pool *pgxpool.Pool
}

func NewPostgresStream(pool *pgxpool.Pool) *PostgresStream {
	return &PostgresStream{pool: pool}
}

// EnsureSchema creates the event table and product index table when missing.
func (s *PostgresStream) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			stream_id      TEXT        NOT NULL,
			version        BIGINT      NOT NULL,
			event_id       UUID        NOT NULL,
			event_type     TEXT        NOT NULL,
			aggregate_type TEXT        NOT NULL,
			occurred_at    TIMESTAMPTZ NOT NULL,
			payload        JSONB       NOT NULL,
			PRIMARY KEY (stream_id, version)
		);
		CREATE TABLE IF NOT EXISTS inventory_products (
			product_id TEXT PRIMARY KEY,
			stream_id  TEXT NOT NULL
		);
	`)
	return err
}

func (s *PostgresStream) Read(ctx context.Context, streamID string) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, event_type, aggregate_type, occurred_at, version, payload
		FROM events
		WHERE stream_id = $1
		ORDER BY version ASC
	`, streamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.Event, 0, 8)
	for rows.Next() {
		e := domain.Event{AggregateID: streamID}
		var raw []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.AggregateType, &e.OccurredAt, &e.Version, &raw); err != nil {
			return nil, err
		}
		payload, err := domain.DecodePayload(e.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("stream %s version %d: %w", streamID, e.Version, err)
		}
		e.Payload = payload
		history = append(history, e)
	}
	return history, rows.Err()
}

func (s *PostgresStream) Append(ctx context.Context, streamID string, expected uint64, e domain.Event) error {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", e.Type, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO events (stream_id, version, event_id, event_type, aggregate_type, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, streamID, expected+1, e.ID, e.Type, e.AggregateType, e.OccurredAt, raw)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("append to %s at %d: %w", streamID, expected, ErrVersionConflict)
		}
		return err
	}
	return nil
}

func (s *PostgresStream) Length(ctx context.Context, streamID string) (uint64, error) {
	var n uint64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM events WHERE stream_id = $1
	`, streamID).Scan(&n)
	return n, err
}

// PostgresProductIndex keeps the product-to-stream mapping alongside the
// event table.
type PostgresProductIndex struct {
	pool *pgxpool.Pool
}

func NewPostgresProductIndex(pool *pgxpool.Pool) *PostgresProductIndex {
	return &PostgresProductIndex{pool: pool}
}

func (i *PostgresProductIndex) Get(ctx context.Context, productID string) (string, error) {
	var streamID string
	err := i.pool.QueryRow(ctx, `
		SELECT stream_id FROM inventory_products WHERE product_id = $1
	`, productID).Scan(&streamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return streamID, nil
}

func (i *PostgresProductIndex) Set(ctx context.Context, productID string, aggregateID string) error {
	_, err := i.pool.Exec(ctx, `
		INSERT INTO inventory_products (product_id, stream_id)
		VALUES ($1, $2)
		ON CONFLICT (product_id) DO UPDATE SET stream_id = EXCLUDED.stream_id
	`, productID, aggregateID)
	return err
}
