package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxRetries bounds how often a failed event is handed back to the relay.
const MaxRetries = 10

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

type postgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

// LockBatch claims pending and retryable events, plus in-progress events
// whose lease ran out because a relay died mid-batch.
func (s *postgresStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
SELECT id, aggregate_type, aggregate_id, type, payload, created_at, status, retry_count, last_error
FROM outbox
WHERE (status IN ('pending', 'failed') AND retry_count < $2)
   OR (status = 'in_progress' AND locked_until < now())
ORDER BY id
LIMIT $1
FOR UPDATE SKIP LOCKED
`, batchSize, MaxRetries)
	if err != nil {
		return nil, err
	}

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.Type, &ev.Payload, &ev.CreatedAt, &ev.Status, &ev.RetryCount, &ev.LastError); err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	_, err = tx.Exec(ctx, `
UPDATE outbox
SET status = 'in_progress', locked_by = $1, locked_until = now() + $2 * interval '1 millisecond'
WHERE id = ANY($3)
`, relayID, lease.Milliseconds(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *postgresStore) MarkSent(ctx context.Context, ids []int64) error {
	_, err := s.pool.Exec(ctx, `
UPDATE outbox
SET status = 'sent', sent_at = now(), locked_by = NULL, locked_until = NULL
WHERE id = ANY($1)
`, ids)
	return err
}

func (s *postgresStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
UPDATE outbox
SET status = 'failed', last_error = $2, retry_count = retry_count + 1, locked_by = NULL, locked_until = NULL
WHERE id = $1
`, id, errMsg)
	return err
}
