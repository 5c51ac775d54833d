package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/transfermarket/internal/market/outbox"
	"github.com/mcdev12/transfermarket/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

// OutboxStore implements the outbox repository over Postgres.
type OutboxStore struct {
	db *sql.DB
}

func NewOutboxStore(db *sql.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

func (s *OutboxStore) InsertOutboxEvent(ctx context.Context, event *outbox.OutboxEvent) error {
	payload := pqtype.NullRawMessage{RawMessage: event.Payload, Valid: event.Payload != nil}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO market_outbox (id, listing_id, event_type, payload, created_at, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.ListingID, event.EventType, payload, event.CreatedAt, sqlutil.ToSqlTime(event.SentAt),
	)
	return err
}

func (s *OutboxStore) FetchUnsentOutbox(ctx context.Context, limit int32) ([]outbox.OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, listing_id, event_type, payload, created_at, sent_at
		 FROM market_outbox
		 WHERE sent_at IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []outbox.OutboxEvent
	for rows.Next() {
		var e outbox.OutboxEvent
		var payload pqtype.NullRawMessage
		var sentAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.ListingID, &e.EventType, &payload, &e.CreatedAt, &sentAt); err != nil {
			return nil, err
		}
		if payload.Valid {
			e.Payload = json.RawMessage(payload.RawMessage)
		}
		e.SentAt = sqlutil.FromSqlTime(sentAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *OutboxStore) MarkOutboxSent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE market_outbox SET sent_at = now() WHERE id = ANY($1::uuid[])`,
		pq.Array(strs),
	)
	return err
}

func (s *OutboxStore) CountUnsentOutbox(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM market_outbox WHERE sent_at IS NULL`,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
