package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines what the outbox app and worker need from storage
type Repository interface {
	InsertOutboxEvent(ctx context.Context, event *OutboxEvent) error
	FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, ids []uuid.UUID) error
	CountUnsentOutbox(ctx context.Context) (int, error)
}
