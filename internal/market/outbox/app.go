package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/events"
)

// App queues domain events for asynchronous publication. Inserts happen in
// the same mutation path as the ledger writes; the worker drains the queue.
type App struct {
	repo Repository
	now  func() time.Time
}

func NewApp(repo Repository, now func() time.Time) *App {
	if now == nil {
		now = time.Now
	}
	return &App{repo: repo, now: now}
}

func (a *App) insert(ctx context.Context, eventType string, listingID uuid.UUID, payload []byte) error {
	err := a.repo.InsertOutboxEvent(ctx, &OutboxEvent{
		ID:        uuid.New(),
		ListingID: listingID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: a.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

func (a *App) InsertListingCreated(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeListingCreated, listingID, payload)
}

func (a *App) InsertListingSettled(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeListingSettled, listingID, payload)
}

func (a *App) InsertListingExpired(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeListingExpired, listingID, payload)
}

func (a *App) InsertListingCancelled(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeListingCancelled, listingID, payload)
}

func (a *App) InsertBidPlaced(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeBidPlaced, listingID, payload)
}

func (a *App) InsertOfferMade(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeOfferMade, listingID, payload)
}

func (a *App) InsertOfferAccepted(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeOfferAccepted, listingID, payload)
}

func (a *App) InsertOfferRejected(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeOfferRejected, listingID, payload)
}

func (a *App) InsertOfferExpired(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeOfferExpired, listingID, payload)
}

func (a *App) InsertFundsReleased(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	return a.insert(ctx, events.TypeFundsReleased, listingID, payload)
}
