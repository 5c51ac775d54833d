package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/market/events"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/rs/zerolog/log"
)

// OutboxApp defines what the listing app needs from the outbox app
type OutboxApp interface {
	InsertListingCreated(ctx context.Context, listingID uuid.UUID, payload []byte) error
}

type Config struct {
	// Window is the time a listing stays open, e.g. 24h.
	Window time.Duration
	// MinAskingFraction is the business-policy floor for a direct sale's
	// asking price as a fraction of base value. Zero disables the floor; the
	// engine invariant itself is only asking > 0.
	MinAskingFraction float64
}

// App is the listing registry: the catalog of tradeable players.
type App struct {
	repo   Repository
	outbox OutboxApp
	clock  clockwork.Clock
	config Config
}

func NewApp(repo Repository, outbox OutboxApp, clock clockwork.Clock, config Config) *App {
	return &App{
		repo:   repo,
		outbox: outbox,
		clock:  clock,
		config: config,
	}
}

// CreateAuction lists an unowned player for auction. Fails with a state
// conflict if the player already has an ACTIVE listing.
func (a *App) CreateAuction(ctx context.Context, player *models.Player) (*models.Listing, error) {
	if player.Owned() {
		return nil, errs.Validation("player", "auction listings are for unowned players only")
	}
	return a.create(ctx, &models.Listing{
		PlayerID:  player.ID,
		Kind:      models.ListingKindAuction,
		BaseValue: player.BaseValue,
	})
}

// CreateDirectSale lists an owned player for sale by its current owner.
func (a *App) CreateDirectSale(ctx context.Context, player *models.Player, sellerID uuid.UUID, asking int64) (*models.Listing, error) {
	if !player.Owned() || *player.OwnerID != sellerID {
		return nil, errs.Validation("seller", "only the current owner may list a player for sale")
	}
	if asking <= 0 {
		return nil, errs.Validation("asking_price", "must be positive, got %d", asking)
	}
	if a.config.MinAskingFraction > 0 {
		floor := int64(a.config.MinAskingFraction * float64(player.BaseValue))
		if asking < floor {
			return nil, errs.Validation("asking_price", "below policy floor %d", floor)
		}
	}
	seller := sellerID
	return a.create(ctx, &models.Listing{
		PlayerID:    player.ID,
		Kind:        models.ListingKindDirectSale,
		SellerID:    &seller,
		AskingPrice: asking,
		BaseValue:   player.BaseValue,
	})
}

func (a *App) create(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	existing, err := a.repo.GetActiveListingByPlayer(ctx, l.PlayerID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active listing: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("player %s already has an active listing: %w", l.PlayerID, errs.ErrStateConflict)
	}

	now := a.clock.Now()
	l.ID = uuid.New()
	l.State = models.ListingStateActive
	l.CreatedAt = now
	l.ExpiresAt = now.Add(a.config.Window)

	if err := a.repo.CreateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	payload := events.ListingCreatedPayload{
		ListingID: l.ID.String(),
		PlayerID:  l.PlayerID.String(),
		Kind:      string(l.Kind),
		Asking:    l.AskingPrice,
		ExpiresAt: l.ExpiresAt,
	}
	if l.SellerID != nil {
		payload.SellerID = l.SellerID.String()
	}
	if err := a.emit(ctx, l.ID, payload); err != nil {
		log.Error().Err(err).Str("listing_id", l.ID.String()).Msg("failed to emit ListingCreated event")
	}

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("player_id", l.PlayerID.String()).
		Str("kind", string(l.Kind)).
		Time("expires_at", l.ExpiresAt).
		Msg("created listing")
	return l, nil
}

func (a *App) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	l, err := a.repo.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

func (a *App) GetActiveListingByPlayer(ctx context.Context, playerID uuid.UUID) (*models.Listing, error) {
	return a.repo.GetActiveListingByPlayer(ctx, playerID)
}

// Transition moves a listing from ACTIVE to a terminal state. Repeating a
// transition to the same terminal state is a no-op; any other move out of a
// terminal state is a state conflict.
func (a *App) Transition(ctx context.Context, id uuid.UUID, state models.ListingState) error {
	l, err := a.repo.GetListing(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get listing: %w", err)
	}
	if l.State == state {
		return nil
	}
	if l.Terminal() {
		return fmt.Errorf("listing %s already %s: %w", id, l.State, errs.ErrStateConflict)
	}
	if err := a.repo.UpdateListingState(ctx, id, state, a.clock.Now()); err != nil {
		return fmt.Errorf("failed to update listing state: %w", err)
	}
	return nil
}

func (a *App) ListExpiredActiveListings(ctx context.Context, asOf time.Time, limit int32) ([]models.Listing, error) {
	listings, err := a.repo.ListExpiredActiveListings(ctx, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired listings: %w", err)
	}
	return listings, nil
}

func (a *App) emit(ctx context.Context, listingID uuid.UUID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return a.outbox.InsertListingCreated(ctx, listingID, data)
}
