package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/rs/zerolog/log"
)

// Engine defines what the scheduler needs from the market engine.
type Engine interface {
	ExpiredListings(ctx context.Context, asOf time.Time, limit int32) ([]models.Listing, error)
	SettleListing(ctx context.Context, listingID uuid.UUID) error
}

type Config struct {
	PollInterval time.Duration
	BatchSize    int32
	NumWorkers   int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		BatchSize:    50,
		NumWorkers:   10,
	}
}

// Scheduler drives periodic settlement: it polls for ACTIVE listings whose
// window has closed and fans them out to a worker pool. SettleListing is
// idempotent, so a listing queued twice across polls resolves once; the
// in-flight set only keeps workers from racing on the same listing within a
// batch.
type Scheduler struct {
	engine     Engine
	config     Config
	clock      clockwork.Clock
	wakeCh     chan struct{}
	instanceID string // short ID for logging

	workCh chan uuid.UUID

	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex
}

func NewScheduler(engine Engine, clock clockwork.Clock, config Config) *Scheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = DefaultConfig().NumWorkers
	}
	return &Scheduler{
		engine:     engine,
		config:     config,
		clock:      clock,
		wakeCh:     make(chan struct{}, 1),
		instanceID: uuid.New().String()[:8],
		workCh:     make(chan uuid.UUID, config.NumWorkers*2),
		inFlight:   make(map[uuid.UUID]bool),
	}
}

// Wake nudges the scheduler to poll before the next tick. Safe to call from
// any goroutine; a pending wake coalesces with later ones.
func (s *Scheduler) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run loops until ctx is cancelled, settling expired listings each pass.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().
		Str("instance", s.instanceID).
		Int("workers", s.config.NumWorkers).
		Dur("poll_interval", s.config.PollInterval).
		Msg("settlement scheduler started")

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < s.config.NumWorkers; i++ {
		wg.Add(1)
		go s.worker(workerCtx, &wg, i)
	}
	defer func() {
		cancelWorkers()
		close(s.workCh)
		wg.Wait()
		log.Info().Str("instance", s.instanceID).Msg("settlement workers shut down")
	}()

	timer := s.clock.NewTimer(s.config.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-s.wakeCh:
		default:
		}

		if err := s.sweep(ctx); err != nil {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("settlement sweep failed")
		}

		timer.Reset(s.config.PollInterval)
		select {
		case <-timer.Chan():
		case <-s.wakeCh:
			if !timer.Stop() {
				select {
				case <-timer.Chan():
				default:
				}
			}
		case <-ctx.Done():
			log.Info().Str("instance", s.instanceID).Msg("settlement scheduler shutting down")
			return nil
		}
	}
}

// sweep fetches one batch of expired listings and queues them for settlement.
func (s *Scheduler) sweep(ctx context.Context) error {
	due, err := s.engine.ExpiredListings(ctx, s.clock.Now(), s.config.BatchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	log.Info().
		Int("count_due", len(due)).
		Int32("batch_size", s.config.BatchSize).
		Str("instance", s.instanceID).
		Msg("queueing expired listings for settlement")

	for _, l := range due {
		s.inFlightMu.Lock()
		if s.inFlight[l.ID] {
			s.inFlightMu.Unlock()
			continue
		}
		s.inFlight[l.ID] = true
		s.inFlightMu.Unlock()

		select {
		case <-ctx.Done():
			s.inFlightMu.Lock()
			delete(s.inFlight, l.ID)
			s.inFlightMu.Unlock()
			return nil
		case s.workCh <- l.ID:
		}
	}
	return nil
}

// worker settles listings from the work channel.
func (s *Scheduler) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case listingID, ok := <-s.workCh:
			if !ok {
				return
			}

			if err := s.engine.SettleListing(ctx, listingID); err != nil {
				log.Error().
					Err(err).
					Str("listing_id", listingID.String()).
					Str("instance", s.instanceID).
					Int("worker_id", workerID).
					Msg("settlement failed; will retry on next sweep")
			}

			s.inFlightMu.Lock()
			delete(s.inFlight, listingID)
			s.inFlightMu.Unlock()
		}
	}
}
