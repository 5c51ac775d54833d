package main

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/market/bid"
	"github.com/mcdev12/transfermarket/internal/market/engine"
	"github.com/mcdev12/transfermarket/internal/market/listing"
	"github.com/mcdev12/transfermarket/internal/market/offer"
	"github.com/mcdev12/transfermarket/internal/market/outbox"
	"github.com/mcdev12/transfermarket/internal/market/outbox/natspub"
	"github.com/mcdev12/transfermarket/internal/market/settlement"
	"github.com/mcdev12/transfermarket/internal/registry"
	"github.com/mcdev12/transfermarket/internal/roster"
	"github.com/mcdev12/transfermarket/internal/store/postgres"
	"github.com/mcdev12/transfermarket/internal/wallet"
	"github.com/prometheus/client_golang/prometheus"
)

// services holds the wired application graph.
type services struct {
	Engine       *engine.App
	Scheduler    *settlement.Scheduler
	OutboxWorker *outbox.Worker
	Publisher    outbox.EventPublisher
}

// setupServices wires stores, apps, the engine, the settlement scheduler and
// the outbox worker. Stores are the only layer that sees the database; apps
// see repositories; the engine sees apps.
func setupServices(db *sql.DB, cfg *Config) (*services, error) {
	clock := clockwork.NewRealClock()

	walletStore := postgres.NewWalletStore(db)
	playerStore := postgres.NewPlayerStore(db)
	listingStore := postgres.NewListingStore(db)
	bidStore := postgres.NewBidStore(db)
	offerStore := postgres.NewOfferStore(db)
	outboxStore := postgres.NewOutboxStore(db)

	outboxApp := outbox.NewApp(outboxStore, clock.Now)

	walletApp := wallet.NewApp(walletStore, outboxApp, clock)
	registryApp := registry.NewApp(playerStore)

	listingApp := listing.NewApp(listingStore, outboxApp, clock, listing.Config{
		Window:            cfg.listingWindow(),
		MinAskingFraction: cfg.Market.MinAskingFraction,
	})
	bidApp := bid.NewApp(bidStore, clock)
	offerApp := offer.NewApp(offerStore, clock)

	rosterApp := roster.NewApp(playerStore, engine.Commitments{Bids: bidApp, Offers: offerApp}, roster.Config{
		MaxRosterSize:      cfg.Market.MaxRosterSize,
		PositionalMinimums: cfg.positionalMinimums(),
	})

	engineApp := engine.NewApp(
		listingApp,
		bidApp,
		offerApp,
		walletApp,
		rosterApp,
		registryApp,
		outboxApp,
		clock,
		engine.Config{ExpiredSalePolicy: cfg.expiredSalePolicy()},
	)

	scheduler := settlement.NewScheduler(engineApp, clock, settlement.Config{
		PollInterval: cfg.settlementPollInterval(),
		BatchSize:    cfg.Settlement.BatchSize,
		NumWorkers:   cfg.Settlement.NumWorkers,
	})

	publisher, err := setupPublisher(cfg)
	if err != nil {
		return nil, err
	}

	workerCfg := outbox.Config{
		PollInterval: cfg.outboxPollInterval(),
		BatchSize:    cfg.Outbox.BatchSize,
		MaxRetries:   cfg.Outbox.MaxRetries,
		RetryDelay:   cfg.outboxRetryDelay(),
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	metrics := outbox.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	worker := outbox.NewWorker(outboxStore, publisher, workerCfg, logger, metrics)

	return &services{
		Engine:       engineApp,
		Scheduler:    scheduler,
		OutboxWorker: worker,
		Publisher:    publisher,
	}, nil
}

func setupPublisher(cfg *Config) (outbox.EventPublisher, error) {
	if !cfg.Nats.Enabled {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		return outbox.NewMockPublisher(logger), nil
	}

	natsCfg := natspub.DefaultConfig()
	if cfg.Nats.URL != "" {
		natsCfg.URL = cfg.Nats.URL
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		natsCfg.URL = url
	}
	return natspub.New(natsCfg)
}
