package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	bookingservice "cowbridge/contexts/booking-bridge/booking-service"
	bookingmemory "cowbridge/contexts/booking-bridge/booking-service/adapters/memory"
	bookingpostgres "cowbridge/contexts/booking-bridge/booking-service/adapters/postgres"
	"cowbridge/contexts/booking-bridge/booking-service/adapters/shopapi"
	bookingports "cowbridge/contexts/booking-bridge/booking-service/ports"
	partnersyncservice "cowbridge/contexts/booking-bridge/partner-sync-service"
	partnerworkers "cowbridge/contexts/booking-bridge/partner-sync-service/application/workers"
	"cowbridge/contexts/booking-bridge/partner-sync-service/adapters/cowlendarapi"
	partnermemory "cowbridge/contexts/booking-bridge/partner-sync-service/adapters/memory"
	partnerpostgres "cowbridge/contexts/booking-bridge/partner-sync-service/adapters/postgres"
	partnerports "cowbridge/contexts/booking-bridge/partner-sync-service/ports"
	"cowbridge/internal/platform/config"
	"cowbridge/internal/platform/db"
	"cowbridge/internal/platform/httpserver"
	"cowbridge/internal/platform/messaging"
	"cowbridge/internal/shared/ratelimit"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

func (a *APIApp) Run() error {
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return a.postgres.Close()
}

type WorkerApp struct {
	postgres     *db.Postgres
	relay        partnerworkers.SyncRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	wiring, err := buildWiring(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(httpserver.Options{
		Bookings:    wiring.bookings,
		Partner:     wiring.partner,
		Mirror:      wiring.mirror,
		Auth:        httpserver.NewAPIKeyAuth(cfg.GlobalAPIKeys, cfg.ScopedAPIKeys),
		Limiter:     ratelimit.New(cfg.RateLimitPerMinute, time.Minute),
		ShopSecret:  cfg.ShopWebhookSecret,
		RedirectURI: cfg.CowlendarRedirectURI,
		Logger:      logger,
		Addr:        normalizeAddr(cfg.HTTPPort),
	})
	return &APIApp{
		server:   server,
		postgres: wiring.postgres,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	wiring, err := buildWiring(cfg, logger)
	if err != nil {
		return nil, err
	}

	var publisher bookingports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, err
		}
		publisher = kafka
	} else {
		publisher = messaging.NewBus(logger)
	}

	return &WorkerApp{
		postgres: wiring.postgres,
		relay: partnerworkers.SyncRelay{
			Bookings:  wiring.bookings.Service,
			Tokens:    wiring.partner.Tokens,
			Client:    wiring.partner.Client,
			Ledger:    wiring.partner.Ledger,
			Publisher: publisher,
			Logger:    logger,
		},
		pollInterval: cfg.SyncInterval,
		logger:       logger,
	}, nil
}

// Run drives the sync relay until the context ends. Individual run failures
// are logged by the relay; the loop keeps going.
func (a *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		if err := a.relay.RunOnce(ctx); err != nil {
			a.logger.Warn("sync relay run failed",
				"event", "worker_sync_run_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *WorkerApp) Close() error {
	return a.postgres.Close()
}

type wiring struct {
	bookings bookingservice.Module
	partner  partnersyncservice.Module
	mirror   bookingports.OrderMirror
	postgres *db.Postgres
}

// buildWiring picks the order source: the live commerce API when configured,
// else the postgres mirror, else the in-memory store for local development.
func buildWiring(cfg config.Config, logger *slog.Logger) (wiring, error) {
	var out wiring

	var orders bookingports.OrderStore
	var products bookingports.ProductMetadataStore

	switch {
	case strings.TrimSpace(cfg.ShopAPIURL) != "":
		client := shopapi.NewClient(cfg.ShopAPIURL, cfg.ShopAPIToken, logger)
		orders = client
		products = client
	case strings.TrimSpace(cfg.PostgresDSN) != "":
		// Mirror-backed mode; webhooks keep the mirror current.
	default:
		store := bookingmemory.NewStore()
		orders = store
		products = store
		out.mirror = store
	}

	var ledger partnerports.SyncLedger
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return wiring{}, err
		}
		out.postgres = pg

		repo := bookingpostgres.NewRepository(pg.DB, logger)
		if err := repo.Migrate(); err != nil {
			return wiring{}, err
		}
		out.mirror = repo
		if orders == nil {
			orders = repo
			products = repo
		}

		pgLedger := partnerpostgres.NewLedger(pg.DB, logger)
		if err := pgLedger.Migrate(); err != nil {
			return wiring{}, err
		}
		ledger = pgLedger
	}

	out.bookings = bookingservice.NewModule(bookingservice.Dependencies{
		Orders:    orders,
		Products:  products,
		KeyPrefix: cfg.CowlendarKeyPrefix,
		Logger:    logger,
	})

	if strings.TrimSpace(cfg.CowlendarAPIURL) != "" {
		client := cowlendarapi.NewClient(cfg.CowlendarAPIURL, cfg.CowlendarClientID, cfg.CowlendarClientSecret, logger)
		deps := partnersyncservice.Dependencies{
			Client:        client,
			Ledger:        ledger,
			ClientID:      cfg.CowlendarClientID,
			WebhookSecret: cfg.CowlendarWebhookSecret,
			Logger:        logger,
		}
		if deps.Ledger == nil {
			deps.Ledger = partnermemory.NewStore()
		}
		out.partner = partnersyncservice.NewModule(deps)
	} else {
		out.partner = partnersyncservice.NewInMemoryModule(cfg.CowlendarClientID, cfg.CowlendarWebhookSecret, logger)
		if ledger != nil {
			out.partner.Ledger = ledger
		}
	}
	return out, nil
}

func normalizeAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
