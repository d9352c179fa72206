package partnersyncservice

import (
	"log/slog"

	"cowbridge/contexts/booking-bridge/partner-sync-service/adapters/memory"
	"cowbridge/contexts/booking-bridge/partner-sync-service/application"
	"cowbridge/contexts/booking-bridge/partner-sync-service/ports"
)

type Module struct {
	Tokens   *application.TokenManager
	Verifier application.WebhookVerifier
	Client   ports.PartnerClient
	Ledger   ports.SyncLedger
	Store    *memory.Store
}

type Dependencies struct {
	Client        ports.PartnerClient
	Ledger        ports.SyncLedger
	Clock         ports.Clock
	ClientID      string
	WebhookSecret string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Tokens:   application.NewTokenManager(deps.Client, deps.ClientID, deps.Clock, deps.Logger),
		Verifier: application.WebhookVerifier{Secret: []byte(deps.WebhookSecret)},
		Client:   deps.Client,
		Ledger:   deps.Ledger,
	}
}

func NewInMemoryModule(clientID, webhookSecret string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Client:        store,
		Ledger:        store,
		Clock:         store,
		ClientID:      clientID,
		WebhookSecret: webhookSecret,
		Logger:        logger,
	})
	module.Store = store
	return module
}
