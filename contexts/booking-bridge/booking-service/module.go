package bookingservice

import (
	"log/slog"

	httpadapter "cowbridge/contexts/booking-bridge/booking-service/adapters/http"
	"cowbridge/contexts/booking-bridge/booking-service/adapters/memory"
	"cowbridge/contexts/booking-bridge/booking-service/application"
	"cowbridge/contexts/booking-bridge/booking-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Orders                ports.OrderStore
	Products              ports.ProductMetadataStore
	KeyPrefix             string
	HostLookupConcurrency int
	Logger                *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Orders:                deps.Orders,
		Products:              deps.Products,
		KeyPrefix:             deps.KeyPrefix,
		HostLookupConcurrency: deps.HostLookupConcurrency,
		Logger:                deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Orders:   store,
		Products: store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
