package http

import (
	"github.com/nats-io/nats.go"

	"github.com/tjtransit/rutas/internal/adapters/postgres"
	"github.com/tjtransit/rutas/internal/adapters/valkey"
	"github.com/tjtransit/rutas/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes    *usecases.RouteService
	Proposals *usecases.ProposalService
	Auth      *usecases.AuthService
	Location  *usecases.LocationService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
