// Package http wires the domain services to a gin router. Handlers stay
// thin: bind input, resolve the caller, call the service, respond.
package http

import (
	cartports "github.com/pawmart/pawmart-api/internal/domains/cart/ports"
	catalogports "github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
	ordersports "github.com/pawmart/pawmart-api/internal/domains/orders/ports"
	settingsports "github.com/pawmart/pawmart-api/internal/domains/settings/ports"
	sharederrors "github.com/pawmart/pawmart-api/internal/shared/errors"
)

// Server groups the use-case services behind one set of HTTP handlers.
type Server struct {
	catalog   catalogports.Service
	cart      cartports.Service
	orders    ordersports.Service
	settings  settingsports.Service
	responder *sharederrors.ChainedResponder
}

// NewServer builds the handler set over the given services.
func NewServer(
	catalog catalogports.Service,
	cart cartports.Service,
	orders ordersports.Service,
	settings settingsports.Service,
) *Server {
	return &Server{
		catalog:   catalog,
		cart:      cart,
		orders:    orders,
		settings:  settings,
		responder: newResponder(),
	}
}
