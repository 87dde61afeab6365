// internal/payments/gateway.go

// Package payments models the fine payment gateway as an abstract
// capability. Initiation asks the provider to push a payment prompt to
// the student's phone; confirmation arrives out of band, so callers
// must never treat initiation as settlement.
package payments

import (
	"context"

	"shelfmark/internal/config"
)

// Result is the provider's response to an initiation request.
type Result struct {
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
}

// Gateway initiates a payment request for the given phone and amount.
type Gateway interface {
	Initiate(ctx context.Context, phone string, amount int) (*Result, error)
}

// NewGateway returns the STK push client when an endpoint is
// configured, otherwise a no-op gateway.
func NewGateway(cfg config.MPesa) Gateway {
	if cfg.Endpoint == "" {
		return noopGateway{}
	}
	return newSTKClient(cfg)
}

type noopGateway struct{}

func (noopGateway) Initiate(ctx context.Context, phone string, amount int) (*Result, error) {
	return &Result{Status: "not_configured"}, nil
}
