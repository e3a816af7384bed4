package payments

import (
	"context"

	"github.com/bookline/bookline-api/pkg/config"
)

// Gateway abstracts the card processor. Amounts are in major currency
// units; implementations convert as needed.
type Gateway interface {
	Charge(ctx context.Context, amount float64, currency, description string) (string, error)
	Refund(ctx context.Context, gatewayTxID string, amount float64, currency string) (string, error)
	Name() string
}

// New returns the Stripe gateway when a secret key is configured and the
// dev gateway otherwise.
func New(cfg config.StripeConfig) Gateway {
	if cfg.SecretKey != "" {
		return NewStripeGateway(cfg.SecretKey)
	}
	return NewDevGateway()
}
