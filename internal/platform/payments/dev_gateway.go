package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bookline/bookline-api/pkg/logger"
)

// DevGateway approves every charge and refund. Used when no Stripe key is
// configured, so local environments work without a processor account.
type DevGateway struct{}

func NewDevGateway() *DevGateway {
	return &DevGateway{}
}

func (g *DevGateway) Name() string { return "dev" }

func (g *DevGateway) Charge(ctx context.Context, amount float64, currency, description string) (string, error) {
	txID := fmt.Sprintf("dev_pi_%s", uuid.NewString())
	logger.InfoContext(ctx, "[DEV GATEWAY] charge approved",
		"amount", amount,
		"currency", currency,
		"description", description,
		"tx_id", txID,
	)
	return txID, nil
}

func (g *DevGateway) Refund(ctx context.Context, gatewayTxID string, amount float64, currency string) (string, error) {
	refundID := fmt.Sprintf("dev_re_%s", uuid.NewString())
	logger.InfoContext(ctx, "[DEV GATEWAY] refund approved",
		"tx_id", gatewayTxID,
		"amount", amount,
		"currency", currency,
		"refund_id", refundID,
	)
	return refundID, nil
}
