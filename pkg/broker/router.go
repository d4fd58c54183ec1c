package broker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tradehook/pkg/models"
)

// Adapter places a single market order against one brokerage. Broker-side
// failures (rejected orders, network faults, unconfigured credentials) are
// reported as an error-status OrderResult; the error return is reserved for
// unexpected faults and maps to HTTP 500 at the API boundary.
type Adapter interface {
	PlaceOrder(ctx context.Context, symbol string, side models.Side, quantity decimal.Decimal) (models.OrderResult, error)
}

// Router dispatches validated order requests to the adapter matching the
// request's broker. Adapters are injected once at startup and never change.
type Router struct {
	binance   Adapter
	flattrade Adapter
	logger    *logrus.Logger
}

func NewRouter(binance, flattrade Adapter, logger *logrus.Logger) *Router {
	return &Router{
		binance:   binance,
		flattrade: flattrade,
		logger:    logger,
	}
}

func (r *Router) Route(ctx context.Context, req *models.OrderRequest) (models.OrderResult, error) {
	var adapter Adapter
	switch req.Broker {
	case models.BrokerBinance:
		adapter = r.binance
	case models.BrokerFlattrade:
		adapter = r.flattrade
	default:
		// The endpoint validates brokers before routing; reject again here
		// so a misuse of the router never reaches an adapter.
		return models.ErrorResult(req.Broker, fmt.Sprintf("Invalid broker: %s", req.Broker)), nil
	}

	if adapter == nil {
		return models.ErrorResult(req.Broker, fmt.Sprintf("%s adapter is not configured", req.Broker)), nil
	}

	r.logger.WithFields(logrus.Fields{
		"broker":   req.Broker,
		"symbol":   req.Symbol,
		"side":     req.Side,
		"quantity": req.Quantity.String(),
	}).Info("Routing order")

	return adapter.PlaceOrder(ctx, req.Symbol, req.Side, req.Quantity)
}
