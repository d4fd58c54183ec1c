package broker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradehook/pkg/models"
)

type stubAdapter struct {
	result models.OrderResult
	calls  int
}

func (s *stubAdapter) PlaceOrder(ctx context.Context, symbol string, side models.Side, quantity decimal.Decimal) (models.OrderResult, error) {
	s.calls++
	return s.result, nil
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func orderRequest(b models.Broker) *models.OrderRequest {
	return &models.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     models.SideBuy,
		Quantity: decimal.RequireFromString("0.01"),
		Broker:   b,
	}
}

func TestRouterRoute(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches to binance", func(t *testing.T) {
		binance := &stubAdapter{result: models.SuccessResult(models.BrokerBinance, "BUY order executed", "1")}
		flattrade := &stubAdapter{}
		router := NewRouter(binance, flattrade, newTestLogger())

		result, err := router.Route(ctx, orderRequest(models.BrokerBinance))
		require.NoError(t, err)

		assert.Equal(t, models.StatusSuccess, result.Status)
		assert.Equal(t, 1, binance.calls)
		assert.Equal(t, 0, flattrade.calls)
	})

	t.Run("dispatches to flattrade", func(t *testing.T) {
		binance := &stubAdapter{}
		flattrade := &stubAdapter{result: models.SuccessResult(models.BrokerFlattrade, "BUY order executed", "1")}
		router := NewRouter(binance, flattrade, newTestLogger())

		result, err := router.Route(ctx, orderRequest(models.BrokerFlattrade))
		require.NoError(t, err)

		assert.Equal(t, "FLATTRADE", result.Broker)
		assert.Equal(t, 0, binance.calls)
		assert.Equal(t, 1, flattrade.calls)
	})

	t.Run("rejects unknown broker defensively", func(t *testing.T) {
		router := NewRouter(&stubAdapter{}, &stubAdapter{}, newTestLogger())

		result, err := router.Route(ctx, orderRequest(models.Broker("ZERODHA")))
		require.NoError(t, err)

		assert.Equal(t, models.StatusError, result.Status)
		assert.Contains(t, result.Message, "ZERODHA")
	})

	t.Run("nil adapter yields an error result, not a panic", func(t *testing.T) {
		router := NewRouter(nil, nil, newTestLogger())

		result, err := router.Route(ctx, orderRequest(models.BrokerBinance))
		require.NoError(t, err)

		assert.Equal(t, models.StatusError, result.Status)
		assert.Contains(t, result.Message, "not configured")
	})
}
