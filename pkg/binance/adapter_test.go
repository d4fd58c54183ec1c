package binance

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradehook/pkg/models"
)

type marketCall struct {
	symbol   string
	quantity decimal.Decimal
}

type fakeSpot struct {
	account    *Account
	accountErr error
	order      *Order
	orderErr   error

	buys  []marketCall
	sells []marketCall
}

func (f *fakeSpot) GetAccount(ctx context.Context) (*Account, error) {
	return f.account, f.accountErr
}

func (f *fakeSpot) MarketBuy(ctx context.Context, symbol string, quantity decimal.Decimal) (*Order, error) {
	f.buys = append(f.buys, marketCall{symbol: symbol, quantity: quantity})
	return f.order, f.orderErr
}

func (f *fakeSpot) MarketSell(ctx context.Context, symbol string, quantity decimal.Decimal) (*Order, error) {
	f.sells = append(f.sells, marketCall{symbol: symbol, quantity: quantity})
	return f.order, f.orderErr
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func accountWith(asset, free string) *Account {
	return &Account{Balances: []Balance{
		{Asset: "USDT", Free: decimal.RequireFromString("1000")},
		{Asset: asset, Free: decimal.RequireFromString(free)},
	}}
}

func TestAdapterPlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("buy submits requested quantity", func(t *testing.T) {
		spot := &fakeSpot{order: &Order{OrderID: 12345}}
		adapter := NewAdapter(spot, newTestLogger())

		result, err := adapter.PlaceOrder(ctx, "BTCUSDT", models.SideBuy, decimal.RequireFromString("0.01"))
		require.NoError(t, err)

		assert.Equal(t, models.StatusSuccess, result.Status)
		assert.Equal(t, "12345", result.OrderID)
		assert.Equal(t, "BINANCE", result.Broker)
		require.Len(t, spot.buys, 1)
		assert.True(t, spot.buys[0].quantity.Equal(decimal.RequireFromString("0.01")))
	})

	t.Run("sell clamps to available balance", func(t *testing.T) {
		spot := &fakeSpot{
			account: accountWith("BTC", "0.5"),
			order:   &Order{OrderID: 67890},
		}
		adapter := NewAdapter(spot, newTestLogger())

		result, err := adapter.PlaceOrder(ctx, "BTCUSDT", models.SideSell, decimal.RequireFromString("1000"))
		require.NoError(t, err)

		assert.Equal(t, models.StatusSuccess, result.Status)
		require.Len(t, spot.sells, 1)
		assert.True(t, spot.sells[0].quantity.Equal(decimal.RequireFromString("0.5")),
			"submitted quantity must equal the free balance, got %s", spot.sells[0].quantity)
	})

	t.Run("sell below balance uses requested quantity", func(t *testing.T) {
		spot := &fakeSpot{
			account: accountWith("BTC", "0.5"),
			order:   &Order{OrderID: 67890},
		}
		adapter := NewAdapter(spot, newTestLogger())

		_, err := adapter.PlaceOrder(ctx, "BTCUSDT", models.SideSell, decimal.RequireFromString("0.2"))
		require.NoError(t, err)

		require.Len(t, spot.sells, 1)
		assert.True(t, spot.sells[0].quantity.Equal(decimal.RequireFromString("0.2")))
	})

	t.Run("sell with zero balance submits nothing", func(t *testing.T) {
		spot := &fakeSpot{account: accountWith("BTC", "0")}
		adapter := NewAdapter(spot, newTestLogger())

		result, err := adapter.PlaceOrder(ctx, "BTCUSDT", models.SideSell, decimal.RequireFromString("1"))
		require.NoError(t, err)

		assert.Equal(t, models.StatusError, result.Status)
		assert.Equal(t, "BINANCE", result.Broker)
		assert.Contains(t, result.Message, "Insufficient balance")
		assert.Empty(t, spot.sells)
	})

	t.Run("sell with unknown asset submits nothing", func(t *testing.T) {
		spot := &fakeSpot{account: accountWith("ETH", "3")}
		adapter := NewAdapter(spot, newTestLogger())

		result, err := adapter.PlaceOrder(ctx, "BTCUSDT", models.SideSell, decimal.RequireFromString("1"))
		require.NoError(t, err)

		assert.Equal(t, models.StatusError, result.Status)
		assert.Empty(t, spot.sells)
	})

	t.Run("account failure becomes an error result", func(t *testing.T) {
		spot := &fakeSpot{accountErr: errors.New("connection reset")}
		adapter := NewAdapter(spot, newTestLogger())

		result, err := adapter.PlaceOrder(ctx, "BTCUSDT", models.SideSell, decimal.RequireFromString("1"))
		require.NoError(t, err)

		assert.Equal(t, models.StatusError, result.Status)
		assert.Contains(t, result.Message, "connection reset")
	})

	t.Run("order failure becomes an error result", func(t *testing.T) {
		spot := &fakeSpot{orderErr: &APIError{Code: -2010, Msg: "Account has insufficient balance"}}
		adapter := NewAdapter(spot, newTestLogger())

		result, err := adapter.PlaceOrder(ctx, "BTCUSDT", models.SideBuy, decimal.RequireFromString("1"))
		require.NoError(t, err)

		assert.Equal(t, models.StatusError, result.Status)
		assert.Equal(t, "BINANCE", result.Broker)
		assert.Contains(t, result.Message, "BUY order failed")
	})

	t.Run("uninitialized client returns an error result", func(t *testing.T) {
		adapter := NewAdapter(nil, newTestLogger())
		assert.False(t, adapter.Initialized())

		result, err := adapter.PlaceOrder(ctx, "BTCUSDT", models.SideBuy, decimal.RequireFromString("1"))
		require.NoError(t, err)

		assert.Equal(t, models.StatusError, result.Status)
		assert.Contains(t, result.Message, "not initialized")
	})
}

func TestBaseAsset(t *testing.T) {
	assert.Equal(t, "BTC", BaseAsset("BTCUSDT"))
	assert.Equal(t, "ETH", BaseAsset("ETHBUSD"))
	assert.Equal(t, "SOL", BaseAsset("SOLUSDC"))
	// no recognized quote suffix
	assert.Equal(t, "BTCEUR", BaseAsset("BTCEUR"))
	// never strip the whole symbol
	assert.Equal(t, "USDT", BaseAsset("USDT"))
}
