package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tradehook/pkg/models"
)

// SpotAPI is the slice of the Binance client the adapter needs; tests
// substitute a fake.
type SpotAPI interface {
	GetAccount(ctx context.Context) (*Account, error)
	MarketBuy(ctx context.Context, symbol string, quantity decimal.Decimal) (*Order, error)
	MarketSell(ctx context.Context, symbol string, quantity decimal.Decimal) (*Order, error)
}

// Quote currencies stripped from a pair symbol to find the base asset.
var quoteSuffixes = []string{"USDT", "BUSD", "USDC"}

// Adapter implements order placement against Binance spot. A nil client
// (missing credentials at startup) yields error results instead of faults.
type Adapter struct {
	client SpotAPI
	logger *logrus.Logger
}

func NewAdapter(client SpotAPI, logger *logrus.Logger) *Adapter {
	return &Adapter{
		client: client,
		logger: logger,
	}
}

func (a *Adapter) Initialized() bool {
	return a.client != nil
}

func (a *Adapter) PlaceOrder(ctx context.Context, symbol string, side models.Side, quantity decimal.Decimal) (models.OrderResult, error) {
	if a.client == nil {
		return models.ErrorResult(models.BrokerBinance, "Binance client not initialized"), nil
	}

	switch side {
	case models.SideBuy:
		return a.marketBuy(ctx, symbol, quantity), nil
	case models.SideSell:
		return a.marketSell(ctx, symbol, quantity), nil
	default:
		return models.ErrorResult(models.BrokerBinance, fmt.Sprintf("Invalid side: %s", side)), nil
	}
}

func (a *Adapter) marketBuy(ctx context.Context, symbol string, quantity decimal.Decimal) models.OrderResult {
	order, err := a.client.MarketBuy(ctx, symbol, quantity)
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Error("Market buy failed")
		return models.ErrorResult(models.BrokerBinance, fmt.Sprintf("BUY order failed: %v", err))
	}

	return models.SuccessResult(models.BrokerBinance, "BUY order executed", strconv.FormatInt(order.OrderID, 10))
}

func (a *Adapter) marketSell(ctx context.Context, symbol string, quantity decimal.Decimal) models.OrderResult {
	account, err := a.client.GetAccount(ctx)
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Error("Account lookup failed")
		return models.ErrorResult(models.BrokerBinance, fmt.Sprintf("Failed to fetch account balance: %v", err))
	}

	asset := BaseAsset(symbol)
	balance := account.FreeBalance(asset)
	if !balance.IsPositive() {
		return models.ErrorResult(models.BrokerBinance, "Insufficient balance for SELL order")
	}

	// Never oversell: clamp to the available balance instead of failing.
	sellQuantity := decimal.Min(balance, quantity)
	if sellQuantity.LessThan(quantity) {
		a.logger.WithFields(logrus.Fields{
			"symbol":    symbol,
			"requested": quantity.String(),
			"available": balance.String(),
		}).Warn("Clamping sell quantity to available balance")
	}

	order, err := a.client.MarketSell(ctx, symbol, sellQuantity)
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Error("Market sell failed")
		return models.ErrorResult(models.BrokerBinance, fmt.Sprintf("SELL order failed: %v", err))
	}

	return models.SuccessResult(models.BrokerBinance, "SELL order executed", strconv.FormatInt(order.OrderID, 10))
}

// BaseAsset strips a known quote-currency suffix from a pair symbol,
// e.g. BTCUSDT -> BTC. Unrecognized symbols are returned unchanged.
func BaseAsset(symbol string) string {
	for _, quote := range quoteSuffixes {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return strings.TrimSuffix(symbol, quote)
		}
	}
	return symbol
}
