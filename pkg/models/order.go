package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type Broker string

const (
	BrokerBinance   Broker = "BINANCE"
	BrokerFlattrade Broker = "FLATTRADE"
)

// DefaultBroker is used when an alert omits the broker field.
const DefaultBroker = BrokerBinance

type OrderStatus string

const (
	StatusSuccess OrderStatus = "success"
	StatusError   OrderStatus = "error"
)

// OrderRequest is a validated trading alert. It is built fresh from the
// webhook payload on every call and discarded once the order completes.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Quantity decimal.Decimal
	Broker   Broker
}

// OrderResult is the normalized outcome of an order placement and is
// serialized directly as the webhook response body.
type OrderResult struct {
	Status  OrderStatus `json:"status"`
	Message string      `json:"message"`
	OrderID string      `json:"orderId,omitempty"`
	Broker  string      `json:"broker,omitempty"`
}

func SuccessResult(broker Broker, message, orderID string) OrderResult {
	return OrderResult{
		Status:  StatusSuccess,
		Message: message,
		OrderID: orderID,
		Broker:  string(broker),
	}
}

func ErrorResult(broker Broker, message string) OrderResult {
	return OrderResult{
		Status:  StatusError,
		Message: message,
		Broker:  string(broker),
	}
}

func ParseSide(raw string) (Side, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("Side is required")
	}
	switch Side(strings.ToUpper(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("Invalid side: %s", raw)
	}
}

// ParseBroker maps the optional broker field to a known broker,
// defaulting to Binance when absent.
func ParseBroker(raw string) (Broker, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultBroker, nil
	}
	switch Broker(strings.ToUpper(strings.TrimSpace(raw))) {
	case BrokerBinance:
		return BrokerBinance, nil
	case BrokerFlattrade:
		return BrokerFlattrade, nil
	default:
		return "", fmt.Errorf("Invalid broker: %s", raw)
	}
}

func ParseQuantity(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, errors.New("Quantity is required")
	}
	quantity, err := decimal.NewFromString(trimmed)
	if err != nil || !quantity.IsPositive() {
		return decimal.Zero, fmt.Errorf("Invalid quantity: %s", raw)
	}
	return quantity, nil
}

// NewOrderRequest validates the raw alert fields in a fixed order; the
// first failing check determines the returned error message.
func NewOrderRequest(symbol, side, quantity, broker string) (*OrderRequest, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, errors.New("Symbol is required")
	}

	parsedSide, err := ParseSide(side)
	if err != nil {
		return nil, err
	}

	parsedQuantity, err := ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}

	parsedBroker, err := ParseBroker(broker)
	if err != nil {
		return nil, err
	}

	return &OrderRequest{
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Side:     parsedSide,
		Quantity: parsedQuantity,
		Broker:   parsedBroker,
	}, nil
}
