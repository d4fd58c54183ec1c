package flattrade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tradehook/pkg/models"
)

const defaultOrderURL = "https://piconnect.flattrade.in/PiConnectTP/PlaceOrder"

// orderTimeout bounds the single outbound call; there are no retries.
const orderTimeout = 10 * time.Second

// Client places intraday market orders against the Flattrade order API with
// a single authenticated POST per request.
type Client struct {
	apiKey     string
	apiSecret  string
	userID     string
	orderURL   string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(apiKey, apiSecret, userID string, logger *logrus.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		userID:     userID,
		orderURL:   defaultOrderURL,
		httpClient: &http.Client{Timeout: orderTimeout},
		logger:     logger,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiSecret != "" && c.userID != ""
}

type orderPayload struct {
	APIKey          string `json:"api_key"`
	Token           string `json:"token"`
	UserID          string `json:"user_id"`
	Symbol          string `json:"symbol"`
	TransactionType string `json:"transaction_type"`
	Quantity        int64  `json:"quantity"`
	OrderType       string `json:"order_type"`
	Product         string `json:"product"`
}

type orderResponse struct {
	OrderID string `json:"orderId"`
}

func (c *Client) PlaceOrder(ctx context.Context, symbol string, side models.Side, quantity decimal.Decimal) (models.OrderResult, error) {
	if !c.Configured() {
		return models.ErrorResult(models.BrokerFlattrade, "Flattrade credentials not configured"), nil
	}

	payload := orderPayload{
		APIKey:          c.apiKey,
		Token:           c.apiSecret,
		UserID:          c.userID,
		Symbol:          symbol,
		TransactionType: string(side),
		Quantity:        quantity.IntPart(),
		OrderType:       "MKT",
		Product:         "MIS",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.ErrorResult(models.BrokerFlattrade, fmt.Sprintf("Failed to build order request: %v", err)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.orderURL, bytes.NewReader(body))
	if err != nil {
		return models.ErrorResult(models.BrokerFlattrade, fmt.Sprintf("Failed to build order request: %v", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s:%s", c.apiKey, c.apiSecret))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Error("Flattrade order request failed")
		return models.ErrorResult(models.BrokerFlattrade, fmt.Sprintf("Order request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ErrorResult(models.BrokerFlattrade, fmt.Sprintf("Failed to read order response: %v", err)), nil
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"symbol": symbol,
			"status": resp.Status,
		}).Error("Flattrade rejected order")
		return models.ErrorResult(models.BrokerFlattrade,
			fmt.Sprintf("Order rejected: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))), nil
	}

	var parsed orderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return models.ErrorResult(models.BrokerFlattrade, fmt.Sprintf("Invalid order response: %v", err)), nil
	}

	orderID := parsed.OrderID
	if orderID == "" {
		orderID = "N/A"
	}

	return models.SuccessResult(models.BrokerFlattrade, fmt.Sprintf("%s order executed", side), orderID), nil
}
