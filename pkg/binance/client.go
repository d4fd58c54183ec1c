package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	productionBaseURL = "https://api.binance.com"
	testnetBaseURL    = "https://testnet.binance.vision"
)

// Client is a minimal Binance spot REST client covering the operations the
// webhook bridge needs: account lookup, market orders, and open-order
// management. Requests are signed with HMAC-SHA256 over the query string.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, apiSecret string, testnet bool) *Client {
	baseURL := productionBaseURL
	if testnet {
		baseURL = testnetBaseURL
	}

	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type Account struct {
	Balances []Balance `json:"balances"`
}

type Balance struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// FreeBalance returns the available quantity for an asset, zero when the
// account holds none of it.
func (a *Account) FreeBalance(asset string) decimal.Decimal {
	for _, balance := range a.Balances {
		if balance.Asset == asset {
			return balance.Free
		}
	}
	return decimal.Zero
}

type Order struct {
	Symbol        string          `json:"symbol"`
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Side          string          `json:"side"`
	Status        string          `json:"status"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
}

// APIError is the {code,msg} error body Binance returns on non-2xx responses.
type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: code %d: %s", e.Code, e.Msg)
}

func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var account Account
	if err := c.doSigned(ctx, http.MethodGet, "/api/v3/account", url.Values{}, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) MarketBuy(ctx context.Context, symbol string, quantity decimal.Decimal) (*Order, error) {
	return c.placeMarketOrder(ctx, symbol, "BUY", quantity)
}

func (c *Client) MarketSell(ctx context.Context, symbol string, quantity decimal.Decimal) (*Order, error) {
	return c.placeMarketOrder(ctx, symbol, "SELL", quantity)
}

func (c *Client) placeMarketOrder(ctx context.Context, symbol, side string, quantity decimal.Decimal) (*Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quantity", quantity.String())

	var order Order
	if err := c.doSigned(ctx, http.MethodPost, "/api/v3/order", params, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var orders []Order
	if err := c.doSigned(ctx, http.MethodGet, "/api/v3/openOrders", params, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	return c.doSigned(ctx, http.MethodDelete, "/api/v3/order", params, nil)
}

func (c *Client) sign(query string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values, out interface{}) error {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	query := params.Encode()
	query += "&signature=" + c.sign(query)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return fmt.Errorf("binance: failed to create request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("binance: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("binance: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Msg != "" {
			return &apiErr
		}
		return fmt.Errorf("binance: unexpected status %s: %s", resp.Status, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("binance: failed to decode response: %w", err)
		}
	}
	return nil
}
