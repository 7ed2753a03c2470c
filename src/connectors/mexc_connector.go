// REST CLIENT FOR MEXC SPOT V3
// RESTY ONLY + INTERNAL RETRY
package connectors

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// -----------------------------
// CONFIG
// -----------------------------
const (
	defaultBaseURL         = "https://api.mexc.com"
	defaultRecvWindow      = 60000
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 600 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
	defaultHTTPTimeout     = 15 * time.Second

	// MaxTradesLimit is the largest page myTrades accepts.
	MaxTradesLimit = 1000

	apiKeyHeader = "X-MEXC-APIKEY"
)

// -----------------------------
// ERRORS
// -----------------------------

// APIError is a response the exchange rejected: a non-2xx status or a non-zero code.
// It is never retried.
type APIError struct {
	HTTPStatus int
	Code       int
	Msg        string
}

func (e *APIError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = GetErrorMsg(e.Code)
	}
	return fmt.Sprintf("mexc api error: http=%d code=%d msg=%s", e.HTTPStatus, e.Code, msg)
}

// IsAPIError reports whether err wraps an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// -----------------------------
// WIRE TYPES
// -----------------------------

// Balance is the free and locked amount of one asset.
type Balance struct {
	Free   float64
	Locked float64
}

// FlexString accepts ids that the API sends either as JSON strings or numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

// ExchangeOrder is one entry of /api/v3/openOrders.
type ExchangeOrder struct {
	Symbol        string     `json:"symbol"`
	OrderID       FlexString `json:"orderId"`
	ClientOrderID string     `json:"clientOrderId"`
	Price         string     `json:"price"`
	OrigQty       string     `json:"origQty"`
	ExecutedQty   string     `json:"executedQty"`
	Status        string     `json:"status"`
	Type          string     `json:"type"`
	Side          string     `json:"side"`
	Time          int64      `json:"time"`
	UpdateTime    int64      `json:"updateTime"`
}

// Trade is one entry of /api/v3/myTrades.
type Trade struct {
	Symbol          string     `json:"symbol"`
	ID              FlexString `json:"id"`
	TradeID         FlexString `json:"tradeId"`
	OrderID         FlexString `json:"orderId"`
	Side            string     `json:"side"`
	Price           string     `json:"price"`
	Qty             string     `json:"qty"`
	QuoteQty        string     `json:"quoteQty"`
	Commission      string     `json:"commission"`
	CommissionAsset string     `json:"commissionAsset"`
	Time            int64      `json:"time"`
	IsBuyer         bool       `json:"isBuyer"`
	IsMaker         bool       `json:"isMaker"`
}

// PlacedOrder is the acknowledgement of POST /api/v3/order.
type PlacedOrder struct {
	Symbol        string     `json:"symbol"`
	OrderID       FlexString `json:"orderId"`
	ClientOrderID string     `json:"clientOrderId"`
	Price         string     `json:"price"`
	OrigQty       string     `json:"origQty"`
	Side          string     `json:"side"`
	TransactTime  int64      `json:"transactTime"`
}

type accountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

type errorBody struct {
	Code *int   `json:"code"`
	Msg  string `json:"msg"`
}

// -----------------------------
// AUTHENTICATED CLIENT
// -----------------------------
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	recvWindow int64
	http       *resty.Client
	prices     *PriceCache
	now        func() time.Time
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

// NewClient builds a signed MEXC client from cfg. prices may be nil to disable caching.
func NewClient(cfg Config, prices *PriceCache) *Client {
	baseURL := cfg.MexcBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	recvWindow := cfg.MexcRecvWindow
	if recvWindow <= 0 {
		recvWindow = defaultRecvWindow
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(attempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &Client{
		apiKey:     cfg.MexcAPIKey,
		apiSecret:  cfg.MexcAPISecret,
		baseURL:    baseURL,
		recvWindow: recvWindow,
		http:       httpClient,
		prices:     prices,
		now:        time.Now,
	}
}

func signRequest(query, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// signedQuery adds timestamp and recvWindow, encodes params canonically and appends the signature.
func (c *Client) signedQuery(params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	query := params.Encode()
	return query + "&signature=" + signRequest(query, c.apiSecret)
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, signed bool) ([]byte, error) {
	req := c.http.R().SetContext(ctx)

	query := ""
	if signed {
		query = c.signedQuery(params)
		req = req.SetHeader(apiKeyHeader, c.apiKey)
	} else if len(params) > 0 {
		query = params.Encode()
	}
	if query != "" {
		req = req.SetQueryString(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("mexc %s %s: %w", method, path, err)
	}

	raw := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode(), Msg: strings.TrimSpace(string(raw))}
		var body errorBody
		if json.Unmarshal(raw, &body) == nil && body.Code != nil {
			apiErr.Code = *body.Code
			apiErr.Msg = body.Msg
		}
		return nil, apiErr
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var body errorBody
		if json.Unmarshal(trimmed, &body) == nil && body.Code != nil && *body.Code != 0 && *body.Code != http.StatusOK {
			return nil, &APIError{HTTPStatus: resp.StatusCode(), Code: *body.Code, Msg: body.Msg}
		}
	}

	return raw, nil
}

// -----------------------------
// MARKET DATA
// -----------------------------

// Price returns the last traded price, served from the price cache when fresh.
func (c *Client) Price(ctx context.Context, pair string) (float64, error) {
	if p, ok := c.prices.Get(pair); ok {
		return p, nil
	}

	raw, err := c.doRequest(ctx, http.MethodGet, "/api/v3/ticker/price", url.Values{"symbol": {pair}}, false)
	if err != nil {
		return 0, err
	}

	var tk struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(raw, &tk); err != nil {
		return 0, fmt.Errorf("decode ticker: %w", err)
	}

	price, err := strconv.ParseFloat(tk.Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("invalid price for %s: %q", pair, tk.Price)
	}

	c.prices.Set(pair, price)
	return price, nil
}

// -----------------------------
// ACCOUNT
// -----------------------------

// Account returns balances keyed by asset.
func (c *Client) Account(ctx context.Context) (map[string]Balance, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/api/v3/account", nil, true)
	if err != nil {
		return nil, err
	}

	var acc accountResponse
	if err := json.Unmarshal(raw, &acc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}

	out := make(map[string]Balance, len(acc.Balances))
	for _, b := range acc.Balances {
		out[strings.ToUpper(b.Asset)] = Balance{
			Free:   parseFloat(b.Free),
			Locked: parseFloat(b.Locked),
		}
	}
	return out, nil
}

// -----------------------------
// ORDERS
// -----------------------------

// OpenOrders lists every open order on pair.
func (c *Client) OpenOrders(ctx context.Context, pair string) ([]ExchangeOrder, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/api/v3/openOrders", url.Values{"symbol": {pair}}, true)
	if err != nil {
		return nil, err
	}

	var orders []ExchangeOrder
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("decode open orders: %w", err)
	}
	return orders, nil
}

// MyTrades lists account trades on pair executed in [start, end]. limit is capped at MaxTradesLimit.
func (c *Client) MyTrades(ctx context.Context, pair string, start, end time.Time, limit int) ([]Trade, error) {
	if limit <= 0 || limit > MaxTradesLimit {
		limit = MaxTradesLimit
	}
	params := url.Values{
		"symbol": {pair},
		"limit":  {strconv.Itoa(limit)},
	}
	if !start.IsZero() {
		params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if !end.IsZero() {
		params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	}

	raw, err := c.doRequest(ctx, http.MethodGet, "/api/v3/myTrades", params, true)
	if err != nil {
		return nil, err
	}

	var trades []Trade
	if err := json.Unmarshal(raw, &trades); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}
	return trades, nil
}

// PlaceLimitOrder submits a GTC limit order. clientID is sent as newClientOrderId.
func (c *Client) PlaceLimitOrder(ctx context.Context, pair, side string, price, qty float64, clientID string) (*PlacedOrder, error) {
	params := url.Values{
		"symbol":      {pair},
		"side":        {strings.ToUpper(side)},
		"type":        {"LIMIT"},
		"timeInForce": {"GTC"},
		"price":       {FormatNumber(price)},
		"quantity":    {FormatNumber(qty)},
	}
	if clientID != "" {
		params.Set("newClientOrderId", clientID)
	}

	raw, err := c.doRequest(ctx, http.MethodPost, "/api/v3/order", params, true)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"pair":     pair,
			"side":     side,
			"price":    price,
			"qty":      qty,
			"clientID": clientID,
		}).WithError(err).Error("Failed to place limit order")
		return nil, err
	}

	var placed PlacedOrder
	if err := json.Unmarshal(raw, &placed); err != nil {
		return nil, fmt.Errorf("decode order ack: %w", err)
	}
	if placed.ClientOrderID == "" {
		placed.ClientOrderID = clientID
	}
	return &placed, nil
}

// CancelOrder cancels orderID on pair.
func (c *Client) CancelOrder(ctx context.Context, pair, orderID string) error {
	params := url.Values{
		"symbol":  {pair},
		"orderId": {orderID},
	}
	_, err := c.doRequest(ctx, http.MethodDelete, "/api/v3/order", params, true)
	return err
}

// -----------------------------
// NUMBERS
// -----------------------------

// FormatNumber renders v as a plain decimal without exponent or trailing zeros.
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// ParseNumber parses a decimal wire string. Empty input yields 0.
func ParseNumber(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

// String returns the id as sent by the exchange.
func (f FlexString) String() string {
	return string(f)
}
