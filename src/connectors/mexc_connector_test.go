package connectors

// Test index:
//  1. TestIsRetryableResp verifies retry decisions for various response codes and errors.
//  2. TestSignRequest validates HMAC signature generation over the canonical query.
//  3. TestSignedRequestVerifies checks the server can verify the signature and sees the API key header.
//  4. TestPriceUsesCache ensures the ticker is fetched once within the cache TTL.
//  5. TestAccountBalances decodes free and locked balances keyed by asset.
//  6. TestTradingEndpoints ensures order endpoints are called with expected methods and paths.
//  7. TestPlaceLimitOrderParams checks LIMIT/GTC params, plain decimal formatting and client id fallback.
//  8. TestMyTradesCapsLimit asserts the page size never exceeds the exchange maximum.
//  9. TestAPIErrorNotRetried confirms rejected requests surface an *APIError after one attempt.
// 10. TestServerErrorRetried confirms 5xx responses are retried up to the attempt cap.
// 11. TestCodeInOKBodyIsAPIError treats a non-zero code inside an HTTP 200 as a rejection.
// 12. TestFlexStringDecodesNumbers accepts numeric and string ids.

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string, httpClient *http.Client) *Client {
	restyClient := resty.New()
	restyClient.SetBaseURL(baseURL)
	restyClient.SetTransport(httpClient.Transport)

	return &Client{
		apiKey:     "test-key",
		apiSecret:  "test-secret",
		baseURL:    baseURL,
		recvWindow: defaultRecvWindow,
		http:       restyClient,
		now:        func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func newRetryingTestClient(baseURL string, httpClient *http.Client, attempts int) *Client {
	c := newTestClient(baseURL, httpClient)
	c.http.
		SetRetryCount(attempts - 1).
		SetRetryWaitTime(time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Millisecond).
		AddRetryCondition(isRetryableResp)
	return c
}

// TestIsRetryableResp verifies retry decisions for assorted errors and HTTP responses.
func TestIsRetryableResp(t *testing.T) {
	cases := []struct {
		name string
		resp *resty.Response
		err  error
		want bool
	}{
		{name: "error present", err: assertError{}, want: true},
		{name: "server error", resp: fakeResponse(500), want: true},
		{name: "too many requests", resp: fakeResponse(429), want: true},
		{name: "timeout", resp: fakeResponse(408), want: true},
		{name: "bad request", resp: fakeResponse(400), want: false},
		{name: "ok response", resp: fakeResponse(200), want: false},
		{name: "nil resp", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isRetryableResp(tc.resp, tc.err))
		})
	}
}

// TestSignRequest ensures HMAC signing matches the expected digest for a fixed query and secret.
func TestSignRequest(t *testing.T) {
	query := "recvWindow=60000&symbol=KASUSDC&timestamp=1700000000000"
	expectedMac := hmac.New(sha256.New, []byte("secret"))
	expectedMac.Write([]byte(query))
	expected := hex.EncodeToString(expectedMac.Sum(nil))

	require.Equal(t, expected, signRequest(query, "secret"))
}

func TestSignedRequestVerifies(t *testing.T) {
	var gotKey string
	var verified bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(apiKeyHeader)
		q := r.URL.Query()
		sig := q.Get("signature")
		q.Del("signature")
		verified = sig == signRequest(q.Encode(), "test-secret") &&
			q.Get("timestamp") == "1700000000000" &&
			q.Get("recvWindow") == "60000"
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())
	orders, err := client.OpenOrders(context.Background(), "KASUSDC")
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Equal(t, "test-key", gotKey)
	require.True(t, verified)
}

func TestPriceUsesCache(t *testing.T) {
	var hits int32
	var lastURL *url.URL
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		lastURL = r.URL
		_, _ = w.Write([]byte(`{"symbol":"KASUSDC","price":"0.08512"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())
	client.prices = NewPriceCache(time.Minute)
	clock := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	client.prices.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		p, err := client.Price(context.Background(), "KASUSDC")
		require.NoError(t, err)
		require.InDelta(t, 0.08512, p, 1e-12)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
	require.Equal(t, "/api/v3/ticker/price", lastURL.Path)
	require.Equal(t, "KASUSDC", lastURL.Query().Get("symbol"))
	require.Empty(t, lastURL.Query().Get("signature"))

	clock = clock.Add(time.Minute + time.Second)
	_, err := client.Price(context.Background(), "KASUSDC")
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestAccountBalances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/account" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"balances":[{"asset":"USDC","free":"125.5","locked":"10"},{"asset":"kas","free":"300","locked":"0"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())
	balances, err := client.Account(context.Background())
	require.NoError(t, err)
	require.Equal(t, Balance{Free: 125.5, Locked: 10}, balances["USDC"])
	require.Equal(t, Balance{Free: 300}, balances["KAS"])
}

// TestTradingEndpoints confirms order endpoints use the correct HTTP methods and paths.
func TestTradingEndpoints(t *testing.T) {
	type call struct {
		path   string
		method string
	}
	var calls []call

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{path: r.URL.Path, method: r.Method})
		switch r.URL.Path {
		case "/api/v3/order":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"symbol": "KASUSDC", "orderId": "C02__1"})
		case "/api/v3/openOrders", "/api/v3/myTrades":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())
	ctx := context.Background()

	_, err := client.PlaceLimitOrder(ctx, "KASUSDC", "BUY", 0.085, 20, "cid-1")
	require.NoError(t, err)
	require.NoError(t, client.CancelOrder(ctx, "KASUSDC", "C02__1"))
	_, err = client.OpenOrders(ctx, "KASUSDC")
	require.NoError(t, err)
	_, err = client.MyTrades(ctx, "KASUSDC", time.Now().Add(-time.Hour), time.Now(), 100)
	require.NoError(t, err)

	require.Equal(t, []call{
		{path: "/api/v3/order", method: http.MethodPost},
		{path: "/api/v3/order", method: http.MethodDelete},
		{path: "/api/v3/openOrders", method: http.MethodGet},
		{path: "/api/v3/myTrades", method: http.MethodGet},
	}, calls)
}

func TestPlaceLimitOrderParams(t *testing.T) {
	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"symbol":"KASUSDC","orderId":123456789,"price":"0.0000015","origQty":"2000000"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())
	placed, err := client.PlaceLimitOrder(context.Background(), "KASUSDC", "sell", 0.0000015, 2000000, "cid-7")
	require.NoError(t, err)

	require.Equal(t, "SELL", got.Get("side"))
	require.Equal(t, "LIMIT", got.Get("type"))
	require.Equal(t, "GTC", got.Get("timeInForce"))
	require.Equal(t, "0.0000015", got.Get("price"))
	require.Equal(t, "2000000", got.Get("quantity"))
	require.Equal(t, "cid-7", got.Get("newClientOrderId"))

	require.Equal(t, "123456789", placed.OrderID.String())
	require.Equal(t, "cid-7", placed.ClientOrderID)
}

func TestMyTradesCapsLimit(t *testing.T) {
	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`[{"symbol":"KASUSDC","id":"t1","orderId":"o1","price":"0.1","qty":"5","commission":"0.001","time":1700000000000,"isBuyer":true}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())
	start := time.UnixMilli(1699999000000)
	end := time.UnixMilli(1700000000000)
	trades, err := client.MyTrades(context.Background(), "KASUSDC", start, end, 5000)
	require.NoError(t, err)

	require.Equal(t, "1000", got.Get("limit"))
	require.Equal(t, "1699999000000", got.Get("startTime"))
	require.Equal(t, "1700000000000", got.Get("endTime"))
	require.Len(t, trades, 1)
	require.Equal(t, "t1", trades[0].ID.String())
	require.True(t, trades[0].IsBuyer)
}

func TestAPIErrorNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":30004,"msg":"Insufficient position"}`))
	}))
	defer server.Close()

	client := newRetryingTestClient(server.URL, server.Client(), 3)
	_, err := client.PlaceLimitOrder(context.Background(), "KASUSDC", "SELL", 0.2, 10, "cid")
	require.Error(t, err)
	require.True(t, IsAPIError(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 30004, apiErr.Code)
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestServerErrorRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newRetryingTestClient(server.URL, server.Client(), 3)
	_, err := client.OpenOrders(context.Background(), "KASUSDC")
	require.Error(t, err)
	require.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestCodeInOKBodyIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":700003,"msg":"Timestamp for this request is outside of the recvWindow."}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())
	_, err := client.Account(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 700003, apiErr.Code)
	require.Equal(t, "TIMESTAMP_OUTSIDE_WINDOW", GetErrorMsg(apiErr.Code))
}

func TestFlexStringDecodesNumbers(t *testing.T) {
	var tr Trade
	require.NoError(t, json.Unmarshal([]byte(`{"id":12345,"tradeId":"x9","orderId":null}`), &tr))
	require.Equal(t, "12345", tr.ID.String())
	require.Equal(t, "x9", tr.TradeID.String())
	require.Empty(t, tr.OrderID.String())
}

type assertError struct{}

func (assertError) Error() string { return "err" }

func fakeResponse(status int) *resty.Response {
	return &resty.Response{RawResponse: &http.Response{StatusCode: status}}
}
