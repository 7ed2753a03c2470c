package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ladderbot/src/connectors"
	"ladderbot/src/model"
)

func decodeTrade(t *testing.T, raw string) connectors.Trade {
	t.Helper()
	var tr connectors.Trade
	require.NoError(t, json.Unmarshal([]byte(raw), &tr))
	return tr
}

func TestMapTradeToFill(t *testing.T) {
	tr := decodeTrade(t, `{"id":"t-1","orderId":"o-1","price":"0.0851","qty":"120.5","commission":"0.01","time":1700000000000,"isBuyer":true}`)

	f := MapTradeToFill(tr, "KASUSDC", time.Time{})
	require.NotNil(t, f)
	require.Equal(t, "t-1", f.ID)
	require.Equal(t, "o-1", f.OrderID)
	require.Equal(t, model.SideBuy, f.Side)
	require.InDelta(t, 0.0851, f.Price, 1e-12)
	require.InDelta(t, 120.5, f.Qty, 1e-12)
	require.InDelta(t, 0.01, f.Fee, 1e-12)
	require.Equal(t, time.UnixMilli(1700000000000).UTC(), f.Ts)
}

func TestMapTradeToFillWithoutTimeUsesFallback(t *testing.T) {
	fallback := time.Date(2026, 10, 15, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	tr := decodeTrade(t, `{"id":"t-2","orderId":"o-2","price":"0.09","qty":"10","isBuyer":false}`)

	f := MapTradeToFill(tr, "KASUSDC", fallback)
	require.NotNil(t, f)
	require.Equal(t, fallback.UTC(), f.Ts)
	require.Equal(t, model.SideSell, f.Side)
}

func TestTradeFillIDFallbacks(t *testing.T) {
	require.Equal(t, "tr-9", TradeFillID(decodeTrade(t, `{"tradeId":"tr-9","orderId":"o"}`)))
	require.Equal(t, "o", TradeFillID(decodeTrade(t, `{"orderId":"o"}`)))
	require.Nil(t, MapTradeToFill(decodeTrade(t, `{"price":"1"}`), "KASUSDC", time.Time{}))
}

func TestTradeSidePrefersExplicitSide(t *testing.T) {
	require.Equal(t, model.SideSell, TradeSide(decodeTrade(t, `{"side":"sell","isBuyer":true}`)))
	require.Equal(t, model.SideSell, TradeSide(decodeTrade(t, `{"isBuyer":false}`)))
}

func TestMapExchangeOrderClampsFilled(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	o := connectors.ExchangeOrder{OrderID: "C02__1", Side: "BUY", Price: "0.08", OrigQty: "10", ExecutedQty: "12", Status: "PARTIALLY_FILLED"}

	m := MapExchangeOrder(o, "KASUSDC", now)
	require.NotNil(t, m)
	require.Equal(t, 10.0, m.FilledQty)
	require.Equal(t, model.OrderStatusPartiallyFilled, m.Status)
	require.Equal(t, model.ModeExchange, m.Mode)
	require.Equal(t, now, m.CreatedAt)

	o.Side = "HOLD"
	require.Nil(t, MapExchangeOrder(o, "KASUSDC", now))
}

func TestMapExchangeOrderBadNumberDefaultsToZero(t *testing.T) {
	o := connectors.ExchangeOrder{OrderID: "x", Side: "SELL", Price: "abc", OrigQty: "5", Status: "NEW"}
	m := MapExchangeOrder(o, "KASUSDC", time.Now())
	require.Zero(t, m.Price)
	require.Equal(t, 5.0, m.Qty)
}

func TestPlacedOrderIDFallsBackToClientID(t *testing.T) {
	require.Equal(t, "ex-1", PlacedOrderID(&connectors.PlacedOrder{OrderID: "ex-1"}, "cid"))
	require.Equal(t, "cid", PlacedOrderID(&connectors.PlacedOrder{}, "cid"))
	require.Equal(t, "cid", PlacedOrderID(nil, "cid"))
}
