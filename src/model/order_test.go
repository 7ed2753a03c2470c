package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderRemainingNeverNegative(t *testing.T) {
	assert.Equal(t, 6.0, Order{Qty: 10, FilledQty: 4}.Remaining())
	assert.Equal(t, 0.0, Order{Qty: 10, FilledQty: 12}.Remaining())
}

func TestOrderCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{OrderStatusNew, OrderStatusPartiallyFilled, true},
		{OrderStatusNew, OrderStatusFilled, true},
		{OrderStatusNew, OrderStatusCanceled, true},
		{OrderStatusPartiallyFilled, OrderStatusFilled, true},
		{OrderStatusPartiallyFilled, OrderStatusNew, false},
		{OrderStatusFilled, OrderStatusCanceled, false},
		{OrderStatusCanceled, OrderStatusFilled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, Order{Status: tt.from}.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderIsOpen(t *testing.T) {
	assert.True(t, Order{Status: OrderStatusNew}.IsOpen())
	assert.True(t, Order{Status: OrderStatusPartiallyFilled}.IsOpen())
	assert.False(t, Order{Status: OrderStatusFilled}.IsOpen())
	assert.True(t, IsTerminalStatus(OrderStatusCanceled))
	assert.False(t, IsTerminalStatus(OrderStatusNew))
}

func TestNormalizeSideAndStatus(t *testing.T) {
	assert.Equal(t, SideBuy, NormalizeSide(" buy "))
	assert.Equal(t, SideSell, NormalizeSide("Sell"))
	assert.Equal(t, "", NormalizeSide("hold"))

	assert.Equal(t, OrderStatusPartiallyFilled, NormalizeStatus("partially_filled"))
	assert.Equal(t, OrderStatusCanceled, NormalizeStatus("PARTIALLY_CANCELED"))
	assert.Equal(t, OrderStatusFilled, NormalizeStatus("FILLED"))
	assert.Equal(t, OrderStatusNew, NormalizeStatus("PENDING"))
}

func TestNewCandle1mTruncatesAndComputesMid(t *testing.T) {
	at := time.Date(2026, 10, 15, 12, 0, 42, 0, time.FixedZone("X", 3600))
	c := NewCandle1m("KASUSDC", at,
		decimal.RequireFromString("0.05"),
		decimal.RequireFromString("0.06"),
		decimal.RequireFromString("0.04"),
		decimal.RequireFromString("0.055"))

	assert.Equal(t, time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC), c.Time)
	assert.Equal(t, "0.05", c.Mid.String())
	assert.Equal(t, "0.04", c.Min.String())
	assert.Equal(t, "0.06", c.Max.String())
}
