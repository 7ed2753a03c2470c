// Package ladder plans batches of limit orders: BUY ladders around the price channel,
// two-tranche SELL exits, wide bucket grids and consolidation merges.
// Everything here is pure; placing the orders is the controller's job.
package ladder

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// QtyDecimals is the quantity precision accepted by the exchange for the pair.
const QtyDecimals = 6

// noiseDecimals strips float64 arithmetic residue (0.09500000000000001) before
// directional rounding.
const noiseDecimals = 12

// Order is a planned limit order. USD is the notional the planner budgeted for it.
type Order struct {
	Price float64
	Qty   float64
	USD   float64
}

// Notional is price times quantity.
func (o Order) Notional() float64 {
	return o.Price * o.Qty
}

// Rand is the source of the small random price nudges. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a time-seeded source. Not safe for concurrent use.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func uniform(r Rand, lo, hi float64) float64 {
	if r == nil || hi <= lo {
		return lo
	}
	return lo + (hi-lo)*r.Float64()
}

// FloorQty truncates a quantity to QtyDecimals places. Non-positive input yields 0.
func FloorQty(q float64) float64 {
	if q <= 0 {
		return 0
	}
	return decimal.NewFromFloat(q).Round(noiseDecimals).Truncate(QtyDecimals).InexactFloat64()
}

// FloorPrice rounds down to precision decimals; used for BUY prices.
func FloorPrice(p float64, precision int) float64 {
	return decimal.NewFromFloat(p).Round(noiseDecimals).RoundFloor(int32(precision)).InexactFloat64()
}

// CeilPrice rounds up to precision decimals; used for SELL prices so the gain floor holds.
func CeilPrice(p float64, precision int) float64 {
	return decimal.NewFromFloat(p).Round(noiseDecimals).RoundCeil(int32(precision)).InexactFloat64()
}

// PriceKey identifies a price at QtyDecimals places, for collision checks.
func PriceKey(p float64) string {
	return decimal.NewFromFloat(p).Round(QtyDecimals).String()
}

// finalizeBuy converts USD sizes into truncated quantities at rounded prices and
// drops anything that no longer clears the minimum notional.
func finalizeBuy(cands []Order, minNotional float64, precision int) []Order {
	out := make([]Order, 0, len(cands))
	for _, c := range cands {
		price := FloorPrice(c.Price, precision)
		if price <= 0 {
			continue
		}
		qty := FloorQty(c.USD / price)
		o := Order{Price: price, Qty: qty, USD: c.USD}
		if qty <= 0 || o.Notional() < minNotional {
			continue
		}
		out = append(out, o)
	}
	return out
}

func dropBelow(cands []Order, minNotional float64) []Order {
	out := make([]Order, 0, len(cands))
	for _, c := range cands {
		if c.USD >= minNotional {
			out = append(out, c)
		}
	}
	return out
}

func totalUSD(cands []Order) float64 {
	sum := 0.0
	for _, c := range cands {
		sum += c.USD
	}
	return sum
}

// TotalNotional sums price*qty over orders.
func TotalNotional(orders []Order) float64 {
	sum := 0.0
	for _, o := range orders {
		sum += o.Notional()
	}
	return sum
}
