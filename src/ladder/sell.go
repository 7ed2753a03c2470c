package ladder

import (
	"math"

	"github.com/shopspring/decimal"
)

// SellParams configures the two-tranche SELL exit.
type SellParams struct {
	// Share of the sellable quantity targeted at the channel upper bound.
	Split   float64
	MinGain float64
	// Increment applied when a target collides with an existing SELL price.
	MicroShift       float64
	MaxShiftAttempts int

	MinNotional    float64
	PricePrecision int
}

// SellInput is the position and book state a SELL plan is computed from.
type SellInput struct {
	Last            float64
	Channel         Channel
	PosQty          float64
	PosAvg          float64
	ReservedSellQty float64
	FreeBase        float64
	OpenSellPrices  []float64
}

// SellPlan holds up to two SELL orders; Upper is the tranche aimed at the channel top.
type SellPlan struct {
	Sellable float64
	MinPrice float64
	Orders   []Order
	Folded   bool
}

// Sellable is the position not yet covered by open SELLs, capped by the free base balance.
func Sellable(posQty, reservedSellQty, freeBase float64) float64 {
	q := math.Min(posQty-reservedSellQty, freeBase)
	if q < 0 {
		return 0
	}
	return q
}

// MinSellPrice is avg*(1+minGain), or 0 without a cost basis.
func MinSellPrice(avg, minGain float64) float64 {
	if avg <= 0 {
		return 0
	}
	return avg * (1 + minGain)
}

// PlanSell splits the sellable quantity between the channel top and the midpoint of
// last and top, never below the minimum-gain floor.
func PlanSell(in SellInput, p SellParams) SellPlan {
	plan := SellPlan{
		Sellable: Sellable(in.PosQty, in.ReservedSellQty, in.FreeBase),
		MinPrice: MinSellPrice(in.PosAvg, p.MinGain),
	}
	if plan.Sellable <= 0 || in.Last <= 0 {
		return plan
	}

	upper := in.Channel.Upper
	if upper <= 0 {
		upper = in.Last
	}

	pUpper := CeilPrice(math.Max(upper, plan.MinPrice), p.PricePrecision)
	pMid := CeilPrice(math.Max((in.Last+upper)/2, plan.MinPrice), p.PricePrecision)

	taken := make(map[string]bool, len(in.OpenSellPrices)+2)
	for _, op := range in.OpenSellPrices {
		taken[PriceKey(op)] = true
	}
	pUpper = ShiftUntilFree(pUpper, taken, p.MicroShift, p.MaxShiftAttempts)
	taken[PriceKey(pUpper)] = true
	pMid = ShiftUntilFree(pMid, taken, p.MicroShift, p.MaxShiftAttempts)

	qUpper := FloorQty(plan.Sellable * p.Split)
	qMid := FloorQty(plan.Sellable - qUpper)

	upperOK := qUpper > 0 && qUpper*pUpper >= p.MinNotional
	midOK := qMid > 0 && qMid*pMid >= p.MinNotional

	switch {
	case upperOK && midOK:
		plan.Orders = []Order{
			{Price: pUpper, Qty: qUpper, USD: qUpper * pUpper},
			{Price: pMid, Qty: qMid, USD: qMid * pMid},
		}
	case upperOK:
		q := FloorQty(qUpper + qMid)
		plan.Orders = []Order{{Price: pUpper, Qty: q, USD: q * pUpper}}
		plan.Folded = true
	case midOK:
		q := FloorQty(qUpper + qMid)
		plan.Orders = []Order{{Price: pMid, Qty: q, USD: q * pMid}}
		plan.Folded = true
	default:
		q := FloorQty(plan.Sellable)
		if q > 0 && q*pMid >= p.MinNotional {
			plan.Orders = []Order{{Price: pMid, Qty: q, USD: q * pMid}}
			plan.Folded = true
		}
	}

	return plan
}

// ShiftUntilFree moves price up by shift while it collides with a taken price,
// at most attempts times. The last candidate is returned even if still taken.
func ShiftUntilFree(price float64, taken map[string]bool, shift float64, attempts int) float64 {
	if shift <= 0 {
		return price
	}
	p := decimal.NewFromFloat(price)
	step := decimal.NewFromFloat(shift)
	for i := 0; i < attempts && taken[p.Round(QtyDecimals).String()]; i++ {
		p = p.Add(step)
	}
	return p.InexactFloat64()
}
