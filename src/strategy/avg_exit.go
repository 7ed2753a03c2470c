package strategy

import (
	"math"

	"ladderbot/src/ladder"
)

// avgExitSell replaces the SELL ladder with a single order at the minimum-gain price
// for the whole sellable position.
type avgExitSell struct{}

func (avgExitSell) Name() string            { return SellAvgExitV1 }
func (avgExitSell) ReplacesOpenSells() bool { return true }

// PlanSell expects FreeBase to already include the quantity released by canceling
// the open SELLs. ReservedSellQty is ignored.
func (avgExitSell) PlanSell(in ladder.SellInput, p ladder.SellParams) ladder.SellPlan {
	plan := ladder.SellPlan{}
	if in.PosAvg <= 0 {
		return plan
	}

	plan.Sellable = math.Max(0, math.Min(in.PosQty, in.FreeBase))
	plan.MinPrice = ladder.MinSellPrice(in.PosAvg, p.MinGain)

	qty := ladder.FloorQty(plan.Sellable)
	price := ladder.CeilPrice(plan.MinPrice, p.PricePrecision)
	if qty <= 0 || qty*price < p.MinNotional {
		return plan
	}

	plan.Orders = []ladder.Order{{Price: price, Qty: qty, USD: qty * price}}
	return plan
}
