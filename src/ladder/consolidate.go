package ladder

import (
	"math"
	"sort"

	"ladderbot/src/model"
)

// DefaultDuplicateTolerance is the relative distance under which an open SELL counts as
// sitting on a merge target.
const DefaultDuplicateTolerance = 1e-6

// ConsolidateParams configures one side of the consolidation.
type ConsolidateParams struct {
	// Consolidation runs only when the open count exceeds Limit. 0 disables the side.
	Limit      int
	ToCancel   int
	PlaceCount int

	MinGain            float64
	DuplicateTolerance float64

	MinNotional    float64
	PricePrecision int
}

// ConsolidateInput is one side's open book plus the cost basis for the SELL floor.
type ConsolidateInput struct {
	Side string
	Open []model.Order
	Avg  float64
}

// MergedOrder replaces a pair of canceled orders. Folded lists other open SELLs
// at the same target that must be canceled and absorbed before placing it.
type MergedOrder struct {
	Order
	Sources []string
	Folded  []model.Order
}

// ConsolidationPlan is the outcome for one side.
type ConsolidationPlan struct {
	Side      string
	OpenCount int
	Triggered bool
	Cancel    []model.Order
	Merged    []MergedOrder
}

// FarthestFirst sorts a side's open orders by distance from the market:
// lowest price first for BUY, highest first for SELL. Ties break on ID.
func FarthestFirst(side string, open []model.Order) []model.Order {
	out := append([]model.Order(nil), open...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			if side == model.SideSell {
				return out[i].Price > out[j].Price
			}
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PlanConsolidation selects the farthest orders to cancel and pairs them into at most
// floor(cancel/2) merged replacements.
func PlanConsolidation(in ConsolidateInput, p ConsolidateParams) ConsolidationPlan {
	plan := ConsolidationPlan{Side: in.Side, OpenCount: len(in.Open)}
	if p.Limit <= 0 || plan.OpenCount <= p.Limit {
		return plan
	}

	toCancel := minInt(p.ToCancel, plan.OpenCount)
	placeCnt := minInt(p.PlaceCount, toCancel/2)
	if toCancel <= 0 || placeCnt <= 0 {
		return plan
	}

	plan.Triggered = true
	sorted := FarthestFirst(in.Side, in.Open)
	plan.Cancel = sorted[:toCancel]

	if in.Side == model.SideSell {
		plan.Merged = mergeSells(plan.Cancel, sorted[toCancel:], placeCnt, in.Avg, p)
	} else {
		plan.Merged = mergeBuys(plan.Cancel, placeCnt, p)
	}
	return plan
}

// mergeBuys spreads the canceled remaining notional evenly over placeCnt pair midpoints.
func mergeBuys(canceled []model.Order, placeCnt int, p ConsolidateParams) []MergedOrder {
	total := 0.0
	for _, o := range canceled {
		total += o.Remaining() * o.Price
	}
	perOrder := total / float64(placeCnt)

	var out []MergedOrder
	for i := 0; i < placeCnt; i++ {
		a, b := canceled[2*i], canceled[2*i+1]
		price := FloorPrice((a.Price+b.Price)/2, p.PricePrecision)
		if price <= 0 {
			continue
		}
		qty := FloorQty(perOrder / price)
		if qty <= 0 || qty*price < p.MinNotional {
			continue
		}
		out = append(out, MergedOrder{
			Order:   Order{Price: price, Qty: qty, USD: perOrder},
			Sources: []string{a.ID, b.ID},
		})
	}
	return out
}

// mergeSells sums each pair's remaining quantity at the floored midpoint and folds in
// surviving open SELLs sitting within tolerance of the target. Pairs landing on the
// target of an earlier merge are added to it, so no two merged SELLs share a price.
func mergeSells(canceled, survivors []model.Order, placeCnt int, avg float64, p ConsolidateParams) []MergedOrder {
	tol := p.DuplicateTolerance
	if tol <= 0 {
		tol = DefaultDuplicateTolerance
	}
	minSell := MinSellPrice(avg, p.MinGain)
	used := make(map[string]bool)

	var out []MergedOrder
	for i := 0; i < placeCnt; i++ {
		a, b := canceled[2*i], canceled[2*i+1]
		target := CeilPrice(math.Max((a.Price+b.Price)/2, minSell), p.PricePrecision)

		var folded []model.Order
		extra := 0.0
		for _, s := range survivors {
			if used[s.ID] {
				continue
			}
			if math.Abs(s.Price-target) <= target*tol {
				folded = append(folded, s)
				extra += s.Remaining()
			}
		}

		sum := a.Remaining() + b.Remaining() + extra
		if k := sameTarget(out, target, tol); k >= 0 {
			m := &out[k]
			m.Qty = FloorQty(m.Qty + sum)
			m.USD = m.Qty * m.Price
			m.Sources = append(m.Sources, a.ID, b.ID)
			m.Folded = append(m.Folded, folded...)
			for _, s := range folded {
				used[s.ID] = true
			}
			continue
		}

		qty := FloorQty(sum)
		if qty <= 0 || qty*target < p.MinNotional {
			continue
		}
		for _, s := range folded {
			used[s.ID] = true
		}
		out = append(out, MergedOrder{
			Order:   Order{Price: target, Qty: qty, USD: qty * target},
			Sources: []string{a.ID, b.ID},
			Folded:  folded,
		})
	}
	return out
}

// sameTarget returns the index of the merged order priced within tol of target, or -1.
func sameTarget(merged []MergedOrder, target, tol float64) int {
	for k := range merged {
		if math.Abs(merged[k].Price-target) <= target*tol {
			return k
		}
	}
	return -1
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
