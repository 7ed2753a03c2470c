// Package accounting derives the held quantity and weighted-average cost of a pair
// by replaying its fill history.
package accounting

import (
	"sort"

	"ladderbot/src/model"
)

// Epsilon is the quantity below which a position is considered flat.
const Epsilon = 1e-12

// Result of a replay.
type Result struct {
	Qty         float64
	Avg         float64
	RealizedPnL float64
	// Clamped counts SELL fills that exceeded the held quantity (fully or partly dropped).
	Clamped int
}

// Recompute replays fills in (ts, id) order using a lot-less weighted-average cost basis.
// BUY fees are capitalized into cost. A SELL never takes the position short: a sell
// against a flat position resets it, and any excess over the held quantity is dropped.
// The input slice is not modified.
func Recompute(fills []model.Fill) Result {
	ordered := make([]model.Fill, len(fills))
	copy(ordered, fills)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Ts.Equal(ordered[j].Ts) {
			return ordered[i].Ts.Before(ordered[j].Ts)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var res Result
	qty, cost := 0.0, 0.0

	for _, f := range ordered {
		q := f.Qty
		if q <= 0 {
			continue
		}

		switch model.NormalizeSide(f.Side) {
		case model.SideBuy:
			qty += q
			cost += q*f.Price + f.Fee

		case model.SideSell:
			if qty <= Epsilon {
				qty, cost = 0, 0
				res.Clamped++
				continue
			}

			sellQ := q
			if sellQ > qty {
				sellQ = qty
				res.Clamped++
			}

			avg := cost / qty
			cost -= avg * sellQ
			qty -= sellQ
			res.RealizedPnL += sellQ*(f.Price-avg) - f.Fee*(sellQ/q)

			if qty <= Epsilon {
				qty, cost = 0, 0
			}
		}
	}

	res.Qty = qty
	if qty > Epsilon {
		res.Avg = cost / qty
	}
	return res
}
