package controller

import (
	"context"
	"fmt"

	"ladderbot/src/accounting"
	"ladderbot/src/ladder"
	"ladderbot/src/model"
)

// SellReport is the outcome of one SELL cycle.
type SellReport struct {
	Last     float64
	Channel  ladder.Channel
	Position model.Position
	FreeBase float64
	Canceled int
	Plan     ladder.SellPlan
	Result   PlaceResult
	// Unchanged is set when the single exit order already matches the plan.
	Unchanged bool
}

// RunSell plans SELL orders for the position not already covered by open SELLs.
// Planners that replace the book cancel every open SELL first.
func (e *Engine) RunSell(ctx context.Context) (SellReport, error) {
	var rep SellReport

	pos, err := e.repos.Positions.GetPosition(ctx, e.cfg.Pair)
	if err != nil {
		return rep, fmt.Errorf("load position: %w", err)
	}
	if pos == nil || pos.Qty <= accounting.Epsilon {
		e.log("RunSell").Info("no position to sell")
		return rep, nil
	}
	rep.Position = *pos

	last, ch, err := e.marketInput(ctx)
	if err != nil {
		return rep, err
	}
	rep.Last, rep.Channel = last, ch

	balances, err := e.gw.Account(ctx)
	if err != nil {
		return rep, fmt.Errorf("fetch account: %w", err)
	}
	rep.FreeBase = balances[e.cfg.Base].Free

	openSells, err := e.repos.Orders.FindOpen(ctx, e.cfg.Pair, model.SideSell)
	if err != nil {
		return rep, fmt.Errorf("load open sells: %w", err)
	}

	in := ladder.SellInput{
		Last:     last,
		Channel:  ch,
		PosQty:   pos.Qty,
		PosAvg:   pos.Avg,
		FreeBase: rep.FreeBase,
	}
	params := e.cfg.SellParams()
	planner := e.strategies.Sell

	if planner.ReplacesOpenSells() {
		released := 0.0
		for _, o := range openSells {
			released += o.Remaining()
		}
		probe := in
		probe.FreeBase = rep.FreeBase + released
		target := planner.PlanSell(probe, params)
		if sameSingleOrder(openSells, target.Orders) {
			rep.Plan = target
			rep.Unchanged = true
			e.log("RunSell").WithField("price", openSells[0].Price).Info("exit order already in place")
			return rep, nil
		}

		released, _ = e.cancelAll(ctx, openSells)
		rep.Canceled = len(openSells)
		in.FreeBase = rep.FreeBase + released
	} else {
		for _, o := range openSells {
			in.ReservedSellQty += o.Remaining()
			in.OpenSellPrices = append(in.OpenSellPrices, o.Price)
		}
	}

	rep.Plan = planner.PlanSell(in, params)

	e.log("RunSell").WithFields(map[string]interface{}{
		"strategy":  planner.Name(),
		"last":      last,
		"upper":     ch.Upper,
		"pos_qty":   pos.Qty,
		"pos_avg":   pos.Avg,
		"free_base": in.FreeBase,
		"reserved":  in.ReservedSellQty,
		"sellable":  rep.Plan.Sellable,
		"min_price": rep.Plan.MinPrice,
		"orders":    len(rep.Plan.Orders),
		"folded":    rep.Plan.Folded,
	}).Info("sell plan built")

	if len(rep.Plan.Orders) == 0 {
		return rep, nil
	}
	mode := model.ModeSell
	if planner.ReplacesOpenSells() {
		mode = model.ModeAvgExit
	}
	rep.Result = e.placeBatch(ctx, model.SideSell, mode, rep.Plan.Orders, 0)
	return rep, nil
}

func sameSingleOrder(open []model.Order, planned []ladder.Order) bool {
	if len(open) != 1 || len(planned) != 1 {
		return false
	}
	return ladder.PriceKey(open[0].Price) == ladder.PriceKey(planned[0].Price) &&
		ladder.FloorQty(open[0].Remaining()) == planned[0].Qty
}
