package controller

import (
	"context"
	"fmt"

	"ladderbot/src/ladder"
	"ladderbot/src/model"
)

// ConsolidateReport is the outcome for one side.
type ConsolidateReport struct {
	Side      string
	OpenCount int
	DryRun    bool
	Plan      ladder.ConsolidationPlan
	Canceled  int
	Folded    int
	Result    PlaceResult
}

// RunConsolidate consolidates BUYs then SELLs. A side failing does not stop the other.
func (e *Engine) RunConsolidate(ctx context.Context) ([]ConsolidateReport, error) {
	var reports []ConsolidateReport
	var firstErr error
	for _, side := range []string{model.SideBuy, model.SideSell} {
		rep, err := e.ConsolidateSide(ctx, side)
		if err != nil {
			e.capture(ctx, "RunConsolidate", err, map[string]interface{}{"side": side})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		reports = append(reports, rep)
	}
	return reports, firstErr
}

// ConsolidateSide cancels the side's farthest orders and places merged replacements.
// With dry run enabled the plan is only reported.
func (e *Engine) ConsolidateSide(ctx context.Context, side string) (ConsolidateReport, error) {
	rep := ConsolidateReport{Side: side, DryRun: e.cfg.ConsolidateDryRun}
	params := e.cfg.ConsolidateParams(side)

	count, err := e.repos.Orders.CountOpen(ctx, e.cfg.Pair, side)
	if err != nil {
		return rep, fmt.Errorf("count open %s: %w", side, err)
	}
	rep.OpenCount = int(count)
	if params.Limit <= 0 || rep.OpenCount <= params.Limit {
		e.log("ConsolidateSide").WithFields(map[string]interface{}{
			"side":  side,
			"open":  rep.OpenCount,
			"limit": params.Limit,
		}).Debug("consolidation not needed")
		return rep, nil
	}

	open, err := e.repos.Orders.FindOpen(ctx, e.cfg.Pair, side)
	if err != nil {
		return rep, fmt.Errorf("load open %s: %w", side, err)
	}

	avg := 0.0
	if side == model.SideSell {
		pos, err := e.repos.Positions.GetPosition(ctx, e.cfg.Pair)
		if err != nil {
			return rep, fmt.Errorf("load position: %w", err)
		}
		if pos != nil {
			avg = pos.Avg
		}
	}

	rep.Plan = e.strategies.Consolidate.Plan(ladder.ConsolidateInput{Side: side, Open: open, Avg: avg}, params)

	log := e.log("ConsolidateSide").WithFields(map[string]interface{}{
		"side":      side,
		"strategy":  e.strategies.Consolidate.Name(),
		"open":      rep.OpenCount,
		"to_cancel": len(rep.Plan.Cancel),
		"merged":    len(rep.Plan.Merged),
		"dry_run":   rep.DryRun,
	})
	if !rep.Plan.Triggered || rep.DryRun {
		log.Info("consolidation planned")
		return rep, nil
	}

	e.cancelAll(ctx, rep.Plan.Cancel)
	rep.Canceled = len(rep.Plan.Cancel)

	mode := model.ModeConsolidate
	for _, m := range rep.Plan.Merged {
		if len(m.Folded) > 0 {
			e.cancelAll(ctx, m.Folded)
			rep.Folded += len(m.Folded)
		}
		res := e.placeBatch(ctx, side, mode, []ladder.Order{m.Order}, 0)
		rep.Result.Placed = append(rep.Result.Placed, res.Placed...)
		rep.Result.Failed += res.Failed
		rep.Result.Spent += res.Spent
	}

	log.WithFields(map[string]interface{}{
		"canceled": rep.Canceled,
		"folded":   rep.Folded,
		"placed":   len(rep.Result.Placed),
		"failed":   rep.Result.Failed,
	}).Info("consolidation applied")
	return rep, nil
}
