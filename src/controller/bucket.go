package controller

import (
	"context"
	"fmt"

	"ladderbot/src/ladder"
	"ladderbot/src/model"
)

// BucketRequest asks for Percent of the free quote balance spread between Floor and the market.
// Count overrides the configured number of levels when positive.
type BucketRequest struct {
	Percent float64
	Floor   float64
	Count   int
}

// BucketReport is the outcome of a bucket grid run.
type BucketReport struct {
	Canceled  int
	FreeQuote float64
	Last      float64
	Plan      ladder.BucketPlan
	Result    PlaceResult
}

// RunBuckets replaces every open BUY with a wide grid down to req.Floor.
func (e *Engine) RunBuckets(ctx context.Context, req BucketRequest) (BucketReport, error) {
	var rep BucketReport
	if req.Floor <= 0 {
		return rep, fmt.Errorf("bucket floor must be positive, got %v", req.Floor)
	}
	if req.Percent <= 0 {
		return rep, fmt.Errorf("bucket percent must be positive, got %v", req.Percent)
	}

	openBuys, err := e.repos.Orders.FindOpen(ctx, e.cfg.Pair, model.SideBuy)
	if err != nil {
		return rep, fmt.Errorf("load open buys: %w", err)
	}
	e.cancelAll(ctx, openBuys)
	rep.Canceled = len(openBuys)

	free, err := e.waitQuoteSettled(ctx, len(openBuys) > 0)
	if err != nil {
		return rep, err
	}
	rep.FreeQuote = free

	last, err := e.gw.Price(ctx, e.cfg.Pair)
	if err != nil {
		return rep, fmt.Errorf("fetch price: %w", err)
	}
	rep.Last = last

	params := e.cfg.BucketParams()
	if req.Count > 0 {
		params.Count = req.Count
	}
	rep.Plan = ladder.PlanBuckets(ladder.BucketInput{
		Last:      last,
		Floor:     req.Floor,
		FreeQuote: free,
		Percent:   PercentOfFloatSafe(100, req.Percent),
	}, params, e.rand)

	e.log("RunBuckets").WithFields(map[string]interface{}{
		"canceled": rep.Canceled,
		"free":     free,
		"last":     last,
		"floor":    rep.Plan.Floor,
		"top":      rep.Plan.Top,
		"budget":   rep.Plan.Budget,
		"orders":   len(rep.Plan.Orders),
	}).Info("bucket grid planned")

	if len(rep.Plan.Orders) == 0 {
		return rep, nil
	}
	rep.Result = e.placeBatch(ctx, model.SideBuy, model.ModeBucket, rep.Plan.Orders, rep.Plan.StopAt())
	return rep, nil
}

// waitQuoteSettled polls the free quote balance until it stops growing or the settle
// timeout passes, so funds released by cancels are counted.
func (e *Engine) waitQuoteSettled(ctx context.Context, poll bool) (float64, error) {
	free, err := e.freeQuote(ctx)
	if err != nil {
		return 0, err
	}
	if !poll || e.cfg.BucketSettlePoll <= 0 {
		return free, nil
	}

	deadline := e.now().Add(e.cfg.BucketSettleTimeout)
	for e.now().Before(deadline) {
		if err := e.sleep(ctx, e.cfg.BucketSettlePoll); err != nil {
			return free, err
		}
		next, err := e.freeQuote(ctx)
		if err != nil {
			return free, err
		}
		if next <= free {
			return next, nil
		}
		free = next
	}
	return free, nil
}

func (e *Engine) freeQuote(ctx context.Context) (float64, error) {
	balances, err := e.gw.Account(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch account: %w", err)
	}
	return balances[e.cfg.Quote].Free, nil
}

