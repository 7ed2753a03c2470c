package controller

import (
	"context"
	"fmt"

	"ladderbot/src/ladder"
	"ladderbot/src/model"
)

// BuyReport is the outcome of one BUY cycle.
type BuyReport struct {
	Last      float64
	Channel   ladder.Channel
	Available float64
	Plan      ladder.BuyPlan
	Result    PlaceResult
}

// marketInput loads the last price and the channel over the configured window.
func (e *Engine) marketInput(ctx context.Context) (float64, ladder.Channel, error) {
	last, err := e.gw.Price(ctx, e.cfg.Pair)
	if err != nil {
		return 0, ladder.Channel{}, fmt.Errorf("fetch price: %w", err)
	}
	ch, err := e.repos.Channel.Channel(ctx, e.cfg.Pair, e.now().Add(-e.cfg.ChannelWindow))
	if err != nil {
		return 0, ladder.Channel{}, fmt.Errorf("load channel: %w", err)
	}
	return last, ch, nil
}

// RunBuy plans the BUY ladder against the mirrored free quote balance and places it.
func (e *Engine) RunBuy(ctx context.Context) (BuyReport, error) {
	var rep BuyReport

	last, ch, err := e.marketInput(ctx)
	if err != nil {
		return rep, err
	}
	rep.Last, rep.Channel = last, ch

	capital, err := e.loadCapital(ctx)
	if err != nil {
		return rep, err
	}
	rep.Available = capital.AvailableUSD

	rep.Plan = e.strategies.Buy.PlanBuy(ladder.BuyInput{
		Last:      last,
		Channel:   ch,
		Available: rep.Available,
	}, e.cfg.BuyParams(), e.rand)

	e.log("RunBuy").WithFields(map[string]interface{}{
		"last":      last,
		"lower":     ch.Lower,
		"upper":     ch.Upper,
		"regime":    rep.Plan.Regime,
		"available": rep.Available,
		"desired":   rep.Plan.Desired,
		"orders":    len(rep.Plan.Orders),
		"scaled":    rep.Plan.Scaled,
		"collapsed": rep.Plan.Collapsed,
	}).Info("buy ladder planned")

	if len(rep.Plan.Orders) == 0 {
		return rep, nil
	}
	rep.Result = e.placeBatch(ctx, model.SideBuy, model.ModeGrid, rep.Plan.Orders, 0)
	return rep, nil
}
