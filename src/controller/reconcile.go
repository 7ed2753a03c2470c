package controller

import (
	"context"
	"fmt"
	"math"
	"time"

	"ladderbot/src/accounting"
	"ladderbot/src/connectors"
	"ladderbot/src/mapper"
	"ladderbot/src/metrics"
	"ladderbot/src/model"
)

// OpenOrdersReport summarizes one SyncOpenOrders pass.
type OpenOrdersReport struct {
	ExchangeOpen   int
	Created        int
	Updated        int
	Reopened       int
	FilledQtyFixed int
	ClosedFilled   int
	ClosedCanceled int
	// Truncated is set when the exchange returned a full page; closing is skipped then.
	Truncated bool
}

// SyncReport is the outcome of a full Sync.
type SyncReport struct {
	FillsInserted int
	OpenOrders    OpenOrdersReport
	AvailableUSD  float64
	Position      accounting.Result
}

// SyncTrades imports exchange trades executed in [now-window, now] as fills.
// Existing fill ids are skipped. It returns the number of fills inserted.
func (e *Engine) SyncTrades(ctx context.Context, window time.Duration) (int, error) {
	end := e.now()
	start := end.Add(-ClampWindow(window))

	trades, err := e.gw.MyTrades(ctx, e.cfg.Pair, start, end, connectors.MaxTradesLimit)
	if err != nil {
		e.log("SyncTrades").WithError(err).Error("failed to fetch trades")
		return 0, fmt.Errorf("fetch trades: %w", err)
	}

	inserted := 0
	for _, t := range trades {
		fill := mapper.MapTradeToFill(t, e.cfg.Pair, end)
		if fill == nil {
			continue
		}
		ok, err := e.repos.Fills.InsertIfAbsent(ctx, fill)
		if err != nil {
			metrics.FillsInserted(inserted)
			return inserted, fmt.Errorf("insert fill %s: %w", fill.ID, err)
		}
		if ok {
			inserted++
		}
	}

	metrics.FillsInserted(inserted)
	e.log("SyncTrades").WithField("trades", len(trades)).WithField("inserted", inserted).Info("trades synced")
	return inserted, nil
}

// SyncOpenOrders upserts the exchange's open orders, recomputes filled_qty from fills and
// closes local open orders the exchange no longer lists. If the exchange call fails
// nothing is closed.
func (e *Engine) SyncOpenOrders(ctx context.Context, limit int) (OpenOrdersReport, error) {
	var rep OpenOrdersReport
	limit = ClampOpenLimit(limit)
	now := e.now()

	data, err := e.gw.OpenOrders(ctx, e.cfg.Pair)
	if err != nil {
		e.log("SyncOpenOrders").WithError(err).Error("failed to fetch open orders, nothing closed")
		return rep, fmt.Errorf("fetch open orders: %w", err)
	}
	rep.ExchangeOpen = len(data)

	onExchange := make(map[string]bool, len(data))
	for _, raw := range data {
		incoming := mapper.MapExchangeOrder(raw, e.cfg.Pair, now)
		if incoming == nil {
			continue
		}
		onExchange[incoming.ID] = true

		existing, err := e.repos.Orders.FindByID(ctx, incoming.ID)
		if err != nil {
			return rep, fmt.Errorf("load order %s: %w", incoming.ID, err)
		}
		if existing == nil {
			if err := e.repos.Orders.Create(ctx, incoming); err != nil {
				return rep, fmt.Errorf("create order %s: %w", incoming.ID, err)
			}
			rep.Created++
			continue
		}

		if model.IsTerminalStatus(existing.Status) && incoming.IsOpen() {
			e.log("SyncOpenOrders").WithFields(map[string]interface{}{
				"order_id": existing.ID,
				"local":    existing.Status,
				"exchange": incoming.Status,
			}).Warn("exchange reports a locally closed order as open, reopening")
			rep.Reopened++
		}

		existing.Price = incoming.Price
		existing.Qty = incoming.Qty
		existing.Status = incoming.Status
		existing.FilledQty = incoming.FilledQty
		if incoming.UpdatedAt.After(existing.UpdatedAt) {
			existing.UpdatedAt = incoming.UpdatedAt
		}
		if existing.ClientOrderID == "" {
			existing.ClientOrderID = incoming.ClientOrderID
		}
		if err := e.repos.Orders.Save(ctx, existing); err != nil {
			return rep, fmt.Errorf("update order %s: %w", existing.ID, err)
		}
		rep.Updated++
	}

	fixed, err := e.reconcileFilledQty(ctx)
	if err != nil {
		return rep, err
	}
	rep.FilledQtyFixed = fixed

	if len(data) >= limit {
		rep.Truncated = true
		e.log("SyncOpenOrders").WithFields(map[string]interface{}{
			"exchange_open": len(data),
			"limit":         limit,
		}).Warn("open orders reached the limit, skipping close of absent orders")
		return rep, nil
	}

	localOpen, err := e.repos.Orders.FindOpen(ctx, e.cfg.Pair, "")
	if err != nil {
		return rep, fmt.Errorf("load local open orders: %w", err)
	}
	for _, o := range localOpen {
		if onExchange[o.ID] || o.Paper {
			continue
		}
		status := model.OrderStatusCanceled
		if o.Remaining() <= accounting.Epsilon {
			status = model.OrderStatusFilled
		}
		if !o.CanTransition(status) {
			continue
		}
		if err := e.repos.Orders.UpdateStatus(ctx, o.ID, status, now); err != nil {
			return rep, fmt.Errorf("close order %s: %w", o.ID, err)
		}
		metrics.OrderClosed(status)
		if status == model.OrderStatusFilled {
			rep.ClosedFilled++
		} else {
			rep.ClosedCanceled++
		}
	}

	e.log("SyncOpenOrders").WithFields(map[string]interface{}{
		"exchange_open":   rep.ExchangeOpen,
		"created":         rep.Created,
		"updated":         rep.Updated,
		"filled_fixed":    rep.FilledQtyFixed,
		"closed_filled":   rep.ClosedFilled,
		"closed_canceled": rep.ClosedCanceled,
	}).Info("open orders synced")
	return rep, nil
}

// reconcileFilledQty makes fills the source of truth for filled_qty, clamped to [0, qty].
func (e *Engine) reconcileFilledQty(ctx context.Context) (int, error) {
	sums, err := e.repos.Fills.SumByOrder(ctx, e.cfg.Pair)
	if err != nil {
		return 0, fmt.Errorf("aggregate fills: %w", err)
	}

	fixed := 0
	for _, s := range sums {
		o, err := e.repos.Orders.FindByID(ctx, s.OrderID)
		if err != nil {
			return fixed, fmt.Errorf("load order %s: %w", s.OrderID, err)
		}
		if o == nil || o.Side != s.Side {
			continue
		}
		expected := math.Min(math.Max(s.Qty, 0), o.Qty)
		if math.Abs(o.FilledQty-expected) <= accounting.Epsilon {
			continue
		}
		if err := e.repos.Orders.UpdateFilledQty(ctx, o.ID, expected); err != nil {
			return fixed, fmt.Errorf("update filled qty %s: %w", o.ID, err)
		}
		fixed++
	}
	return fixed, nil
}

// SyncBalance mirrors the free quote balance into Capital.available_usd.
func (e *Engine) SyncBalance(ctx context.Context) (float64, error) {
	balances, err := e.gw.Account(ctx)
	if err != nil {
		e.log("SyncBalance").WithError(err).Error("failed to fetch account")
		return 0, fmt.Errorf("fetch account: %w", err)
	}
	free := balances[e.cfg.Quote].Free

	c, err := e.loadCapital(ctx)
	if err != nil {
		return 0, err
	}
	c.AvailableUSD = free
	c.UpdatedAt = e.now()
	if err := e.repos.Positions.SaveCapital(ctx, c); err != nil {
		return 0, fmt.Errorf("save capital: %w", err)
	}

	metrics.SetAvailableUSD(free)
	return free, nil
}

// RecomputePosition replays every fill of the pair and persists the position and realized PnL.
func (e *Engine) RecomputePosition(ctx context.Context) (accounting.Result, error) {
	fills, err := e.repos.Fills.FindByPair(ctx, e.cfg.Pair)
	if err != nil {
		return accounting.Result{}, fmt.Errorf("load fills: %w", err)
	}

	res := accounting.Recompute(fills)
	if res.Clamped > 0 {
		e.log("RecomputePosition").WithField("clamped", res.Clamped).
			Warn("sell fills exceeded the held quantity and were clamped")
	}

	now := e.now()
	pos := &model.Position{Pair: e.cfg.Pair, Qty: res.Qty, Avg: res.Avg, UpdatedAt: now}
	if err := e.repos.Positions.SavePosition(ctx, pos); err != nil {
		return res, fmt.Errorf("save position: %w", err)
	}

	c, err := e.loadCapital(ctx)
	if err != nil {
		return res, err
	}
	c.RealizedPnL = res.RealizedPnL
	c.UpdatedAt = now
	if err := e.repos.Positions.SaveCapital(ctx, c); err != nil {
		return res, fmt.Errorf("save capital: %w", err)
	}

	metrics.SetPosition(res.Qty, res.Avg)
	metrics.SetRealizedPnL(res.RealizedPnL)
	return res, nil
}

// Sync runs trades, open orders, balance and position in that order.
func (e *Engine) Sync(ctx context.Context, window time.Duration, limit int) (SyncReport, error) {
	var rep SyncReport
	var err error

	if rep.FillsInserted, err = e.SyncTrades(ctx, window); err != nil {
		return rep, err
	}
	if rep.OpenOrders, err = e.SyncOpenOrders(ctx, limit); err != nil {
		return rep, err
	}
	if rep.AvailableUSD, err = e.SyncBalance(ctx); err != nil {
		return rep, err
	}
	if rep.Position, err = e.RecomputePosition(ctx); err != nil {
		return rep, err
	}

	e.refreshOpenGauges(ctx)
	return rep, nil
}

// SyncDefault runs Sync with the configured window and open-orders limit.
func (e *Engine) SyncDefault(ctx context.Context) (SyncReport, error) {
	window, err := ParseWindow(e.cfg.SyncTradesWindow)
	if err != nil {
		return SyncReport{}, err
	}
	return e.Sync(ctx, window, e.cfg.SyncOpenLimit)
}

func (e *Engine) loadCapital(ctx context.Context) (*model.Capital, error) {
	c, err := e.repos.Positions.GetCapital(ctx, e.cfg.Pair)
	if err != nil {
		return nil, fmt.Errorf("load capital: %w", err)
	}
	if c == nil {
		c = &model.Capital{Pair: e.cfg.Pair, LimitUSD: 1000}
	}
	return c, nil
}

func (e *Engine) refreshOpenGauges(ctx context.Context) {
	for _, side := range []string{model.SideBuy, model.SideSell} {
		n, err := e.repos.Orders.CountOpen(ctx, e.cfg.Pair, side)
		if err != nil {
			continue
		}
		metrics.SetOpenOrders(side, int(n))
	}
}
