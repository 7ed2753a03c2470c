package controller

import (
	"context"
	"fmt"
	"time"

	"ladderbot/src/metrics"
	"ladderbot/src/model"
)

// Snapshot is the equity view served by /status and the report command.
type Snapshot struct {
	Pair         string    `json:"pair"`
	Last         float64   `json:"last"`
	AvailableUSD float64   `json:"available_usd"`
	ReservedUSD  float64   `json:"reserved_usd"`
	PositionQty  float64   `json:"position_qty"`
	PositionAvg  float64   `json:"position_avg"`
	PositionUSD  float64   `json:"position_usd"`
	EquityUSD    float64   `json:"equity_usd"`
	RealizedPnL  float64   `json:"realized_pnl"`
	OpenBuys     int       `json:"open_buys"`
	OpenSells    int       `json:"open_sells"`
	Paper        bool      `json:"paper"`
	At           time.Time `json:"at"`
}

// Report builds the equity snapshot from the ledger and the last price.
// Equity is available cash plus the notional still resting in open BUYs plus the position at last.
func (e *Engine) Report(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Pair: e.cfg.Pair, Paper: e.cfg.Paper, At: e.now()}

	last, err := e.gw.Price(ctx, e.cfg.Pair)
	if err != nil {
		return snap, fmt.Errorf("fetch price: %w", err)
	}
	snap.Last = last

	capital, err := e.loadCapital(ctx)
	if err != nil {
		return snap, err
	}
	snap.AvailableUSD = capital.AvailableUSD
	snap.RealizedPnL = capital.RealizedPnL

	pos, err := e.repos.Positions.GetPosition(ctx, e.cfg.Pair)
	if err != nil {
		return snap, fmt.Errorf("load position: %w", err)
	}
	if pos != nil {
		snap.PositionQty = pos.Qty
		snap.PositionAvg = pos.Avg
	}
	snap.PositionUSD = snap.PositionQty * last

	buys, err := e.repos.Orders.FindOpen(ctx, e.cfg.Pair, model.SideBuy)
	if err != nil {
		return snap, fmt.Errorf("load open buys: %w", err)
	}
	for _, o := range buys {
		snap.ReservedUSD += o.Remaining() * o.Price
	}
	snap.OpenBuys = len(buys)

	sells, err := e.repos.Orders.CountOpen(ctx, e.cfg.Pair, model.SideSell)
	if err != nil {
		return snap, fmt.Errorf("count open sells: %w", err)
	}
	snap.OpenSells = int(sells)

	snap.EquityUSD = snap.AvailableUSD + snap.ReservedUSD + snap.PositionUSD

	metrics.SetEquityUSD(snap.EquityUSD)
	metrics.SetOpenOrders(model.SideBuy, snap.OpenBuys)
	metrics.SetOpenOrders(model.SideSell, snap.OpenSells)

	e.log("Report").WithFields(map[string]interface{}{
		"equity":    snap.EquityUSD,
		"available": snap.AvailableUSD,
		"reserved":  snap.ReservedUSD,
		"position":  snap.PositionUSD,
		"pnl":       snap.RealizedPnL,
	}).Info("equity snapshot")
	return snap, nil
}
