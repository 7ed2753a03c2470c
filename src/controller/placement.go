package controller

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ladderbot/src/ladder"
	"ladderbot/src/mapper"
	"ladderbot/src/metrics"
	"ladderbot/src/model"
)

// PlaceResult is the outcome of a placement batch.
type PlaceResult struct {
	Placed []model.Order
	Failed int
	Spent  float64
}

// placeBatch places orders one at a time. A failed order is logged and captured and the
// batch moves on. stopAt > 0 ends the batch once the placed notional reaches it.
func (e *Engine) placeBatch(ctx context.Context, side, mode string, orders []ladder.Order, stopAt float64) PlaceResult {
	var res PlaceResult
	for _, o := range orders {
		if ctx.Err() != nil {
			break
		}
		if stopAt > 0 && res.Spent >= stopAt {
			break
		}
		placed, err := e.placeOne(ctx, side, mode, o)
		if err != nil {
			res.Failed++
			continue
		}
		res.Placed = append(res.Placed, *placed)
		res.Spent += placed.Price * placed.Qty
	}

	e.log("placeBatch").WithFields(map[string]interface{}{
		"side":    side,
		"mode":    mode,
		"planned": len(orders),
		"placed":  len(res.Placed),
		"failed":  res.Failed,
		"spent":   res.Spent,
	}).Info("placement batch finished")
	return res
}

// placeOne submits a single limit order and records it in the ledger after the exchange accepts it.
func (e *Engine) placeOne(ctx context.Context, side, mode string, o ladder.Order) (*model.Order, error) {
	clientID := uuid.NewString()
	entry := &model.OrderLog{
		ClientOrderID: clientID,
		Pair:          e.cfg.Pair,
		Side:          side,
		Action:        model.OrderActionPlace,
		Mode:          mode,
		Price:         o.Price,
		Qty:           o.Qty,
	}

	orderID := clientID
	if !e.cfg.Paper {
		placed, err := e.gw.PlaceLimitOrder(ctx, e.cfg.Pair, side, o.Price, o.Qty, clientID)
		if err != nil {
			entry.Status = model.OrderLogStatusError
			entry.ErrorMessage = err.Error()
			e.writeOrderLog(ctx, entry)
			metrics.OrderError(side, model.OrderActionPlace)
			e.capture(ctx, "placeOne", err, map[string]interface{}{
				"side":      side,
				"mode":      mode,
				"price":     o.Price,
				"qty":       o.Qty,
				"client_id": clientID,
			})
			return nil, fmt.Errorf("place %s %f@%f: %w", side, o.Qty, o.Price, err)
		}
		orderID = mapper.PlacedOrderID(placed, clientID)
	}

	now := e.now()
	order := &model.Order{
		ID:            orderID,
		ClientOrderID: clientID,
		Pair:          e.cfg.Pair,
		Side:          side,
		Price:         o.Price,
		Qty:           o.Qty,
		Status:        model.OrderStatusNew,
		Mode:          mode,
		Paper:         e.cfg.Paper,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if side == model.SideBuy {
		order.Reserved = o.Price * o.Qty
	}

	entry.OrderID = orderID
	entry.Status = model.OrderLogStatusOK
	e.writeOrderLog(ctx, entry)
	metrics.OrderPlaced(side, mode)

	if err := e.repos.Orders.Save(ctx, order); err != nil {
		e.capture(ctx, "placeOne", err, map[string]interface{}{"order_id": orderID})
		return nil, fmt.Errorf("record order %s: %w", orderID, err)
	}
	return order, nil
}

// cancelOrder tries the remote cancel and marks the order CANCELED locally regardless.
// The remote error is returned for reporting only.
func (e *Engine) cancelOrder(ctx context.Context, o model.Order) error {
	entry := &model.OrderLog{
		OrderID:       o.ID,
		ClientOrderID: o.ClientOrderID,
		Pair:          o.Pair,
		Side:          o.Side,
		Action:        model.OrderActionCancel,
		Mode:          o.Mode,
		Price:         o.Price,
		Qty:           o.Qty,
		Status:        model.OrderLogStatusOK,
	}

	var remoteErr error
	if !e.cfg.Paper && !o.Paper {
		remoteErr = e.gw.CancelOrder(ctx, o.Pair, o.ID)
	}
	if remoteErr != nil {
		entry.Status = model.OrderLogStatusError
		entry.ErrorMessage = remoteErr.Error()
		metrics.OrderError(o.Side, model.OrderActionCancel)
		e.log("cancelOrder").WithField("order_id", o.ID).WithError(remoteErr).Warn("remote cancel failed, marking canceled locally")
	}
	e.writeOrderLog(ctx, entry)

	if err := e.repos.Orders.UpdateStatus(ctx, o.ID, model.OrderStatusCanceled, e.now()); err != nil {
		e.capture(ctx, "cancelOrder", err, map[string]interface{}{"order_id": o.ID})
		return fmt.Errorf("mark order %s canceled: %w", o.ID, err)
	}
	metrics.OrderCanceled(o.Side, o.Mode)
	return remoteErr
}

// cancelAll cancels every order and returns the quantity they still had open.
func (e *Engine) cancelAll(ctx context.Context, orders []model.Order) (released float64, failed int) {
	for _, o := range orders {
		if err := e.cancelOrder(ctx, o); err != nil {
			failed++
		}
		released += o.Remaining()
	}
	return released, failed
}

func (e *Engine) writeOrderLog(ctx context.Context, entry *model.OrderLog) {
	entry.CreatedAt = e.now()
	if err := e.repos.OrderLogs.Create(ctx, entry); err != nil {
		e.log("writeOrderLog").WithError(err).Error("failed to persist order log")
	}
}
