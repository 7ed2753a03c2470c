package mapper

import (
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"ladderbot/src/connectors"
	"ladderbot/src/model"
	"ladderbot/src/utils"
)

// parseFloatSafe logs and defaults to 0 on malformed numeric fields instead of
// aborting the whole mapping.
func parseFloatSafe(mapper, field, v string) float64 {
	if strings.TrimSpace(v) == "" {
		return 0
	}
	f, err := connectors.ParseNumber(v)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"mapper": mapper,
			"field":  field,
			"value":  v,
		}).WithError(err).Error("Failed to parse numeric field; defaulting to 0")
		return 0
	}
	return f
}

// TradeFillID picks the first non-empty of id, tradeId and orderId.
func TradeFillID(t connectors.Trade) string {
	for _, v := range []string{t.ID.String(), t.TradeID.String(), t.OrderID.String()} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// TradeSide uses the explicit side when present, else isBuyer.
func TradeSide(t connectors.Trade) string {
	if side := model.NormalizeSide(t.Side); side != "" {
		return side
	}
	if t.IsBuyer {
		return model.SideBuy
	}
	return model.SideSell
}

// MapTradeToFill converts an account trade into a Fill. It returns nil when the trade
// carries no usable id. A trade without a time is stamped with fallback.
func MapTradeToFill(t connectors.Trade, pair string, fallback time.Time) *model.Fill {
	id := TradeFillID(t)
	if id == "" {
		logger.WithFields(map[string]interface{}{
			"mapper": "MapTradeToFill",
			"pair":   pair,
			"time":   t.Time,
		}).Warn("Trade without id skipped")
		return nil
	}

	ts := utils.UnixMilli(t.Time)
	if ts.IsZero() {
		ts = fallback.UTC()
	}

	return &model.Fill{
		ID:      id,
		OrderID: strings.TrimSpace(t.OrderID.String()),
		Pair:    pair,
		Side:    TradeSide(t),
		Price:   parseFloatSafe("MapTradeToFill", "price", t.Price),
		Qty:     parseFloatSafe("MapTradeToFill", "qty", t.Qty),
		Fee:     parseFloatSafe("MapTradeToFill", "commission", t.Commission),
		Ts:      ts,
	}
}

// MapExchangeOrder converts an open order reported by the exchange into the ledger shape.
// Unknown sides yield nil. filled_qty is clamped to [0, qty].
func MapExchangeOrder(o connectors.ExchangeOrder, pair string, now time.Time) *model.Order {
	side := model.NormalizeSide(o.Side)
	id := strings.TrimSpace(o.OrderID.String())
	if side == "" || id == "" {
		logger.WithFields(map[string]interface{}{
			"mapper":  "MapExchangeOrder",
			"orderID": id,
			"side":    o.Side,
		}).Warn("Exchange order with unknown side or id skipped")
		return nil
	}

	qty := parseFloatSafe("MapExchangeOrder", "origQty", o.OrigQty)
	filled := parseFloatSafe("MapExchangeOrder", "executedQty", o.ExecutedQty)
	if filled < 0 {
		filled = 0
	}
	if filled > qty {
		filled = qty
	}

	created := utils.UnixMilli(o.Time)
	if created.IsZero() {
		created = now
	}
	updated := utils.UnixMilli(o.UpdateTime)
	if updated.IsZero() {
		updated = now
	}

	return &model.Order{
		ID:            id,
		ClientOrderID: o.ClientOrderID,
		Pair:          pair,
		Side:          side,
		Price:         parseFloatSafe("MapExchangeOrder", "price", o.Price),
		Qty:           qty,
		FilledQty:     filled,
		Status:        model.NormalizeStatus(o.Status),
		Mode:          model.ModeExchange,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
}

// PlacedOrderID returns the exchange id of an acknowledgement, falling back to the client id.
func PlacedOrderID(p *connectors.PlacedOrder, clientID string) string {
	if p != nil {
		if id := strings.TrimSpace(p.OrderID.String()); id != "" {
			return id
		}
		if p.ClientOrderID != "" {
			return p.ClientOrderID
		}
	}
	return clientID
}
