package model

import (
	"strings"
	"time"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

const (
	OrderStatusNew             = "NEW"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusFilled          = "FILLED"
	OrderStatusCanceled        = "CANCELED"
)

// Strategy tags stored in Order.Mode.
const (
	ModeGrid        = "GRID"
	ModeSell        = "SELL"
	ModeBucket      = "BUCKET"
	ModeConsolidate = "CONSOLIDATE"
	ModeAvgExit     = "AVG_EXIT"
	ModeExchange    = "EXCHANGE"
)

// OpenStatuses lists the statuses of orders still resting on the book.
var OpenStatuses = []string{OrderStatusNew, OrderStatusPartiallyFilled}

// Order is a limit order on the traded pair, either placed by us or discovered on the exchange.
type Order struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	ClientOrderID string    `gorm:"size:64;index" json:"client_order_id,omitempty"`
	Pair          string    `gorm:"size:32;not null;index:idx_orders_pair_side_status,priority:1" json:"pair"`
	Side          string    `gorm:"size:8;not null;index:idx_orders_pair_side_status,priority:2" json:"side"`
	Price         float64   `gorm:"not null" json:"price"`
	Qty           float64   `gorm:"not null" json:"qty"`
	FilledQty     float64   `gorm:"not null;default:0" json:"filled_qty"`
	Status        string    `gorm:"size:20;not null;default:NEW;index:idx_orders_pair_side_status,priority:3" json:"status"`
	Reserved      float64   `gorm:"not null;default:0" json:"reserved"`
	Mode          string    `gorm:"size:20" json:"mode"`
	Paper         bool      `gorm:"not null;default:false" json:"paper"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName allows you to control the exact table name for orders.
func (Order) TableName() string {
	return "orders"
}

// Remaining is the unfilled quantity, never negative.
func (o Order) Remaining() float64 {
	r := o.Qty - o.FilledQty
	if r < 0 {
		return 0
	}
	return r
}

// IsOpen reports whether the order is still NEW or PARTIALLY_FILLED.
func (o Order) IsOpen() bool {
	return o.Status == OrderStatusNew || o.Status == OrderStatusPartiallyFilled
}

// IsTerminalStatus reports whether status is FILLED or CANCELED.
func IsTerminalStatus(status string) bool {
	return status == OrderStatusFilled || status == OrderStatusCanceled
}

// CanTransition validates a locally inferred status change.
func (o Order) CanTransition(to string) bool {
	switch o.Status {
	case OrderStatusNew:
		return to == OrderStatusPartiallyFilled || to == OrderStatusFilled || to == OrderStatusCanceled
	case OrderStatusPartiallyFilled:
		return to == OrderStatusFilled || to == OrderStatusCanceled
	default:
		return false
	}
}

// NormalizeSide maps exchange spellings ("buy", "Sell") to BUY/SELL. Unknown values return "".
func NormalizeSide(side string) string {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case SideBuy:
		return SideBuy
	case SideSell:
		return SideSell
	default:
		return ""
	}
}

// NormalizeStatus maps exchange order statuses onto the ledger statuses.
// Anything unknown that is still reported as open is treated as NEW.
func NormalizeStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case OrderStatusPartiallyFilled:
		return OrderStatusPartiallyFilled
	case OrderStatusFilled:
		return OrderStatusFilled
	case OrderStatusCanceled, "PARTIALLY_CANCELED":
		return OrderStatusCanceled
	default:
		return OrderStatusNew
	}
}
