package model

import "time"

// OrderLog actions.
const (
	OrderActionPlace  = "place"
	OrderActionCancel = "cancel"
)

// OrderLog statuses.
const (
	OrderLogStatusOK    = "ok"
	OrderLogStatusError = "error"
)

// OrderLog stores every remote place/cancel attempt, successful or not.
// OrderID is empty when a placement was rejected before the exchange assigned one.
type OrderLog struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	OrderID       string  `gorm:"size:64;index" json:"order_id"`
	ClientOrderID string  `gorm:"size:64" json:"client_order_id,omitempty"`
	Pair          string  `gorm:"size:32;index" json:"pair"`
	Side          string  `gorm:"size:8" json:"side"`
	Action        string  `gorm:"size:16;not null" json:"action"`
	Mode          string  `gorm:"size:20" json:"mode"`
	Price         float64 `json:"price"`
	Qty           float64 `json:"qty"`

	Status       string    `gorm:"size:16;not null" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName allows you to control the exact table name for order logs.
func (OrderLog) TableName() string {
	return "order_logs"
}
