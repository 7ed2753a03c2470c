package model

import "time"

// Fill is an executed trade reported by the exchange. Rows are immutable once written.
type Fill struct {
	ID      string    `gorm:"primaryKey;size:64" json:"id"`
	OrderID string    `gorm:"size:64;index" json:"order_id"`
	Pair    string    `gorm:"size:32;not null;index:idx_fills_pair_ts,priority:1" json:"pair"`
	Side    string    `gorm:"size:8;not null" json:"side"`
	Price   float64   `gorm:"not null" json:"price"`
	Qty     float64   `gorm:"not null" json:"qty"`
	Fee     float64   `gorm:"not null;default:0" json:"fee"`
	Ts      time.Time `gorm:"not null;index:idx_fills_pair_ts,priority:2" json:"ts"`
	Mode    string    `gorm:"size:20" json:"mode,omitempty"`
}

func (Fill) TableName() string {
	return "fills"
}
