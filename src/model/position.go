package model

import "time"

// Position is the derived holding for a pair. Only the accountant writes it.
type Position struct {
	Pair      string    `gorm:"primaryKey;size:32" json:"pair"`
	Qty       float64   `gorm:"not null;default:0" json:"qty"`
	Avg       float64   `gorm:"not null;default:0" json:"avg"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

// Capital mirrors the free quote balance for a pair and the realized PnL.
type Capital struct {
	Pair         string    `gorm:"primaryKey;size:32" json:"pair"`
	LimitUSD     float64   `gorm:"not null;default:1000" json:"limit_usd"`
	AvailableUSD float64   `gorm:"not null;default:0" json:"available_usd"`
	RealizedPnL  float64   `gorm:"column:realized_pnl;not null;default:0" json:"realized_pnl"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (Capital) TableName() string {
	return "capital"
}
