package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle1m is one minute of the pair's price range, the input of the price channel.
type Candle1m struct {
	ID    uint            `gorm:"primaryKey"`
	Pair  string          `json:"pair" gorm:"type:varchar(32);not null;uniqueIndex:ux_candles_1m_pair_time,priority:1"`
	Time  time.Time       `json:"time" gorm:"not null;uniqueIndex:ux_candles_1m_pair_time,priority:2;index:idx_candles_1m_time"`
	Min   decimal.Decimal `json:"min"   gorm:"type:double precision;not null"`
	Max   decimal.Decimal `json:"max"   gorm:"type:double precision;not null"`
	Mid   decimal.Decimal `json:"mid"   gorm:"type:double precision;not null"`
	Open  decimal.Decimal `json:"open"  gorm:"type:double precision;not null"`
	Close decimal.Decimal `json:"close" gorm:"type:double precision;not null"`
}

func (Candle1m) TableName() string {
	return "candles_1m"
}

// NewCandle1m builds a candle from kline extremes; mid is the middle of the range.
func NewCandle1m(pair string, at time.Time, open, high, low, closePrice decimal.Decimal) *Candle1m {
	return &Candle1m{
		Pair:  pair,
		Time:  at.UTC().Truncate(time.Minute),
		Min:   low,
		Max:   high,
		Mid:   low.Add(high).Div(decimal.NewFromInt(2)),
		Open:  open,
		Close: closePrice,
	}
}
