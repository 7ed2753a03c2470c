package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ladderbot/src/database"
	"ladderbot/src/ladder"
	"ladderbot/src/model"
)

// CandleRepository reads and writes 1m candles used to derive the price channel.
type CandleRepository struct {
	db *gorm.DB
}

// NewCandleRepository reads from ReadOnlyDB when it is initialized, MainDB otherwise.
func NewCandleRepository() *CandleRepository {
	db := database.ReadOnlyDB
	if db == nil {
		db = database.MainDB
	}
	return &CandleRepository{db: db}
}

func NewCandleRepositoryWithDB(db *gorm.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// FetchSince returns the pair's candles at or after since, oldest first.
func (s *CandleRepository) FetchSince(ctx context.Context, pair string, since time.Time) ([]model.Candle1m, error) {
	var rows []model.Candle1m
	err := s.db.WithContext(ctx).
		Where("pair = ?", pair).
		Where("time >= ?", since.UTC()).
		Order("time ASC").
		Find(&rows).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "CandleRepository",
			"op":    "FetchSince",
			"pair":  pair,
			"since": since,
		}).WithError(err).Error("Failed to load candles")
		return nil, err
	}
	return rows, nil
}

// Channel derives the price band from the candles at or after since.
// No candles yields the zero Channel.
func (s *CandleRepository) Channel(ctx context.Context, pair string, since time.Time) (ladder.Channel, error) {
	rows, err := s.FetchSince(ctx, pair, since)
	if err != nil {
		return ladder.Channel{}, err
	}
	ch := ladder.ChannelFromCandles(rows)
	logger.WithFields(map[string]interface{}{
		"repo":    "CandleRepository",
		"op":      "Channel",
		"pair":    pair,
		"candles": len(rows),
		"lower":   ch.Lower,
		"upper":   ch.Upper,
	}).Debug("Channel computed")
	return ch, nil
}

// Upsert inserts the candle or refreshes its prices on (pair, time) conflict.
func (s *CandleRepository) Upsert(ctx context.Context, c *model.Candle1m) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pair"}, {Name: "time"}},
		DoUpdates: clause.AssignmentColumns([]string{"min", "max", "mid", "open", "close"}),
	}).Create(c).Error
}

// PruneBefore deletes candles older than before and returns the number removed.
func (s *CandleRepository) PruneBefore(ctx context.Context, pair string, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("pair = ?", pair).
		Where("time < ?", before.UTC()).
		Delete(&model.Candle1m{})
	return res.RowsAffected, res.Error
}

// LatestTime returns the newest candle time of the pair, or nil when there is none.
func (s *CandleRepository) LatestTime(ctx context.Context, pair string) (*time.Time, error) {
	var c model.Candle1m
	err := s.db.WithContext(ctx).
		Where("pair = ?", pair).
		Order("time DESC").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := c.Time
	return &t, nil
}
