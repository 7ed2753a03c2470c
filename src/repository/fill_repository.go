package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ladderbot/src/database"
	"ladderbot/src/model"
)

// FillRepository persists exchange trades. Fill IDs are the only de-duplication key.
type FillRepository struct {
	db *gorm.DB
}

func NewFillRepository() *FillRepository {
	return &FillRepository{db: database.MainDB}
}

func (r *FillRepository) WithDB(db *gorm.DB) *FillRepository {
	return &FillRepository{db: db}
}

// OrderFillSum is the filled quantity of one order/side computed from fills.
type OrderFillSum struct {
	OrderID string
	Side    string
	Qty     float64
}

// InsertIfAbsent stores the fill unless a row with the same ID exists.
// It reports whether a row was inserted.
func (r *FillRepository) InsertIfAbsent(ctx context.Context, fill *model.Fill) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(fill)
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "FillRepository",
			"op":       "InsertIfAbsent",
			"fill_id":  fill.ID,
			"order_id": fill.OrderID,
		}).WithError(res.Error).Error("Failed to insert fill")

		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// FindByPair returns all fills of the pair ordered by (ts, id).
func (r *FillRepository) FindByPair(ctx context.Context, pair string) ([]model.Fill, error) {
	var fills []model.Fill

	err := r.db.WithContext(ctx).
		Where("pair = ?", pair).
		Order("ts ASC, id ASC").
		Find(&fills).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "FillRepository",
			"op":   "FindByPair",
			"pair": pair,
		}).WithError(err).Error("Failed to load fills")

		return nil, err
	}

	return fills, nil
}

// SumByOrder aggregates fill quantity per order_id and side.
func (r *FillRepository) SumByOrder(ctx context.Context, pair string) ([]OrderFillSum, error) {
	var sums []OrderFillSum

	err := r.db.WithContext(ctx).
		Model(&model.Fill{}).
		Select("order_id, side, SUM(qty) AS qty").
		Where("pair = ?", pair).
		Where("order_id <> ''").
		Group("order_id, side").
		Scan(&sums).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "FillRepository",
			"op":   "SumByOrder",
			"pair": pair,
		}).WithError(err).Error("Failed to aggregate fills")

		return nil, err
	}

	return sums, nil
}
