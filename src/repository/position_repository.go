package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ladderbot/src/database"
	"ladderbot/src/model"
)

// PositionRepository stores the singleton Position and Capital rows of a pair.
type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{db: database.MainDB}
}

func (r *PositionRepository) WithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// GetPosition returns (nil, nil) when the pair has no position row yet.
func (r *PositionRepository) GetPosition(ctx context.Context, pair string) (*model.Position, error) {
	var pos model.Position
	err := r.db.WithContext(ctx).Where("pair = ?", pair).First(&pos).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "GetPosition",
			"pair": pair,
		}).WithError(err).Error("Failed to load position")
		return nil, err
	}
	return &pos, nil
}

// SavePosition upserts the position row.
func (r *PositionRepository) SavePosition(ctx context.Context, pos *model.Position) error {
	if err := r.db.WithContext(ctx).Save(pos).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "SavePosition",
			"pair": pos.Pair,
		}).WithError(err).Error("Failed to save position")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo": "PositionRepository",
		"op":   "SavePosition",
		"pair": pos.Pair,
		"qty":  pos.Qty,
		"avg":  pos.Avg,
	}).Debug("Position saved")

	return nil
}

// GetCapital returns (nil, nil) when the pair has no capital row yet.
func (r *PositionRepository) GetCapital(ctx context.Context, pair string) (*model.Capital, error) {
	var c model.Capital
	err := r.db.WithContext(ctx).Where("pair = ?", pair).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "GetCapital",
			"pair": pair,
		}).WithError(err).Error("Failed to load capital")
		return nil, err
	}
	return &c, nil
}

// SaveCapital upserts the capital row.
func (r *PositionRepository) SaveCapital(ctx context.Context, c *model.Capital) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "SaveCapital",
			"pair": c.Pair,
		}).WithError(err).Error("Failed to save capital")
		return err
	}
	return nil
}
