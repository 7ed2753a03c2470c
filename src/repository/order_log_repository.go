package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ladderbot/src/database"
	"ladderbot/src/model"
)

// OrderLogRepository records remote place/cancel attempts.
type OrderLogRepository struct {
	db *gorm.DB
}

func NewOrderLogRepository() *OrderLogRepository {
	return &OrderLogRepository{db: database.MainDB}
}

func (r *OrderLogRepository) WithDB(db *gorm.DB) *OrderLogRepository {
	return &OrderLogRepository{db: db}
}

func (r *OrderLogRepository) Create(ctx context.Context, entry *model.OrderLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "OrderLogRepository",
			"op":       "Create",
			"order_id": entry.OrderID,
			"action":   entry.Action,
		}).WithError(err).Error("Failed to write order log")
		return err
	}
	return nil
}

// FindByOrderID lists the attempts recorded for an order, oldest first.
func (r *OrderLogRepository) FindByOrderID(ctx context.Context, orderID string) ([]model.OrderLog, error) {
	var logs []model.OrderLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}
