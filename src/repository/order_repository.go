package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ladderbot/src/database"
	"ladderbot/src/model"
)

// OrderRepository handles read/write operations for ledger orders.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new repository instance using the main read/write database.
func NewOrderRepository() *OrderRepository {
	logger.WithField("component", "OrderRepository").
		Debug("Creating new OrderRepository with MainDB")

	return &OrderRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *OrderRepository) WithDB(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// OrderSearchOptions filters orders for the status API.
type OrderSearchOptions struct {
	Pair          string
	Side          *string
	Statuses      []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	logger.WithFields(map[string]interface{}{
		"repo":  "OrderRepository",
		"op":    "Create",
		"id":    order.ID,
		"pair":  order.Pair,
		"side":  order.Side,
		"price": order.Price,
		"qty":   order.Qty,
		"mode":  order.Mode,
	}).Debug("Creating new order")

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Create",
			"id":   order.ID,
		}).WithError(err).Error("Failed to create order")

		return err
	}

	return nil
}

// Save writes every column of an existing order.
func (r *OrderRepository) Save(ctx context.Context, order *model.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Save",
			"id":   order.ID,
		}).WithError(err).Error("Failed to save order")

		return err
	}
	return nil
}

// FindByID fetches a single order by its primary ID.
// Returns (nil, nil) if the order is not found.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch order by ID")

		return nil, err
	}

	return &order, nil
}

// FindOpen returns NEW/PARTIALLY_FILLED orders of the pair ordered by price ascending.
// An empty side returns both sides.
func (r *OrderRepository) FindOpen(ctx context.Context, pair, side string) ([]model.Order, error) {
	var orders []model.Order

	q := r.db.WithContext(ctx).
		Where("pair = ?", pair)
	if side != "" {
		q = q.Where("side = ?", side)
	}

	err := q.Where("status IN ?", model.OpenStatuses).
		Order("price ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "FindOpen",
			"pair": pair,
			"side": side,
		}).WithError(err).Error("Failed to fetch open orders")

		return nil, err
	}

	return orders, nil
}

// CountOpen counts NEW/PARTIALLY_FILLED orders of the pair and side.
func (r *OrderRepository) CountOpen(ctx context.Context, pair, side string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("pair = ?", pair).
		Where("side = ?", side).
		Where("status IN ?", model.OpenStatuses).
		Count(&count).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "CountOpen",
			"pair": pair,
			"side": side,
		}).WithError(err).Error("Failed to count open orders")

		return 0, err
	}

	return count, nil
}

// UpdateFilledQty overwrites filled_qty for one order.
func (r *OrderRepository) UpdateFilledQty(ctx context.Context, id string, filledQty float64) error {
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("filled_qty", filledQty).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "OrderRepository",
			"op":         "UpdateFilledQty",
			"id":         id,
			"filled_qty": filledQty,
		}).WithError(err).Error("Failed to update filled quantity")
	}
	return err
}

// UpdateStatus sets the status and updated_at of one order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		}).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "OrderRepository",
			"op":     "UpdateStatus",
			"id":     id,
			"status": status,
		}).WithError(err).Error("Failed to update order status")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":   "OrderRepository",
		"op":     "UpdateStatus",
		"id":     id,
		"status": status,
	}).Debug("Order status updated")

	return nil
}

// Search lists orders newest first, with optional filters and pagination.
func (r *OrderRepository) Search(ctx context.Context, options OrderSearchOptions) ([]model.Order, error) {
	var orders []model.Order

	q := r.db.WithContext(ctx).Where("pair = ?", options.Pair)

	if options.Side != nil {
		q = q.Where("side = ?", *options.Side)
	}
	if len(options.Statuses) > 0 {
		q = q.Where("status IN ?", options.Statuses)
	}
	if options.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *options.CreatedAfter)
	}
	if options.CreatedBefore != nil {
		q = q.Where("created_at <= ?", *options.CreatedBefore)
	}

	q = q.Order("created_at DESC, id DESC")

	if options.Limit > 0 {
		q = q.Limit(options.Limit)
	}
	if options.Offset > 0 {
		q = q.Offset(options.Offset)
	}

	if err := q.Find(&orders).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Search",
			"pair": options.Pair,
		}).WithError(err).Error("Failed to search orders")

		return nil, err
	}

	return orders, nil
}
