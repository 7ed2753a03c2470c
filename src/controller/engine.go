package controller

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ladderbot/src/connectors"
	"ladderbot/src/ladder"
	"ladderbot/src/model"
	"ladderbot/src/repository"
	"ladderbot/src/strategy"
)

// Gateway is the exchange surface the engine drives. *connectors.Client satisfies it.
type Gateway interface {
	Price(ctx context.Context, pair string) (float64, error)
	Account(ctx context.Context) (map[string]connectors.Balance, error)
	OpenOrders(ctx context.Context, pair string) ([]connectors.ExchangeOrder, error)
	MyTrades(ctx context.Context, pair string, start, end time.Time, limit int) ([]connectors.Trade, error)
	PlaceLimitOrder(ctx context.Context, pair, side string, price, qty float64, clientID string) (*connectors.PlacedOrder, error)
	CancelOrder(ctx context.Context, pair, orderID string) error
}

type orderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Save(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindOpen(ctx context.Context, pair, side string) ([]model.Order, error)
	CountOpen(ctx context.Context, pair, side string) (int64, error)
	UpdateFilledQty(ctx context.Context, id string, filledQty float64) error
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
}

type fillRepository interface {
	InsertIfAbsent(ctx context.Context, fill *model.Fill) (bool, error)
	FindByPair(ctx context.Context, pair string) ([]model.Fill, error)
	SumByOrder(ctx context.Context, pair string) ([]repository.OrderFillSum, error)
}

type positionRepository interface {
	GetPosition(ctx context.Context, pair string) (*model.Position, error)
	SavePosition(ctx context.Context, pos *model.Position) error
	GetCapital(ctx context.Context, pair string) (*model.Capital, error)
	SaveCapital(ctx context.Context, c *model.Capital) error
}

type exceptionRepository interface {
	Create(ctx context.Context, exception *model.Exception) error
}

type orderLogRepository interface {
	Create(ctx context.Context, entry *model.OrderLog) error
}

type channelSource interface {
	Channel(ctx context.Context, pair string, since time.Time) (ladder.Channel, error)
}

var (
	newOrderRepo = func(db *gorm.DB) orderRepository {
		return repository.NewOrderRepository().WithDB(db)
	}
	newFillRepo = func(db *gorm.DB) fillRepository {
		return repository.NewFillRepository().WithDB(db)
	}
	newPositionRepo = func(db *gorm.DB) positionRepository {
		return repository.NewPositionRepository().WithDB(db)
	}
	newExceptionRepo = func(db *gorm.DB) exceptionRepository {
		return repository.NewExceptionRepository().WithDB(db)
	}
	newOrderLogRepo = func(db *gorm.DB) orderLogRepository {
		return repository.NewOrderLogRepository().WithDB(db)
	}
	newChannelSource = func(db *gorm.DB) channelSource {
		return repository.NewCandleRepositoryWithDB(db)
	}
)

// Repositories bundles the ledger stores the engine writes through.
type Repositories struct {
	Orders     orderRepository
	Fills      fillRepository
	Positions  positionRepository
	Exceptions exceptionRepository
	OrderLogs  orderLogRepository
	Channel    channelSource
}

// RepositoriesFor builds every store on db. Candles are read from the same handle.
func RepositoriesFor(db *gorm.DB) Repositories {
	return Repositories{
		Orders:     newOrderRepo(db),
		Fills:      newFillRepo(db),
		Positions:  newPositionRepo(db),
		Exceptions: newExceptionRepo(db),
		OrderLogs:  newOrderLogRepo(db),
		Channel:    newChannelSource(db),
	}
}

// DefaultRepositories writes to MainDB and reads candles from ReadOnlyDB when it is set.
func DefaultRepositories() Repositories {
	return Repositories{
		Orders:     repository.NewOrderRepository(),
		Fills:      repository.NewFillRepository(),
		Positions:  repository.NewPositionRepository(),
		Exceptions: repository.NewExceptionRepository(),
		OrderLogs:  repository.NewOrderLogRepository(),
		Channel:    repository.NewCandleRepository(),
	}
}

// Engine runs reconciliation and planning cycles for one pair.
// Callers must serialize cycles; concurrent runs double-spend the cash figure.
type Engine struct {
	cfg        Config
	gw         Gateway
	repos      Repositories
	strategies strategy.Set
	rand       ladder.Rand
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewEngine validates the wiring and returns a ready engine.
func NewEngine(cfg Config, gw Gateway, repos Repositories, strategies strategy.Set) (*Engine, error) {
	if gw == nil {
		return nil, fmt.Errorf("engine: gateway is nil")
	}
	if cfg.Pair == "" || cfg.Quote == "" || cfg.Base == "" {
		return nil, fmt.Errorf("engine: pair, base and quote must be set")
	}
	if strategies.Buy == nil || strategies.Sell == nil || strategies.Consolidate == nil {
		return nil, fmt.Errorf("engine: strategies not resolved")
	}
	if repos.Orders == nil || repos.Fills == nil || repos.Positions == nil || repos.OrderLogs == nil || repos.Channel == nil {
		return nil, fmt.Errorf("engine: repositories not configured")
	}

	logger.WithFields(map[string]interface{}{
		"component": "Engine",
		"pair":      cfg.Pair,
		"paper":     cfg.Paper,
		"buy":       strategies.Buy.Name(),
		"sell":      strategies.Sell.Name(),
	}).Info("engine initialized")

	return &Engine{
		cfg:        cfg,
		gw:         gw,
		repos:      repos,
		strategies: strategies,
		rand:       ladder.NewRand(),
		now:        func() time.Time { return time.Now().UTC() },
		sleep:      sleepCtx,
	}, nil
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) capture(ctx context.Context, method string, err error, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["pair"] = e.cfg.Pair
	Capture(ctx, e.repos.Exceptions, "Engine", "controller", method, "error", err, data)
}

func (e *Engine) log(op string) *logger.Entry {
	return logger.WithFields(map[string]interface{}{
		"component": "Engine",
		"op":        op,
		"pair":      e.cfg.Pair,
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
