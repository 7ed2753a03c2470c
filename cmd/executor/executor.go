package executor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ladderbot/src/connectors"
	"ladderbot/src/controller"
	"ladderbot/src/database"
	"ladderbot/src/executors"
	"ladderbot/src/handler"
	"ladderbot/src/server"
	"ladderbot/src/strategy"
)

// Executor runs the periodic engine loop and, when enabled, the status API.
type Executor struct{}

// InitDatabases opens MainDB, runs migrations and sets up the candle reader.
func InitDatabases() error {
	if err := database.InitMainDB(); err != nil {
		return fmt.Errorf("main database: %w", err)
	}
	if err := database.InitReadOnlyDB(); err != nil {
		return fmt.Errorf("read-only database: %w", err)
	}
	return nil
}

// BuildEngine wires the MEXC gateway, resolved planners and ledger stores into an engine.
// Databases must be initialized first.
func BuildEngine() (*controller.Engine, error) {
	engine, _, err := buildEngine()
	return engine, err
}

func buildEngine() (*controller.Engine, *connectors.PriceCache, error) {
	cfg := controller.GetConfig()
	cfg.Pair = controller.NormalizePair(cfg.Pair)

	connCfg := connectors.GetConfig()
	prices := connectors.NewPriceCache(connCfg.PriceCacheTTL)
	gw := connectors.NewClient(connCfg, prices)

	set, err := strategy.NewRegistry(logrus.WithField("component", "StrategyRegistry")).Resolve(strategy.GetConfig())
	if err != nil {
		return nil, nil, err
	}

	engine, err := controller.NewEngine(cfg, gw, controller.DefaultRepositories(), set)
	return engine, prices, err
}

// Routes mounts the read-only status endpoints for the engine's pair.
func Routes(engine *controller.Engine) server.Routes {
	pair := engine.Config().Pair
	return server.Routes{
		Orders:   handler.DefaultSearchOrdersHandler(pair),
		Position: handler.DefaultPositionHandler(pair),
		Status:   handler.StatusHandler(engine),
	}
}

func (t *Executor) Start() error {
	config := GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	if err := InitDatabases(); err != nil {
		logrus.WithError(err).Error("Failed to initialize databases")
		return err
	}

	engine, prices, err := buildEngine()
	if err != nil {
		logrus.WithError(err).Error("Failed to build engine")
		return err
	}

	pair := engine.Config().Pair
	logrus.WithFields(logrus.Fields{
		"pair":  pair,
		"paper": engine.Config().Paper,
	}).Info("Starting ladder executor")

	g, gctx := errgroup.WithContext(ctx)

	if srvCfg := server.GetConfig(); srvCfg.Enabled {
		g.Go(func() error {
			return server.StartServer(gctx, srvCfg.Port, server.NewRouter(Routes(engine)))
		})
	}

	if connCfg := connectors.GetConfig(); connCfg.PriceStreamEnabled {
		stream := connectors.NewPriceStream(connCfg, pair, prices)
		g.Go(func() error {
			return stream.Run(gctx)
		})
	}

	g.Go(func() error {
		notifier := controller.NewExceptionNotifier(config.Service, pair)
		if err := executors.StartLoop(gctx, engine, pair, notifier); err != nil {
			logrus.WithError(err).Error("Failed to start engine loop")
			return err
		}
		return nil
	})

	return g.Wait()
}
