package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"ladderbot/cmd/candles"
	"ladderbot/cmd/executor"
	"ladderbot/src/connectors"
	"ladderbot/src/controller"
	"ladderbot/src/database"
	"ladderbot/src/repository"
	"ladderbot/src/utils"
)

var Version string

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using process environment")
	}
	utils.SetupLogger()

	app := cli.NewApp()
	app.Name = "ladderbot"
	app.Usage = "MEXC limit-order ladder engine"
	app.Version = Version

	app.Commands = []cli.Command{
		runCMD,
		syncCMD,
		buyCMD,
		sellCMD,
		bucketsCMD,
		consolidateCMD,
		reportCMD,
		candlesCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	runCMD = cli.Command{
		Name:        "run",
		Usage:       "run the periodic engine loop",
		Action:      runAction,
		Description: `Sync, buy, sell, consolidate and report on their intervals until interrupted`,
	}
	syncCMD = cli.Command{
		Name:   "sync",
		Usage:  "reconcile trades, open orders, balance and position once",
		Action: engineAction("sync", func(ctx context.Context, e *controller.Engine, _ *cli.Context) (interface{}, error) {
			return e.SyncDefault(ctx)
		}),
	}
	buyCMD = cli.Command{
		Name:   "buy",
		Usage:  "plan and place one buy ladder",
		Action: engineAction("buy", func(ctx context.Context, e *controller.Engine, _ *cli.Context) (interface{}, error) {
			return e.RunBuy(ctx)
		}),
	}
	sellCMD = cli.Command{
		Name:   "sell",
		Usage:  "plan and place the sell ladder for the position",
		Action: engineAction("sell", func(ctx context.Context, e *controller.Engine, _ *cli.Context) (interface{}, error) {
			return e.RunSell(ctx)
		}),
	}
	bucketsCMD = cli.Command{
		Name:  "buckets",
		Usage: "cancel open buys and lay a bucket grid down to a floor price",
		Flags: []cli.Flag{
			cli.Float64Flag{Name: "percent", Usage: "share of free quote to commit, 0-100"},
			cli.Float64Flag{Name: "floor", Usage: "lowest grid price"},
			cli.IntFlag{Name: "count", Usage: "number of buckets, 0 uses BUCKET_COUNT"},
		},
		Action: engineAction("buckets", func(ctx context.Context, e *controller.Engine, c *cli.Context) (interface{}, error) {
			return e.RunBuckets(ctx, controller.BucketRequest{
				Percent: c.Float64("percent"),
				Floor:   c.Float64("floor"),
				Count:   c.Int("count"),
			})
		}),
	}
	consolidateCMD = cli.Command{
		Name:   "consolidate",
		Usage:  "merge distant open orders when a side exceeds its limit",
		Action: engineAction("consolidate", func(ctx context.Context, e *controller.Engine, _ *cli.Context) (interface{}, error) {
			return e.RunConsolidate(ctx)
		}),
	}
	reportCMD = cli.Command{
		Name:   "report",
		Usage:  "print the equity snapshot",
		Action: engineAction("report", func(ctx context.Context, e *controller.Engine, _ *cli.Context) (interface{}, error) {
			return e.Report(ctx)
		}),
	}
	candlesCMD = cli.Command{
		Name:        "candles",
		Usage:       "backfill 1m candles for the price channel",
		Action:      candlesAction,
		Description: `Fetch 1m klines for the pair and upsert them into candles_1m`,
	}
)

func runAction(_ *cli.Context) error {
	logrus.Info("Starting executor CMD")

	executorStrategy := &executor.Executor{}
	if err := executorStrategy.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}
	return nil
}

type engineOp func(ctx context.Context, e *controller.Engine, c *cli.Context) (interface{}, error)

// engineAction runs one engine cycle and prints its report as JSON.
func engineAction(name string, op engineOp) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		log := logrus.WithField("cmd", name)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := executor.InitDatabases(); err != nil {
			log.WithError(err).Error("Failed to initialize databases")
			return err
		}
		engine, err := executor.BuildEngine()
		if err != nil {
			log.WithError(err).Error("Failed to build engine")
			return err
		}

		report, err := op(ctx, engine, c)
		if err != nil {
			log.WithError(err).Error("command failed")
			return err
		}
		return printJSON(report)
	}
}

func candlesAction(_ *cli.Context) error {
	logrus.Info("Starting candles CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	cfg := controller.GetConfig()
	backfill := &candles.Backfill{
		Log:   logrus.WithField("cmd", "candles"),
		Store: repository.NewCandleRepositoryWithDB(database.MainDB),
		Base:  cfg.Base,
		Quote: cfg.Quote,
	}

	res, err := backfill.Start(context.Background(), connectors.GetConfig().MexcBaseURL)
	if err != nil {
		logrus.WithError(err).Error("Starting candles cmd")
		return err
	}
	return printJSON(res)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}
