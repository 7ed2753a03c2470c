package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"ladderbot/cmd/executor"
	"ladderbot/src/controller"
	"ladderbot/src/handler"
	"ladderbot/src/server"
	"ladderbot/src/utils"
)

var (
	APP_NAME = os.Getenv("APP_NAME")
)

// main serves the read-only status API without running the engine loop.
func main() {
	_ = godotenv.Load()
	utils.SetupLogger()
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := executor.InitDatabases(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	routes := server.Routes{}
	engine, err := executor.BuildEngine()
	if err != nil {
		logger.WithError(err).Warn("engine unavailable, /status disabled")
	} else {
		routes = executor.Routes(engine)
	}
	if routes.Orders == nil {
		pair := controller.NormalizePair(controller.GetConfig().Pair)
		routes.Orders = handler.DefaultSearchOrdersHandler(pair)
		routes.Position = handler.DefaultPositionHandler(pair)
	}

	if err := server.StartServer(ctx, server.GetConfig().Port, server.NewRouter(routes)); err != nil {
		logger.WithError(err).Error("server stopped")
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
		//nolint
		time.Sleep(time.Second * 5)
	}
}
