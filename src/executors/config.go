package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Tick                time.Duration `envconfig:"LOOP_TICK" default:"1s"`
	Jitter              float64       `envconfig:"LOOP_JITTER" default:"0.1"`
	TaskTimeout         time.Duration `envconfig:"TASK_TIMEOUT" default:"2m"`
	SyncInterval        time.Duration `envconfig:"SYNC_INTERVAL" default:"60s"`
	BuyInterval         time.Duration `envconfig:"BUY_INTERVAL" default:"30s"`
	SellInterval        time.Duration `envconfig:"SELL_INTERVAL" default:"30s"`
	ConsolidateInterval time.Duration `envconfig:"CONSOLIDATE_INTERVAL" default:"300s"`
	ReportInterval      time.Duration `envconfig:"REPORT_INTERVAL" default:"300s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
