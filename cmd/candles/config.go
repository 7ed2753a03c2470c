package candles

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Window is how far back a cold start fetches.
	Window    time.Duration `envconfig:"CANDLES_WINDOW" default:"24h"`
	Retention time.Duration `envconfig:"CANDLES_RETENTION" default:"24h"`
	AutoMode  bool          `envconfig:"CANDLES_AUTO_MODE" default:"true"`
	Limit     int           `envconfig:"CANDLES_LIMIT" default:"1000"`
	// Endpoint serves binance-compatible /api/v3/klines. Empty means MEXC_BASE_URL.
	Endpoint string `envconfig:"CANDLES_ENDPOINT" default:""`

	StartDt time.Time `ignored:"true"`
	EndDt   time.Time `ignored:"true"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
