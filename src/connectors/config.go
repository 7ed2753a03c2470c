package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	MexcAPIKey     string        `envconfig:"MEXC_API_KEY"`
	MexcAPISecret  string        `envconfig:"MEXC_API_SECRET"`
	MexcBaseURL    string        `envconfig:"MEXC_BASE_URL" default:"https://api.mexc.com"`
	MexcRecvWindow int64         `envconfig:"MEXC_RECV_WINDOW" default:"60000"`
	HTTPTimeout    time.Duration `envconfig:"MEXC_HTTP_TIMEOUT" default:"15s"`
	RetryAttempts  int           `envconfig:"MEXC_RETRY_ATTEMPTS" default:"3"`
	PriceCacheTTL  time.Duration `envconfig:"PRICE_CACHE_TTL" default:"2s"`

	// PriceStreamEnabled keeps the price cache warm from the public deals stream.
	PriceStreamEnabled bool          `envconfig:"PRICE_STREAM_ENABLED" default:"false"`
	MexcWSURL          string        `envconfig:"MEXC_WS_URL" default:"wss://wbs.mexc.com/ws"`
	WSPingInterval     time.Duration `envconfig:"MEXC_WS_PING_INTERVAL" default:"20s"`
	WSReconnectDelay   time.Duration `envconfig:"MEXC_WS_RECONNECT_DELAY" default:"5s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
