package controller

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"ladderbot/src/ladder"
	"ladderbot/src/model"
)

type Config struct {
	Pair  string `envconfig:"PAIR" default:"KASUSDC"`
	Base  string `envconfig:"BASE_ASSET" default:"KAS"`
	Quote string `envconfig:"QUOTE_ASSET" default:"USDC"`

	MinOrderUSD    float64       `envconfig:"MIN_ORDER_USD" default:"1.2"`
	PricePrecision int           `envconfig:"PRICE_PRECISION" default:"6"`
	Paper          bool          `envconfig:"PAPER" default:"false"`
	ChannelWindow  time.Duration `envconfig:"CHANNEL_WINDOW" default:"24h"`

	BuyBelowOffsets       []float64 `envconfig:"BUY_BELOW_OFFSETS" default:"0.005,0.010,0.015"`
	BuyBelowSizeUSD       float64   `envconfig:"BUY_SIZE_BELOW_FIXED_USD" default:"3"`
	BuyInChannelDiscounts []float64 `envconfig:"BUY_INCHANNEL_DISCOUNTS" default:"0.005,0.010,0.015"`
	BuyInChannelMinUSD    float64   `envconfig:"BUY_SIZE_INCH_MIN_USD" default:"2"`
	BuyInChannelMaxUSD    float64   `envconfig:"BUY_SIZE_INCH_MAX_USD" default:"6"`
	BuyAboveSizeUSD       float64   `envconfig:"BUY_SIZE_ABOVE_FIXED_USD" default:"5"`
	BuyMicroOffsetMin     float64   `envconfig:"BUY_MICRO_OFFSET_MIN" default:"0.00005"`
	BuyMicroOffsetMax     float64   `envconfig:"BUY_MICRO_OFFSET_MAX" default:"0.00025"`

	SellSplit            float64 `envconfig:"SELL_SPLIT" default:"0.5"`
	SellMinGain          float64 `envconfig:"SELL_MIN_GAIN" default:"0.01"`
	SellMicroShift       float64 `envconfig:"SELL_MICROSHIFT" default:"0.000001"`
	SellMaxShiftAttempts int     `envconfig:"SELL_MAX_SHIFT_ATTEMPTS" default:"3"`

	BucketCount         int           `envconfig:"BUCKET_COUNT" default:"60"`
	BucketSkew          float64       `envconfig:"BUCKET_SKEW" default:"1.15"`
	BucketSizeBottomUSD float64       `envconfig:"BUCKET_SIZE_BOTTOM_USD" default:"20"`
	BucketSizeTopUSD    float64       `envconfig:"BUCKET_SIZE_TOP_USD" default:"1.02"`
	BucketSettleTimeout time.Duration `envconfig:"BUCKET_SETTLE_TIMEOUT" default:"5s"`
	BucketSettlePoll    time.Duration `envconfig:"BUCKET_SETTLE_POLL" default:"500ms"`

	ConsolidateBuyLimit           int     `envconfig:"CONSOLIDATE_BUY_LIMIT_OVER" default:"100"`
	ConsolidateBuyToCancel        int     `envconfig:"CONSOLIDATE_BUY_TO_CANCEL" default:"60"`
	ConsolidateBuyPlaceCount      int     `envconfig:"CONSOLIDATE_BUY_PLACE_COUNT" default:"30"`
	ConsolidateSellLimit          int     `envconfig:"CONSOLIDATE_SELL_LIMIT_OVER" default:"100"`
	ConsolidateSellToCancel       int     `envconfig:"CONSOLIDATE_SELL_TO_CANCEL" default:"60"`
	ConsolidateSellPlaceCount     int     `envconfig:"CONSOLIDATE_SELL_PLACE_COUNT" default:"30"`
	ConsolidateDuplicateTolerance float64 `envconfig:"CONSOLIDATE_DUPLICATE_TOLERANCE" default:"0.000001"`
	ConsolidateDryRun             bool    `envconfig:"CONSOLIDATE_DRY_RUN" default:"false"`

	SyncTradesWindow string `envconfig:"SYNC_TRADES_WINDOW" default:"30m"`
	SyncOpenLimit    int    `envconfig:"SYNC_OPEN_LIMIT" default:"500"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// BuyParams maps the BUY_* settings onto planner parameters.
func (c Config) BuyParams() ladder.BuyParams {
	return ladder.BuyParams{
		BelowOffsets:       c.BuyBelowOffsets,
		BelowSizeUSD:       c.BuyBelowSizeUSD,
		InChannelDiscounts: c.BuyInChannelDiscounts,
		InChannelMinUSD:    c.BuyInChannelMinUSD,
		InChannelMaxUSD:    c.BuyInChannelMaxUSD,
		AboveSizeUSD:       c.BuyAboveSizeUSD,
		MicroOffsetMin:     c.BuyMicroOffsetMin,
		MicroOffsetMax:     c.BuyMicroOffsetMax,
		MinNotional:        c.MinOrderUSD,
		PricePrecision:     c.PricePrecision,
	}
}

// SellParams maps the SELL_* settings onto planner parameters. The split is clamped to [0, 1].
func (c Config) SellParams() ladder.SellParams {
	split := c.SellSplit
	if split < 0 {
		split = 0
	}
	if split > 1 {
		split = 1
	}
	return ladder.SellParams{
		Split:            split,
		MinGain:          c.SellMinGain,
		MicroShift:       c.SellMicroShift,
		MaxShiftAttempts: c.SellMaxShiftAttempts,
		MinNotional:      c.MinOrderUSD,
		PricePrecision:   c.PricePrecision,
	}
}

func (c Config) BucketParams() ladder.BucketParams {
	return ladder.BucketParams{
		Count:          c.BucketCount,
		Skew:           c.BucketSkew,
		SizeBottomUSD:  c.BucketSizeBottomUSD,
		SizeTopUSD:     c.BucketSizeTopUSD,
		MicroOffsetMin: c.BuyMicroOffsetMin,
		MicroOffsetMax: c.BuyMicroOffsetMax,
		MinNotional:    c.MinOrderUSD,
		PricePrecision: c.PricePrecision,
	}
}

// ConsolidateParams returns the settings for one side.
func (c Config) ConsolidateParams(side string) ladder.ConsolidateParams {
	p := ladder.ConsolidateParams{
		MinGain:            c.SellMinGain,
		DuplicateTolerance: c.ConsolidateDuplicateTolerance,
		MinNotional:        c.MinOrderUSD,
		PricePrecision:     c.PricePrecision,
	}
	if side == model.SideSell {
		p.Limit, p.ToCancel, p.PlaceCount = c.ConsolidateSellLimit, c.ConsolidateSellToCancel, c.ConsolidateSellPlaceCount
	} else {
		p.Limit, p.ToCancel, p.PlaceCount = c.ConsolidateBuyLimit, c.ConsolidateBuyToCancel, c.ConsolidateBuyPlaceCount
	}
	return p
}
