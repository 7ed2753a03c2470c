package candles

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"ladderbot/src/model"
	"ladderbot/src/utils"
)

type candleStore interface {
	Upsert(ctx context.Context, c *model.Candle1m) error
	PruneBefore(ctx context.Context, pair string, before time.Time) (int64, error)
	LatestTime(ctx context.Context, pair string) (*time.Time, error)
}

// Backfill keeps candles_1m filled with the pair's 1m klines for the channel window.
type Backfill struct {
	Log    *logger.Entry
	Store  candleStore
	Config *Config
	Base   string
	Quote  string

	exchange goex.API
	now      func() time.Time
}

// Result summarizes one backfill run.
type Result struct {
	Fetched int
	Saved   int
	Pruned  int64
	Start   time.Time
	End     time.Time
}

func (o *Backfill) Start(ctx context.Context, endpoint string) (Result, error) {
	if o.Config == nil {
		o.Config = GetConfig()
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	if o.exchange == nil {
		if o.Config.Endpoint != "" {
			endpoint = o.Config.Endpoint
		}
		o.exchange = newBinanceInstance(endpoint)
	}

	if err := o.determineStartPoint(ctx); err != nil {
		return Result{}, err
	}
	return o.aggregateAndSave(ctx)
}

func newBinanceInstance(endpoint string) *binance.Binance {
	apiConfig := &goex.APIConfig{
		HttpClient: &http.Client{Timeout: 15 * time.Second},
		Endpoint:   endpoint,
	}
	return binance.NewWithConfig(apiConfig)
}

func (o *Backfill) pair() string {
	return o.Base + o.Quote
}

// determineStartPoint resumes one minute before the newest stored candle when AutoMode
// is on, so the still-open minute is refreshed. A cold start fetches Window.
func (o *Backfill) determineStartPoint(ctx context.Context) error {
	o.Config.EndDt = utils.ResetTime(o.now(), "minute")
	o.Config.StartDt = o.Config.EndDt.Add(-o.Config.Window)

	if !o.Config.AutoMode {
		return nil
	}

	latest, err := o.Store.LatestTime(ctx, o.pair())
	if err != nil {
		o.Log.WithError(err).Error("Failed to query latest candle time")
		return err
	}
	if latest == nil {
		o.Log.
			WithField("StartDt", o.Config.StartDt.String()).
			Info("no candles stored, starting from the configured window")
		return nil
	}

	resume := latest.Add(-time.Minute)
	if resume.After(o.Config.StartDt) {
		o.Config.StartDt = resume
	}
	o.Log.
		WithField("StartDt", o.Config.StartDt.String()).
		WithField("EndDt", o.Config.EndDt.String()).
		Info("determineStartPoint valid date found")
	return nil
}

func (o *Backfill) aggregateAndSave(ctx context.Context) (Result, error) {
	res := Result{Start: o.Config.StartDt, End: o.Config.EndDt}

	series, err := o.fetchSeries()
	if err != nil {
		return res, fmt.Errorf("fetch klines: %w", err)
	}
	res.Fetched = len(series)

	for i := range series {
		k := series[i]
		candle := model.NewCandle1m(
			o.pair(),
			klineTime(k.Timestamp),
			decimal.NewFromFloat(k.Open),
			decimal.NewFromFloat(k.High),
			decimal.NewFromFloat(k.Low),
			decimal.NewFromFloat(k.Close),
		)
		if err := o.Store.Upsert(ctx, candle); err != nil {
			o.Log.WithError(err).Error("aggregateAndSave, Upsert")
			return res, err
		}
		res.Saved++
	}

	pruned, err := o.Store.PruneBefore(ctx, o.pair(), o.now().Add(-o.Config.Retention))
	if err != nil {
		return res, fmt.Errorf("prune candles: %w", err)
	}
	res.Pruned = pruned

	o.Log.WithFields(logger.Fields{
		"pair":    o.pair(),
		"fetched": res.Fetched,
		"saved":   res.Saved,
		"pruned":  res.Pruned,
	}).Info("candles synced")
	return res, nil
}

func (o *Backfill) fetchSeries() ([]goex.Kline, error) {
	targetSymbol := goex.NewCurrencyPair(goex.Currency{Symbol: o.Base}, goex.Currency{Symbol: o.Quote})

	const millis = 1000
	klines, err := o.exchange.GetKlineRecords(
		targetSymbol,
		goex.KLINE_PERIOD_1MIN,
		o.Config.Limit,
		goex.OptionalParameter{}.
			Optional("startTime", o.Config.StartDt.Unix()*millis).
			Optional("endTime", o.Config.EndDt.Unix()*millis),
	)
	if err != nil {
		return nil, err
	}
	return klines, nil
}

// klineTime accepts both second and millisecond timestamps and truncates to the minute.
func klineTime(ts int64) time.Time {
	t := time.Unix(ts, 0).UTC()
	if ts > 1e12 {
		t = time.UnixMilli(ts).UTC()
	}
	return utils.ResetTime(t, "minute")
}
