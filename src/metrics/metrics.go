// Package metrics holds the Prometheus collectors the engine updates during operation:
//   - ladderbot_orders_placed_total{side,mode}
//   - ladderbot_orders_canceled_total{side,mode}
//   - ladderbot_order_errors_total{side,action}
//   - ladderbot_orders_closed_total{status}     orders closed by reconciliation
//   - ladderbot_fills_inserted_total
//   - ladderbot_position_qty / ladderbot_position_avg
//   - ladderbot_available_usd / ladderbot_equity_usd / ladderbot_realized_pnl_usd
//   - ladderbot_open_orders{side}
//   - ladderbot_task_runs_total{task,result} / ladderbot_task_duration_seconds{task}
//
// They are registered in init() on the default registry and served at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ladderbot_orders_placed_total",
			Help: "Limit orders accepted by the exchange",
		},
		[]string{"side", "mode"},
	)

	ordersCanceled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ladderbot_orders_canceled_total",
			Help: "Orders canceled by the engine",
		},
		[]string{"side", "mode"},
	)

	orderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ladderbot_order_errors_total",
			Help: "Failed place or cancel attempts",
		},
		[]string{"side", "action"},
	)

	ordersClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ladderbot_orders_closed_total",
			Help: "Local orders closed because they left the exchange open set",
		},
		[]string{"status"},
	)

	fillsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ladderbot_fills_inserted_total",
			Help: "New fills recorded from exchange trades",
		},
	)

	positionQty = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ladderbot_position_qty",
			Help: "Base asset position",
		},
	)

	positionAvg = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ladderbot_position_avg",
			Help: "Weighted average cost of the position",
		},
	)

	availableUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ladderbot_available_usd",
			Help: "Free quote balance",
		},
	)

	equityUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ladderbot_equity_usd",
			Help: "Available plus reserved plus position value",
		},
	)

	realizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ladderbot_realized_pnl_usd",
			Help: "Realized PnL from the fill history",
		},
	)

	openOrders = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ladderbot_open_orders",
			Help: "Open orders in the ledger",
		},
		[]string{"side"},
	)

	taskRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ladderbot_task_runs_total",
			Help: "Scheduled task executions",
		},
		[]string{"task", "result"}, // result: ok|error|panic|shared
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ladderbot_task_duration_seconds",
			Help:    "Scheduled task duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)
)

func init() {
	prometheus.MustRegister(ordersPlaced, ordersCanceled, orderErrors, ordersClosed, fillsInserted)
	prometheus.MustRegister(positionQty, positionAvg, availableUSD, equityUSD, realizedPnL, openOrders)
	prometheus.MustRegister(taskRuns, taskDuration)
}

func OrderPlaced(side, mode string)    { ordersPlaced.WithLabelValues(side, mode).Inc() }
func OrderCanceled(side, mode string)  { ordersCanceled.WithLabelValues(side, mode).Inc() }
func OrderError(side, action string)   { orderErrors.WithLabelValues(side, action).Inc() }
func OrderClosed(status string)        { ordersClosed.WithLabelValues(status).Inc() }
func FillsInserted(n int)              { fillsInserted.Add(float64(n)) }
func SetAvailableUSD(v float64)        { availableUSD.Set(v) }
func SetEquityUSD(v float64)           { equityUSD.Set(v) }
func SetRealizedPnL(v float64)         { realizedPnL.Set(v) }
func SetOpenOrders(side string, n int) { openOrders.WithLabelValues(side).Set(float64(n)) }

func SetPosition(qty, avg float64) {
	positionQty.Set(qty)
	positionAvg.Set(avg)
}

// ObserveTask records one scheduled run.
func ObserveTask(task, result string, seconds float64) {
	taskRuns.WithLabelValues(task, result).Inc()
	taskDuration.WithLabelValues(task).Observe(seconds)
}
