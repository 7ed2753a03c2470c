package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"ladderbot/src/model"
	"ladderbot/src/repository"
)

// Bounds for the trade sync window and the open-orders page.
const (
	MinSyncWindow = time.Minute
	MaxSyncWindow = 1440 * time.Minute
	MinOpenLimit  = 10
	MaxOpenLimit  = 2000
)

// PercentOfFloatSafe returns the percentage of a float64 value using a safe clamped percent (1–100).
// If percent is out of range, it is automatically adjusted and logged.
func PercentOfFloatSafe(value float64, percent float64) float64 {
	originalPercent := percent

	if percent < 1 {
		percent = 1
		logger.WithFields(map[string]interface{}{
			"value":        value,
			"original_pct": originalPercent,
			"adjusted_pct": percent,
		}).Warn("Percent below minimum, clamped to 1")
	}

	if percent > 100 {
		percent = 100
		logger.WithFields(map[string]interface{}{
			"value":        value,
			"original_pct": originalPercent,
			"adjusted_pct": percent,
		}).Warn("Percent above maximum, clamped to 100")
	}

	result := value * percent / 100.0

	logger.WithFields(map[string]interface{}{
		"value":   value,
		"percent": percent,
		"result":  result,
	}).Debug("Computed percentage of float value")

	return result
}

// NormalizePair strips separators and upper-cases a pair.
// Examples:
//
//	kas/usdc -> KASUSDC
//	KAS-USDC -> KASUSDC
//	KASUSDC  -> KASUSDC
func NormalizePair(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.NewReplacer("/", "", "-", "", "_", "").Replace(s)
}

// ParseWindow accepts a bare number of minutes or a number with an s/m/h/d suffix
// ("90s", "30m", "2h", "1d") and clamps the result to [1m, 1440m].
func ParseWindow(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty window")
	}

	unit := time.Minute
	switch s[len(s)-1] {
	case 's':
		unit = time.Second
		s = s[:len(s)-1]
	case 'm':
		s = s[:len(s)-1]
	case 'h':
		unit = time.Hour
		s = s[:len(s)-1]
	case 'd':
		unit = 24 * time.Hour
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid window %q", s)
	}

	return ClampWindow(time.Duration(n * float64(unit))), nil
}

// ClampWindow bounds a trade sync window to [1m, 1440m].
func ClampWindow(d time.Duration) time.Duration {
	if d < MinSyncWindow {
		return MinSyncWindow
	}
	if d > MaxSyncWindow {
		return MaxSyncWindow
	}
	return d
}

// ClampOpenLimit bounds the open-orders page to [10, 2000].
func ClampOpenLimit(n int) int {
	if n < MinOpenLimit {
		return MinOpenLimit
	}
	if n > MaxOpenLimit {
		return MaxOpenLimit
	}
	return n
}

// Capture records a system exception, logs it locally, and optionally
// persists it in the database.
func Capture(
	ctx context.Context,
	repo exceptionRepository,
	service string,
	module string,
	method string,
	level string,
	err error,
	contextData map[string]interface{},
) {

	if err == nil {
		return
	}

	var ctxJSON string
	if contextData != nil {
		if b, e := json.Marshal(contextData); e == nil {
			ctxJSON = string(b)
		}
	}
	pair, _ := contextData["pair"].(string)

	exc := &model.Exception{
		Service:   service,
		Module:    module,
		Method:    method,
		Pair:      pair,
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Level:     level,
		Context:   ctxJSON,
		CreatedAt: time.Now(),
	}

	// Local log
	logger.WithFields(map[string]interface{}{
		"service": service,
		"module":  module,
		"method":  method,
		"level":   level,
	}).WithError(err).Error("System exception captured")

	// Persist in database
	if repo != nil {
		if e := repo.Create(ctx, exc); e != nil {
			logger.WithError(e).Error("Failed to persist exception")
		}
	}
}

// ExceptionNotifier reports scheduler task failures through Capture.
type ExceptionNotifier struct {
	Repo    exceptionRepository
	Service string
	Pair    string
}

// NewExceptionNotifier persists through the MainDB exception repository.
func NewExceptionNotifier(service, pair string) *ExceptionNotifier {
	return &ExceptionNotifier{Repo: repository.NewExceptionRepository(), Service: service, Pair: pair}
}

// Notify implements the scheduler notifier.
func (n *ExceptionNotifier) Notify(ctx context.Context, task string, err error) {
	Capture(ctx, n.Repo, n.Service, "scheduler", task, "error", err, map[string]interface{}{"pair": n.Pair})
}
