package executors

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"ladderbot/src/controller"
	"ladderbot/src/metrics"
)

// Task names.
const (
	TaskSync        = "sync"
	TaskBuy         = "buy"
	TaskSell        = "sell"
	TaskConsolidate = "consolidate"
	TaskReport      = "report"
)

const minInterval = time.Second

// Notifier receives task failures, including recovered panics.
type Notifier interface {
	Notify(ctx context.Context, task string, err error)
}

// Task is a periodic job. Interval <= 0 disables it.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type engine interface {
	SyncDefault(ctx context.Context) (controller.SyncReport, error)
	RunBuy(ctx context.Context) (controller.BuyReport, error)
	RunSell(ctx context.Context) (controller.SellReport, error)
	RunConsolidate(ctx context.Context) ([]controller.ConsolidateReport, error)
	Report(ctx context.Context) (controller.Snapshot, error)
}

// EngineTasks wires the engine cycles to their configured intervals, sync first.
func EngineTasks(cfg Config, e engine) []Task {
	return []Task{
		{Name: TaskSync, Interval: cfg.SyncInterval, Run: func(ctx context.Context) error {
			_, err := e.SyncDefault(ctx)
			return err
		}},
		{Name: TaskBuy, Interval: cfg.BuyInterval, Run: func(ctx context.Context) error {
			_, err := e.RunBuy(ctx)
			return err
		}},
		{Name: TaskSell, Interval: cfg.SellInterval, Run: func(ctx context.Context) error {
			_, err := e.RunSell(ctx)
			return err
		}},
		{Name: TaskConsolidate, Interval: cfg.ConsolidateInterval, Run: func(ctx context.Context) error {
			_, err := e.RunConsolidate(ctx)
			return err
		}},
		{Name: TaskReport, Interval: cfg.ReportInterval, Run: func(ctx context.Context) error {
			_, err := e.Report(ctx)
			return err
		}},
	}
}

// Scheduler dispatches due tasks for one pair on every tick.
type Scheduler struct {
	cfg      Config
	pair     string
	tasks    []Task
	notifier Notifier
	group    singleflight.Group
	rand     *rand.Rand
	now      func() time.Time
	next     map[string]time.Time
}

func NewScheduler(cfg Config, pair string, tasks []Task, notifier Notifier) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	return &Scheduler{
		cfg:      cfg,
		pair:     pair,
		tasks:    tasks,
		notifier: notifier,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		next:     make(map[string]time.Time, len(tasks)),
	}
}

// StartLoop runs the engine's periodic tasks until ctx is canceled.
func StartLoop(ctx context.Context, e engine, pair string, notifier Notifier) error {
	config := GetConfig()
	return NewScheduler(config, pair, EngineTasks(config, e), notifier).Start(ctx)
}

// Start runs every task once immediately, then on its jittered interval.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	logger.WithFields(map[string]interface{}{
		"component": "Scheduler",
		"pair":      s.pair,
		"tasks":     len(s.tasks),
	}).Info("loop started")

	s.RunDue(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.WithField("pair", s.pair).Info("loop stopped")
			return nil
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue runs, in order, every task whose next run time has passed.
func (s *Scheduler) RunDue(ctx context.Context) {
	for _, t := range s.tasks {
		if t.Interval <= 0 || t.Run == nil || ctx.Err() != nil {
			continue
		}
		now := s.now()
		if due, ok := s.next[t.Name]; ok && now.Before(due) {
			continue
		}
		_ = s.RunTask(ctx, t)
		s.next[t.Name] = s.now().Add(Jitter(t.Interval, s.cfg.Jitter, s.rand))
	}
}

// RunTask executes t under the pair's singleflight key. Concurrent calls for the same
// pair and task share one execution. Panics are recovered and reported as errors.
func (s *Scheduler) RunTask(ctx context.Context, t Task) error {
	_, err, shared := s.group.Do(s.pair+"/"+t.Name, func() (interface{}, error) {
		return nil, s.execute(ctx, t)
	})
	if shared {
		logger.WithFields(map[string]interface{}{
			"component": "Scheduler",
			"task":      t.Name,
		}).Debug("task run shared with a concurrent caller")
	}
	return err
}

func (s *Scheduler) execute(ctx context.Context, t Task) (err error) {
	start := time.Now()
	runCtx := ctx
	if s.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.TaskTimeout)
		defer cancel()
	}

	log := logger.WithFields(map[string]interface{}{
		"component": "Scheduler",
		"pair":      s.pair,
		"task":      t.Name,
	})

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
			log.WithField("stack", string(debug.Stack())).Error("task panicked")
		}

		result := "ok"
		if err != nil {
			result = "error"
			log.WithError(err).Error("task failed")
			if s.notifier != nil {
				s.notifier.Notify(ctx, t.Name, err)
			}
		}
		elapsed := time.Since(start)
		metrics.ObserveTask(t.Name, result, elapsed.Seconds())
		log.WithField("elapsed", elapsed.String()).Debug("task finished")
	}()

	return t.Run(runCtx)
}

// Jitter spreads d by ±frac, never below one second.
func Jitter(d time.Duration, frac float64, r *rand.Rand) time.Duration {
	if frac > 0 && r != nil {
		d = time.Duration(float64(d) * (1 + frac*(2*r.Float64()-1)))
	}
	if d < minInterval {
		return minInterval
	}
	return d
}
