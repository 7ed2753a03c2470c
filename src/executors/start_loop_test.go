package executors

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ladderbot/src/controller"
)

type recordingNotifier struct {
	mu    sync.Mutex
	tasks []string
	errs  []error
}

func (n *recordingNotifier) Notify(ctx context.Context, task string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tasks = append(n.tasks, task)
	n.errs = append(n.errs, err)
}

func testConfig() Config {
	return Config{Tick: 10 * time.Millisecond, Jitter: 0, TaskTimeout: time.Second}
}

// Ensures tasks run on the first pass and then only once their interval has elapsed.
func TestRunDueHonoursIntervals(t *testing.T) {
	var fast, slow, disabled int
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	s := NewScheduler(testConfig(), "KASUSDC", []Task{
		{Name: "fast", Interval: 30 * time.Second, Run: func(ctx context.Context) error { fast++; return nil }},
		{Name: "slow", Interval: 5 * time.Minute, Run: func(ctx context.Context) error { slow++; return nil }},
		{Name: "off", Interval: 0, Run: func(ctx context.Context) error { disabled++; return nil }},
	}, nil)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	s.RunDue(ctx)
	require.Equal(t, 1, fast)
	require.Equal(t, 1, slow)

	now = now.Add(10 * time.Second)
	s.RunDue(ctx)
	require.Equal(t, 1, fast)

	now = now.Add(25 * time.Second)
	s.RunDue(ctx)
	require.Equal(t, 2, fast)
	require.Equal(t, 1, slow)
	require.Equal(t, 0, disabled)
}

// Ensures due tasks for the pair run one at a time and in declaration order.
func TestRunDueNeverOverlapsTasks(t *testing.T) {
	var inFlight, peak int32
	var order []string
	track := func(name string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			n := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			if n > atomic.LoadInt32(&peak) {
				atomic.StoreInt32(&peak, n)
			}
			time.Sleep(5 * time.Millisecond)
			order = append(order, name)
			return nil
		}
	}

	s := NewScheduler(testConfig(), "KASUSDC", []Task{
		{Name: TaskSync, Interval: time.Minute, Run: track(TaskSync)},
		{Name: TaskBuy, Interval: time.Minute, Run: track(TaskBuy)},
		{Name: TaskSell, Interval: time.Minute, Run: track(TaskSell)},
	}, nil)

	s.RunDue(context.Background())

	require.EqualValues(t, 1, atomic.LoadInt32(&peak))
	require.Equal(t, []string{TaskSync, TaskBuy, TaskSell}, order)
}

// Verifies a panicking task is recovered, reported and does not stop later tasks.
func TestRunDueRecoversPanicAndNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	ran := false

	s := NewScheduler(testConfig(), "KASUSDC", []Task{
		{Name: TaskBuy, Interval: time.Minute, Run: func(ctx context.Context) error { panic("nil map") }},
		{Name: TaskSell, Interval: time.Minute, Run: func(ctx context.Context) error { ran = true; return nil }},
	}, notifier)

	s.RunDue(context.Background())

	require.True(t, ran)
	require.Equal(t, []string{TaskBuy}, notifier.tasks)
	require.ErrorContains(t, notifier.errs[0], "panicked")
}

// Ensures task errors reach the notifier and are returned to direct callers.
func TestRunTaskReportsError(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewScheduler(testConfig(), "KASUSDC", nil, notifier)

	err := s.RunTask(context.Background(), Task{Name: TaskSync, Run: func(ctx context.Context) error {
		return errors.New("exchange down")
	}})
	require.EqualError(t, err, "exchange down")
	require.Equal(t, []string{TaskSync}, notifier.tasks)
}

// Ensures overlapping triggers of the same task for the pair collapse into one run.
func TestRunTaskCollapsesConcurrentCalls(t *testing.T) {
	s := NewScheduler(testConfig(), "KASUSDC", nil, nil)

	var runs int32
	release := make(chan struct{})
	started := make(chan struct{})
	task := Task{Name: TaskSync, Run: func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			close(started)
		}
		<-release
		return nil
	}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.RunTask(context.Background(), task)
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.RunTask(context.Background(), task)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

// Verifies the loop exits cleanly once the context is canceled.
func TestStartStopsOnCancel(t *testing.T) {
	var runs int32
	s := NewScheduler(testConfig(), "KASUSDC", []Task{
		{Name: TaskReport, Interval: time.Second, Run: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}},
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestJitterBounds(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		d := Jitter(30*time.Second, 0.1, r)
		require.GreaterOrEqual(t, d, 27*time.Second)
		require.LessOrEqual(t, d, 33*time.Second)
	}

	require.Equal(t, time.Second, Jitter(500*time.Millisecond, 0.1, r))
	require.Equal(t, time.Minute, Jitter(time.Minute, 0, r))
}

type fakeEngine struct {
	calls []string
}

func (f *fakeEngine) SyncDefault(ctx context.Context) (controller.SyncReport, error) {
	f.calls = append(f.calls, TaskSync)
	return controller.SyncReport{}, nil
}

func (f *fakeEngine) RunBuy(ctx context.Context) (controller.BuyReport, error) {
	f.calls = append(f.calls, TaskBuy)
	return controller.BuyReport{}, nil
}

func (f *fakeEngine) RunSell(ctx context.Context) (controller.SellReport, error) {
	f.calls = append(f.calls, TaskSell)
	return controller.SellReport{}, nil
}

func (f *fakeEngine) RunConsolidate(ctx context.Context) ([]controller.ConsolidateReport, error) {
	f.calls = append(f.calls, TaskConsolidate)
	return nil, nil
}

func (f *fakeEngine) Report(ctx context.Context) (controller.Snapshot, error) {
	f.calls = append(f.calls, TaskReport)
	return controller.Snapshot{}, nil
}

// Ensures engine tasks run sync first and respect a disabled interval.
func TestEngineTasksOrder(t *testing.T) {
	t.Setenv("CONSOLIDATE_INTERVAL", "0s")
	cfg := GetConfig()
	f := &fakeEngine{}

	s := NewScheduler(cfg, "KASUSDC", EngineTasks(cfg, f), nil)
	s.RunDue(context.Background())

	require.Equal(t, []string{TaskSync, TaskBuy, TaskSell, TaskReport}, f.calls)
}
