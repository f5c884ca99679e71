package concurrencpp

import (
	"runtime"
	"time"
)

// config holds the resolved configuration for a Runtime, following §6's
// option table: per-pool worker counts and idle timeouts, the timer
// queue's idle timeout, and optional thread lifecycle hooks.
type config struct {
	maxCPUThreads          int
	cpuPoolIdleTime        time.Duration
	maxBackgroundThreads   int
	backgroundPoolIdleTime time.Duration
	timerQueueIdleTime     time.Duration
	threadTimedEnqueueHalt time.Duration
	maxTimerQueueWaiters   int

	threadStartedCallback    func(threadName string)
	threadTerminatedCallback func(threadName string)
}

// Option configures a Runtime at construction time.
type Option interface {
	applyConfig(*config) error
}

type optionImpl struct {
	applyConfigFunc func(*config) error
}

func (o *optionImpl) applyConfig(cfg *config) error {
	return o.applyConfigFunc(cfg)
}

// WithMaxCPUThreads overrides the CPU-bound thread pool's worker count.
// The default is hardware_concurrency (falling back to 8 when that
// reports zero).
func WithMaxCPUThreads(n int) Option {
	return &optionImpl{func(cfg *config) error {
		if n > 0 {
			cfg.maxCPUThreads = n
		}
		return nil
	}}
}

// WithMaxThreadPoolExecutorWaitingTime overrides how long an idle CPU
// pool worker waits for new work before rechecking its queues. Workers do
// not exit when the wait times out; they park again. The default is 120s.
func WithMaxThreadPoolExecutorWaitingTime(d time.Duration) Option {
	return &optionImpl{func(cfg *config) error {
		if d > 0 {
			cfg.cpuPoolIdleTime = d
		}
		return nil
	}}
}

// WithMaxBackgroundThreads overrides the background (I/O-bound) thread
// pool's worker count. The default is hardware_concurrency * 4 (falling
// back to 8*4 when that reports zero).
func WithMaxBackgroundThreads(n int) Option {
	return &optionImpl{func(cfg *config) error {
		if n > 0 {
			cfg.maxBackgroundThreads = n
		}
		return nil
	}}
}

// WithMaxBackgroundExecutorWaitingTime overrides how long an idle
// background pool worker waits for new work before rechecking its queues.
// Workers do not exit when the wait times out; they park again. The
// default is 120s.
func WithMaxBackgroundExecutorWaitingTime(d time.Duration) Option {
	return &optionImpl{func(cfg *config) error {
		if d > 0 {
			cfg.backgroundPoolIdleTime = d
		}
		return nil
	}}
}

// WithMaxTimerQueueWaitingTime overrides how long the timer queue's
// worker waits with an empty schedule before retiring. The default is
// 120s.
func WithMaxTimerQueueWaitingTime(d time.Duration) Option {
	return &optionImpl{func(cfg *config) error {
		if d > 0 {
			cfg.timerQueueIdleTime = d
		}
		return nil
	}}
}

// WithThreadTimedEnqueueHalt sets the threadTimedEnqueueHalt value of the
// resolved configuration. The default is 10 seconds. This option has no
// equivalent in the option table of §6. No executor reads the value: the
// thread-per-task executor has no timed wait, so setting it changes no
// behavior.
func WithThreadTimedEnqueueHalt(d time.Duration) Option {
	return &optionImpl{func(cfg *config) error {
		if d > 0 {
			cfg.threadTimedEnqueueHalt = d
		}
		return nil
	}}
}

// WithMaxTimerQueueWaiters sets the maxTimerQueueWaiters value of the
// resolved configuration. The default is 32. The timer queue does not
// read the value (its request buffer grows on demand), so setting it
// changes no behavior.
func WithMaxTimerQueueWaiters(n int) Option {
	return &optionImpl{func(cfg *config) error {
		if n > 0 {
			cfg.maxTimerQueueWaiters = n
		}
		return nil
	}}
}

// WithThreadStartedCallback registers a hook invoked with a worker's
// thread name right after it starts, mirroring §6's
// thread_started_callback.
func WithThreadStartedCallback(fn func(threadName string)) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.threadStartedCallback = fn
		return nil
	}}
}

// WithThreadTerminatedCallback registers a hook invoked with a worker's
// thread name right before it exits, mirroring §6's
// thread_terminated_callback.
func WithThreadTerminatedCallback(fn func(threadName string)) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.threadTerminatedCallback = fn
		return nil
	}}
}

// hardwareConcurrency returns runtime.NumCPU(), falling back to 8 when
// that reports zero, matching §6's stated default-resolution rule.
func hardwareConcurrency() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 8
}

// resolveOptions applies defaults first, then every non-nil Option in
// order, mirroring the teacher's resolveLoopOptions.
func resolveOptions(opts []Option) (*config, error) {
	hc := hardwareConcurrency()
	cfg := &config{
		maxCPUThreads:          hc,
		cpuPoolIdleTime:        120 * time.Second,
		maxBackgroundThreads:   hc * 4,
		backgroundPoolIdleTime: 120 * time.Second,
		timerQueueIdleTime:     120 * time.Second,
		threadTimedEnqueueHalt: 10 * time.Second,
		maxTimerQueueWaiters:   32,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyConfig(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
