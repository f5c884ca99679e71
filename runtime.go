package concurrencpp

import (
	"sync"

	"github.com/concurrencpp-go/runtime/executor/inline"
	"github.com/concurrencpp-go/runtime/executor/manual"
	"github.com/concurrencpp-go/runtime/executor/threadpertask"
	"github.com/concurrencpp-go/runtime/executor/threadpool"
	"github.com/concurrencpp-go/runtime/executor/worker"
	"github.com/concurrencpp-go/runtime/internal/logctx"
	"github.com/concurrencpp-go/runtime/timer"
	"golang.org/x/sync/errgroup"
)

// shutdownable is the method set every executor and the timer queue share;
// it lets Runtime.Shutdown and make_executor's generic registry treat them
// uniformly without importing each concrete package's type.
type shutdownable interface {
	Shutdown()
}

// Runtime is the façade described by spec §6: it owns the fixed set of
// built-in executors and the timer queue, and tracks every executor handed
// out through a factory so a single Shutdown call tears down all of them.
type Runtime struct {
	cfg *config

	inlineExecutor *inline.Executor
	cpuPool        *threadpool.Executor
	backgroundPool *threadpool.Executor
	threadExecutor *threadpertask.Executor
	timerQueue     *timer.Queue

	mu           sync.Mutex
	made         []shutdownable
	shutdownOnce sync.Once
}

// New constructs a Runtime. With no options it uses the defaults from
// spec §6: CPU pool sized at hardware_concurrency, background pool at
// hardware_concurrency*4, 120s idle timeouts everywhere.
func New(opts ...Option) (*Runtime, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{cfg: cfg}
	rt.inlineExecutor = inline.New("inline_executor")
	rt.cpuPool = threadpool.NewWithHooks("thread_pool_executor", cfg.maxCPUThreads, cfg.cpuPoolIdleTime, cfg.threadStartedCallback, cfg.threadTerminatedCallback)
	rt.backgroundPool = threadpool.NewWithHooks("background_executor", cfg.maxBackgroundThreads, cfg.backgroundPoolIdleTime, cfg.threadStartedCallback, cfg.threadTerminatedCallback)
	rt.threadExecutor = threadpertask.NewWithHooks("thread_executor", cfg.threadStartedCallback, cfg.threadTerminatedCallback)
	rt.timerQueue = timer.NewWithHooks("timer_queue", cfg.timerQueueIdleTime, cfg.threadStartedCallback, cfg.threadTerminatedCallback)
	return rt, nil
}

// TimerQueue returns the runtime's single timer queue.
func (rt *Runtime) TimerQueue() *timer.Queue { return rt.timerQueue }

// InlineExecutor returns the runtime's inline executor.
func (rt *Runtime) InlineExecutor() *inline.Executor { return rt.inlineExecutor }

// ThreadPoolExecutor returns the runtime's CPU-bound work-stealing pool.
func (rt *Runtime) ThreadPoolExecutor() *threadpool.Executor { return rt.cpuPool }

// BackgroundExecutor returns the runtime's I/O-bound work-stealing pool.
func (rt *Runtime) BackgroundExecutor() *threadpool.Executor { return rt.backgroundPool }

// ThreadExecutor returns the runtime's thread-per-task executor.
func (rt *Runtime) ThreadExecutor() *threadpertask.Executor { return rt.threadExecutor }

// MakeWorkerThreadExecutor creates a new dedicated single-worker executor,
// wires the runtime's thread lifecycle hooks into it, and registers it so
// Shutdown tears it down along with the built-ins.
func (rt *Runtime) MakeWorkerThreadExecutor(name string) *worker.Executor {
	e := worker.NewWithHooks(name, rt.cfg.threadStartedCallback, rt.cfg.threadTerminatedCallback)
	rt.register(e)
	return e
}

// MakeManualExecutor creates a new manually-driven executor and registers
// it for shutdown. A manual executor spawns no goroutine of its own, so
// there are no lifecycle hooks to wire.
func (rt *Runtime) MakeManualExecutor(name string) *manual.Executor {
	e := manual.New(name)
	rt.register(e)
	return e
}

// MakeExecutor is the generic factory behind spec §6's make_executor<T>:
// since Go generics cannot construct an arbitrary T from constructor
// arguments the way a C++ template can, the caller supplies a thunk that
// builds T; MakeExecutor invokes it and registers the result for shutdown.
func MakeExecutor[T shutdownable](rt *Runtime, construct func() T) T {
	e := construct()
	rt.register(e)
	return e
}

func (rt *Runtime) register(e shutdownable) {
	rt.mu.Lock()
	rt.made = append(rt.made, e)
	rt.mu.Unlock()
}

// Shutdown tears down every built-in executor, the timer queue, and every
// executor handed out via a Make* factory, concurrently. Idempotent: a
// second call is a no-op. Individual Shutdown methods never return an
// error, so the errgroup here exists to join them concurrently rather than
// to aggregate failures.
func (rt *Runtime) Shutdown() {
	rt.shutdownOnce.Do(func() {
		rt.mu.Lock()
		made := rt.made
		rt.made = nil
		rt.mu.Unlock()

		targets := make([]shutdownable, 0, 5+len(made))
		targets = append(targets, rt.inlineExecutor, rt.cpuPool, rt.backgroundPool, rt.threadExecutor, rt.timerQueue)
		targets = append(targets, made...)

		var g errgroup.Group
		for _, t := range targets {
			t := t
			g.Go(func() error {
				t.Shutdown()
				return nil
			})
		}
		_ = g.Wait()

		logctx.Named("runtime").Info().Log("runtime shut down")
	})
}

// Version numbers for this module, exposed as the (major, minor, revision)
// triple spec §6 calls for.
const (
	VersionMajor    = 1
	VersionMinor    = 0
	VersionRevision = 0
)

// Version returns the (major, minor, revision) triple identifying this
// module's release.
func Version() (major, minor, revision int) {
	return VersionMajor, VersionMinor, VersionRevision
}
