package env

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codewandler/actr-go/core/coop"
	"github.com/codewandler/actr-go/core/disp"
	"github.com/codewandler/actr-go/core/mbox"
)

// Options configures an environment. Zero values get defaults.
type Options struct {
	Logger *slog.Logger
	Params Params

	Tracer      mbox.Tracer
	MboxMetrics mbox.MboxMetrics
	DispMetrics disp.DispatcherMetrics
	CoopMetrics coop.CoopMetrics

	// DisableAutoshutdown keeps the environment running after the last
	// cooperation deregisters. By default the environment stops itself.
	DisableAutoshutdown bool
}

// Env owns the runtime: mailbox repository, cooperation registry, default
// dispatcher, shutdown coordinator.
type Env struct {
	log    *slog.Logger
	params Params

	repo        *mbox.Repository
	registry    *coop.Registry
	defaultDisp disp.Dispatcher

	dispMu      sync.Mutex
	dispatchers []disp.Dispatcher

	autoshutdown bool
	stopOnce     sync.Once
	stopping     chan struct{}
	regEmpty     chan struct{}
}

// New constructs an environment. Most embedders use [Launch] instead.
func New(opts Options) *Env {
	params := opts.Params.withDefaults()

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(params.LogLevel)}))
	}

	e := &Env{
		log:          log,
		params:       params,
		autoshutdown: !opts.DisableAutoshutdown,
		stopping:     make(chan struct{}),
		regEmpty:     make(chan struct{}, 1),
	}

	e.repo = mbox.NewRepository(mbox.RepositoryOptions{
		Tracer:  opts.Tracer,
		Metrics: opts.MboxMetrics,
	})

	dispOpts := disp.Options{Logger: log, Metrics: opts.DispMetrics, BatchSize: params.BatchSize}
	switch params.DefaultDispatcher {
	case "thread_pool":
		e.defaultDisp = disp.NewThreadPool(dispOpts, params.ThreadPoolSize)
	default:
		e.defaultDisp = disp.NewOneThread(dispOpts)
	}
	e.dispatchers = []disp.Dispatcher{e.defaultDisp}

	e.registry = coop.NewRegistry(coop.RegistryOptions{
		Env:               e,
		Logger:            log,
		DefaultDispatcher: e.defaultDisp,
		Metrics:           opts.CoopMetrics,
		OnEmpty:           e.onRegistryEmpty,
	})

	return e
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger implements agent.Environment.
func (e *Env) Logger() *slog.Logger { return e.log }

// Mboxes implements agent.Environment.
func (e *Env) Mboxes() *mbox.Repository { return e.repo }

// DefaultDispatcher returns the dispatcher agents bind to by default.
func (e *Env) DefaultDispatcher() disp.Dispatcher { return e.defaultDisp }

// AttachDispatcher registers an extra dispatcher for shutdown with the
// environment and returns it. Use it for dispatchers passed to
// coop.AddWithDispatcher.
func (e *Env) AttachDispatcher(d disp.Dispatcher) disp.Dispatcher {
	e.dispMu.Lock()
	defer e.dispMu.Unlock()
	e.dispatchers = append(e.dispatchers, d)
	return d
}

// CreateMbox creates an anonymous shared mailbox.
func (e *Env) CreateMbox() mbox.Mbox { return e.repo.CreateAnonymous() }

// CreateNamedMbox creates a shared mailbox under a unique name.
func (e *Env) CreateNamedMbox(name string) (mbox.Mbox, error) {
	return e.repo.CreateNamed(name)
}

// NewCoop creates an empty cooperation; register it with RegisterCoop.
// An empty name is replaced with a generated one at registration.
func (e *Env) NewCoop(name string) *coop.Coop { return e.registry.NewCoop(name) }

// RegisterCoop atomically registers a cooperation.
func (e *Env) RegisterCoop(c *coop.Coop) error { return e.registry.Register(c) }

// DeregisterCoop starts deregistration of the named cooperation.
func (e *Env) DeregisterCoop(name string, reason coop.Reason) error {
	return e.registry.Deregister(name, reason)
}

// IntroduceCoop builds and registers an anonymous cooperation in one step
// and returns its generated name.
func (e *Env) IntroduceCoop(build func(c *coop.Coop)) (string, error) {
	c := e.registry.NewCoop("")
	build(c)
	if err := e.registry.Register(c); err != nil {
		return "", err
	}
	return c.Name(), nil
}

// Stop implements agent.Environment: it requests shutdown. Idempotent;
// the actual teardown happens in Launch.
func (e *Env) Stop() {
	e.stopOnce.Do(func() {
		e.log.Debug("environment stop requested")
		close(e.stopping)
	})
}

// Stopping is closed once Stop has been called.
func (e *Env) Stopping() <-chan struct{} { return e.stopping }

func (e *Env) onRegistryEmpty() {
	select {
	case e.regEmpty <- struct{}{}:
	default:
	}
	if e.autoshutdown {
		// the registry lock is held here; Stop only closes a channel
		e.Stop()
	}
}

// run blocks until Stop, then deregisters every cooperation and shuts the
// dispatchers down.
func (e *Env) run() {
	<-e.stopping

	e.registry.DeregisterAllRoots(coop.ReasonShutdown)
	for !e.registry.Empty() {
		<-e.regEmpty
	}

	var g errgroup.Group
	e.dispMu.Lock()
	dispatchers := append([]disp.Dispatcher(nil), e.dispatchers...)
	e.dispMu.Unlock()
	for _, d := range dispatchers {
		d := d
		g.Go(func() error {
			d.Shutdown()
			return nil
		})
	}
	_ = g.Wait()
	e.log.Debug("environment stopped")
}

// Launch constructs an environment, runs init, and blocks until the
// environment stops and every cooperation has deregistered. Returns the
// init error, if any; nil means clean shutdown.
func Launch(opts Options, init func(*Env) error) error {
	e := New(opts)
	if err := init(e); err != nil {
		e.Stop()
		e.run()
		return fmt.Errorf("environment init: %w", err)
	}
	e.run()
	return nil
}
