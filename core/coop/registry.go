package coop

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/actr-go/core/agent"
	"github.com/codewandler/actr-go/core/disp"
	"github.com/codewandler/actr-go/core/ds"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Env               agent.Environment
	Logger            *slog.Logger
	DefaultDispatcher disp.Dispatcher
	Metrics           CoopMetrics
	// OnEmpty is invoked (under the registry lock) whenever the last
	// cooperation leaves the registry. The environment uses it for
	// autoshutdown and shutdown completion.
	OnEmpty func()
}

// Registry owns the cooperation table and drives the registration and
// deregistration protocols. One global lock guards table transitions;
// steady-state message delivery never touches it.
type Registry struct {
	env         agent.Environment
	log         *slog.Logger
	defaultDisp disp.Dispatcher
	metrics     CoopMetrics
	onEmpty     func()

	mu    sync.Mutex
	coops map[string]*Coop
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopCoopMetrics()
	}
	return &Registry{
		env:         opts.Env,
		log:         log,
		defaultDisp: opts.DefaultDispatcher,
		metrics:     opts.Metrics,
		onEmpty:     opts.OnEmpty,
		coops:       make(map[string]*Coop),
	}
}

// NewCoop creates an empty cooperation. An empty name is replaced with a
// generated unique one at registration.
func (r *Registry) NewCoop(name string) *Coop {
	return &Coop{
		name:     name,
		env:      r.env,
		reg:      r,
		children: ds.NewSet[string](),
	}
}

// Register runs the registration protocol: validate, define every agent on
// the calling thread, bind every agent to its dispatcher, commit, fire
// registration notificators, queue start demands. On any failure everything is rolled
// back and no start demand runs.
func (r *Registry) Register(c *Coop) error {
	if len(c.specs) == 0 {
		return ErrEmptyCoop
	}

	r.mu.Lock()
	if c.name == "" {
		c.name = "coop-" + gonanoid.Must(8)
	}
	if _, exists := r.coops[c.name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("register %q: %w", c.name, ErrNameCollision)
	}
	if err := r.checkParentLocked(c.parent); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("register %q: %w", c.name, err)
	}
	c.state = stateRegistering
	r.coops[c.name] = c
	r.mu.Unlock()

	rollback := func() {
		r.mu.Lock()
		delete(r.coops, c.name)
		r.mu.Unlock()
	}

	// define phase: the registering thread is the only place subscriptions
	// may be created before any event runs
	for _, spec := range c.specs {
		if err := spec.agent.RunDefine(spec.define); err != nil {
			rollback()
			return fmt.Errorf("register %q: define %s: %w", c.name, spec.agent.Name(), err)
		}
	}

	// bind phase
	type binding struct {
		spec agentSpec
		d    disp.Dispatcher
	}
	var bound []binding
	unbindAll := func() {
		for _, b := range bound {
			b.spec.agent.Unbind()
			b.d.Unbind(b.spec.agent)
		}
	}
	for _, spec := range c.specs {
		d := spec.disp
		if d == nil {
			d = r.defaultDisp
		}
		q, err := d.Bind(spec.agent)
		if err == nil {
			if err = spec.agent.Bind(q, c); err != nil {
				d.Unbind(spec.agent)
			}
		}
		if err != nil {
			unbindAll()
			rollback()
			return fmt.Errorf("register %q: bind %s: %w", c.name, spec.agent.Name(), err)
		}
		bound = append(bound, binding{spec: spec, d: d})
	}

	// commit
	r.mu.Lock()
	if err := r.checkParentLocked(c.parent); err != nil {
		delete(r.coops, c.name)
		r.mu.Unlock()
		unbindAll()
		return fmt.Errorf("register %q: %w", c.name, err)
	}
	c.state = stateRegistered
	c.liveAgents = len(c.specs)
	if c.parent != "" {
		r.coops[c.parent].children.Add(c.name)
	}
	r.metrics.Registered()
	r.metrics.Live(len(r.coops))
	r.mu.Unlock()

	r.log.Debug("cooperation registered", slog.String("coop", c.name), slog.Int("agents", len(c.specs)))
	for _, fn := range c.regNotify {
		fn := fn
		r.fireNotificator(c.name, func() { fn(c.name) })
	}

	for _, spec := range c.specs {
		spec.agent.QueueStart()
	}
	return nil
}

func (r *Registry) checkParentLocked(parent string) error {
	if parent == "" {
		return nil
	}
	p, ok := r.coops[parent]
	if !ok || p.state != stateRegistered {
		return ErrParentMissing
	}
	return nil
}

// Deregister starts deregistration of the named cooperation and all of its
// descendants with the given reason. Returns once every finish demand is
// queued; completion is asynchronous. Idempotent per cooperation.
func (r *Registry) Deregister(name string, reason Reason) error {
	r.mu.Lock()
	c, ok := r.coops[name]
	if !ok || c.state == stateRegistering || c.state == stateCollecting {
		r.mu.Unlock()
		return fmt.Errorf("deregister %q: %w", name, ErrUnknownCoop)
	}
	if c.state != stateRegistered {
		// already deregistering
		r.mu.Unlock()
		return nil
	}
	c.state = stateDeregistering
	c.reason = reason
	children := c.children.Values()
	r.mu.Unlock()

	r.log.Debug("cooperation deregistering", slog.String("coop", name), slog.String("reason", reason.String()))

	for _, child := range children {
		_ = r.Deregister(child, reason)
	}
	for _, spec := range c.specs {
		spec.agent.QueueFinish()
	}

	r.mu.Lock()
	r.maybeCompleteLocked(c)
	r.mu.Unlock()
	return nil
}

// DeregisterAllRoots deregisters every root cooperation; children cascade.
func (r *Registry) DeregisterAllRoots(reason Reason) {
	r.mu.Lock()
	var roots []string
	for name, c := range r.coops {
		if c.parent == "" {
			roots = append(roots, name)
		}
		if c.parent != "" {
			if _, ok := r.coops[c.parent]; !ok {
				roots = append(roots, name)
			}
		}
	}
	r.mu.Unlock()

	for _, name := range roots {
		_ = r.Deregister(name, reason)
	}
}

// Empty reports whether no cooperation is registered.
func (r *Registry) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.coops) == 0
}

func (r *Registry) agentFinished(c *Coop) {
	r.mu.Lock()
	c.liveAgents--
	r.maybeCompleteLocked(c)
	r.mu.Unlock()
}

// maybeCompleteLocked finishes deregistration once no live agent and no
// child remains, cascading into an already-deregistering parent.
func (r *Registry) maybeCompleteLocked(c *Coop) {
	if c.state != stateDeregistering || c.liveAgents > 0 || !c.children.IsEmpty() {
		return
	}
	c.state = stateGone
	delete(r.coops, c.name)
	r.metrics.Deregistered(c.reason.String())
	r.metrics.Live(len(r.coops))
	r.log.Debug("cooperation deregistered", slog.String("coop", c.name), slog.String("reason", c.reason.String()))

	for _, fn := range c.deregNotify {
		fn := fn
		r.fireNotificator(c.name, func() { fn(c.name, c.reason) })
	}

	if c.parent != "" {
		if p, ok := r.coops[c.parent]; ok {
			p.children.Remove(c.name)
			r.maybeCompleteLocked(p)
		}
	}

	if len(r.coops) == 0 && r.onEmpty != nil {
		r.onEmpty()
	}
}

// fireNotificator runs a notificator; a panicking notificator is fatal.
func (r *Registry) fireNotificator(coopName string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("cooperation notificator panicked",
				slog.String("coop", coopName),
				slog.Any("recovered", rec),
				slog.String("stack", string(debug.Stack())))
			agent.Abort()
		}
	}()
	fn()
}
