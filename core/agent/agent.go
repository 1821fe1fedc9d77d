package agent

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/codewandler/actr-go/core/mbox"
	"github.com/codewandler/actr-go/core/msg"
	"github.com/codewandler/actr-go/core/queue"
)

// abortProcess terminates the process on fatal conditions (abort reaction,
// listener panic, limit overflow with abort action).
var abortProcess = func() { os.Exit(1) }

// SetAbortHandler replaces the process-abort hook. Intended for embedders
// that need to flush logs or dump state before dying; call it once, before
// the environment launches.
func SetAbortHandler(fn func()) { abortProcess = fn }

// Abort terminates the process through the configured abort handler. The
// runtime calls it for fatal conditions such as a panicking notificator.
func Abort() { abortProcess() }

// Agent lifecycle phases, strictly sequential.
const (
	phaseConstructed int32 = iota
	phaseDefined
	phaseBound
	phaseRunning
	phaseFinishing
	phaseFinished
)

// ExceptionReaction says what the runtime does when an event handler of the
// agent fails (returns an error or panics).
type ExceptionReaction int

const (
	// ReactionInherit delegates to the owning cooperation's policy. The
	// default for agents; the root cooperation default is ReactionAbort.
	ReactionInherit ExceptionReaction = iota
	// ReactionAbort logs the failure and terminates the process.
	ReactionAbort
	// ReactionShutdown parks the agent in a terminal state and stops the
	// environment.
	ReactionShutdown
	// ReactionDeregisterCoop parks the agent in a terminal state and
	// deregisters its cooperation with the unhandled-exception reason.
	ReactionDeregisterCoop
	// ReactionIgnore logs and carries on.
	ReactionIgnore
)

func (r ExceptionReaction) String() string {
	switch r {
	case ReactionAbort:
		return "abort"
	case ReactionShutdown:
		return "shutdown"
	case ReactionDeregisterCoop:
		return "deregister_coop"
	case ReactionIgnore:
		return "ignore"
	default:
		return "inherit"
	}
}

// Environment is the slice of the environment agents interact with.
type Environment interface {
	Logger() *slog.Logger
	Mboxes() *mbox.Repository
	Stop()
}

// CoopRef is the agent's view of its owning cooperation.
type CoopRef interface {
	// Reaction returns the cooperation's resolved exception reaction
	// (never ReactionInherit).
	Reaction() ExceptionReaction
	// Deregister starts deregistration of the cooperation with a
	// user-supplied reason code.
	Deregister(reason int)
	// DeregisterOnException starts deregistration with the
	// unhandled-exception reason.
	DeregisterOnException()
	// AgentFinished tells the cooperation one of its agents has executed
	// its finish demand and released its binding.
	AgentFinished(a *Agent)
}

// Options configures an agent. Zero values get defaults.
type Options struct {
	Name     string
	Priority int // 0 (lowest) .. 7 (highest)
	Reaction ExceptionReaction
	Storage  StorageKind
	Logger   *slog.Logger
}

// Agent is a unit of concurrency: private state, message handlers, and a
// serial execution guarantee. Create agents inside a cooperation builder.
type Agent struct {
	env      Environment
	log      *slog.Logger
	name     string
	id       uint64
	prio     int
	reaction ExceptionReaction

	direct mbox.Mbox
	tracer mbox.Tracer

	phase     atomic.Int32
	inHandler atomic.Bool

	bindMu sync.RWMutex
	q      queue.EventQueue
	coop   CoopRef

	defState  *State
	sentinel  *State
	current   *State
	nStates   int
	listeners []StateListener

	subs     storage
	mboxRefs map[uint64]*mboxRef
	filters  filterStore
	limits   map[msg.Type]*limitRecord

	startHook  func() error
	finishHook func() error
}

type mboxRef struct {
	mb     mbox.Mbox
	n      int // live subscriptions through this mailbox
	active bool
}

// New constructs an agent owned by env. Called by the cooperation builder.
func New(env Environment, opts Options) *Agent {
	if opts.Priority < PriorityMin {
		opts.Priority = PriorityMin
	}
	if opts.Priority > PriorityMax {
		opts.Priority = PriorityMax
	}

	a := &Agent{
		env:      env,
		prio:     opts.Priority,
		reaction: opts.Reaction,
		subs:     newStorage(opts.Storage),
		mboxRefs: make(map[uint64]*mboxRef),
		limits:   make(map[msg.Type]*limitRecord),
		tracer:   env.Mboxes().Tracer(),
	}
	a.defState = &State{owner: a, name: "default", id: 0}
	a.sentinel = &State{owner: a, name: "awaiting_deregistration", id: -1}
	a.current = a.defState
	a.direct = env.Mboxes().CreateDirect(a)
	a.id = a.direct.ID()

	a.name = opts.Name
	if a.name == "" {
		a.name = fmt.Sprintf("agent-%d", a.id)
	}
	log := opts.Logger
	if log == nil {
		log = env.Logger()
	}
	a.log = log.With(slog.String("agent", a.name))

	return a
}

// Agent priorities. Priority matters only on priority-aware dispatchers.
const (
	PriorityMin = 0
	PriorityMax = 7
)

func (a *Agent) Name() string          { return a.name }
func (a *Agent) Log() *slog.Logger     { return a.log }
func (a *Agent) Env() Environment      { return a.env }
func (a *Agent) DirectMbox() mbox.Mbox { return a.direct }

// SubscriberID implements mbox.Subscriber.
func (a *Agent) SubscriberID() uint64 { return a.id }

// Priority implements queue.Executor.
func (a *Agent) Priority() int { return a.prio }

// DefaultState returns the implicitly created default state.
func (a *Agent) DefaultState() *State { return a.defState }

// CurrentState returns the current state. Working thread only.
func (a *Agent) CurrentState() *State { return a.current }

// Finished reports whether the agent has executed its finish demand.
func (a *Agent) Finished() bool { return a.phase.Load() == phaseFinished }

// NewState creates a state owned by this agent.
func (a *Agent) NewState(name string) *State {
	a.nStates++
	st := &State{owner: a, name: name, id: a.nStates}
	return st
}

// OnStart registers the hook run by the agent's first demand.
func (a *Agent) OnStart(fn func() error) { a.startHook = fn }

// OnFinish registers the hook run by the agent's last demand.
func (a *Agent) OnFinish(fn func() error) { a.finishHook = fn }

// AddStateListener registers a listener fired synchronously on every state
// change, in registration order. A panicking listener is fatal.
func (a *Agent) AddStateListener(l StateListener) {
	a.listeners = append(a.listeners, l)
}

// DeregisterCoop starts deregistration of the agent's cooperation with a
// user reason code.
func (a *Agent) DeregisterCoop(reason int) {
	if a.coop != nil {
		a.coop.Deregister(reason)
	}
}

// assertMutable enforces the working-thread rule: before binding, the
// defining thread may mutate agent tables; after binding, only code running
// inside one of the agent's own handlers may.
func (a *Agent) assertMutable() error {
	if a.phase.Load() < phaseBound {
		return nil
	}
	if !a.inHandler.Load() {
		return ErrThreadMismatch
	}
	return nil
}

// ChangeState switches the state machine to st and fires state listeners.
func (a *Agent) ChangeState(st *State) error {
	if st.owner != a {
		return ErrStateOwnerMismatch
	}
	if err := a.assertMutable(); err != nil {
		return err
	}
	old := a.current
	a.current = st
	a.fireListeners(old, st)
	return nil
}

func (a *Agent) fireListeners(old, next *State) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("state listener panicked",
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())))
			abortProcess()
		}
	}()
	for _, l := range a.listeners {
		l(old, next)
	}
}

// === subscriptions ===

// SubscribeBuilder accumulates one Subscribe call. Terminate with Event.
type SubscribeBuilder struct {
	a      *Agent
	mb     mbox.Mbox
	states []*State
	err    error
}

// Subscribe starts a subscription to mb for this agent.
func (a *Agent) Subscribe(mb mbox.Mbox) *SubscribeBuilder {
	b := &SubscribeBuilder{a: a, mb: mb}
	if mb.Kind() == mbox.MPSC && mb.ID() != a.direct.ID() {
		b.err = mbox.ErrDirectSubscription
	}
	return b
}

// In restricts the subscription to the given states. Without In the
// subscription applies to the default state only.
func (b *SubscribeBuilder) In(states ...*State) *SubscribeBuilder {
	if b.err != nil {
		return b
	}
	for _, st := range states {
		if st.owner != b.a {
			b.err = ErrStateOwnerMismatch
			return b
		}
	}
	b.states = append(b.states, states...)
	return b
}

// Event registers each handler for each selected state.
func (b *SubscribeBuilder) Event(handlers ...Handler) error {
	if b.err != nil {
		return b.err
	}
	a := b.a
	if err := a.assertMutable(); err != nil {
		return err
	}

	states := b.states
	if len(states) == 0 {
		states = []*State{a.defState}
	}

	var done []subKey
	for _, h := range handlers {
		for _, st := range states {
			k := subKey{mbox: b.mb.ID(), t: h.T, state: st.id}
			if err := a.subs.insert(k, h); err != nil {
				for _, u := range done {
					a.subs.drop(u)
					a.releaseMboxRef(u.mbox)
				}
				return fmt.Errorf("subscribe %s in %s: %w", h.T.Name, st.name, err)
			}
			done = append(done, k)
			if err := a.holdMboxRef(b.mb); err != nil {
				a.subs.drop(k)
				for _, u := range done[:len(done)-1] {
					a.subs.drop(u)
					a.releaseMboxRef(u.mbox)
				}
				return err
			}
		}
	}
	return nil
}

// holdMboxRef counts one subscription through mb and, once the agent is
// bound, makes the mailbox subscription live immediately. Before binding
// activation is deferred to Bind so a failed registration leaves no trace.
func (a *Agent) holdMboxRef(mb mbox.Mbox) error {
	ref := a.mboxRefs[mb.ID()]
	if ref == nil {
		ref = &mboxRef{mb: mb}
		a.mboxRefs[mb.ID()] = ref
	}
	ref.n++
	if !ref.active && a.phase.Load() >= phaseBound {
		if err := a.activateRef(ref); err != nil {
			ref.n--
			return err
		}
	}
	return nil
}

func (a *Agent) activateRef(ref *mboxRef) error {
	if ref.mb.Kind() != mbox.MPSC { // the direct mailbox is wired at creation
		if err := ref.mb.Subscribe(a); err != nil {
			return err
		}
	}
	ref.active = true
	return nil
}

func (a *Agent) releaseMboxRef(mboxID uint64) {
	ref := a.mboxRefs[mboxID]
	if ref == nil {
		return
	}
	ref.n--
	if ref.n <= 0 {
		if ref.active && ref.mb.Kind() != mbox.MPSC {
			ref.mb.Unsubscribe(a)
		}
		delete(a.mboxRefs, mboxID)
	}
}

// DropSubscription removes the subscription for (mb, t) in the given states
// (default state when none given). Missing subscriptions are ignored.
func (a *Agent) DropSubscription(mb mbox.Mbox, t msg.Type, states ...*State) error {
	if err := a.assertMutable(); err != nil {
		return err
	}
	if len(states) == 0 {
		states = []*State{a.defState}
	}
	for _, st := range states {
		if st.owner != a {
			return ErrStateOwnerMismatch
		}
		if a.subs.drop(subKey{mbox: mb.ID(), t: t, state: st.id}) {
			a.releaseMboxRef(mb.ID())
		}
	}
	return nil
}

// DropSubscriptionForAllStates removes every subscription for (mb, t).
func (a *Agent) DropSubscriptionForAllStates(mb mbox.Mbox, t msg.Type) error {
	if err := a.assertMutable(); err != nil {
		return err
	}
	n := a.subs.dropAllStates(mb.ID(), t)
	for i := 0; i < n; i++ {
		a.releaseMboxRef(mb.ID())
	}
	return nil
}

// === registration protocol (driven by the cooperation registry) ===

// RunDefine executes the agent's define function on the registering thread.
func (a *Agent) RunDefine(def func(*Agent) error) error {
	if def != nil {
		if err := def(a); err != nil {
			return err
		}
	}
	a.phase.Store(phaseDefined)
	return nil
}

// Bind attaches the agent to its event queue and cooperation and makes its
// mailbox subscriptions live.
func (a *Agent) Bind(q queue.EventQueue, c CoopRef) error {
	a.bindMu.Lock()
	a.q = q
	a.coop = c
	a.bindMu.Unlock()
	a.phase.Store(phaseBound)

	for _, ref := range a.mboxRefs {
		if ref.active {
			continue
		}
		if err := a.activateRef(ref); err != nil {
			a.Unbind()
			return err
		}
	}
	return nil
}

// Unbind rolls a failed registration back: mailbox subscriptions are
// withdrawn and the event-queue binding dropped. No demand has run yet.
func (a *Agent) Unbind() {
	for _, ref := range a.mboxRefs {
		if ref.active && ref.mb.Kind() != mbox.MPSC {
			ref.mb.Unsubscribe(a)
		}
		ref.active = false
	}
	a.bindMu.Lock()
	a.q = nil
	a.coop = nil
	a.bindMu.Unlock()
	a.phase.Store(phaseDefined)
}

// QueueStart pushes the agent's start demand.
func (a *Agent) QueueStart() bool {
	return a.pushSystem(queue.KindStart)
}

// QueueFinish pushes the agent's finish demand. If the event queue is gone
// (dispatcher already shut down) the finish protocol runs inline so the
// cooperation can still complete deregistration.
func (a *Agent) QueueFinish() {
	if !a.pushSystem(queue.KindFinish) {
		a.execFinish()
	}
}

func (a *Agent) pushSystem(kind queue.Kind) bool {
	a.bindMu.RLock()
	q := a.q
	a.bindMu.RUnlock()
	if q == nil {
		return false
	}
	return q.Push(queue.Demand{Target: a, Kind: kind})
}

// === delivery (sender threads) ===

// OfferMessage implements mbox.Subscriber: it runs the subscriber-side
// delivery pipeline — delivery filter, message limit, demand push.
func (a *Agent) OfferMessage(mboxID uint64, m *msg.Message, kind queue.Kind, f *msg.Future) bool {
	if a.phase.Load() >= phaseFinishing {
		return false
	}

	// capture the binding first: before Bind there is no queue, and the
	// limits table may still be under construction
	a.bindMu.RLock()
	q := a.q
	a.bindMu.RUnlock()
	if q == nil {
		return false
	}

	if !a.filters.allows(mboxID, m) {
		a.tracer.FilterRejected(mboxID, m.T.Name, a.id)
		return false
	}

	var rel queue.Releasable
	if rec := a.limits[m.T]; rec != nil {
		if !rec.reserve() {
			if kind == queue.KindService && rec.action != overflowAbort {
				// redirect/transform cannot reroute a pending future;
				// the sender sees the demand as skipped
				a.tracer.LimitOverflow(m.T.Name, a.id, overflowDrop.String())
				return false
			}
			a.applyOverflow(rec, m)
			return false
		}
		rel = rec
	}

	d := queue.Demand{
		Target:  a,
		MboxID:  mboxID,
		MsgType: m.T,
		Message: m,
		Limit:   rel,
		Kind:    kind,
		Future:  f,
	}
	if !q.Push(d) {
		if rel != nil {
			rel.Release()
		}
		return false
	}
	return true
}

// === execution (work thread) ===

// ExecDemand implements queue.Executor. Dispatchers guarantee it is never
// entered concurrently for the same agent.
func (a *Agent) ExecDemand(d queue.Demand) {
	switch d.Kind {
	case queue.KindStart:
		a.execStart()
	case queue.KindFinish:
		a.execFinish()
	default:
		a.execEvent(d)
	}
}

func (a *Agent) execStart() {
	a.phase.Store(phaseRunning)
	if a.startHook == nil {
		return
	}
	a.inHandler.Store(true)
	err := a.runHook(a.startHook)
	a.inHandler.Store(false)
	if err != nil {
		a.handleFailure(err)
	}
}

func (a *Agent) execFinish() {
	if a.phase.Load() >= phaseFinishing {
		return
	}
	a.phase.Store(phaseFinishing)

	if a.finishHook != nil {
		a.inHandler.Store(true)
		if err := a.runHook(a.finishHook); err != nil {
			a.log.Error("finish hook failed", slog.Any("error", err))
		}
		a.inHandler.Store(false)
	}

	for _, ref := range a.mboxRefs {
		if ref.active && ref.mb.Kind() != mbox.MPSC {
			ref.mb.Unsubscribe(a)
		}
		ref.active = false
	}

	a.bindMu.Lock()
	a.q = nil
	coop := a.coop
	a.bindMu.Unlock()
	a.phase.Store(phaseFinished)

	if coop != nil {
		coop.AgentFinished(a)
	}
}

func (a *Agent) execEvent(d queue.Demand) {
	if a.phase.Load() != phaseRunning {
		// agent is finishing: deliver to the ground
		queue.Discard(d)
		return
	}
	if d.Limit != nil {
		defer d.Limit.Release()
	}

	// the handler is resolved once per demand, against the state current
	// at dequeue; a ChangeState inside the handler affects later demands
	h, ok := a.subs.find(d.MboxID, d.MsgType, a.current.id)
	if !ok {
		a.tracer.NoHandler(d.MsgType.Name, a.id)
		if d.Future != nil {
			d.Future.Fail(msg.ErrServiceNotHandled)
		}
		return
	}

	a.inHandler.Store(true)
	res, err := a.invoke(h, d.Message)
	a.inHandler.Store(false)

	if d.Kind == queue.KindService {
		if err != nil {
			d.Future.Fail(err)
		} else {
			d.Future.Complete(res)
		}
		return
	}
	if err != nil {
		a.handleFailure(err)
	}
}

func (a *Agent) invoke(h Handler, m *msg.Message) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("handler panicked",
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", msg.ErrHandlerPanic, r)
		}
	}()
	return h.fn(m)
}

func (a *Agent) runHook(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("lifecycle hook panicked",
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", msg.ErrHandlerPanic, r)
		}
	}()
	return fn()
}

func (a *Agent) handleFailure(cause error) {
	r := a.reaction
	if r == ReactionInherit {
		if a.coop != nil {
			r = a.coop.Reaction()
		} else {
			r = ReactionAbort
		}
	}

	switch r {
	case ReactionIgnore:
		a.log.Warn("event handler failed", slog.Any("error", cause))
	case ReactionShutdown:
		a.log.Error("event handler failed, stopping environment", slog.Any("error", cause))
		a.current = a.sentinel
		a.env.Stop()
	case ReactionDeregisterCoop:
		a.log.Error("event handler failed, deregistering cooperation", slog.Any("error", cause))
		a.current = a.sentinel
		if a.coop != nil {
			a.coop.DeregisterOnException()
		}
	default:
		a.log.Error("event handler failed", slog.Any("error", cause), slog.String("reaction", "abort"))
		abortProcess()
	}
}
