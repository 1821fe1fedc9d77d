package coop

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/agent"
	"github.com/codewandler/actr-go/core/mbox"
	"github.com/codewandler/actr-go/core/queue"
)

type ping struct{ N int }

type fakeEnv struct {
	repo    *mbox.Repository
	stopped bool
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{repo: mbox.NewRepository(mbox.RepositoryOptions{})}
}

func (e *fakeEnv) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
func (e *fakeEnv) Mboxes() *mbox.Repository { return e.repo }
func (e *fakeEnv) Stop()                    { e.stopped = true }

// syncDisp executes demands inline on the pushing goroutine, which makes
// registration/deregistration fully synchronous in tests.
type syncDisp struct{ closed bool }

type syncQueue struct{ d *syncDisp }

func (q syncQueue) Push(dem queue.Demand) bool {
	if q.d.closed {
		return false
	}
	dem.Target.ExecDemand(dem)
	return true
}

func (d *syncDisp) Bind(queue.Executor) (queue.EventQueue, error) {
	if d.closed {
		return nil, errors.New("closed")
	}
	return syncQueue{d: d}, nil
}
func (d *syncDisp) Unbind(queue.Executor) {}
func (d *syncDisp) Shutdown()             { d.closed = true }

func newTestRegistry(env *fakeEnv) *Registry {
	return NewRegistry(RegistryOptions{
		Env:               env,
		Logger:            env.Logger(),
		DefaultDispatcher: &syncDisp{},
	})
}

func TestRegistry_registerAndDeregister(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	var trail []string
	c := r.NewCoop("workers")
	c.OnRegistered(func(name string) { trail = append(trail, "reg:"+name) })
	c.OnDeregistered(func(name string, reason Reason) {
		trail = append(trail, "dereg:"+name+":"+reason.String())
	})
	c.Add(agent.Options{Name: "w1"}, func(a *agent.Agent) error {
		a.OnStart(func() error { trail = append(trail, "start:w1"); return nil })
		a.OnFinish(func() error { trail = append(trail, "finish:w1"); return nil })
		return nil
	})

	require.NoError(t, r.Register(c))
	require.False(t, r.Empty())

	require.NoError(t, r.Deregister("workers", ReasonNormal))
	require.True(t, r.Empty())

	require.Equal(t, []string{"reg:workers", "start:w1", "finish:w1", "dereg:workers:normal"}, trail)
}

func TestRegistry_anonymousName(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	c := r.NewCoop("")
	c.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(c))
	require.NotEmpty(t, c.Name())
	require.Contains(t, c.Name(), "coop-")
}

func TestRegistry_nameCollision(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	c1 := r.NewCoop("same")
	c1.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(c1))

	c2 := r.NewCoop("same")
	c2.Add(agent.Options{}, nil)
	require.ErrorIs(t, r.Register(c2), ErrNameCollision)
}

func TestRegistry_emptyCoop(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)
	require.ErrorIs(t, r.Register(r.NewCoop("empty")), ErrEmptyCoop)
}

func TestRegistry_parentMissing(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	c := r.NewCoop("child")
	c.SetParent("nope")
	c.Add(agent.Options{}, nil)
	require.ErrorIs(t, r.Register(c), ErrParentMissing)
	require.True(t, r.Empty())
}

func TestRegistry_defineFailureRollsBack(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)
	mb := env.repo.CreateAnonymous()

	var started, handled int
	c := r.NewCoop("broken")
	c.Add(agent.Options{Name: "ok"}, func(a *agent.Agent) error {
		a.OnStart(func() error { started++; return nil })
		return a.Subscribe(mb).Event(agent.On(func(ping) error {
			handled++
			return nil
		}))
	})
	c.Add(agent.Options{Name: "bad"}, func(a *agent.Agent) error {
		return errors.New("construction failed")
	})

	require.Error(t, r.Register(c))
	require.True(t, r.Empty())

	// coop atomicity: no start hook ran, no subscription is live
	require.Zero(t, started)
	mb.Deliver(ping{N: 1})
	require.Zero(t, handled)
}

func TestRegistry_deregisterUnknown(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)
	require.ErrorIs(t, r.Deregister("ghost", ReasonNormal), ErrUnknownCoop)
}

func TestRegistry_parentChildOrder(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	var trail []string
	parent := r.NewCoop("parent")
	parent.OnDeregistered(func(name string, _ Reason) { trail = append(trail, name) })
	parent.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(parent))

	child := r.NewCoop("child")
	child.SetParent("parent")
	child.OnDeregistered(func(name string, _ Reason) { trail = append(trail, name) })
	child.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(child))

	grand := r.NewCoop("grand")
	grand.SetParent("child")
	grand.OnDeregistered(func(name string, _ Reason) { trail = append(trail, name) })
	grand.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(grand))

	require.NoError(t, r.Deregister("parent", ReasonNormal))
	require.True(t, r.Empty())

	// descendants complete strictly before their ancestors
	require.Equal(t, []string{"grand", "child", "parent"}, trail)
}

func TestRegistry_childOfDeregisteredParent(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	parent := r.NewCoop("p")
	parent.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(parent))
	require.NoError(t, r.Deregister("p", ReasonNormal))

	child := r.NewCoop("c")
	child.SetParent("p")
	child.Add(agent.Options{}, nil)
	require.ErrorIs(t, r.Register(child), ErrParentMissing)
}

func TestRegistry_deregisterReasonPropagates(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	var reasons []Reason
	parent := r.NewCoop("p")
	parent.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(parent))

	child := r.NewCoop("c")
	child.SetParent("p")
	child.OnDeregistered(func(_ string, reason Reason) { reasons = append(reasons, reason) })
	child.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(child))

	require.NoError(t, r.Deregister("p", ReasonShutdown))
	require.Equal(t, []Reason{ReasonShutdown}, reasons)
}

func TestRegistry_exceptionDeregistersOwnCoop(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	var reasons []Reason
	c := r.NewCoop("crashy")
	c.SetReaction(agent.ReactionDeregisterCoop)
	c.OnDeregistered(func(_ string, reason Reason) { reasons = append(reasons, reason) })
	a := c.Add(agent.Options{}, func(a *agent.Agent) error {
		return a.Subscribe(a.DirectMbox()).Event(agent.On(func(ping) error {
			return errors.New("boom")
		}))
	})

	require.NoError(t, r.Register(c))
	a.DirectMbox().Deliver(ping{N: 1})

	require.True(t, r.Empty())
	require.Equal(t, []Reason{ReasonUnhandledException}, reasons)
}

func TestRegistry_onEmptyHook(t *testing.T) {
	env := newFakeEnv()
	var emptied int
	r := NewRegistry(RegistryOptions{
		Env:               env,
		Logger:            env.Logger(),
		DefaultDispatcher: &syncDisp{},
		OnEmpty:           func() { emptied++ },
	})

	c := r.NewCoop("only")
	c.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(c))
	require.NoError(t, r.Deregister("only", ReasonNormal))
	require.Equal(t, 1, emptied)
}

func TestRegistry_deregisterAllRoots(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	for _, name := range []string{"r1", "r2"} {
		c := r.NewCoop(name)
		c.Add(agent.Options{}, nil)
		require.NoError(t, r.Register(c))
	}
	child := r.NewCoop("c1")
	child.SetParent("r1")
	child.Add(agent.Options{}, nil)
	require.NoError(t, r.Register(child))

	r.DeregisterAllRoots(ReasonShutdown)
	require.True(t, r.Empty())
}

func TestRegistry_userReason(t *testing.T) {
	env := newFakeEnv()
	r := newTestRegistry(env)

	const evacuate = ReasonUserBase + 7

	var got Reason
	c := r.NewCoop("svc")
	c.OnDeregistered(func(_ string, reason Reason) { got = reason })
	a := c.Add(agent.Options{}, func(a *agent.Agent) error {
		return a.Subscribe(a.DirectMbox()).Event(agent.On(func(ping) error {
			a.DeregisterCoop(int(evacuate))
			return nil
		}))
	})
	require.NoError(t, r.Register(c))

	a.DirectMbox().Deliver(ping{N: 1})
	require.True(t, r.Empty())
	require.Equal(t, evacuate, got)
	require.Equal(t, "user_defined", got.String())
}
