package coop

import (
	"github.com/codewandler/actr-go/core/agent"
	"github.com/codewandler/actr-go/core/disp"
	"github.com/codewandler/actr-go/core/ds"
)

type coopState int

const (
	stateCollecting coopState = iota
	stateRegistering
	stateRegistered
	stateDeregistering
	stateGone
)

type agentSpec struct {
	agent  *agent.Agent
	define func(*agent.Agent) error
	disp   disp.Dispatcher // nil: registry default
}

// Coop is a cooperation under construction and, once registered, the
// live bookkeeping node in the registry's tree. Build one with
// Registry.NewCoop, populate it, then pass it to Registry.Register.
type Coop struct {
	name     string
	parent   string
	reaction agent.ExceptionReaction

	env   agent.Environment
	reg   *Registry
	specs []agentSpec

	regNotify   []RegNotificator
	deregNotify []DeregNotificator

	// guarded by the registry lock after registration starts
	state      coopState
	liveAgents int
	children   *ds.Set[string]
	reason     Reason
}

// Name returns the cooperation name. Empty until registration assigns a
// generated name for anonymous cooperations.
func (c *Coop) Name() string { return c.name }

// SetParent makes this cooperation a child of the named one. The parent
// must be registered when this cooperation registers.
func (c *Coop) SetParent(name string) { c.parent = name }

// SetReaction sets the cooperation-level exception reaction that agents
// with ReactionInherit resolve to.
func (c *Coop) SetReaction(r agent.ExceptionReaction) { c.reaction = r }

// OnRegistered adds a registration notificator.
func (c *Coop) OnRegistered(fn RegNotificator) { c.regNotify = append(c.regNotify, fn) }

// OnDeregistered adds a deregistration notificator.
func (c *Coop) OnDeregistered(fn DeregNotificator) { c.deregNotify = append(c.deregNotify, fn) }

// Add appends an agent to the cooperation, bound to the registry's default
// dispatcher. The define function runs on the registering thread during
// registration; it is the place to create states, subscriptions, limits,
// and lifecycle hooks.
func (c *Coop) Add(opts agent.Options, define func(*agent.Agent) error) *agent.Agent {
	return c.AddWithDispatcher(nil, opts, define)
}

// AddWithDispatcher is Add with an explicit dispatcher binding.
func (c *Coop) AddWithDispatcher(d disp.Dispatcher, opts agent.Options, define func(*agent.Agent) error) *agent.Agent {
	a := agent.New(c.env, opts)
	c.specs = append(c.specs, agentSpec{agent: a, define: define, disp: d})
	return a
}

// === agent.CoopRef ===

// Reaction returns the resolved cooperation policy (never inherit).
func (c *Coop) Reaction() agent.ExceptionReaction {
	if c.reaction == agent.ReactionInherit {
		return agent.ReactionAbort
	}
	return c.reaction
}

// Deregister implements agent.CoopRef for user-requested deregistration.
func (c *Coop) Deregister(reason int) {
	_ = c.reg.Deregister(c.name, Reason(reason))
}

// DeregisterOnException implements agent.CoopRef.
func (c *Coop) DeregisterOnException() {
	_ = c.reg.Deregister(c.name, ReasonUnhandledException)
}

// AgentFinished implements agent.CoopRef: one agent executed its finish
// demand and released its binding.
func (c *Coop) AgentFinished(*agent.Agent) {
	c.reg.agentFinished(c)
}
