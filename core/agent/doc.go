// Package agent implements the event-processing side of the runtime: the
// agent state machine, its subscription/filter/limit tables, and the demand
// execution protocol dispatchers drive.
//
// An agent is defined inside a cooperation builder. The define function runs
// on the registering thread, before any event; it is the place to create
// states, subscriptions, limits, and lifecycle hooks:
//
//	c.Add(agent.Options{Name: "pinger"}, func(a *agent.Agent) error {
//	    a.OnStart(func() error { mb.Deliver(ping{}); return nil })
//	    return a.Subscribe(mb).Event(agent.On(func(p pong) error {
//	        a.Log().Info("pong", slog.Int("n", p.N))
//	        return nil
//	    }))
//	})
//
// After registration the agent's tables may only be mutated from inside its
// own handlers (the working thread). At most one handler of an agent runs at
// any time, on any dispatcher.
package agent
