// Package env implements the environment: the top-level object owning the
// cooperation registry, the mailbox repository, the default dispatcher, and
// the shutdown coordinator.
//
// Typical embedding:
//
//	err := env.Launch(env.Options{}, func(e *env.Env) error {
//	    _, err := e.IntroduceCoop(func(c *coop.Coop) {
//	        c.Add(agent.Options{Name: "worker"}, defineWorker)
//	    })
//	    return err
//	})
//
// Launch blocks until Stop is called and every cooperation has
// deregistered. By default the environment also stops itself once the last
// cooperation is gone (autoshutdown); disable it with
// Options.DisableAutoshutdown for long-running services that register
// cooperations on demand.
package env
