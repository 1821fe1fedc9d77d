// Package coop implements cooperations: sets of agents that enter and
// leave the runtime atomically, arranged in a parent/child tree.
//
// Registration either binds every agent of the cooperation and queues
// every start demand, or binds nothing. Deregistration cascades to child
// cooperations first; a parent is removed from the registry only after all
// of its descendants are gone.
package coop
