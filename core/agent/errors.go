package agent

import "errors"

var (
	// ErrSubscriptionExists is returned when a subscription for the same
	// (mailbox, message type, state) triple already exists on the agent.
	ErrSubscriptionExists = errors.New("subscription already exists")

	// ErrStateOwnerMismatch is returned when a state of another agent is
	// passed to ChangeState or Subscribe.In.
	ErrStateOwnerMismatch = errors.New("state belongs to another agent")

	// ErrThreadMismatch is returned when agent tables are mutated from
	// outside the agent's working thread after binding.
	ErrThreadMismatch = errors.New("operation is only allowed on the agent's working thread")

	// ErrFilterOnDirectMbox is returned when a delivery filter is set on an
	// MPSC direct mailbox.
	ErrFilterOnDirectMbox = errors.New("delivery filter is not allowed on a direct mailbox")

	// ErrFilterOnSignal is returned when a delivery filter is set for a
	// signal type: signals carry no payload to inspect.
	ErrFilterOnSignal = errors.New("delivery filter is not allowed for a signal")

	// ErrLimitExists is returned when a message limit for the type is
	// already defined.
	ErrLimitExists = errors.New("message limit already defined")

	// ErrLimitAfterBind is returned when a message limit is defined after
	// the agent has been bound to a dispatcher. Limits are fixed at
	// definition time because delivery threads read the table without locks.
	ErrLimitAfterBind = errors.New("message limits must be defined before binding")
)
