package msg

import "errors"

var (
	// ErrServiceSkipped resolves a service-request future whose demand was
	// discarded before its handler could run (agent finishing, dispatcher
	// shutdown).
	ErrServiceSkipped = errors.New("service handler was skipped")

	// ErrServiceNotHandled resolves a service-request future when the
	// receiver has no handler for the message in its current state, or the
	// target mailbox has no subscriber.
	ErrServiceNotHandled = errors.New("service request not handled")

	// ErrTooManyServiceHandlers resolves a service-request future sent to a
	// shared mailbox with more than one subscriber.
	ErrTooManyServiceHandlers = errors.New("more than one service handler subscribed")

	// ErrHandlerPanic wraps a panic recovered from an event handler or a
	// lifecycle hook; a service-request future fails with it when its
	// handler panics.
	ErrHandlerPanic = errors.New("service handler panicked")
)
