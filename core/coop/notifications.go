package coop

import (
	"github.com/codewandler/actr-go/core/mbox"
)

// Reason says why a cooperation is being deregistered.
type Reason int

const (
	// ReasonNormal is a regular, application-requested deregistration.
	ReasonNormal Reason = iota
	// ReasonShutdown is used when the environment stops.
	ReasonShutdown
	// ReasonUnhandledException is used when an agent's exception reaction
	// deregisters its cooperation.
	ReasonUnhandledException

	// ReasonUserBase is the first code available for application-defined
	// reasons.
	ReasonUserBase Reason = 0x1000
)

func (r Reason) String() string {
	switch r {
	case ReasonNormal:
		return "normal"
	case ReasonShutdown:
		return "shutdown"
	case ReasonUnhandledException:
		return "unhandled_exception"
	default:
		return "user_defined"
	}
}

// RegNotificator observes a completed registration.
type RegNotificator func(coopName string)

// DeregNotificator observes a completed deregistration.
type DeregNotificator func(coopName string, reason Reason)

// Registered is the message sent by mailbox-based registration
// notificators. Any agent can subscribe to it.
type Registered struct {
	Coop string
}

// Deregistered is the message sent by mailbox-based deregistration
// notificators.
type Deregistered struct {
	Coop   string
	Reason Reason
}

// NotifyRegistered builds a notificator that posts a [Registered] message
// to mb.
func NotifyRegistered(mb mbox.Mbox) RegNotificator {
	return func(coopName string) {
		mb.Deliver(Registered{Coop: coopName})
	}
}

// NotifyDeregistered builds a notificator that posts a [Deregistered]
// message to mb.
func NotifyDeregistered(mb mbox.Mbox) DeregNotificator {
	return func(coopName string, reason Reason) {
		mb.Deliver(Deregistered{Coop: coopName, Reason: reason})
	}
}
