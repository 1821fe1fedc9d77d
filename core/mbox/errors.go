package mbox

import "errors"

var (
	// ErrNameCollision is returned by Repository.CreateNamed when the name
	// is already taken within the environment.
	ErrNameCollision = errors.New("mailbox name already exists")

	// ErrDirectSubscription is returned when subscribing to a direct
	// mailbox: its single subscriber is fixed at creation.
	ErrDirectSubscription = errors.New("direct mailbox accepts no subscriptions")
)
