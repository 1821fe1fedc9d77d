package coop

import "errors"

var (
	// ErrNameCollision is returned when a cooperation name is already
	// registered.
	ErrNameCollision = errors.New("cooperation name already registered")

	// ErrParentMissing is returned when the named parent cooperation is
	// not registered, or is already deregistering.
	ErrParentMissing = errors.New("parent cooperation is not available")

	// ErrEmptyCoop is returned when registering a cooperation without
	// agents.
	ErrEmptyCoop = errors.New("cooperation has no agents")

	// ErrUnknownCoop is returned when deregistering a name that is not
	// registered.
	ErrUnknownCoop = errors.New("cooperation is not registered")
)
