package msg

import (
	"github.com/codewandler/actr-go/core/reflector"
)

// Type is the process-wide unique identity of a message payload type.
// Two Type values are equal iff they describe the same Go type, so Type is
// directly usable as a map key.
type Type = *reflector.TypeInfo

// TypeOf returns the message type of the dynamic type of x.
func TypeOf(x any) Type { return reflector.TypeInfoOf(x) }

// TypeFor returns the message type for type parameter T.
func TypeFor[T any]() Type { return reflector.TypeInfoFor[T]() }

// Message carries a payload together with its type identity. One Message
// instance is shared across all receivers of a delivery.
type Message struct {
	T       Type
	Payload any
}

// New wraps payload into a Message. Pointer payloads are unwrapped to their
// element type identity, so New(&X{}) and New(X{}) dispatch identically.
func New(payload any) *Message {
	return &Message{T: TypeOf(payload), Payload: payload}
}

// NewSignal creates a payload-free message of signal type S.
func NewSignal[S any]() *Message {
	t := TypeFor[S]()
	return &Message{T: t}
}

// IsSignal reports whether the message carries no payload.
func (m *Message) IsSignal() bool { return m.T != nil && m.T.Signal }
