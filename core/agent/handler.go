package agent

import (
	"fmt"

	"github.com/codewandler/actr-go/core/msg"
)

// Handler binds a message type to a type-erased event function. Build one
// with [On], [OnSignal], or [OnRequest]; the wrappers carry the message type
// so subscription code knows what to key on.
type Handler struct {
	T          msg.Type
	threadSafe bool
	fn         func(m *msg.Message) (any, error)
}

// ThreadSafe marks the handler as safe for concurrent invocation. The
// canonical dispatchers keep per-agent serial execution either way; the tag
// is stored with the subscription as a hint for dispatchers that can
// exploit it.
func ThreadSafe(h Handler) Handler {
	h.threadSafe = true
	return h
}

// IsThreadSafe reports the handler's thread-safety tag.
func (h Handler) IsThreadSafe() bool { return h.threadSafe }

func payloadAs[T any](m *msg.Message) (T, error) {
	switch v := m.Payload.(type) {
	case T:
		return v, nil
	case *T:
		return *v, nil
	default:
		var zero T
		return zero, fmt.Errorf("payload is %T, handler wants %T", m.Payload, zero)
	}
}

// On creates a handler for messages of type T.
func On[T any](fn func(T) error) Handler {
	return Handler{
		T: msg.TypeFor[T](),
		fn: func(m *msg.Message) (any, error) {
			v, err := payloadAs[T](m)
			if err != nil {
				return nil, err
			}
			return nil, fn(v)
		},
	}
}

// OnSignal creates a handler for the payload-free signal type S.
func OnSignal[S any](fn func() error) Handler {
	return Handler{
		T: msg.TypeFor[S](),
		fn: func(*msg.Message) (any, error) {
			return nil, fn()
		},
	}
}

// OnRequest creates a handler for service requests of type T returning R.
// The returned value resolves the sender's future. When the handler serves
// a plain (non-request) delivery the result is simply discarded.
func OnRequest[T any, R any](fn func(T) (R, error)) Handler {
	return Handler{
		T: msg.TypeFor[T](),
		fn: func(m *msg.Message) (any, error) {
			v, err := payloadAs[T](m)
			if err != nil {
				return nil, err
			}
			return fn(v)
		},
	}
}
