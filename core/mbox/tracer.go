package mbox

// Tracer observes message-delivery decisions. All methods may be called
// concurrently from any thread; implementations must be cheap — they sit on
// the delivery hot path.
type Tracer interface {
	// Delivered fires once per deliver call with the subscriber fan-out.
	Delivered(mboxID uint64, msgType string, subscribers int)
	// FilterRejected fires when a subscriber's delivery filter drops a message.
	FilterRejected(mboxID uint64, msgType string, subscriberID uint64)
	// LimitOverflow fires when a subscriber's message limit rejects a push.
	LimitOverflow(msgType string, subscriberID uint64, action string)
	// NoHandler fires when a dequeued demand finds no handler for the
	// agent's current state. Not an error.
	NoHandler(msgType string, subscriberID uint64)
}

type nopTracer struct{}

func (nopTracer) Delivered(uint64, string, int)          {}
func (nopTracer) FilterRejected(uint64, string, uint64)  {}
func (nopTracer) LimitOverflow(string, uint64, string)   {}
func (nopTracer) NoHandler(string, uint64)               {}

// NopTracer returns a tracer that observes nothing.
func NopTracer() Tracer { return nopTracer{} }
