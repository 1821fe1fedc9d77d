// Package msg defines the message model of the runtime: typed payload
// carriers, interned message-type identities, and the futures that carry
// service-request results back to their senders.
//
// A message is a payload value plus its [Type]. The same *Message instance
// is shared by every receiver of a delivery; the runtime never mutates the
// payload once the message has been enqueued, and handlers must treat it as
// read-only.
//
// Signals are message types with an empty payload (zero-size struct types).
// They carry no data; only their type matters.
package msg
