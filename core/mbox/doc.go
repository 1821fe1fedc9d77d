// Package mbox implements delivery endpoints. A mailbox fans an incoming
// message out to its subscribers, which turn it into execution demands on
// their event queues.
//
// Two kinds exist: shared MPMC mailboxes with an ordered subscriber set, and
// MPSC direct mailboxes owned by a single agent. Named MPMC mailboxes are
// managed by a [Repository], one per environment.
//
// Delivery filters and message limits belong to the subscribing agents, not
// to the mailbox: the mailbox only iterates subscribers in registration
// order and offers the message to each one.
package mbox
