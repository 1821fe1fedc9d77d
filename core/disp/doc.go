// Package disp implements dispatchers: the thread-owning schedulers that
// bind agents to event queues and drive demand execution.
//
// Two canonical dispatchers exist. [OneThread] serves all of its agents
// from a single work thread with priority-aware demand selection — higher
// priority agents run first, FIFO within a priority. [ThreadPool] runs K
// work threads over a shared ready queue with a per-agent activity flag, so
// demands of one agent never execute concurrently even with many workers.
//
// Both guarantee per-agent FIFO and serial execution, and both shut down
// gracefully: pending finish demands still run, pending user demands are
// discarded so limit reservations and service futures are not leaked.
package disp
