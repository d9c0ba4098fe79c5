// Package event provides the bounded, ordered, asynchronous pub-sub event
// bus that carries lifecycle events between crewline components.
//
// Producers (the execution engine, provisioner, and supervisor) push Events
// into the Bus's FIFO queue; the Monitor loop drains one event per iteration
// and dispatches it to handlers registered per kind (or via wildcard).
// Delivery is best-effort: a full queue drops the event with a warning
// rather than blocking a producer. A ring buffer of the same bound retains
// recent history for post-hoc inspection regardless of consumption.
//
// Handler failures and panics are isolated per handler: one misbehaving
// listener never stops delivery to the others or the monitor loop.
package event
