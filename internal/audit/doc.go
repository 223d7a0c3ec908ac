// Package audit delivers audit events to a sink without blocking the caller.
//
// [Dispatcher] buffers session issue, login, revoke and authorization-denial events and
// relays them from a single goroutine. A full buffer either drops (and counts) the event
// or blocks the caller until there is room or its context ends. A sink that panics loses
// only the event it was handling. Sinks are provided for channels, JSON lines and zap
// loggers.
//
// The package does not decide which events are emitted. That is the engine's job.
package audit
