package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the caller when the buffer is full.
	DropIfFull bool
}

// Dispatcher relays session and authorization events (issue, login, revoke, denial)
// from the request path to a [Sink] on one worker goroutine. A nil Dispatcher accepts
// and discards events, which is what the engine holds when auditing is off.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// mu guards closed and sends on queue; Close takes it exclusively before
	// closing the queue.
	mu     sync.RWMutex
	closed bool
	queue  chan Event
	idle   chan struct{}

	dropped   atomic.Uint64
	delivered atomic.Uint64
	panicked  atomic.Uint64
}

// NewDispatcher starts the worker, or returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, size),
		idle:       make(chan struct{}),
	}
	go d.work()
	return d
}

func (d *Dispatcher) work() {
	defer close(d.idle)
	for event := range d.queue {
		d.deliver(event)
	}
}

// deliver hands one event to the sink. A panicking sink loses that event only.
func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.panicked.Add(1)
		}
	}()
	d.sink.Emit(context.Background(), event)
	d.delivered.Add(1)
}

// Emit queues event. With DropIfFull a full buffer drops the event; otherwise Emit
// waits for room or for ctx. Events emitted after Close are discarded.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close stops accepting events, delivers everything already queued and returns
// once the worker has exited. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.idle
}

// Dropped returns the number of events lost to a full buffer or a cancelled context.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered returns the number of events the sink accepted.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}

// SinkPanics returns the number of events whose delivery panicked in the sink.
func (d *Dispatcher) SinkPanics() uint64 {
	if d == nil {
		return 0
	}
	return d.panicked.Load()
}
