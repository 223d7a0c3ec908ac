package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	if d := NewDispatcher(Config{Enabled: false}, NoOpSink{}); d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	var d *Dispatcher
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16, DropIfFull: false}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "session_issued", Success: true})
	}
	d.Close()

	got := 0
	for {
		select {
		case <-sink.Events():
			got++
			continue
		default:
		}
		break
	}
	if got != 5 || d.Delivered() != 5 {
		t.Fatalf("expected 5 delivered events, got %d (counter %d)", got, d.Delivered())
	}

	d.Emit(context.Background(), Event{EventType: "after_close"})
	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event after close: %+v", ev)
	default:
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, Event) { <-s.release }

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: "verify"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a full buffer")
	}
	close(sink.release)
	d.Close()
}

type panicSink struct {
	next *ChannelSink
}

func (s panicSink) Emit(ctx context.Context, event Event) {
	if event.EventType == "bad" {
		panic("sink failure")
	}
	s.next.Emit(ctx, event)
}

func TestDispatcherSurvivesSinkPanic(t *testing.T) {
	out := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, panicSink{next: out})

	d.Emit(context.Background(), Event{EventType: "bad"})
	d.Emit(context.Background(), Event{EventType: "session_revoked"})
	d.Close()

	if d.SinkPanics() != 1 || d.Delivered() != 1 {
		t.Fatalf("panics/delivered = %d/%d, want 1/1", d.SinkPanics(), d.Delivered())
	}
	if ev := <-out.Events(); ev.EventType != "session_revoked" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestDispatcherBlockingEmitHonoursContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	// one event held by the sink, one filling the buffer
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Emit(context.Background(), Event{EventType: "login_success"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{EventType: "login_failure"})
	if d.Dropped() != 1 {
		t.Fatalf("expected the cancelled emit to count as dropped, got %d", d.Dropped())
	}

	close(sink.release)
	d.Close()
	if d.Delivered() != 2 {
		t.Fatalf("expected 2 delivered events, got %d", d.Delivered())
	}
}

func TestDispatcherConcurrentEmitAndClose(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8, DropIfFull: true}, NoOpSink{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				d.Emit(context.Background(), Event{EventType: "session_issued"})
			}
		}()
	}
	d.Close()
	d.Close()
	wg.Wait()

	if d.Delivered()+d.Dropped() > 8*200 {
		t.Fatalf("accounted for more events than emitted: %d delivered, %d dropped", d.Delivered(), d.Dropped())
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "session_revoked", SessionID: "s1", Success: true})
	sink.Emit(context.Background(), Event{EventType: "login", Success: false, Error: "invalid_credentials"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventType != "session_revoked" || ev.SessionID != "s1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestZapSinkLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), Event{
		Timestamp: time.Now(),
		EventType: "session_issued",
		UserID:    "u1",
		SessionID: "s1",
		Success:   true,
		Metadata:  map[string]string{"method": "login"},
	})
	sink.Emit(context.Background(), Event{EventType: "authorization_denied", ActorID: "u2", Error: "unauthorized"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[0].Message != "session_issued" {
		t.Fatalf("unexpected first entry %+v", entries[0].Entry)
	}
	if entries[0].ContextMap()["meta.method"] != "login" {
		t.Fatalf("metadata not logged: %v", entries[0].ContextMap())
	}
	if entries[1].Level != zap.WarnLevel {
		t.Fatalf("expected failure at warn, got %v", entries[1].Level)
	}
	if entries[0].LoggerName != "audit" {
		t.Fatalf("expected named logger, got %q", entries[0].LoggerName)
	}
}
