package goGrant

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

// gateSink blocks every Emit until the gate channel is closed, simulating a
// slow downstream consumer.
type gateSink struct {
	gate  chan struct{}
	count atomic.Int64
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
	s.count.Add(1)
}

func TestAuditDispatcherDeliversEvents(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "narrow"})
	}
	d.Close()

	if got := sink.count.Load(); got != 5 {
		t.Fatalf("sink received %d events, want 5", got)
	}
}

func TestAuditDispatcherDrainsOnClose(t *testing.T) {
	gate := make(chan struct{})
	sink := &gateSink{gate: gate}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 8; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "derive"})
	}

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	// Close must wait for the buffered backlog, not abandon it.
	select {
	case <-closed:
		t.Fatal("Close returned while the sink was still blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close never finished draining")
	}

	if got := sink.count.Load(); got != 8 {
		t.Fatalf("sink received %d events, want all 8", got)
	}
}

func TestAuditDispatcherDropIfFull(t *testing.T) {
	gate := make(chan struct{})
	sink := &gateSink{gate: gate}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event may be in flight and one buffered; the rest must drop
	// without blocking the caller.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "narrow"})
	}

	if d.Dropped() == 0 {
		t.Fatal("overflow events must be counted as dropped")
	}

	close(gate)
	d.Close()
}

func TestAuditDispatcherEmitAfterClose(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	d.Close()

	// Must neither block nor panic.
	d.Emit(context.Background(), AuditEvent{EventType: "narrow"})
}

func TestAuditDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled config must not build a dispatcher")
	}

	// The nil dispatcher is safe to use.
	d.Emit(context.Background(), AuditEvent{EventType: "narrow"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex

	sink := NewJSONWriterSink(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	}))

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		EventType: "derive",
		ProjectID: "project-1",
		Success:   true,
	})

	mu.Lock()
	line := buf.String()
	mu.Unlock()

	var event AuditEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		t.Fatalf("sink output is not one JSON line: %v", err)
	}
	if event.EventType != "derive" || event.ProjectID != "project-1" || !event.Success {
		t.Fatalf("unexpected event: %+v", event)
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
