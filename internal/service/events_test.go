package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"quizbuilder/internal/service"
)

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, service.EventDocumentChanged, service.DocumentChanged{DocumentID: "d1"})
	m.Emit(ctx, service.EventSelectionChanged, nil)
	m.Emit(ctx, service.EventDocumentChanged, nil)

	if len(m.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(m.Events))
	}
	if got := m.Named(service.EventDocumentChanged); len(got) != 2 {
		t.Errorf("Named() = %d events, want 2", len(got))
	}
	if m.Events[1].Event != service.EventSelectionChanged {
		t.Errorf("expected %q, got %q", service.EventSelectionChanged, m.Events[1].Event)
	}
}

// ─────────────────────────────────────────────────────────────
// Broadcaster tests
// ─────────────────────────────────────────────────────────────

func receive(t *testing.T, ch <-chan service.EmittedEvent) service.EmittedEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an event")
	}
	return service.EmittedEvent{}
}

func TestBroadcaster_FansOut(t *testing.T) {
	b := service.NewBroadcaster(zaptest.NewLogger(t))
	defer b.Close()

	a, unsubA := b.Subscribe(4)
	defer unsubA()
	c, unsubC := b.Subscribe(4)
	defer unsubC()

	b.Emit(context.Background(), service.EventDocumentLoaded, service.DocumentLoaded{DocumentID: "d1"})

	for _, ch := range []<-chan service.EmittedEvent{a, c} {
		ev := receive(t, ch)
		if ev.Event != service.EventDocumentLoaded {
			t.Errorf("event = %q", ev.Event)
		}
		if ev.Data.(service.DocumentLoaded).DocumentID != "d1" {
			t.Errorf("payload = %+v", ev.Data)
		}
	}
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := service.NewBroadcaster(zaptest.NewLogger(t))
	defer b.Close()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for range 10 {
			b.Emit(context.Background(), service.EventDocumentChanged, nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}
	if len(ch) != 1 {
		t.Errorf("buffered events = %d, want 1", len(ch))
	}
}

func TestBroadcaster_UnsubscribeAndClose(t *testing.T) {
	b := service.NewBroadcaster(zaptest.NewLogger(t))
	ch, unsub := b.Subscribe(4)
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Error("unsubscribed channel still open")
	}

	other, _ := b.Subscribe(4)
	b.Close()
	if _, ok := <-other; ok {
		t.Error("Close left a subscriber open")
	}
	late, _ := b.Subscribe(4)
	if _, ok := <-late; ok {
		t.Error("subscription after Close is open")
	}
	b.Emit(context.Background(), service.EventDocumentChanged, nil)
}
