package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event names published by the Engine.
const (
	EventDocumentChanged  = "document:changed"
	EventSelectionChanged = "selection:changed"
	EventHistoryCommitted = "history:committed"
	EventDocumentLoaded   = "document:loaded"
)

// DocumentChanged is the payload of EventDocumentChanged.
type DocumentChanged struct {
	DocumentID  string `json:"documentId"`
	Description string `json:"description"`
	CanUndo     bool   `json:"canUndo"`
	CanRedo     bool   `json:"canRedo"`
}

// SelectionChanged is the payload of EventSelectionChanged.
type SelectionChanged struct {
	ElementIDs []string `json:"elementIds"`
	SectionID  string   `json:"sectionId,omitempty"`
}

// HistoryCommitted is the payload of EventHistoryCommitted.
type HistoryCommitted struct {
	DocumentID  string `json:"documentId"`
	EntryID     string `json:"entryId"`
	Description string `json:"description"`
	BatchID     string `json:"batchId,omitempty"`
}

// DocumentLoaded is the payload of EventDocumentLoaded.
type DocumentLoaded struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
}

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples the engine from its listeners
// ─────────────────────────────────────────────────────────────

// EventEmitter publishes engine events. Emit may be called from the history
// timer goroutine and must neither block nor call back into the Engine.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events called name.
func (m *MockEmitter) Named(name string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────
// Broadcaster: fans events out to subscribers
// ─────────────────────────────────────────────────────────────

// Broadcaster is an EventEmitter delivering every event to each subscriber
// channel. A subscriber that falls behind loses events rather than stalling
// the engine.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan EmittedEvent
	next   int
	closed bool
	log    *zap.Logger
}

func NewBroadcaster(log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{subs: map[int]chan EmittedEvent{}, log: log.Named("events")}
}

// Subscribe returns a channel of events and a function that unsubscribes and
// closes it.
func (b *Broadcaster) Subscribe(buffer int) (<-chan EmittedEvent, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan EmittedEvent, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *Broadcaster) Emit(_ context.Context, event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- EmittedEvent{Event: event, Data: data}:
		default:
			b.log.Warn("Dropping event for slow subscriber", zap.String("event", event), zap.Int("subscriber", id))
		}
	}
}

// Close closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
