// Package history keeps the undo/redo journal of a document. Mutations are
// recorded as they happen and committed after a debounce window, or once
// when an explicit batch ends, so a burst of edits becomes one undo step.
package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizbuilder/internal/domain"
)

// Defaults.
const (
	DefaultWindow = 300 * time.Millisecond
	DefaultLimit  = 100
)

// State is the journal state machine position.
type State int

const (
	Idle State = iota
	PendingCommit
	Batching
	Undoing
	Redoing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingCommit:
		return "pending"
	case Batching:
		return "batching"
	case Undoing:
		return "undoing"
	case Redoing:
		return "redoing"
	}
	return "unknown"
}

// Entry is one committed, restorable snapshot.
type Entry struct {
	ID          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	Snapshot    *domain.Document `json:"snapshot"`
	Description string           `json:"description"`
	BatchID     string           `json:"batchId,omitempty"`
}

// PersistFunc stores a committed snapshot.
type PersistFunc func(ctx context.Context, doc *domain.Document) error

// Observer receives journal activity, typically for metrics.
type Observer interface {
	Committed(depth int)
	Discarded()
	Undone()
	Redone()
	PersistFailed()
}

type nopObserver struct{}

func (nopObserver) Committed(int)  {}
func (nopObserver) Discarded()     {}
func (nopObserver) Undone()        {}
func (nopObserver) Redone()        {}
func (nopObserver) PersistFailed() {}

// Options configures a Manager.
type Options struct {
	Window   time.Duration
	Limit    int
	Persist  PersistFunc
	Observer Observer
	Logger   *zap.Logger
}

// Manager is the debounced, batchable undo/redo journal.
type Manager struct {
	// commitMu serialises commit and persist so commits land in the order
	// their windows expire.
	commitMu sync.Mutex

	mu         sync.Mutex
	live       *domain.Document
	liveDesc   string
	dirty      bool
	past       []Entry
	present    *Entry
	future     []Entry
	lastPrint  string
	batchDepth int
	batchID    string
	state      State
	subs       []func(Entry)

	limit    int
	persist  PersistFunc
	observer Observer
	log      *zap.Logger
	sched    *scheduler
}

// New creates a Manager. Zero options fall back to defaults.
func New(opts Options) *Manager {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := &Manager{
		limit:    opts.Limit,
		persist:  opts.Persist,
		observer: opts.Observer,
		log:      opts.Logger,
	}
	m.sched = newScheduler(opts.Window, func() { _ = m.commit(context.Background()) })
	return m
}

// Reset seeds the journal with doc as the present entry, dropping any past,
// future and pending work. Used when a document is created or loaded.
func (m *Manager) Reset(doc *domain.Document) {
	m.sched.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	snap := domain.Clone(doc)
	m.live = doc
	m.liveDesc = ""
	m.dirty = false
	m.past = nil
	m.future = nil
	m.present = &Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Snapshot:    snap,
		Description: "Open document",
	}
	m.lastPrint = fingerprint(snap)
	m.batchDepth = 0
	m.batchID = ""
	m.state = Idle
}

// Restore resets the journal to doc and seeds the past with persisted
// entries, oldest first. When the newest entry matches doc it becomes the
// present entry instead.
func (m *Manager) Restore(doc *domain.Document, entries []Entry) {
	m.Reset(doc)
	if len(entries) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	past := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Snapshot != nil {
			past = append(past, e)
		}
	}
	if n := len(past); n > 0 && fingerprint(past[n-1].Snapshot) == m.lastPrint {
		last := past[n-1]
		m.present = &last
		past = past[:n-1]
	}
	if excess := len(past) - m.limit; excess > 0 {
		past = past[excess:]
	}
	m.past = past
}

// Record registers a new live document produced by a mutation. Outside a
// batch it re-arms the debounce timer.
func (m *Manager) Record(doc *domain.Document, description string) {
	m.mu.Lock()
	if m.state == Undoing || m.state == Redoing {
		m.mu.Unlock()
		return
	}
	m.live = doc
	m.liveDesc = description
	m.dirty = true
	batching := m.batchDepth > 0
	if !batching {
		m.state = PendingCommit
	}
	m.mu.Unlock()

	if !batching {
		m.sched.arm()
	}
}

// SetLive replaces the live document without recording a change, e.g. for
// navigation between screens.
func (m *Manager) SetLive(doc *domain.Document) {
	m.mu.Lock()
	m.live = doc
	m.mu.Unlock()
}

// StartBatch opens a batch. Pending commits are deferred until the
// outermost batch ends. An empty batchID gets a generated one; entries
// committed under the same batch id as the present entry coalesce into it.
func (m *Manager) StartBatch(batchID string) string {
	m.sched.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchDepth++
	if m.batchDepth == 1 {
		if batchID == "" {
			batchID = uuid.NewString()
		}
		m.batchID = batchID
		m.state = Batching
	}
	return m.batchID
}

// EndBatch closes a batch. When the outermost batch closes the pending
// document is evaluated once and committed if it changed.
func (m *Manager) EndBatch(ctx context.Context) {
	m.mu.Lock()
	if m.batchDepth == 0 {
		m.mu.Unlock()
		return
	}
	m.batchDepth--
	closing := m.batchDepth == 0
	m.mu.Unlock()

	if closing {
		_ = m.commit(ctx)
	}
}

// Flush synchronously commits and persists any pending work, closing open
// batches. Call before swapping the live document. The error is the persist
// failure of this commit, if any; the journal keeps the entry either way.
func (m *Manager) Flush(ctx context.Context) error {
	m.sched.cancel()
	m.mu.Lock()
	m.batchDepth = 0
	m.mu.Unlock()
	return m.commit(ctx)
}

// Close drops the pending timer without committing.
func (m *Manager) Close() {
	m.sched.cancel()
}

func (m *Manager) commit(ctx context.Context) error {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	m.mu.Lock()
	if !m.dirty || m.batchDepth > 0 {
		if m.batchDepth == 0 {
			m.state = Idle
			m.batchID = ""
		}
		m.mu.Unlock()
		return nil
	}
	doc := m.live
	desc := m.liveDesc
	batchID := m.batchID
	m.dirty = false
	m.batchID = ""
	m.state = Idle

	fp := fingerprint(doc)
	if fp == m.lastPrint {
		m.mu.Unlock()
		m.observer.Discarded()
		m.log.Debug("Discarded unchanged commit", zap.String("description", desc))
		return nil
	}

	entry := Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Snapshot:    domain.Clone(doc),
		Description: desc,
		BatchID:     batchID,
	}
	if m.present != nil && batchID != "" && m.present.BatchID == batchID {
		entry.ID = m.present.ID
		m.present = &entry
	} else {
		if m.present != nil {
			m.past = append(m.past, *m.present)
			if excess := len(m.past) - m.limit; excess > 0 {
				m.past = m.past[excess:]
			}
		}
		m.present = &entry
	}
	m.future = nil
	m.lastPrint = fp
	depth := len(m.past)
	subs := append([]func(Entry){}, m.subs...)
	m.mu.Unlock()

	m.observer.Committed(depth)
	m.log.Debug("Committed history entry",
		zap.String("id", entry.ID),
		zap.String("description", entry.Description),
		zap.Int("depth", depth))

	var err error
	if m.persist != nil {
		if err = m.persist(ctx, entry.Snapshot); err != nil {
			m.observer.PersistFailed()
			m.log.Error("Unable to persist document", zap.String("document", entry.Snapshot.ID), zap.Error(err))
		}
	}
	for _, fn := range subs {
		fn(entry)
	}
	return err
}

// Undo restores the previous entry. Pending work is committed first so the
// latest edit is the one undone. Undo never persists.
func (m *Manager) Undo() (*domain.Document, bool) {
	m.sched.cancel()
	_ = m.commit(context.Background())

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.past) == 0 || m.present == nil || m.batchDepth > 0 {
		return nil, false
	}
	m.state = Undoing
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append([]Entry{*m.present}, m.future...)
	m.present = &prev
	doc := m.restoreLocked(prev)
	m.state = Idle
	m.observer.Undone()
	return doc, true
}

// Redo re-applies the entry most recently undone.
func (m *Manager) Redo() (*domain.Document, bool) {
	m.sched.cancel()
	_ = m.commit(context.Background())

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.future) == 0 || m.present == nil || m.batchDepth > 0 {
		return nil, false
	}
	m.state = Redoing
	next := m.future[0]
	m.future = m.future[1:]
	m.past = append(m.past, *m.present)
	m.present = &next
	doc := m.restoreLocked(next)
	m.state = Idle
	m.observer.Redone()
	return doc, true
}

// restoreLocked makes a copy of e the live document. The screen being
// viewed stays current when the restored document still has it.
func (m *Manager) restoreLocked(e Entry) *domain.Document {
	doc := domain.Clone(e.Snapshot)
	if m.live != nil {
		if cur := m.live.CurrentScreen(); cur != nil {
			if _, idx, ok := doc.ScreenByID(cur.ID); ok {
				doc.CurrentScreenIndex = idx
			}
		}
	}
	m.live = doc
	m.liveDesc = ""
	m.dirty = false
	m.lastPrint = fingerprint(e.Snapshot)
	return doc
}

// Subscribe registers fn to be called after every commit.
func (m *Manager) Subscribe(fn func(Entry)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

// CanUndo reports whether there is a past entry.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

// CanRedo reports whether there is a future entry.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

// State returns the current state machine position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending reports whether a debounced commit is armed.
func (m *Manager) Pending() bool {
	return m.sched.pending()
}

// Dirty reports whether recorded changes await a commit.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Present returns the present entry.
func (m *Manager) Present() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.present == nil {
		return Entry{}, false
	}
	return *m.present, true
}

// Past returns the past entries, oldest first.
func (m *Manager) Past() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.past...)
}

// Lineage returns the ids of the past entries and the present entry, oldest
// first: the undo chain a commit extends.
func (m *Manager) Lineage() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.past)+1)
	for _, e := range m.past {
		ids = append(ids, e.ID)
	}
	if m.present != nil {
		ids = append(ids, m.present.ID)
	}
	return ids
}

// Future returns the redo entries, next first.
func (m *Manager) Future() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.future...)
}

// fingerprint is the serialized form used to detect no-op commits. The
// last-edited timestamp is excluded.
func fingerprint(doc *domain.Document) string {
	if doc == nil {
		return ""
	}
	cp := *doc
	cp.LastEdited = time.Time{}
	data, err := json.Marshal(&cp)
	if err != nil {
		return uuid.NewString()
	}
	return string(data)
}
