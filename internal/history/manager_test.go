package history_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
	"quizbuilder/internal/history"
)

const window = 20 * time.Millisecond

type persistRecorder struct {
	mu    sync.Mutex
	saved []*domain.Document
	fail  bool
}

func (p *persistRecorder) persist(_ context.Context, doc *domain.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("disk full")
	}
	p.saved = append(p.saved, doc)
	return nil
}

func (p *persistRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saved)
}

func newManager(t *testing.T, p *persistRecorder, limit int) *history.Manager {
	t.Helper()
	m := history.New(history.Options{
		Window:  window,
		Limit:   limit,
		Persist: p.persist,
		Logger:  zaptest.NewLogger(t),
	})
	t.Cleanup(m.Close)
	return m
}

func withText(t *testing.T, doc *domain.Document, text string) *domain.Document {
	t.Helper()
	if len(doc.Screens[0].Sections.Body.Elements) == 0 {
		out, _, _ := editor.AddElement(doc, domain.ElementText, domain.SectionBody, "")
		doc = out
	}
	id := doc.Screens[0].Sections.Body.Elements[0].ID
	out, _ := editor.UpdateElement(doc, id, editor.ElementPatch{Content: &text})
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDebounce_BurstCoalesces(t *testing.T) {
	p := &persistRecorder{}
	m := newManager(t, p, 0)
	doc := domain.NewDocument("quiz")
	m.Reset(doc)

	var commits atomic.Int32
	m.Subscribe(func(history.Entry) { commits.Add(1) })

	for i, s := range []string{"a", "ab", "abc", "abcd", "abcde"} {
		doc = withText(t, doc, s)
		m.Record(doc, "Update element")
		if i == 0 && m.State() != history.PendingCommit {
			t.Fatalf("expected pending state, got %s", m.State())
		}
	}

	waitFor(t, func() bool { return commits.Load() == 1 })
	time.Sleep(3 * window)
	if got := commits.Load(); got != 1 {
		t.Fatalf("expected 1 commit for a burst, got %d", got)
	}
	if len(m.Past()) != 1 || p.count() != 1 {
		t.Fatalf("expected 1 past entry and 1 save, got %d and %d", len(m.Past()), p.count())
	}
	present, _ := m.Present()
	if el := present.Snapshot.Screens[0].Sections.Body.Elements[0]; el.Content != "abcde" {
		t.Errorf("commit captured %q, want the latest document", el.Content)
	}
}

func TestDebounce_SpacedMutationsCommitEach(t *testing.T) {
	p := &persistRecorder{}
	m := newManager(t, p, 0)
	doc := domain.NewDocument("quiz")
	m.Reset(doc)

	var commits atomic.Int32
	m.Subscribe(func(history.Entry) { commits.Add(1) })

	for i, s := range []string{"one", "two", "three"} {
		doc = withText(t, doc, s)
		m.Record(doc, "Update element")
		want := int32(i + 1)
		waitFor(t, func() bool { return commits.Load() == want })
	}
	if len(m.Past()) != 3 {
		t.Fatalf("expected 3 past entries, got %d", len(m.Past()))
	}
}

func TestUndoRedo_BitForBit(t *testing.T) {
	p := &persistRecorder{}
	m := newManager(t, p, 0)
	before := domain.NewDocument("quiz")
	m.Reset(before)

	after := withText(t, before, "changed")
	m.Record(after, "Update element")
	m.Flush(context.Background())
	saves := p.count()

	undone, ok := m.Undo()
	if !ok {
		t.Fatal("expected undo to succeed")
	}
	if !reflect.DeepEqual(undone, before) {
		t.Fatal("undo did not restore the pre-mutation document")
	}

	redone, ok := m.Redo()
	if !ok {
		t.Fatal("expected redo to succeed")
	}
	if !reflect.DeepEqual(redone, after) {
		t.Fatal("redo did not restore the post-mutation document")
	}
	if p.count() != saves {
		t.Errorf("undo/redo must not persist, saves went from %d to %d", saves, p.count())
	}

	if _, ok := m.Redo(); ok {
		t.Error("redo with an empty future must fail")
	}
}

func TestUndo_KeepsViewedScreen(t *testing.T) {
	m := newManager(t, &persistRecorder{}, 0)
	doc, _, _ := editor.AddScreen(domain.NewDocument("quiz"), "Results")
	m.Reset(doc)
	first := doc.Screens[0].ID

	edited, _, desc := editor.AddElement(doc, domain.ElementText, domain.SectionBody, first)
	if desc == "" {
		t.Fatal("AddElement was a no-op")
	}
	m.Record(edited, desc)
	m.Flush(context.Background())

	// Navigation is not an undo step.
	viewed, desc := editor.SetCurrentScreen(edited, first)
	if desc == "" {
		t.Fatal("SetCurrentScreen was a no-op")
	}
	m.SetLive(viewed)

	undone, ok := m.Undo()
	if !ok {
		t.Fatal("expected undo to succeed")
	}
	if undone.CurrentScreen().ID != first {
		t.Errorf("undo jumped to screen %s, want %s", undone.CurrentScreen().ID, first)
	}
	if n := len(undone.Screens[0].Sections.Body.Elements); n != 0 {
		t.Errorf("undo kept %d element(s)", n)
	}

	redone, ok := m.Redo()
	if !ok {
		t.Fatal("expected redo to succeed")
	}
	if redone.CurrentScreen().ID != first {
		t.Errorf("redo jumped to screen %s, want %s", redone.CurrentScreen().ID, first)
	}
}

func TestUndo_ViewedScreenGone(t *testing.T) {
	m := newManager(t, &persistRecorder{}, 0)
	doc := domain.NewDocument("quiz")
	m.Reset(doc)

	added, id, _ := editor.AddScreen(doc, "Results")
	m.Record(added, "Add screen")
	m.Flush(context.Background())
	if added.CurrentScreen().ID != id {
		t.Fatal("AddScreen did not switch to the new screen")
	}

	undone, ok := m.Undo()
	if !ok {
		t.Fatal("expected undo to succeed")
	}
	if len(undone.Screens) != 1 || undone.CurrentScreenIndex != 0 {
		t.Errorf("screens=%d current=%d, want the snapshot's own index", len(undone.Screens), undone.CurrentScreenIndex)
	}
}

func TestUndo_FlushesPendingFirst(t *testing.T) {
	m := newManager(t, &persistRecorder{}, 0)
	before := domain.NewDocument("quiz")
	m.Reset(before)

	m.Record(withText(t, before, "typed"), "Update element")
	undone, ok := m.Undo()
	if !ok || !reflect.DeepEqual(undone, before) {
		t.Fatal("undo should revert the pending edit")
	}
	if m.Pending() {
		t.Error("timer should be cancelled after undo")
	}
}

func TestUndo_EmptyPast(t *testing.T) {
	m := newManager(t, &persistRecorder{}, 0)
	m.Reset(domain.NewDocument("quiz"))
	if _, ok := m.Undo(); ok {
		t.Fatal("undo with an empty past must fail")
	}
}

func TestCommit_UnchangedIsDiscarded(t *testing.T) {
	p := &persistRecorder{}
	m := newManager(t, p, 0)
	doc := domain.NewDocument("quiz")
	m.Reset(doc)

	same := domain.Clone(doc)
	same.LastEdited = time.Now().Add(time.Hour)
	m.Record(same, "Touch")
	m.Flush(context.Background())

	if len(m.Past()) != 0 || p.count() != 0 {
		t.Fatalf("unchanged document should not commit, got %d entries and %d saves", len(m.Past()), p.count())
	}
}

func TestBatch_SingleEntry(t *testing.T) {
	p := &persistRecorder{}
	m := newManager(t, p, 0)
	doc := domain.NewDocument("quiz")
	m.Reset(doc)

	m.StartBatch("")
	m.StartBatch("")
	for _, s := range []string{"x", "xy", "xyz"} {
		doc = withText(t, doc, s)
		m.Record(doc, "Update element")
	}
	if m.Pending() {
		t.Fatal("mutations inside a batch must not arm the timer")
	}
	m.EndBatch(context.Background())
	if len(m.Past()) != 0 {
		t.Fatal("inner batch end must not commit")
	}
	m.EndBatch(context.Background())

	if len(m.Past()) != 1 || p.count() != 1 {
		t.Fatalf("expected 1 entry for the batch, got %d", len(m.Past()))
	}
	if m.State() != history.Idle {
		t.Errorf("expected idle, got %s", m.State())
	}
}

func TestBatch_SameIDCoalesces(t *testing.T) {
	m := newManager(t, &persistRecorder{}, 0)
	doc := domain.NewDocument("quiz")
	m.Reset(doc)

	for _, s := range []string{"drag-1", "drag-2", "drag-3"} {
		m.StartBatch("drag")
		doc = withText(t, doc, s)
		m.Record(doc, "Move element")
		m.EndBatch(context.Background())
	}
	if len(m.Past()) != 1 {
		t.Fatalf("expected batches with one id to share an entry, got %d", len(m.Past()))
	}
	present, _ := m.Present()
	if present.BatchID != "drag" {
		t.Errorf("batch id %q", present.BatchID)
	}
}

func TestLimit_BoundsPast(t *testing.T) {
	m := newManager(t, &persistRecorder{}, 3)
	doc := domain.NewDocument("quiz")
	m.Reset(doc)

	for _, s := range []string{"1", "2", "3", "4", "5"} {
		doc = withText(t, doc, s)
		m.Record(doc, "Update element")
		m.Flush(context.Background())
	}
	if got := len(m.Past()); got != 3 {
		t.Fatalf("expected past bounded at 3, got %d", got)
	}
}

func TestPersistFailure_KeepsJournal(t *testing.T) {
	p := &persistRecorder{fail: true}
	m := newManager(t, p, 0)
	doc := domain.NewDocument("quiz")
	m.Reset(doc)

	m.Record(withText(t, doc, "x"), "Update element")
	m.Flush(context.Background())
	if !m.CanUndo() {
		t.Fatal("a failed persist must not drop the journal entry")
	}
}

func TestRestore_SeedsPast(t *testing.T) {
	m := newManager(t, &persistRecorder{}, 0)
	first := domain.NewDocument("quiz")
	second := withText(t, first, "second")
	third := withText(t, second, "third")

	entries := []history.Entry{
		{ID: "a", Snapshot: first, Description: "Open document"},
		{ID: "b", Snapshot: second, Description: "Update element"},
		{ID: "c", Snapshot: third, Description: "Update element"},
	}
	m.Restore(domain.Clone(third), entries)

	if got := len(m.Past()); got != 2 {
		t.Fatalf("expected 2 past entries, got %d", got)
	}
	if present, _ := m.Present(); present.ID != "c" {
		t.Errorf("matching newest entry should be present, got %q", present.ID)
	}
	undone, ok := m.Undo()
	if !ok || !reflect.DeepEqual(undone, second) {
		t.Fatal("undo should step back into the restored journal")
	}
}
