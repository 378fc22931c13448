package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
	"quizbuilder/internal/history"
	"quizbuilder/internal/markup"
	"quizbuilder/internal/storage"
)

// DefaultDocumentName names documents created without a name.
const DefaultDocumentName = "Untitled quiz"

// ─────────────────────────────────────────────────────────────
// Engine: the single owner of the live document
// ─────────────────────────────────────────────────────────────

// EngineOptions configures an Engine. Store and Journal may be nil, in
// which case nothing is persisted.
type EngineOptions struct {
	Store    domain.DocumentStore
	Journal  storage.Journal
	Emitter  EventEmitter
	Window   time.Duration
	Limit    int
	Observer history.Observer
	Logger   *zap.Logger
}

// Engine holds the document, selection, clipboard and history of one
// editing session. Every method is serialised, so collaborators never see
// two mutations interleave. Documents handed out are read-only snapshots.
type Engine struct {
	mu   sync.Mutex
	doc  *domain.Document
	sel  editor.Selection
	clip editor.Clipboard
	hist *history.Manager

	store   domain.DocumentStore
	journal storage.Journal
	emitter EventEmitter
	parser  *markup.Parser
	log     *zap.Logger
}

// NewEngine creates an Engine holding a fresh, unsaved document.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Emitter == nil {
		opts.Emitter = nopEmitter{}
	}
	log := opts.Logger.Named("engine")
	e := &Engine{
		store:   opts.Store,
		journal: opts.Journal,
		emitter: opts.Emitter,
		parser:  markup.NewParser(opts.Logger),
		log:     log,
	}
	e.hist = history.New(history.Options{
		Window:   opts.Window,
		Limit:    opts.Limit,
		Persist:  e.persist,
		Observer: opts.Observer,
		Logger:   opts.Logger.Named("history"),
	})
	e.hist.Subscribe(e.onCommit)

	e.doc = domain.NewDocument(DefaultDocumentName)
	e.hist.Reset(e.doc)
	return e
}

// persist stores a committed snapshot. The timestamp is stamped on a copy
// so the journal snapshot stays identical to what undo restores.
func (e *Engine) persist(ctx context.Context, doc *domain.Document) error {
	if e.store == nil {
		return nil
	}
	cp := *doc
	cp.LastEdited = time.Now().UTC()
	return e.store.Save(ctx, &cp)
}

// onCommit runs on the commit path; it must not take e.mu. Undo and redo
// wait for the commit path, so the lineage read here is the one entry ends.
func (e *Engine) onCommit(entry history.Entry) {
	docID := entry.Snapshot.ID
	if e.journal != nil {
		if err := e.journal.Append(context.Background(), docID, entry, e.hist.Lineage()); err != nil {
			e.log.Warn("Unable to journal history entry", zap.String("document", docID), zap.Error(err))
		}
	}
	e.emitter.Emit(context.Background(), EventHistoryCommitted, HistoryCommitted{
		DocumentID:  docID,
		EntryID:     entry.ID,
		Description: entry.Description,
		BatchID:     entry.BatchID,
	})
}

type pendingEvent struct {
	name string
	data any
}

func (e *Engine) emit(events []pendingEvent) {
	for _, ev := range events {
		e.emitter.Emit(context.Background(), ev.name, ev.data)
	}
}

func (e *Engine) selectionEventLocked() pendingEvent {
	return pendingEvent{EventSelectionChanged, SelectionChanged{ElementIDs: e.sel.IDs(), SectionID: e.sel.SectionID}}
}

func (e *Engine) changedEventLocked(desc string) pendingEvent {
	return pendingEvent{EventDocumentChanged, DocumentChanged{
		DocumentID:  e.doc.ID,
		Description: desc,
		CanUndo:     e.canUndo(),
		CanRedo:     e.hist.CanRedo(),
	}}
}

func sameSelection(a, b editor.Selection) bool {
	return a.SectionID == b.SectionID && slices.Equal(a.ElementIDs, b.ElementIDs)
}

func currentScreenID(doc *domain.Document) string {
	if scr := doc.CurrentScreen(); scr != nil {
		return scr.ID
	}
	return ""
}

// mutate applies fn to the live document and records the result. When the
// document changed, after may adjust the selection. Changing the current
// screen clears the selection.
func (e *Engine) mutate(fn func(*domain.Document) (*domain.Document, string), after func(*editor.Selection)) bool {
	e.mu.Lock()
	next, desc := fn(e.doc)
	if desc == "" || next == nil || next == e.doc {
		e.mu.Unlock()
		return false
	}

	before := editor.Selection{ElementIDs: e.sel.IDs(), SectionID: e.sel.SectionID}
	screenBefore := currentScreenID(e.doc)
	e.doc = next
	if currentScreenID(next) != screenBefore {
		e.sel.Clear()
	} else {
		e.sel.Prune(next)
		if after != nil {
			after(&e.sel)
		}
	}
	e.hist.Record(next, desc)

	events := []pendingEvent{e.changedEventLocked(desc)}
	if !sameSelection(before, e.sel) {
		events = append(events, e.selectionEventLocked())
	}
	e.mu.Unlock()

	e.log.Debug("Applied mutation", zap.String("description", desc))
	e.emit(events)
	return true
}

// ── Queries ────────────────────────────────────────────────

// Document returns the live document. It must not be modified.
func (e *Engine) Document() *domain.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// DocumentID returns the id of the live document.
func (e *Engine) DocumentID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.ID
}

// Selection returns a copy of the current selection.
func (e *Engine) Selection() editor.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return editor.Selection{ElementIDs: e.sel.IDs(), SectionID: e.sel.SectionID}
}

// Clipboard returns the number of copied elements.
func (e *Engine) Clipboard() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.clip)
}

// ── Elements ───────────────────────────────────────────────

// AddElement appends a default element of type t to a section and selects
// it. An empty screenID targets the current screen. It returns the new id,
// or "" when nothing was added.
func (e *Engine) AddElement(t domain.ElementType, sectionID, screenID string) string {
	var id string
	e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		out, newID, desc := editor.AddElement(doc, t, sectionID, screenID)
		id = newID
		return out, desc
	}, func(sel *editor.Selection) {
		if id != "" {
			sel.Set([]string{id})
		}
	})
	return id
}

func (e *Engine) UpdateElement(id string, patch editor.ElementPatch) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.UpdateElement(doc, id, patch)
	}, nil)
}

func (e *Engine) RemoveElement(id string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.RemoveElement(doc, id)
	}, nil)
}

// RemoveSelectedElements deletes every selected element.
func (e *Engine) RemoveSelectedElements() bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.RemoveElements(doc, e.sel.IDs())
	}, nil)
}

func (e *Engine) MoveElement(id, targetSectionID string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.MoveElement(doc, id, targetSectionID)
	}, nil)
}

func (e *Engine) ReorderElement(id, direction string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.ReorderElement(doc, id, direction)
	}, nil)
}

// GroupSelectedElements wraps the selected elements in a new group and
// selects it. It returns the group id or "".
func (e *Engine) GroupSelectedElements() string {
	var groupID string
	e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		out, id, desc := editor.GroupElements(doc, e.sel.IDs())
		groupID = id
		return out, desc
	}, func(sel *editor.Selection) {
		sel.Set([]string{groupID})
	})
	return groupID
}

// UngroupElements dissolves a group and selects its former children.
func (e *Engine) UngroupElements(groupID string) bool {
	var released []string
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		out, ids, desc := editor.UngroupElement(doc, groupID)
		released = ids
		return out, desc
	}, func(sel *editor.Selection) {
		sel.Set(released)
	})
}

// CopySelectedElements copies the selection to the clipboard and returns
// the number of copied elements. An empty selection leaves the clipboard
// untouched.
func (e *Engine) CopySelectedElements() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	clip := editor.Copy(e.doc, e.sel.IDs())
	if len(clip) == 0 {
		return 0
	}
	e.clip = clip
	return len(clip)
}

// PasteElements inserts the clipboard into the current screen and selects
// the pasted elements. Empty targets fall back to the section of the first
// copied element.
func (e *Engine) PasteElements(sectionID, groupID string) []string {
	var pasted []string
	e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		out, ids, desc := editor.Paste(doc, e.clip, "", sectionID, groupID)
		pasted = ids
		return out, desc
	}, func(sel *editor.Selection) {
		sel.Set(pasted)
	})
	return pasted
}

// ── Themes and style classes ───────────────────────────────

func (e *Engine) ApplyThemeToElements(opts editor.ThemeOptions) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.ApplyThemeToElements(doc, opts)
	}, nil)
}

func (e *Engine) SetActiveTheme(themeID string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.SetActiveTheme(doc, themeID)
	}, nil)
}

func (e *Engine) ApplyStyleClass(ids []string, classID string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.ApplyStyleClass(doc, ids, classID)
	}, nil)
}

func (e *Engine) RemoveStyleClass(ids []string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.RemoveStyleClass(doc, ids)
	}, nil)
}

func (e *Engine) AddStyleClass(name string, t domain.ElementType, styles domain.Style) string {
	var classID string
	e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		out, id, desc := editor.AddStyleClass(doc, name, t, styles)
		classID = id
		return out, desc
	}, nil)
	return classID
}

func (e *Engine) UpdateStyleClass(classID string, styles domain.Style) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.UpdateStyleClass(doc, classID, styles)
	}, nil)
}

func (e *Engine) DeleteStyleClass(classID string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.DeleteStyleClass(doc, classID)
	}, nil)
}

// ── Screens and sections ───────────────────────────────────

func (e *Engine) AddScreen(name string) string {
	var screenID string
	e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		out, id, desc := editor.AddScreen(doc, name)
		screenID = id
		return out, desc
	}, nil)
	return screenID
}

func (e *Engine) RemoveScreen(screenID string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.RemoveScreen(doc, screenID)
	}, nil)
}

func (e *Engine) RenameScreen(screenID, name string) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.RenameScreen(doc, screenID, name)
	}, nil)
}

func (e *Engine) DuplicateScreen(screenID string) string {
	var copyID string
	e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		out, id, desc := editor.DuplicateScreen(doc, screenID)
		copyID = id
		return out, desc
	}, nil)
	return copyID
}

// SetCurrentScreen navigates to another screen. Navigation clears the
// selection and is not an undo step of its own.
func (e *Engine) SetCurrentScreen(screenID string) bool {
	e.mu.Lock()
	next, desc := editor.SetCurrentScreen(e.doc, screenID)
	if desc == "" {
		e.mu.Unlock()
		return false
	}
	e.doc = next
	e.hist.SetLive(next)
	hadSelection := !e.sel.Empty()
	e.sel.Clear()
	events := []pendingEvent{e.changedEventLocked(desc)}
	if hadSelection {
		events = append(events, e.selectionEventLocked())
	}
	e.mu.Unlock()

	e.emit(events)
	return true
}

func (e *Engine) SetSectionEnabled(screenID, sectionID string, enabled bool) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.SetSectionEnabled(doc, screenID, sectionID, enabled)
	}, nil)
}

func (e *Engine) UpdateSectionLayout(screenID, sectionID string, layout domain.Layout) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.UpdateSectionLayout(doc, screenID, sectionID, layout)
	}, nil)
}

func (e *Engine) UpdateSectionStyles(screenID, sectionID string, styles domain.Style) bool {
	return e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.UpdateSectionStyles(doc, screenID, sectionID, styles)
	}, nil)
}

// ── Selection ──────────────────────────────────────────────

// SelectElement applies a click on id. Without multi the outermost
// container of id is selected; with multi a selected container drills down
// one level, otherwise id toggles.
func (e *Engine) SelectElement(id string, multi bool) bool {
	e.mu.Lock()
	changed := e.sel.SelectElement(e.doc, id, multi)
	var events []pendingEvent
	if changed {
		events = append(events, e.selectionEventLocked())
	}
	e.mu.Unlock()
	e.emit(events)
	return changed
}

// SelectSection selects an enabled section of the current screen, clearing
// the element selection. An empty id clears the section selection.
func (e *Engine) SelectSection(sectionID string) bool {
	e.mu.Lock()
	if sectionID != "" {
		scr := e.doc.CurrentScreen()
		if scr == nil {
			e.mu.Unlock()
			return false
		}
		if sec, ok := scr.Sections.Get(sectionID); !ok || !sec.Enabled {
			e.mu.Unlock()
			return false
		}
	}
	before := editor.Selection{ElementIDs: e.sel.IDs(), SectionID: e.sel.SectionID}
	e.sel.SelectSection(sectionID)
	var events []pendingEvent
	if !sameSelection(before, e.sel) {
		events = append(events, e.selectionEventLocked())
	}
	e.mu.Unlock()
	e.emit(events)
	return len(events) > 0
}

// ClearSelection drops every selection.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	had := !e.sel.Empty()
	e.sel.Clear()
	var events []pendingEvent
	if had {
		events = append(events, e.selectionEventLocked())
	}
	e.mu.Unlock()
	e.emit(events)
}

// ── History ────────────────────────────────────────────────

// canUndo counts uncommitted work, since Undo commits it first.
func (e *Engine) canUndo() bool {
	return e.hist.CanUndo() || e.hist.Dirty()
}

func (e *Engine) CanUndo() bool { return e.canUndo() }
func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

func (e *Engine) Undo() bool { return e.travel(e.hist.Undo, "Undo") }
func (e *Engine) Redo() bool { return e.travel(e.hist.Redo, "Redo") }

func (e *Engine) travel(step func() (*domain.Document, bool), desc string) bool {
	e.mu.Lock()
	doc, ok := step()
	if !ok {
		e.mu.Unlock()
		return false
	}
	before := editor.Selection{ElementIDs: e.sel.IDs(), SectionID: e.sel.SectionID}
	screenBefore := currentScreenID(e.doc)
	e.doc = doc
	if currentScreenID(doc) != screenBefore {
		e.sel.Clear()
	} else {
		e.sel.Prune(doc)
	}
	events := []pendingEvent{e.changedEventLocked(desc)}
	if !sameSelection(before, e.sel) {
		events = append(events, e.selectionEventLocked())
	}
	e.mu.Unlock()
	e.emit(events)
	return true
}

// StartHistoryBatch opens a history batch. Mutations until the matching
// EndHistoryBatch become one undo step. It returns the batch id.
func (e *Engine) StartHistoryBatch(batchID string) string {
	return e.hist.StartBatch(batchID)
}

// EndHistoryBatch closes a history batch, committing it when outermost.
func (e *Engine) EndHistoryBatch(ctx context.Context) {
	e.hist.EndBatch(ctx)
}

// HistoryView describes the journal around the present entry.
type HistoryView struct {
	Past    []history.Entry `json:"past"`
	Present history.Entry   `json:"present"`
	Future  []history.Entry `json:"future"`
	State   string          `json:"state"`
}

// History returns the journal without snapshots.
func (e *Engine) History() HistoryView {
	strip := func(entries []history.Entry) []history.Entry {
		for i := range entries {
			entries[i].Snapshot = nil
		}
		return entries
	}
	present, _ := e.hist.Present()
	present.Snapshot = nil
	return HistoryView{
		Past:    strip(e.hist.Past()),
		Present: present,
		Future:  strip(e.hist.Future()),
		State:   e.hist.State().String(),
	}
}

// ── Markup ─────────────────────────────────────────────────

// Markup projects a screen of the live document. An empty screenID selects
// the current screen.
func (e *Engine) Markup(screenID string) (markup.Projection, error) {
	e.mu.Lock()
	doc := e.doc
	e.mu.Unlock()
	return markup.Generate(doc, screenID)
}

// ApplyMarkup reads an edited projection back into the document as one
// undo step and returns the number of elements changed.
func (e *Engine) ApplyMarkup(ctx context.Context, markupText, stylesheet string) int {
	deltas := e.parser.Parse(markupText, stylesheet)

	e.mu.Lock()
	next, n := markup.Apply(e.doc, deltas)
	if n == 0 {
		e.mu.Unlock()
		return 0
	}
	desc := fmt.Sprintf("Edit markup (%d elements)", n)
	e.hist.StartBatch("")
	e.doc = next
	e.sel.Prune(next)
	e.hist.Record(next, desc)
	e.hist.EndBatch(ctx)
	events := []pendingEvent{e.changedEventLocked(desc)}
	e.mu.Unlock()

	e.emit(events)
	return n
}

// ── Lifecycle ──────────────────────────────────────────────

// New flushes pending work, then creates, saves and opens an empty
// document. It returns nil when the document cannot be saved.
func (e *Engine) New(ctx context.Context, name string) *domain.Document {
	if name == "" {
		name = DefaultDocumentName
	}
	doc := domain.NewDocument(name)

	e.mu.Lock()
	if err := e.hist.Flush(ctx); err != nil {
		e.log.Warn("Pending work not persisted before switching documents", zap.Error(err))
	}
	if e.store != nil {
		if err := e.store.Save(ctx, doc); err != nil {
			e.mu.Unlock()
			e.log.Error("Unable to create document", zap.String("name", name), zap.Error(err))
			return nil
		}
	}
	events := e.openLocked(doc, nil)
	e.mu.Unlock()

	e.emit(events)
	return doc
}

// Load flushes pending work and opens the stored document id together with
// its persisted journal.
func (e *Engine) Load(ctx context.Context, id string) bool {
	if e.store == nil {
		return false
	}
	e.mu.Lock()
	if err := e.hist.Flush(ctx); err != nil {
		e.log.Warn("Pending work not persisted before switching documents", zap.Error(err))
	}
	doc, err := e.store.Load(ctx, id)
	if err != nil {
		e.mu.Unlock()
		e.log.Error("Unable to load document", zap.String("document", id), zap.Error(err))
		return false
	}
	var entries []history.Entry
	if e.journal != nil {
		if entries, err = e.journal.Entries(ctx, id); err != nil {
			e.log.Warn("Unable to load journal", zap.String("document", id), zap.Error(err))
		}
	}
	events := e.openLocked(doc, entries)
	e.mu.Unlock()

	e.emit(events)
	return true
}

func (e *Engine) openLocked(doc *domain.Document, entries []history.Entry) []pendingEvent {
	e.doc = doc
	e.sel.Clear()
	e.hist.Restore(doc, entries)
	return []pendingEvent{
		{EventDocumentLoaded, DocumentLoaded{DocumentID: doc.ID, Name: doc.Name}},
		e.selectionEventLocked(),
		e.changedEventLocked("Open document"),
	}
}

// Rename renames the live document and persists it immediately.
func (e *Engine) Rename(ctx context.Context, name string) bool {
	if !e.mutate(func(doc *domain.Document) (*domain.Document, string) {
		return editor.RenameDocument(doc, name)
	}, nil) {
		return false
	}
	if err := e.hist.Flush(ctx); err != nil {
		e.log.Error("Unable to persist rename", zap.Error(err))
		return false
	}
	return true
}

// Discard drops the live document without persisting pending work when its
// id is id, and opens a new empty document in its place. Used before the
// stored copy is deleted.
func (e *Engine) Discard(ctx context.Context, id string) bool {
	e.mu.Lock()
	if e.doc.ID != id {
		e.mu.Unlock()
		return false
	}
	doc := domain.NewDocument(DefaultDocumentName)
	e.hist.Reset(doc)
	if e.store != nil {
		if err := e.store.Save(ctx, doc); err != nil {
			e.log.Warn("Unable to save replacement document", zap.Error(err))
		}
	}
	events := e.openLocked(doc, nil)
	e.mu.Unlock()

	e.emit(events)
	return true
}

// Flush commits and persists pending work now.
func (e *Engine) Flush(ctx context.Context) error {
	return e.hist.Flush(ctx)
}

// Close flushes pending work and stops the history timer.
func (e *Engine) Close(ctx context.Context) error {
	err := e.hist.Flush(ctx)
	e.hist.Close()
	return err
}
