package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"quizbuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Document Service: the stored document index
// ─────────────────────────────────────────────────────────────

// DocumentService manages stored documents around the live Engine. Failures
// are logged and reported as nil or false results; the live document is
// never left half-changed.
type DocumentService struct {
	engine *Engine
	store  domain.DocumentStore
	log    *zap.Logger
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(engine *Engine, store domain.DocumentStore, log *zap.Logger) *DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentService{
		engine: engine,
		store:  store,
		log:    log.Named("documents"),
	}
}

// List returns the index, most recently edited first. Pending edits of the
// live document are flushed first so the index is current.
func (s *DocumentService) List(ctx context.Context) []domain.DocumentSummary {
	if err := s.engine.Flush(ctx); err != nil {
		s.log.Warn("Pending work not persisted", zap.Error(err))
	}
	list, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("Unable to list documents", zap.Error(err))
		return nil
	}
	return list
}

// Create creates, stores and opens a new document.
func (s *DocumentService) Create(ctx context.Context, name string) *domain.Document {
	return s.engine.New(ctx, name)
}

// Open loads a stored document into the engine.
func (s *DocumentService) Open(ctx context.Context, id string) bool {
	return s.engine.Load(ctx, id)
}

// Duplicate stores a copy of document id under a fresh id. An empty name
// becomes the source name with a " (copy)" suffix. The copy is not opened.
func (s *DocumentService) Duplicate(ctx context.Context, id, name string) *domain.Document {
	src, err := s.load(ctx, id)
	if err != nil {
		s.log.Error("Unable to load document for duplication", zap.String("document", id), zap.Error(err))
		return nil
	}
	if name == "" {
		name = src.Name + " (copy)"
	}
	cp := domain.DuplicateDocument(src, name)
	if err := s.store.Save(ctx, cp); err != nil {
		s.log.Error("Unable to save duplicate", zap.String("document", id), zap.Error(err))
		return nil
	}
	s.log.Info("Duplicated document", zap.String("source", id), zap.String("document", cp.ID))
	return cp
}

// load reads id, preferring the live document so unflushed edits are kept.
func (s *DocumentService) load(ctx context.Context, id string) (*domain.Document, error) {
	if live := s.engine.Document(); live.ID == id {
		return live, nil
	}
	return s.store.Load(ctx, id)
}

// Rename renames document id. The live document is renamed through the
// engine so the change is an undo step.
func (s *DocumentService) Rename(ctx context.Context, id, name string) bool {
	if name == "" {
		return false
	}
	if s.engine.DocumentID() == id {
		return s.engine.Rename(ctx, name)
	}
	doc, err := s.store.Load(ctx, id)
	if err != nil {
		s.log.Error("Unable to load document for rename", zap.String("document", id), zap.Error(err))
		return false
	}
	if doc.Name == name {
		return false
	}
	doc.Name = name
	if err := s.store.Save(ctx, doc); err != nil {
		s.log.Error("Unable to rename document", zap.String("document", id), zap.Error(err))
		return false
	}
	return true
}

// Delete removes document id and its journal. Deleting the live document
// discards its pending edits and opens an empty document.
func (s *DocumentService) Delete(ctx context.Context, id string) bool {
	s.engine.Discard(ctx, id)
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("Document to delete not found", zap.String("document", id))
		} else {
			s.log.Error("Unable to delete document", zap.String("document", id), zap.Error(err))
		}
		return false
	}
	s.log.Info("Deleted document", zap.String("document", id))
	return true
}

// Import stores a document read from a JSON export such as a backup file.
// A document whose id is already stored is imported as a copy under a fresh
// id. The import is not opened.
func (s *DocumentService) Import(ctx context.Context, data []byte) *domain.Document {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Error("Unable to decode document", zap.Error(err))
		return nil
	}
	if err := domain.Validate(&doc); err != nil {
		s.log.Error("Refusing to import invalid document", zap.Error(err))
		return nil
	}
	imported := &doc
	if doc.ID == "" {
		imported = domain.DuplicateDocument(&doc, doc.Name)
	} else if _, err := s.store.Load(ctx, doc.ID); err == nil {
		imported = domain.DuplicateDocument(&doc, doc.Name)
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.log.Error("Unable to check for an existing document", zap.String("document", doc.ID), zap.Error(err))
		return nil
	}
	if err := s.store.Save(ctx, imported); err != nil {
		s.log.Error("Unable to save imported document", zap.String("document", imported.ID), zap.Error(err))
		return nil
	}
	s.log.Info("Imported document", zap.String("document", imported.ID), zap.String("name", imported.Name))
	return imported
}
