package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizbuilder/internal/domain"
)

// SQLStore implements domain.DocumentStore on a SQL database. The index
// columns and the body are written by one statement, so the document list
// always matches the last successful save.
type SQLStore struct {
	db *DB
}

func NewSQLStore(db *DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return errors.New("save document: missing id")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.db.exec(ctx,
		s.db.upsert("documents", []string{"id", "name", "body", "last_edited"}),
		doc.ID, doc.Name, string(body), doc.LastEdited.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, id string) (*domain.Document, error) {
	var body string
	err := s.db.queryRow(ctx, `SELECT body FROM documents WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	doc := &domain.Document{}
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, nil
}

func (s *SQLStore) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.db.query(ctx, `SELECT id, name, last_edited FROM documents ORDER BY last_edited DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []domain.DocumentSummary
	for rows.Next() {
		var (
			sum    domain.DocumentSummary
			edited int64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &edited); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		sum.LastEdited = time.Unix(0, edited).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.exec(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete document %s: %w", id, domain.ErrNotFound)
	}
	if _, err := s.db.exec(ctx, `DELETE FROM journal_entries WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
