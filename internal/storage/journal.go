package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/history"
)

// DefaultJournalLimit is the number of entries kept per document.
const DefaultJournalLimit = 40

// Journal persists committed history entries so undo survives a restart.
//
// Append stores e after the newest entry of the document. A non-nil keep
// lists the ids of the undo chain e ends; every other entry of the document
// belongs to a branch discarded by undo and is removed.
type Journal interface {
	Append(ctx context.Context, documentID string, e history.Entry, keep []string) error
	Entries(ctx context.Context, documentID string) ([]history.Entry, error)
	Clear(ctx context.Context, documentID string) error
}

// SQLJournal stores journal entries in the journal_entries table.
type SQLJournal struct {
	db    *DB
	limit int
}

func NewSQLJournal(db *DB, limit int) *SQLJournal {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	return &SQLJournal{db: db, limit: limit}
}

// Append implements Journal. An entry with an id already stored replaces it,
// which is how coalesced batches land.
func (j *SQLJournal) Append(ctx context.Context, documentID string, e history.Entry, keep []string) error {
	snap, err := json.Marshal(e.Snapshot)
	if err != nil {
		return fmt.Errorf("encode journal snapshot: %w", err)
	}
	if err := j.dropBranches(ctx, documentID, e.ID, keep); err != nil {
		return err
	}
	var seq int64
	if err := j.db.queryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM journal_entries WHERE document_id = ?`, documentID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("journal sequence: %w", err)
	}
	_, err = j.db.exec(ctx,
		j.db.upsert("journal_entries", []string{"id", "document_id", "seq", "description", "batch_id", "snapshot", "created_at"}),
		e.ID, documentID, seq+1, e.Description, e.BatchID, string(snap), e.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return j.prune(ctx, documentID)
}

// Entries returns the stored entries of a document, oldest first.
func (j *SQLJournal) Entries(ctx context.Context, documentID string) ([]history.Entry, error) {
	rows, err := j.db.query(ctx,
		`SELECT id, description, batch_id, snapshot, created_at
		 FROM journal_entries WHERE document_id = ? ORDER BY seq ASC`, documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var (
			e       history.Entry
			snap    string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.BatchID, &snap, &created); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Snapshot = &domain.Document{}
		if err := json.Unmarshal([]byte(snap), e.Snapshot); err != nil {
			// A broken snapshot cannot be restored; drop just that entry.
			continue
		}
		e.Timestamp = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes all journal entries of a document.
func (j *SQLJournal) Clear(ctx context.Context, documentID string) error {
	_, err := j.db.exec(ctx, `DELETE FROM journal_entries WHERE document_id = ?`, documentID)
	return err
}

func (j *SQLJournal) dropBranches(ctx context.Context, documentID, entryID string, keep []string) error {
	if keep == nil {
		return nil
	}
	marks := []string{"?"}
	args := []any{documentID, entryID}
	for _, id := range keep {
		marks = append(marks, "?")
		args = append(args, id)
	}
	if _, err := j.db.exec(ctx,
		`DELETE FROM journal_entries WHERE document_id = ? AND id NOT IN (`+strings.Join(marks, ", ")+`)`, args...,
	); err != nil {
		return fmt.Errorf("drop discarded journal entries: %w", err)
	}
	return nil
}

// prune removes the oldest entries beyond the limit.
func (j *SQLJournal) prune(ctx context.Context, documentID string) error {
	var count int
	if err := j.db.queryRow(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE document_id = ?`, documentID,
	).Scan(&count); err != nil {
		return fmt.Errorf("count journal: %w", err)
	}
	if count <= j.limit {
		return nil
	}

	// Find the cut-off first and close the cursor before writing.
	var cutoff int64
	if err := j.db.queryRow(ctx,
		`SELECT seq FROM journal_entries WHERE document_id = ? ORDER BY seq DESC LIMIT 1 OFFSET ?`,
		documentID, j.limit,
	).Scan(&cutoff); err != nil {
		return fmt.Errorf("journal cut-off: %w", err)
	}
	if _, err := j.db.exec(ctx,
		`DELETE FROM journal_entries WHERE document_id = ? AND seq <= ?`, documentID, cutoff,
	); err != nil {
		return fmt.Errorf("prune journal: %w", err)
	}
	return nil
}
