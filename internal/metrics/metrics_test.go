package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
	"quizbuilder/internal/history"
	"quizbuilder/internal/metrics"
)

func TestMetrics_ObservesHistory(t *testing.T) {
	m := metrics.New()
	h := history.New(history.Options{Window: time.Hour, Observer: m})
	defer h.Close()

	doc := domain.NewDocument("Quiz")
	h.Reset(doc)
	ctx := context.Background()

	next, _, _ := editor.AddElement(doc, domain.ElementText, domain.SectionBody, "")
	h.Record(next, "Add text")
	_ = h.Flush(ctx)
	// Same content again is not a new entry.
	h.Record(next, "Add text again")
	_ = h.Flush(ctx)
	h.Undo()
	h.Redo()

	expected := `
# HELP quizbuilder_history_commits_total Total number of committed history entries
# TYPE quizbuilder_history_commits_total counter
quizbuilder_history_commits_total 1
# HELP quizbuilder_history_depth Current number of undoable entries
# TYPE quizbuilder_history_depth gauge
quizbuilder_history_depth 1
# HELP quizbuilder_history_discarded_total Total number of commits dropped because nothing changed
# TYPE quizbuilder_history_discarded_total counter
quizbuilder_history_discarded_total 1
# HELP quizbuilder_history_redo_total Total number of redo steps
# TYPE quizbuilder_history_redo_total counter
quizbuilder_history_redo_total 1
# HELP quizbuilder_history_undo_total Total number of undo steps
# TYPE quizbuilder_history_undo_total counter
quizbuilder_history_undo_total 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"quizbuilder_history_commits_total",
		"quizbuilder_history_depth",
		"quizbuilder_history_discarded_total",
		"quizbuilder_history_redo_total",
		"quizbuilder_history_undo_total",
	); err != nil {
		t.Error(err)
	}
}

func TestMetrics_PersistFailures(t *testing.T) {
	m := metrics.New()
	h := history.New(history.Options{
		Window:   time.Hour,
		Observer: m,
		Persist: func(context.Context, *domain.Document) error {
			return io.ErrShortWrite
		},
	})
	defer h.Close()

	doc := domain.NewDocument("Quiz")
	h.Reset(doc)
	next, _, _ := editor.AddElement(doc, domain.ElementButton, domain.SectionBody, "")
	h.Record(next, "Add button")
	if err := h.Flush(context.Background()); err == nil {
		t.Fatal("Flush did not report the persist error")
	}

	expected := `
# HELP quizbuilder_storage_persist_failures_total Total number of commits that could not be saved
# TYPE quizbuilder_storage_persist_failures_total counter
quizbuilder_storage_persist_failures_total 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"quizbuilder_storage_persist_failures_total"); err != nil {
		t.Error(err)
	}
}

func TestMetrics_Backup(t *testing.T) {
	m := metrics.New()
	m.BackupFinished(3, 0, 20*time.Millisecond)
	m.BackupFinished(2, 1, 30*time.Millisecond)

	expected := `
# HELP quizbuilder_backup_runs_total Total number of backup runs
# TYPE quizbuilder_backup_runs_total counter
quizbuilder_backup_runs_total{status="ok"} 1
quizbuilder_backup_runs_total{status="partial"} 1
# HELP quizbuilder_backup_documents Number of documents written by the last backup
# TYPE quizbuilder_backup_documents gauge
quizbuilder_backup_documents 2
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"quizbuilder_backup_runs_total", "quizbuilder_backup_documents"); err != nil {
		t.Error(err)
	}
	n, err := testutil.GatherAndCount(m.Registry(), "quizbuilder_backup_duration_seconds")
	if err != nil || n != 1 {
		t.Errorf("duration series = %d, %v; want 1", n, err)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.Undone()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "quizbuilder_history_undo_total 1") {
		t.Errorf("scrape missing undo counter:\n%s", body)
	}
}
