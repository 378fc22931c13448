package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap/zaptest"

	"quizbuilder/internal/app"
	"quizbuilder/internal/config"
	"quizbuilder/internal/domain"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `version: 1
data_dir: ` + dir + `
history:
  window: 10ms
codeview:
  debounce: 20ms
logging:
  console:
    level: none
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func newApp(t *testing.T) *app.App {
	t.Helper()
	cfg, err := config.LoadConfiguration(writeConfig(t))
	if err != nil {
		t.Fatalf("LoadConfiguration: %v", err)
	}
	a, err := app.New(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return a
}

// run executes one command line against the config at cfgPath and returns
// what it printed.
func run(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cli.Command{
		Name:   "quizbuilder",
		Writer: &buf,
		Flags:  []cli.Flag{&cli.StringFlag{Name: "config"}},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, app.EnvFromContext(ctx).Prepare(cmd.String("config"))
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			app.EnvFromContext(ctx).Release()
			return nil
		},
		Commands: app.Commands("test"),
	}
	argv := append([]string{"quizbuilder", "--config", cfgPath}, args...)
	if err := cmd.Run(app.ContextWithEnv(context.Background()), argv); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return buf.String()
}

// ─────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────

func TestCommands_DocumentLifecycle(t *testing.T) {
	cfg := writeConfig(t)

	id := strings.TrimSpace(run(t, cfg, "new", "Pop quiz"))
	if id == "" {
		t.Fatal("new printed no id")
	}
	if got := run(t, cfg, "list"); !strings.Contains(got, id) || !strings.Contains(got, "Pop quiz") {
		t.Fatalf("list = %q", got)
	}

	run(t, cfg, "rename", id, "Capitals")
	if got := run(t, cfg, "list"); !strings.Contains(got, "Capitals") {
		t.Errorf("list after rename = %q", got)
	}

	cp := strings.TrimSpace(run(t, cfg, "duplicate", id))
	if cp == "" || cp == id {
		t.Fatalf("duplicate printed %q", cp)
	}
	if got := run(t, cfg, "list"); !strings.Contains(got, "Capitals (copy)") {
		t.Errorf("list after duplicate = %q", got)
	}

	run(t, cfg, "delete", cp)
	if got := run(t, cfg, "list"); strings.Contains(got, cp) {
		t.Errorf("deleted document still listed: %q", got)
	}
}

func TestCommands_BackupImport(t *testing.T) {
	cfg := writeConfig(t)
	id := strings.TrimSpace(run(t, cfg, "new", "Quiz"))

	dir := strings.TrimSpace(run(t, cfg, "backup"))
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("backup files = %v, %v", files, err)
	}

	run(t, cfg, "delete", id)
	if got := strings.TrimSpace(run(t, cfg, "import", files[0])); got != id {
		t.Errorf("import = %q, want the original id %s", got, id)
	}
}

func TestCommands_ExportApplyHistory(t *testing.T) {
	cfg := writeConfig(t)
	id := strings.TrimSpace(run(t, cfg, "new", "Quiz"))

	files := strings.Fields(run(t, cfg, "export", "--doc", id))
	if len(files) == 0 {
		t.Fatal("export wrote no files")
	}
	markupFile := files[0]
	cssFile := strings.TrimSuffix(markupFile, filepath.Ext(markupFile)) + ".css"
	if _, err := os.Stat(cssFile); err != nil {
		t.Fatalf("stylesheet not exported: %v", err)
	}

	// An unchanged projection changes nothing.
	if got := run(t, cfg, "apply", "--doc", id, markupFile, cssFile); !strings.HasPrefix(got, "0 element(s)") {
		t.Errorf("apply of unchanged files = %q", got)
	}

	if got := run(t, cfg, "history", "--doc", id); !strings.Contains(got, "state:") {
		t.Errorf("history = %q", got)
	}
}

// ─────────────────────────────────────────────────────────────
// App
// ─────────────────────────────────────────────────────────────

func TestApp_OpenDocument(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	if err := a.OpenDocument(ctx, ""); err != nil {
		t.Fatalf("OpenDocument on empty store: %v", err)
	}
	if len(a.Documents.List(ctx)) != 1 {
		t.Fatal("OpenDocument did not create a document for an empty store")
	}
	first := a.Engine.DocumentID()

	if err := a.OpenDocument(ctx, "missing"); err == nil {
		t.Error("OpenDocument accepted an unknown id")
	}
	if err := a.OpenDocument(ctx, ""); err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if a.Engine.DocumentID() != first {
		t.Errorf("OpenDocument picked %s, want %s", a.Engine.DocumentID(), first)
	}
}

func TestApp_Backup(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	a.Documents.Create(ctx, "One")
	a.Documents.Create(ctx, "Two")

	dir, err := a.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("backup holds %d files, want 2", len(entries))
	}
}

func TestApp_WatchAppliesStylesheetEdit(t *testing.T) {
	a := newApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.OpenDocument(ctx, ""); err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	id := a.Engine.AddElement(domain.ElementText, domain.SectionBody, "")
	if err := a.Engine.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	dir := a.CodeView().Dir()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if el, ok := domain.FindElement(a.Engine.Document(), id); ok && el.Styles["color"] == "#ff0000" {
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch: %v", err)
			}
			return
		}
		if matches, _ := filepath.Glob(filepath.Join(dir, "*.css")); len(matches) > 0 {
			// Rewritten every round: the first write may land before the
			// watcher is registered.
			if data, err := os.ReadFile(matches[0]); err == nil {
				edited := strings.Replace(string(data), "#1f2937", "#ff0000", 1)
				_ = os.WriteFile(matches[0], []byte(edited), 0644)
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("stylesheet edit was not applied")
}
