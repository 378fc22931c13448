package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"quizbuilder/internal/config"
	"quizbuilder/internal/domain"
	mcpserver "quizbuilder/internal/mcp"
	"quizbuilder/internal/metrics"
	"quizbuilder/internal/service"
	"quizbuilder/internal/storage"
	"quizbuilder/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// App wires storage, the editing engine and the outer surfaces for one
// program run.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	stores  *storage.Stores
	events  *service.Broadcaster
	metrics *metrics.Metrics
	backups *service.BackupService

	Engine    *service.Engine
	Documents *service.DocumentService

	stopBackground context.CancelFunc
	wg             sync.WaitGroup
}

// New opens the configured store and builds the engine on top of it.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	stores, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &App{
		cfg:    cfg,
		log:    log,
		stores: stores,
		events: service.NewBroadcaster(log),
	}

	opts := service.EngineOptions{
		Store:   stores.Documents,
		Journal: stores.Journal,
		Emitter: a.events,
		Window:  cfg.History.Window,
		Limit:   cfg.History.Limit,
		Logger:  log,
	}
	if cfg.Metrics.Listen != "" {
		a.metrics = metrics.New()
		opts.Observer = a.metrics
	}
	a.Engine = service.NewEngine(opts)
	a.Documents = service.NewDocumentService(a.Engine, stores.Documents, log)

	bopts := service.BackupOptions{
		Dir:     cfg.Backup.Dir,
		Keep:    cfg.Backup.Keep,
		Workers: cfg.Backup.Workers,
		Flusher: a.Engine,
		Logger:  log,
	}
	if a.metrics != nil {
		bopts.Observer = a.metrics
	}
	a.backups = service.NewBackupService(stores.Documents, bopts)
	return a, nil
}

// Events returns the broadcaster every engine event goes through.
func (a *App) Events() *service.Broadcaster { return a.events }

// OpenDocument makes id the live document. An empty id picks the most
// recently edited document and creates one when the store is empty.
func (a *App) OpenDocument(ctx context.Context, id string) error {
	if id == "" {
		list := a.Documents.List(ctx)
		if len(list) == 0 {
			if a.Documents.Create(ctx, service.DefaultDocumentName) == nil {
				return errors.New("unable to create a document")
			}
			return nil
		}
		id = list[0].ID
	}
	if !a.Documents.Open(ctx, id) {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// StartBackground starts the metrics listener and the backup schedule when
// they are configured. Both stop with ctx or Shutdown.
func (a *App) StartBackground(ctx context.Context) error {
	ctx, a.stopBackground = context.WithCancel(ctx)
	if a.metrics != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.metrics.Serve(ctx, a.cfg.Metrics.Listen, a.log); err != nil {
				a.log.Error("Metrics listener stopped", zap.Error(err))
			}
		}()
	}
	if a.cfg.Backup.Enabled {
		sched, err := config.ParseSchedule(a.cfg.Backup.Schedule)
		if err != nil {
			return fmt.Errorf("backup schedule: %w", err)
		}
		a.backups.Start(sched)
	}
	return nil
}

// Backup runs one backup now and returns its directory.
func (a *App) Backup(ctx context.Context) (string, error) {
	return a.backups.RunOnce(ctx)
}

// CodeView returns a code view rooted at the configured directory.
func (a *App) CodeView() *service.CodeView {
	return service.NewCodeView(a.Engine, a.cfg.CodeView.Dir, a.log)
}

// Watch exports the live document as markup files and applies edits made to
// them until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	cv := a.CodeView()
	files, err := cv.Export(ctx)
	if err != nil {
		return fmt.Errorf("export code view: %w", err)
	}
	a.log.Info("Code view exported", zap.String("dir", cv.Dir()), zap.Int("files", len(files)))

	w, err := watcher.New(cv.Dir(), func(path string) {
		if _, err := cv.Sync(ctx, path); err != nil {
			a.log.Warn("Code view sync failed", zap.String("file", path), zap.Error(err))
		}
	}, watcher.Options{
		Extensions: []string{service.MarkupExt, service.StylesheetExt},
		Debounce:   a.cfg.CodeView.Debounce,
		Logger:     a.log,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	events, unsubscribe := a.events.Subscribe(16)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Event == service.EventHistoryCommitted {
				a.log.Debug("History committed", zap.Any("entry", ev.Data))
			}
		}
	}
}

// ServeMCP serves the MCP tool surface on stdin/stdout until the client
// disconnects.
func (a *App) ServeMCP(version string) error {
	srv := mcpserver.New(mcpserver.Deps{
		Engine:    a.Engine,
		Documents: a.Documents,
		Version:   version,
		Logger:    a.log,
	})
	return srv.ServeStdio()
}

// Shutdown flushes pending edits, stops background work and closes the
// store.
func (a *App) Shutdown(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if a.stopBackground != nil {
		a.stopBackground()
	}
	a.backups.Stop(ctx)
	if e := a.Engine.Close(ctx); e != nil {
		err = multierr.Append(err, fmt.Errorf("close engine: %w", e))
	}
	a.events.Close()
	a.wg.Wait()
	if e := a.stores.Close(); e != nil {
		err = multierr.Append(err, fmt.Errorf("close storage: %w", e))
	}
	return err
}
