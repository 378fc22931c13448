package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quizbuilder/internal/domain"
)

// ErrBackupRunning is returned when a backup is requested while one runs.
var ErrBackupRunning = errors.New("backup is already running")

const (
	backupJobID      = "backup"
	backupDirLayout  = "20060102-150405"
	backupRunTimeout = 5 * time.Minute
)

// ─────────────────────────────────────────────────────────────
// Backup Service: scheduled JSON export of every document
// ─────────────────────────────────────────────────────────────

// BackupOptions configures a BackupService.
type BackupOptions struct {
	Dir     string
	Keep    int
	Workers int
	// Flusher, when set, is flushed before each run so pending edits are
	// included.
	Flusher interface{ Flush(context.Context) error }
	// Observer, when set, is told about every finished run.
	Observer interface {
		BackupFinished(written, failed int, d time.Duration)
	}
	Logger *zap.Logger
}

// BackupService writes every stored document as indented JSON into a
// timestamped directory and keeps the newest Keep directories.
type BackupService struct {
	store       domain.DocumentStore
	opts        BackupOptions
	log         *zap.Logger
	runningJobs runningJobsGuard

	mu        sync.Mutex
	cronSched *cron.Cron
}

// NewBackupService creates a BackupService.
func NewBackupService(store domain.DocumentStore, opts BackupOptions) *BackupService {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &BackupService{
		store: store,
		opts:  opts,
		log:   opts.Logger.Named("backup"),
	}
}

// RunOnce performs one backup and returns its directory. Documents that
// fail to export are reported together; the others are still written.
func (s *BackupService) RunOnce(ctx context.Context) (string, error) {
	if !s.runningJobs.TryLock(backupJobID) {
		return "", ErrBackupRunning
	}
	defer s.runningJobs.Unlock(backupJobID)

	ctx, cancel := context.WithTimeout(ctx, backupRunTimeout)
	defer cancel()
	start := time.Now()

	if s.opts.Flusher != nil {
		if err := s.opts.Flusher.Flush(ctx); err != nil {
			s.log.Warn("Pending work not persisted before backup", zap.Error(err))
		}
	}

	list, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}

	dir := filepath.Join(s.opts.Dir, time.Now().UTC().Format(backupDirLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	var (
		mu     sync.Mutex
		result error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, sum := range list {
		g.Go(func() error {
			if err := s.exportOne(gctx, dir, sum); err != nil {
				mu.Lock()
				result = multierr.Append(result, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := len(multierr.Errors(result))
	if s.opts.Observer != nil {
		s.opts.Observer.BackupFinished(len(list)-failed, failed, time.Since(start))
	}
	s.log.Info("Backup finished",
		zap.String("dir", dir),
		zap.Int("documents", len(list)),
		zap.Int("failed", failed))

	if err := s.prune(); err != nil {
		result = multierr.Append(result, err)
	}
	return dir, result
}

func (s *BackupService) exportOne(ctx context.Context, dir string, sum domain.DocumentSummary) error {
	doc, err := s.store.Load(ctx, sum.ID)
	if err != nil {
		return fmt.Errorf("load %s: %w", sum.ID, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", sum.ID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, BackupFileName(doc)), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", sum.ID, err)
	}
	return nil
}

// BackupFileName is "<name slug>-<id prefix>.json".
func BackupFileName(doc *domain.Document) string {
	name := slug.Make(doc.Name)
	if name == "" {
		name = "quiz"
	}
	id := doc.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return name + "-" + id + ".json"
}

// prune removes the oldest backup directories beyond Keep. Zero keeps all.
func (s *BackupService) prune() error {
	if s.opts.Keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return fmt.Errorf("read backup dir: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(backupDirLayout, e.Name()); err == nil {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) <= s.opts.Keep {
		return nil
	}
	slices.Sort(dirs)

	var result error
	for _, name := range dirs[:len(dirs)-s.opts.Keep] {
		if err := os.RemoveAll(filepath.Join(s.opts.Dir, name)); err != nil {
			result = multierr.Append(result, fmt.Errorf("remove backup %s: %w", name, err))
			continue
		}
		s.log.Debug("Removed old backup", zap.String("dir", name))
	}
	return result
}

// Running reports whether a backup is in progress.
func (s *BackupService) Running() bool {
	return s.runningJobs.Running(backupJobID)
}

// Start runs backups on sched until Stop.
func (s *BackupService) Start(sched cron.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		s.cronSched.Stop()
	}
	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.log.Error("Scheduled backup failed", zap.Error(err))
		}
	}))
	c.Start()
	s.cronSched = c
	s.log.Info("Backups scheduled", zap.Time("next", sched.Next(time.Now())))
}

// Stop stops the schedule and waits for a running backup or ctx.
func (s *BackupService) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
	s.mu.Unlock()
	s.runningJobs.WaitAll(ctx)
}
