package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// runningJobsGuard: one run per job id
// ─────────────────────────────────────────────────────────────

// runningJobsGuard lets at most one run of a job id proceed and tracks runs
// in flight for shutdown. The zero value is ready to use.
type runningJobsGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock claims jobID, reporting false when a run already holds it.
func (g *runningJobsGuard) TryLock(jobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[jobID]; busy {
		return false
	}
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	g.running[jobID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases a claim taken by a successful TryLock.
func (g *runningJobsGuard) Unlock(jobID string) {
	g.mu.Lock()
	delete(g.running, jobID)
	g.mu.Unlock()
	g.wg.Done()
}

// Running reports whether jobID is claimed.
func (g *runningJobsGuard) Running(jobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.running[jobID]
	return busy
}

// WaitAll waits for every claimed run to be released, or for ctx.
func (g *runningJobsGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
