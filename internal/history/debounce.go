package history

import (
	"sync"
	"time"
)

// scheduler is a cancellable, re-armable single-shot timer. Every arm or
// cancel bumps a generation counter so a timer that already fired but lost
// the race for the lock does nothing.
type scheduler struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
	gen    uint64
	fire   func()
}

func newScheduler(window time.Duration, fire func()) *scheduler {
	return &scheduler{window: window, fire: fire}
}

// arm cancels any pending run and schedules a new one a full window away.
func (s *scheduler) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		s.fire()
	})
}

// cancel drops the pending run. It reports whether one was armed.
func (s *scheduler) cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}

func (s *scheduler) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
