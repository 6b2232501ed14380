package graph

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gitlanes/gitlanes/internal/git"
)

// statusTickInterval drives the busy counter while a status computation
// is in flight.
const statusTickInterval = 50 * time.Millisecond

type statusState uint8

const (
	statusIdle statusState = iota
	statusRunning
	statusFinished
)

// statusController owns the single in-flight uncommitted-changes
// computation: Idle -> Running -> Finished, with cancellation returning
// to Idle. Cancellation is cooperative and synchronous-on-return: the
// worker polls the cancel flag and the canceller blocks until the worker
// acknowledges, so the slot is never left ambiguously running.
type statusController struct {
	compute func(*git.CancelFlag) (git.StatusDiff, error)
	onDone  func()
	tick    time.Duration

	mu       sync.Mutex
	state    statusState
	cancel   *git.CancelFlag
	done     chan struct{}
	diff     git.StatusDiff
	err      error
	progress int
}

func newStatusController(compute func(*git.CancelFlag) (git.StatusDiff, error), onDone func()) *statusController {
	return &statusController{
		compute: compute,
		onDone:  onDone,
		tick:    statusTickInterval,
	}
}

// start launches a new computation. A run already in flight is cancelled
// synchronously first; at most one computation exists at any time.
func (s *statusController) start() {
	s.cancelRun()

	s.mu.Lock()
	s.state = statusRunning
	s.progress = 0
	s.diff = git.StatusDiff{}
	s.err = nil
	cancel := &git.CancelFlag{}
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.tickLoop(done)
	go func() {
		diff, err := s.compute(cancel)
		canceled := cancel.Canceled()

		s.mu.Lock()
		current := s.done == done
		if !canceled && current {
			s.state = statusFinished
			s.diff = diff
			s.err = err
		}
		s.mu.Unlock()
		close(done)

		if canceled || !current {
			return
		}
		if err != nil {
			slog.Debug("status computation", slog.Any("error", err))
		}
		if s.onDone != nil {
			s.onDone()
		}
	}()
}

// cancelRun cancels the in-flight computation, blocking until the worker
// observably stops. No-op outside the Running state.
func (s *statusController) cancelRun() {
	s.mu.Lock()
	if s.state != statusRunning {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel.Cancel()
	<-done

	s.mu.Lock()
	if s.cancel == cancel {
		s.state = statusIdle
		s.cancel = nil
		s.done = nil
	}
	s.mu.Unlock()
}

// tickLoop increments the busy counter at a fixed interval until the
// computation it was started for completes.
func (s *statusController) tickLoop(done chan struct{}) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state == statusRunning && s.done == done {
				s.progress++
			}
			s.mu.Unlock()
		}
	}
}

func (s *statusController) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == statusRunning
}

func (s *statusController) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == statusFinished
}

// result returns the diff of the last completed computation. ok is false
// while pending, after cancellation, and when the computation failed.
func (s *statusController) result() (git.StatusDiff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != statusFinished || s.err != nil {
		return git.StatusDiff{}, false
	}
	return s.diff, true
}

func (s *statusController) progressCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}
