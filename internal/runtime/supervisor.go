package runtime

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

type worker struct {
	name   string
	run    func(context.Context) error
	closeF func() error
}

// Supervisor runs a group of named workers. The first worker to fail cancels
// the others; its error is returned from Wait.
type Supervisor struct {
	mu      sync.Mutex
	workers []worker
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
	cancel  context.CancelFunc
	done    <-chan struct{}
}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

func (s *Supervisor) Add(name string, run func(context.Context) error, closeF func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker{name: name, run: run, closeF: closeF})
}

func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = ctx.Done()
	for _, w := range s.workers {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			log.WithField("worker", w.name).Debug("Starting worker")
			if err := w.run(ctx); err != nil {
				log.WithError(err).WithField("worker", w.name).Error("Worker failed")
				s.errOnce.Do(func() { s.err = err })
				s.cancel()
				return
			}
			log.WithField("worker", w.name).Debug("Worker stopped")
		}()
	}
	return nil
}

// Wait blocks until ctx is cancelled or a worker fails, then closes the
// workers in reverse order and waits for them to return.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	done, cancel := s.done, s.cancel
	workers := s.workers
	s.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-done:
	}
	if cancel != nil {
		cancel()
	}

	// Close in reverse order.
	for i := len(workers) - 1; i >= 0; i-- {
		if workers[i].closeF != nil {
			if err := workers[i].closeF(); err != nil {
				log.WithError(err).WithField("worker", workers[i].name).Debug("Error closing worker")
			}
		}
	}
	s.wg.Wait()
	return s.err
}
