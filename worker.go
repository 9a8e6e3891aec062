package server

import (
	"context"
	"log"
	"sync"
)

// Worker is a named loop that runs until its context is cancelled. Run must
// return promptly after cancellation; every blocking point inside it is
// expected to be context-aware or deadline-bounded.
type Worker struct {
	Name string
	Run  func(ctx context.Context)
}

// Workers starts a fixed set of workers together and stops them together.
type Workers struct {
	logger *log.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkers constructs an empty worker group.
func NewWorkers(logger *log.Logger) *Workers {
	if logger == nil {
		logger = log.Default()
	}
	return &Workers{logger: logger}
}

// Start launches every worker under a context derived from parent.
func (w *Workers) Start(parent context.Context, workers ...Worker) {
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel

	for _, worker := range workers {
		w.wg.Add(1)
		go func(worker Worker) {
			defer w.wg.Done()
			w.logger.Printf("worker %s started", worker.Name)
			worker.Run(ctx)
			w.logger.Printf("worker %s stopped", worker.Name)
		}(worker)
	}
}

// Stop cancels the group's context and waits for every worker to exit.
func (w *Workers) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
}
