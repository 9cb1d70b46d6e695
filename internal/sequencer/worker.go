/*-------------------------------------------------------------------------
 *
 * worker.go
 *    Background worker driving the sequencer
 *
 * Runs the sequencer on a fixed interval with graceful shutdown
 * support. The cron endpoint triggers the same Tick, so an external
 * scheduler can replace or supplement the worker.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/sequencer/worker.go
 *
 *-------------------------------------------------------------------------
 */

package sequencer

import (
	"context"
	"sync"
	"time"
)

/* Worker runs sequencer ticks on an interval */
type Worker struct {
	sequencer *Sequencer
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

/* NewWorker creates a new sequencer worker */
func NewWorker(seq *Sequencer, interval time.Duration) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		sequencer: seq,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

/* Start begins ticking in the background */
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.sequencer.Tick(w.ctx)
		}
	}
}

/* Stop cancels the worker and waits for the in-flight tick */
func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}
