package storage

import (
	"sync"
)

// asyncWriter is the process-global single background goroutine that
// serialises disk writes across every Store instance. Mutations always
// update memory synchronously; only the disk save is deferred here.
type asyncWriter struct {
	jobs chan job

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[any]int // owner -> outstanding job count, for Flush/drain
}

type job struct {
	owner any
	run   func() error
}

var (
	writerOnce sync.Once
	writer     *asyncWriter
)

// globalWriter returns the process-wide writer, starting its goroutine on
// first use.
func globalWriter() *asyncWriter {
	writerOnce.Do(func() {
		w := &asyncWriter{
			jobs:    make(chan job, 4096),
			pending: make(map[any]int),
		}
		w.cond = sync.NewCond(&w.mu)
		writer = w
		go w.loop()
	})
	return writer
}

func (w *asyncWriter) loop() {
	for j := range w.jobs {
		errLog := j.run()
		_ = errLog // logged by the caller-supplied run func, not here
		w.mu.Lock()
		w.pending[j.owner]--
		if w.pending[j.owner] <= 0 {
			delete(w.pending, j.owner)
		}
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

// submit enqueues a save job attributed to owner (typically the *Store
// instance) so Flush can later wait for it to drain.
func (w *asyncWriter) submit(owner any, run func() error) {
	w.mu.Lock()
	w.pending[owner]++
	w.mu.Unlock()
	w.jobs <- job{owner: owner, run: run}
}

// drain blocks until every outstanding job for owner has completed.
func (w *asyncWriter) drain(owner any) error {
	w.mu.Lock()
	for w.pending[owner] > 0 {
		w.cond.Wait()
	}
	w.mu.Unlock()
	return nil
}
