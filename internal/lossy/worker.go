package lossy

// worker runs row-finishing jobs (filtering plus output emission) on a
// dedicated goroutine, one lap behind the macroblock parser. It mirrors the
// single-worker-per-decoder model: Reset clears any stale state, Launch
// hands off one job and returns immediately, and Sync blocks until that job
// completes and reports whether decoding should continue.
//
// This is the channel-based Go equivalent of a thread pool with exactly one
// thread: the parser thread calls Sync before reusing buffers the worker
// might still be touching, then Launch to hand off the next row, and moves
// on without waiting for that row to finish.
type worker struct {
	jobs     chan func() (bool, error)
	results  chan workerResult
	launched bool
}

type workerResult struct {
	ok  bool
	err error
}

func newWorker() *worker {
	w := &worker{
		jobs:    make(chan func() (bool, error)),
		results: make(chan workerResult, 1),
	}
	go w.loop()
	return w
}

func (w *worker) loop() {
	for job := range w.jobs {
		ok, err := job()
		w.results <- workerResult{ok: ok, err: err}
	}
}

// Launch hands a job to the worker goroutine without blocking.
func (w *worker) Launch(job func() (bool, error)) {
	w.jobs <- job
	w.launched = true
}

// Sync blocks until the most recently launched job completes, returning its
// result. It is a no-op the first time it is called, before any job has
// been launched.
func (w *worker) Sync() (bool, error) {
	if !w.launched {
		return true, nil
	}
	w.launched = false
	r := <-w.results
	return r.ok, r.err
}

// Reset forgets about any in-flight job without waiting for it, used when
// aborting a decode early.
func (w *worker) Reset() {
	w.launched = false
}

// Close shuts down the worker goroutine. The caller must have already
// synced any outstanding job.
func (w *worker) Close() {
	close(w.jobs)
}
