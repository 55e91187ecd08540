// Package threadpool implements the concurrency model queries run under:
// fixed-size reader, writer, and bulk-loader worker pools with FIFO work
// queues, pause/resume for maintenance windows, and admission control that
// rejects new reader/writer work once too much is already queued. Bulk
// loaders are exempt from admission control — an import job is expected to
// saturate the queue by design.
package threadpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueueFull is returned by AddWorkReader/AddWorkWriter when the pool's
// queued job count has already reached MaxQueuedQueries.
var ErrQueueFull = errors.New("threadpool: queue full")

// ErrAlreadyInitialized is returned by Init when the process-wide Manager
// has already been constructed once. Matches the source's three
// process-wide pool handles and §4.3's "double-initialization is forbidden
// and must be detected."
var ErrAlreadyInitialized = errors.New("threadpool: already initialized")

// ErrNotRunning is returned by AddWork* once the pool has been shut down by
// Close. The state machine is UNINIT -> RUNNING <-> PAUSED -> SHUTDOWN; every
// submit call requires RUNNING or PAUSED, never SHUTDOWN.
var ErrNotRunning = errors.New("threadpool: pool is shut down")

var (
	globalOnce sync.Once
	globalMgr  *Manager
)

// Init constructs the single process-wide Manager, matching the source's
// global pool handles. A second call anywhere in the process returns
// ErrAlreadyInitialized and leaves the first instance untouched; callers
// that need independent, disposable managers (tests, embedding multiple
// instances in one process) should use NewManager directly instead.
func Init(cfg Config) (*Manager, error) {
	first := false
	globalOnce.Do(func() {
		first = true
		globalMgr = NewManager(cfg)
	})
	if !first {
		return nil, ErrAlreadyInitialized
	}
	return globalMgr, nil
}

// Job is a unit of work submitted to a pool. ctx carries the caller's
// cancellation signal composed with the worker's thread-id binding —
// retrieve the latter with ThreadID(ctx).
type Job func(ctx context.Context)

type threadIDKey struct{}

// ThreadID returns the logical thread id of the worker currently running
// ctx's job: 0 for the caller/main goroutine (ctx not produced by a pool
// worker), 1..readerCount for reader workers, readerCount+1..readerCount+
// writerCount for writer workers. Bulk-loader workers are not represented in
// this numbering, matching the source's scheme which only tracks readers and
// writers.
func ThreadID(ctx context.Context) int {
	if v, ok := ctx.Value(threadIDKey{}).(int); ok {
		return v
	}
	return 0
}

// Config sizes the three pools. MaxQueuedQueries, if non-nil, bounds the
// reader and writer queues; a nil value means unbounded (no admission
// control), matching the source's "config option not set" behavior.
type Config struct {
	ReaderCount      int
	WriterCount      int
	BulkCount        int
	MaxQueuedQueries *int
}

// Manager owns the three worker pools for the lifetime of the embedding
// host. Construct exactly one per process.
type Manager struct {
	readers *pool
	writers *pool
	bulk    *pool

	maxQueued *int
}

// NewManager starts all three pools. Pools are started empty and idle;
// workers block on their queue until work arrives.
func NewManager(cfg Config) *Manager {
	m := &Manager{maxQueued: cfg.MaxQueuedQueries}
	m.readers = newPool(cfg.ReaderCount, 1)
	m.writers = newPool(cfg.WriterCount, cfg.ReaderCount+1)
	m.bulk = newPool(cfg.BulkCount, 0) // bulk workers carry no thread-id mapping
	return m
}

// ThreadCount returns the combined size of the reader and writer pools (bulk
// loaders are excluded, matching the source's ThreadPools_ThreadCount).
func (m *Manager) ThreadCount() int {
	return m.readers.size() + m.writers.size()
}

// AddWorkReader enqueues job on the reader pool, rejecting it with
// ErrQueueFull if the queue is already at MaxQueuedQueries, or ErrNotRunning
// if Close has already shut the pool down.
func (m *Manager) AddWorkReader(job Job) error {
	return m.readers.add(job, m.maxQueued)
}

// AddWorkWriter enqueues job on the writer pool, rejecting it with
// ErrQueueFull if the queue is already at MaxQueuedQueries, or ErrNotRunning
// if Close has already shut the pool down.
func (m *Manager) AddWorkWriter(job Job) error {
	return m.writers.add(job, m.maxQueued)
}

// AddWorkBulkLoader enqueues job on the bulk-loader pool. Bulk loads are
// exempt from admission control: a running import is expected to keep this
// queue saturated. Returns ErrNotRunning if Close has already shut the pool
// down.
func (m *Manager) AddWorkBulkLoader(job Job) error {
	return m.bulk.add(job, nil)
}

// Pause blocks all three pools' workers from picking up new work until
// Resume is called. Work already running completes normally.
func (m *Manager) Pause() {
	m.readers.pause()
	m.writers.pause()
	m.bulk.pause()
}

// Resume releases a prior Pause.
func (m *Manager) Resume() {
	m.readers.resume()
	m.writers.resume()
	m.bulk.resume()
}

// Close stops accepting new work and waits for every queued and in-flight
// job across all three pools to finish.
func (m *Manager) Close() {
	m.readers.close()
	m.writers.close()
	m.bulk.close()
}

// queueBuffer bounds the internal channel buffer backing each pool's job
// queue. It is deliberately generous: admission control is enforced by the
// queued counter against MaxQueuedQueries before a job is ever sent, not by
// this buffer blocking the submitter. An unbuffered channel would make
// AddWork* block on a free worker rather than actually queue, defeating the
// point of a FIFO work queue with independent admission control.
const queueBuffer = 4096

// pool is one fixed-width FIFO worker pool.
type pool struct {
	jobs      chan Job
	queued    atomic.Int64
	wg        sync.WaitGroup
	baseID    int // 0 for bulk loaders (unmapped); first assigned worker id otherwise
	numWorker int

	mu      sync.Mutex
	pauseCh chan struct{} // closed == running; open (unclosed, fresh) == paused

	// shutdownMu guards closed and serializes it against add's channel send,
	// so close can never run concurrently with a send on the same channel:
	// add holds a read lock for the duration of its send, close takes the
	// write lock (waiting out any in-flight sends) before closing the
	// channel, and every subsequent add observes closed and bails out before
	// it would otherwise panic on a send to a closed channel.
	shutdownMu sync.RWMutex
	closed     bool
}

func newPool(n, baseID int) *pool {
	p := &pool{
		jobs:      make(chan Job, queueBuffer),
		baseID:    baseID,
		numWorker: n,
		pauseCh:   make(chan struct{}),
	}
	close(p.pauseCh) // start unpaused

	for i := 0; i < n; i++ {
		workerID := 0
		if baseID > 0 {
			workerID = baseID + i
		}
		p.wg.Add(1)
		go p.run(workerID)
	}
	return p
}

func (p *pool) run(workerID int) {
	defer p.wg.Done()
	ctx := context.WithValue(context.Background(), threadIDKey{}, workerID)
	for job := range p.jobs {
		p.waitIfPaused()
		p.queued.Add(-1)
		job(ctx)
	}
}

func (p *pool) waitIfPaused() {
	p.mu.Lock()
	gate := p.pauseCh
	p.mu.Unlock()
	<-gate
}

func (p *pool) size() int { return p.numWorker }

func (p *pool) add(job Job, maxQueued *int) error {
	p.shutdownMu.RLock()
	defer p.shutdownMu.RUnlock()
	if p.closed {
		return ErrNotRunning
	}
	if maxQueued != nil && int(p.queued.Load()) >= *maxQueued {
		return ErrQueueFull
	}
	p.queued.Add(1)
	p.jobs <- job
	return nil
}

func (p *pool) pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.pauseCh:
		// currently open/closed (running); install a fresh, unclosed gate.
		p.pauseCh = make(chan struct{})
	default:
		// already paused; nothing to do.
	}
}

func (p *pool) resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.pauseCh:
		// already running.
	default:
		close(p.pauseCh)
	}
}

func (p *pool) close() {
	p.shutdownMu.Lock()
	p.closed = true
	p.shutdownMu.Unlock()
	close(p.jobs)
	p.wg.Wait()
}
