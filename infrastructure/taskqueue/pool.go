package taskqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// job is one queued unit of work bound to its Task.
type job struct {
	task *Task
	run  func(ctx context.Context, task *Task)
}

// Pool is a small fixed pool of workers draining a bounded task queue
// (spec §5: "a small fixed pool of workers (default 4)"). Submission
// returns immediately; Busy is returned when the queue is saturated.
type Pool struct {
	workers int
	queue   chan job

	mu      sync.Mutex
	tasks   map[string]*Task
	byKey   map[string]*Task // coalescing key -> running/pending task
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// ErrBusy is returned by Submit when the queue is saturated.
var ErrBusy = fmt.Errorf("task queue saturated")

// NewPool creates a Pool with workers goroutines and a queue of the given
// capacity.
func NewPool(workers, queueCapacity int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueCapacity <= 0 {
		queueCapacity = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers: workers,
		queue:   make(chan job, queueCapacity),
		tasks:   make(map[string]*Task),
		byKey:   make(map[string]*Task),
		ctx:     ctx,
		cancel:  cancel,
	}
	return p
}

// Start launches the worker goroutines. Safe to call once.
func (p *Pool) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.workers; i++ {
		go p.worker()
	}
}

// Stop cancels all running tasks and stops accepting new work.
func (p *Pool) Stop() {
	p.cancel()
}

func (p *Pool) worker() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case j := <-p.queue:
			p.runJob(j)
		}
	}
}

func (p *Pool) runJob(j job) {
	taskCtx, cancel := context.WithCancel(p.ctx)
	j.task.mu.Lock()
	j.task.cancel = cancel
	j.task.Status = StatusRunning
	j.task.mu.Unlock()

	defer cancel()
	j.run(taskCtx, j.task)
}

// Submit enqueues run under a new task of the given kind, coalescing on
// coalesceKey: if a non-terminal task already exists for that key, its
// existing Task is returned instead of starting a new one (spec §4.6: "at
// most one running task per tuple").
func (p *Pool) Submit(kind, coalesceKey string, run func(ctx context.Context, task *Task)) (*Task, error) {
	p.mu.Lock()
	if existing, ok := p.byKey[coalesceKey]; ok {
		snap := existing.Snapshot()
		if !snap.Status.IsTerminal() {
			p.mu.Unlock()
			return existing, nil
		}
	}

	task := newTask(uuid.NewString(), kind)
	p.tasks[task.ID] = task
	p.byKey[coalesceKey] = task
	p.mu.Unlock()

	select {
	case p.queue <- job{task: task, run: run}:
		return task, nil
	default:
		p.mu.Lock()
		delete(p.tasks, task.ID)
		delete(p.byKey, coalesceKey)
		p.mu.Unlock()
		return nil, ErrBusy
	}
}

// Get returns the task by id.
func (p *Pool) Get(id string) (*Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[id]
	return t, ok
}
