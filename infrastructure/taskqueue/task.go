// Package taskqueue provides a small fixed worker pool and a task registry
// keyed by stable task ids, used by the Schedule Sync Orchestrator (C6) and
// Background Scheduler (C15). Long-running work exposes cancel()/progress()
// rather than raw goroutines (Design Note §9).
package taskqueue

import (
	"context"
	"sync"
	"time"
)

// Status is the terminal/non-terminal state of a Task.
type Status string

const (
	StatusPending             Status = "Pending"
	StatusRunning             Status = "Running"
	StatusCompleted           Status = "Completed"
	StatusCompletedWithErrors Status = "CompletedWithErrors"
	StatusFailed              Status = "Failed"
	StatusCancelled           Status = "Cancelled"
)

// IsTerminal reports whether s is a terminal status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Task is a tracked background unit of work.
type Task struct {
	mu sync.Mutex

	ID          string
	Kind        string
	Status      Status
	ProgressPct int
	Totals      map[string]int
	Errors      []string
	StartedAt   time.Time
	EndedAt     time.Time
	FailReason  string

	cancel context.CancelFunc
	done   chan struct{}
}

func newTask(id, kind string) *Task {
	return &Task{
		ID:     id,
		Kind:   kind,
		Status: StatusPending,
		Totals: make(map[string]int),
		done:   make(chan struct{}),
	}
}

// Cancel requests cancellation; the running step observes it between units
// of work (e.g. between sheet cells).
func (t *Task) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Snapshot returns a copy of the task's current observable state.
func (t *Task) Snapshot() Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := Task{
		ID:          t.ID,
		Kind:        t.Kind,
		Status:      t.Status,
		ProgressPct: t.ProgressPct,
		Totals:      make(map[string]int, len(t.Totals)),
		Errors:      append([]string(nil), t.Errors...),
		StartedAt:   t.StartedAt,
		EndedAt:     t.EndedAt,
		FailReason:  t.FailReason,
	}
	for k, v := range t.Totals {
		cp.Totals[k] = v
	}
	return cp
}

// SetProgress updates the progress percentage (0-100).
func (t *Task) SetProgress(pct int) {
	t.mu.Lock()
	t.ProgressPct = pct
	t.mu.Unlock()
}

// IncrTotal increments a named counter (e.g. "success_count", "error_count").
func (t *Task) IncrTotal(name string, delta int) {
	t.mu.Lock()
	t.Totals[name] += delta
	t.mu.Unlock()
}

// AddError appends an error message, bounded to maxErrors entries (spec §4.6:
// first 50).
func (t *Task) AddError(msg string, maxErrors int) {
	t.mu.Lock()
	if len(t.Errors) < maxErrors {
		t.Errors = append(t.Errors, msg)
	}
	t.mu.Unlock()
}

// Finish marks the task terminal with the given status and reason. Callers
// running inside a Pool job call this exactly once to end the task.
func (t *Task) Finish(status Status, reason string) {
	t.finish(status, reason)
}

func (t *Task) finish(status Status, reason string) {
	t.mu.Lock()
	t.Status = status
	t.FailReason = reason
	t.EndedAt = time.Now()
	t.mu.Unlock()
	close(t.done)
}

// Wait blocks until the task reaches a terminal status or ctx is done,
// whichever comes first. Used by tests via Orchestrator.Await.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
