package workqueue

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Queue executes tasks on background goroutines, at most maxConcurrent at a
// time. Task errors are recorded and logged, never returned to the enqueuer:
// the enqueuer has usually already answered its own caller by the time the
// task runs.
type Queue struct {
	mu        sync.Mutex
	tasks     []*TaskState
	running   int
	cancelled bool

	maxConcurrent int

	// wg tracks running goroutines
	wg sync.WaitGroup

	// Cancellation context for running tasks
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

// New creates a new work queue. maxConcurrent bounds simultaneous tasks;
// values below 1 are treated as 1.
func New(maxConcurrent int, logger *zap.Logger) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		tasks:         make([]*TaskState, 0),
		maxConcurrent: maxConcurrent,
		ctx:           ctx,
		cancel:        cancel,
		logger:        logger.Named("workqueue"),
	}
}

// Enqueue adds a task to the queue and starts it as soon as capacity allows.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cancelled {
		q.logger.Warn("queue cancelled, ignoring enqueue",
			zap.String("task_id", task.ID()),
			zap.String("task_name", task.Name()))
		return
	}

	state := NewTaskState(task)
	q.tasks = append(q.tasks, state)

	q.logger.Info("task enqueued",
		zap.String("task_id", task.ID()),
		zap.String("task_name", task.Name()))

	q.tryStartTasksLocked()
}

// tryStartTasksLocked starts pending tasks while capacity remains.
// Must be called with lock held.
func (q *Queue) tryStartTasksLocked() {
	if q.cancelled {
		return
	}

	for _, ts := range q.tasks {
		if q.running >= q.maxConcurrent {
			return
		}
		if ts.GetStatus() != TaskStatusPending {
			continue
		}

		ts.SetStatus(TaskStatusRunning)
		q.running++

		q.logger.Info("starting task",
			zap.String("task_id", ts.Task.ID()),
			zap.String("task_name", ts.Task.Name()))

		q.wg.Add(1)
		go q.runTask(ts)
	}
}

// runTask executes a task once. There is no retry: tasks that need one get
// re-enqueued explicitly by an operator action.
func (q *Queue) runTask(ts *TaskState) {
	defer q.wg.Done()

	err := ts.Task.Execute(q.ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.running--

	switch {
	case err == nil:
		ts.SetStatus(TaskStatusCompleted)
		q.logger.Info("task completed",
			zap.String("task_id", ts.Task.ID()),
			zap.String("task_name", ts.Task.Name()))
	case errors.Is(err, context.Canceled):
		ts.SetStatus(TaskStatusCancelled)
		q.logger.Info("task cancelled",
			zap.String("task_id", ts.Task.ID()),
			zap.String("task_name", ts.Task.Name()))
	default:
		ts.SetStatus(TaskStatusFailed)
		ts.SetError(err)
		q.logger.Error("task failed",
			zap.String("task_id", ts.Task.ID()),
			zap.String("task_name", ts.Task.Name()),
			zap.Error(err))
	}

	q.tryStartTasksLocked()
}

// Shutdown cancels running tasks and waits for them to return, up to ctx.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.cancelled {
		q.mu.Unlock()
		return nil
	}
	q.cancelled = true
	q.cancel()
	for _, ts := range q.tasks {
		if ts.GetStatus() == TaskStatusPending {
			ts.SetStatus(TaskStatusCancelled)
		}
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every enqueued task reached a terminal state.
// Intended for tests.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Progress holds queue progress statistics.
type Progress struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Progress returns a snapshot of queue statistics.
func (q *Queue) Progress() Progress {
	q.mu.Lock()
	defer q.mu.Unlock()

	p := Progress{Total: len(q.tasks)}
	for _, ts := range q.tasks {
		switch ts.GetStatus() {
		case TaskStatusPending:
			p.Pending++
		case TaskStatusRunning:
			p.Running++
		case TaskStatusCompleted:
			p.Completed++
		case TaskStatusFailed:
			p.Failed++
		case TaskStatusCancelled:
			p.Cancelled++
		}
	}
	return p
}
