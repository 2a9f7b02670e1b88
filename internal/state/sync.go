package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const syncTimeout = 10 * time.Second

// syncQueue is the write-through half of the optimistic-update contract:
// mutations apply locally first, then a task lands here to mirror them to
// the backend. Failures are logged and swallowed; local state remains the
// effective truth for the session. Retry/backoff can slot in here later
// without touching calling code.
type syncQueue struct {
	sugar *zap.SugaredLogger
	tasks chan syncTask

	closeOnce sync.Once
	done      chan struct{}
}

type syncTask struct {
	name string
	run  func(ctx context.Context) error
}

func newSyncQueue(sugar *zap.SugaredLogger) *syncQueue {
	q := &syncQueue{
		sugar: sugar,
		tasks: make(chan syncTask, 256),
		done:  make(chan struct{}),
	}
	go q.worker()
	return q
}

func (q *syncQueue) worker() {
	defer close(q.done)

	for task := range q.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		err := task.run(ctx)
		cancel()
		if err != nil {
			q.sugar.Errorf("remote sync [%s] failed: %v", task.name, err)
		}
	}
}

// Enqueue schedules a remote sync. Never blocks: when the queue is full the
// task is dropped, which is within the best-effort durability contract.
func (q *syncQueue) Enqueue(name string, run func(ctx context.Context) error) {
	select {
	case q.tasks <- syncTask{name: name, run: run}:
	default:
		q.sugar.Warnf("sync queue full, dropping [%s]", name)
	}
}

// Close drains remaining tasks and stops the worker.
func (q *syncQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.tasks)
		<-q.done
	})
}
