package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Func is the body of a background task. ctx carries the task deadline.
type Func func(ctx context.Context) error

// Launcher runs task bodies in background goroutines and tracks them until
// they return.
type Launcher struct {
	registry *Registry
	base     context.Context
	wg       sync.WaitGroup
}

// NewLauncher creates a launcher writing failures into registry. base is the
// parent of every task context; cancelling it cancels all running tasks.
func NewLauncher(base context.Context, registry *Registry) *Launcher {
	if base == nil {
		base = context.Background()
	}
	return &Launcher{registry: registry, base: base}
}

// Handle is the future for one launched task.
type Handle struct {
	id   string
	done chan struct{}
	err  error
}

// ID returns the task id.
func (h *Handle) ID() string { return h.id }

// Done is closed when the task body has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the task body's error. Valid after Done is closed.
func (h *Handle) Err() error {
	<-h.done
	return h.err
}

// Launch registers task and starts fn in a new goroutine. The context passed
// to fn expires at task.StartedAt plus the registry's maximum duration.
// If fn returns an error while the task is still open, the task is failed
// with that error's message.
func (l *Launcher) Launch(task Task, fn Func) (*Handle, error) {
	if task.StartedAt.IsZero() {
		task.StartedAt = l.registry.Now()
	}
	if err := l.registry.Create(task.ID, task); err != nil {
		return nil, err
	}

	ctx, cancel := l.taskContext(task)
	h := &Handle{id: task.ID, done: make(chan struct{})}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer close(h.done)
		defer cancel()

		h.err = l.run(ctx, task.ID, fn)
		if h.err != nil {
			msg := h.err.Error()
			if errors.Is(h.err, context.DeadlineExceeded) {
				msg = MaxDurationExceeded
			}
			if err := l.registry.Update(task.ID, Failed(msg)); err != nil && !errors.Is(err, ErrTaskFinished) {
				log.Printf("[tasks] failed to record error for %s: %v", task.ID, err)
			}
		}
	}()
	return h, nil
}

func (l *Launcher) taskContext(task Task) (context.Context, context.CancelFunc) {
	if budget := l.registry.MaxDuration(); budget > 0 {
		return context.WithDeadline(l.base, task.StartedAt.Add(budget))
	}
	return context.WithCancel(l.base)
}

func (l *Launcher) run(ctx context.Context, id string, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[tasks] task %s panicked: %v", id, r)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every launched task has returned or ctx is done.
func (l *Launcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
