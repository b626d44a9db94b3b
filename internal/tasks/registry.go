package tasks

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrTaskNotFound is returned for unknown task ids.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskExists is returned when creating a duplicate id.
	ErrTaskExists = errors.New("task already exists")
	// ErrTaskFinished is returned when updating a completed or failed task.
	ErrTaskFinished = errors.New("task already finished")
)

// Registry holds task state for the lifetime of the process.
type Registry struct {
	mu          sync.RWMutex
	tasks       map[string]*Task
	maxDuration time.Duration
	now         func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the wall clock. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates a registry whose watchdog fails tasks older than
// maxDuration. A zero maxDuration disables the watchdog.
func NewRegistry(maxDuration time.Duration, opts ...Option) *Registry {
	r := &Registry{
		tasks:       make(map[string]*Task),
		maxDuration: maxDuration,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxDuration returns the per-task wall-clock budget.
func (r *Registry) MaxDuration() time.Duration {
	return r.maxDuration
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.now()
}

// Create registers a task under id.
func (r *Registry) Create(id string, initial Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; exists {
		return fmt.Errorf("%w: %s", ErrTaskExists, id)
	}
	t := initial.clone()
	t.ID = id
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.AgentStatuses == nil {
		t.AgentStatuses = []AgentStatus{}
	}
	if t.StartedAt.IsZero() {
		t.StartedAt = r.now()
	}
	r.tasks[id] = &t
	return nil
}

// Update merges u into the task. Progress never moves backwards, and
// terminal tasks reject every update with ErrTaskFinished.
func (r *Registry) Update(id string, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	r.applyWatchdog(t)
	if t.Status.Terminal() {
		return fmt.Errorf("%w: %s (%s)", ErrTaskFinished, id, t.Status)
	}

	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Progress != nil {
		p := clamp(*u.Progress, 0, 100)
		if p > t.Progress {
			t.Progress = p
		}
	}
	if u.CurrentAgent != nil {
		t.CurrentAgent = *u.CurrentAgent
	}
	if u.CurrentTask != nil {
		t.CurrentTask = *u.CurrentTask
	}
	if u.ItemsTotal != nil {
		v := *u.ItemsTotal
		t.ItemsTotal = &v
	}
	if u.ItemsDone != nil {
		v := *u.ItemsDone
		t.ItemsDone = &v
	}
	if u.Error != nil {
		t.Error = *u.Error
	}
	if u.Result != nil {
		t.Result = u.Result
	}
	if len(u.AppendAgents) > 0 {
		now := r.now()
		for _, entry := range u.AppendAgents {
			if entry.Timestamp.IsZero() {
				entry.Timestamp = now
			}
			t.AgentStatuses = append(t.AgentStatuses, entry)
		}
	}
	return nil
}

// Get returns a snapshot of the task. A non-terminal task older than the
// maximum duration is failed here, at read time.
func (r *Registry) Get(id string) (Task, error) {
	// Write lock: the watchdog may mutate the task.
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	r.applyWatchdog(t)
	return t.clone(), nil
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func (r *Registry) applyWatchdog(t *Task) {
	if r.maxDuration <= 0 || t.Status.Terminal() {
		return
	}
	if r.now().Sub(t.StartedAt) > r.maxDuration {
		t.Status = StatusError
		t.Error = MaxDurationExceeded
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
