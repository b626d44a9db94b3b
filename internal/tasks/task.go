// Package tasks tracks asynchronous generation tasks in memory.
//
// Background workers write task state through Registry.Update; HTTP handlers
// read point-in-time snapshots through Registry.Get. The Registry is the only
// state shared between the two.
package tasks

import "time"

// Scope distinguishes single-item tasks from day batches.
type Scope string

// Task scopes
const (
	ScopeSingle Scope = "single"
	ScopeDay    Scope = "day"
)

// Status is the lifecycle state of a task.
type Status string

// Task statuses
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further updates are accepted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// MaxDurationExceeded is the error message set by the deadline watchdog.
const MaxDurationExceeded = "max duration exceeded"

// AgentStatus is one entry in a task's append-only audit trail.
type AgentStatus struct {
	Agent     string    `json:"agent"`
	Task      string    `json:"task"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Task is the state of one generation task. The JSON form is the status
// poll response.
type Task struct {
	ID            string        `json:"task_id"`
	CampaignID    string        `json:"campaign_id"`
	Scope         Scope         `json:"scope"`
	Status        Status        `json:"status"`
	Progress      int           `json:"progress"`
	CurrentAgent  string        `json:"current_agent,omitempty"`
	CurrentTask   string        `json:"current_task,omitempty"`
	AgentStatuses []AgentStatus `json:"agent_statuses"`
	// ItemsTotal and ItemsDone are set for day scope only.
	ItemsTotal *int   `json:"items_total,omitempty"`
	ItemsDone  *int   `json:"items_done,omitempty"`
	Error      string `json:"error,omitempty"`
	// Result is the success payload: generation data for single scope,
	// a DayResult for day scope.
	Result    any       `json:"result,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// DayResult is the completion payload of a day batch.
type DayResult struct {
	ItemsCompleted int `json:"items_completed"`
	ItemsTotal     int `json:"items_total"`
}

// NewTask builds the initial pending state for a task.
func NewTask(id, campaignID string, scope Scope, startedAt time.Time) Task {
	t := Task{
		ID:            id,
		CampaignID:    campaignID,
		Scope:         scope,
		Status:        StatusPending,
		AgentStatuses: []AgentStatus{},
		StartedAt:     startedAt,
	}
	return t
}

// NewDayTask builds the initial state for a day batch of total items.
func NewDayTask(id, campaignID string, total int, startedAt time.Time) Task {
	t := NewTask(id, campaignID, ScopeDay, startedAt)
	done := 0
	t.ItemsTotal = &total
	t.ItemsDone = &done
	return t
}

func (t Task) clone() Task {
	c := t
	c.AgentStatuses = append([]AgentStatus{}, t.AgentStatuses...)
	if t.ItemsTotal != nil {
		v := *t.ItemsTotal
		c.ItemsTotal = &v
	}
	if t.ItemsDone != nil {
		v := *t.ItemsDone
		c.ItemsDone = &v
	}
	return c
}

// Update is a partial change to a task. Nil fields are left alone.
// AppendAgents is added to the audit trail; everything else replaces.
type Update struct {
	Status       *Status
	Progress     *int
	CurrentAgent *string
	CurrentTask  *string
	ItemsDone    *int
	ItemsTotal   *int
	Error        *string
	Result       any
	AppendAgents []AgentStatus
}

// WithStatus sets the status.
func (u Update) WithStatus(s Status) Update { u.Status = &s; return u }

// WithProgress sets the progress percentage.
func (u Update) WithProgress(p int) Update { u.Progress = &p; return u }

// WithAgent sets the current agent and its task description.
func (u Update) WithAgent(agent, task string) Update {
	u.CurrentAgent = &agent
	u.CurrentTask = &task
	return u
}

// WithCurrentTask sets only the current task description.
func (u Update) WithCurrentTask(task string) Update { u.CurrentTask = &task; return u }

// WithItemsDone sets the day-batch completion count.
func (u Update) WithItemsDone(n int) Update { u.ItemsDone = &n; return u }

// WithError sets status to error with message.
func (u Update) WithError(message string) Update {
	s := StatusError
	u.Status = &s
	u.Error = &message
	return u
}

// WithResult sets the result payload.
func (u Update) WithResult(result any) Update { u.Result = result; return u }

// Append adds entries to the audit trail.
func (u Update) Append(entries ...AgentStatus) Update {
	u.AppendAgents = append(u.AppendAgents, entries...)
	return u
}

// Completed marks the task completed with result at 100%.
func Completed(result any) Update {
	return Update{}.WithStatus(StatusCompleted).WithProgress(100).WithResult(result)
}

// Failed marks the task failed with message.
func Failed(message string) Update {
	return Update{}.WithError(message)
}
