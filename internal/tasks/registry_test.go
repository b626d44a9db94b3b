package tasks

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(budget time.Duration) (*Registry, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	return NewRegistry(budget, WithClock(clock.Now)), clock
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, clock := newTestRegistry(time.Hour)

	require.NoError(t, r.Create("t1", NewTask("t1", "camp-1", ScopeSingle, time.Time{})))

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "camp-1", got.CampaignID)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, clock.Now(), got.StartedAt)
	assert.NotNil(t, got.AgentStatuses)
	assert.Nil(t, got.ItemsTotal)
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	require.NoError(t, r.Create("t1", Task{}))

	err := r.Create("t1", Task{})
	assert.ErrorIs(t, err, ErrTaskExists)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = r.Update("missing", Update{}.WithProgress(10))
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRegistry_UpdateMerges(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	require.NoError(t, r.Create("t1", NewDayTask("t1", "c", 3, time.Time{})))

	require.NoError(t, r.Update("t1", Update{}.
		WithStatus(StatusInProgress).
		WithAgent("content_writer", "Writing draft").
		Append(AgentStatus{Agent: "content_writer", Status: "started"})))
	require.NoError(t, r.Update("t1", Update{}.
		WithItemsDone(1).
		WithProgress(33).
		Append(AgentStatus{Agent: "content_writer", Status: "completed"})))

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.Equal(t, "content_writer", got.CurrentAgent)
	assert.Equal(t, "Writing draft", got.CurrentTask)
	assert.Equal(t, 33, got.Progress)
	require.NotNil(t, got.ItemsDone)
	assert.Equal(t, 1, *got.ItemsDone)
	require.NotNil(t, got.ItemsTotal)
	assert.Equal(t, 3, *got.ItemsTotal)

	require.Len(t, got.AgentStatuses, 2)
	assert.Equal(t, "started", got.AgentStatuses[0].Status)
	assert.Equal(t, "completed", got.AgentStatuses[1].Status)
	assert.False(t, got.AgentStatuses[0].Timestamp.IsZero())
}

func TestRegistry_ProgressMonotonic(t *testing.T) {
	tests := []struct {
		name     string
		updates  []int
		expected int
	}{
		{name: "increasing", updates: []int{10, 50, 80}, expected: 80},
		{name: "regression ignored", updates: []int{60, 20}, expected: 60},
		{name: "clamped high", updates: []int{150}, expected: 100},
		{name: "clamped low", updates: []int{-5}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(time.Hour)
			require.NoError(t, r.Create("t", Task{}))
			for _, p := range tt.updates {
				require.NoError(t, r.Update("t", Update{}.WithProgress(p)))
			}
			got, err := r.Get("t")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Progress)
		})
	}
}

func TestRegistry_TerminalIsImmutable(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	require.NoError(t, r.Create("t1", Task{}))
	require.NoError(t, r.Update("t1", Completed(map[string]string{"ok": "yes"})))

	err := r.Update("t1", Failed("late failure"))
	assert.ErrorIs(t, err, ErrTaskFinished)

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Empty(t, got.Error)
}

func TestRegistry_Watchdog(t *testing.T) {
	r, clock := newTestRegistry(10 * time.Minute)
	require.NoError(t, r.Create("t1", Task{Status: StatusInProgress}))

	clock.Advance(5 * time.Minute)
	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	clock.Advance(6 * time.Minute)
	got, err = r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, MaxDurationExceeded, got.Error)

	// The flipped task no longer accepts worker writes.
	err = r.Update("t1", Completed(nil))
	assert.ErrorIs(t, err, ErrTaskFinished)
}

func TestRegistry_WatchdogSkipsTerminal(t *testing.T) {
	r, clock := newTestRegistry(time.Minute)
	require.NoError(t, r.Create("t1", Task{}))
	require.NoError(t, r.Update("t1", Completed("done")))

	clock.Advance(time.Hour)
	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestRegistry_WatchdogDisabled(t *testing.T) {
	r, clock := newTestRegistry(0)
	require.NoError(t, r.Create("t1", Task{}))
	clock.Advance(1000 * time.Hour)

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestRegistry_SnapshotIsolated(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	require.NoError(t, r.Create("t1", NewDayTask("t1", "c", 2, time.Time{})))
	require.NoError(t, r.Update("t1", Update{}.Append(AgentStatus{Agent: "a"})))

	snap, err := r.Get("t1")
	require.NoError(t, err)
	snap.AgentStatuses[0].Agent = "mutated"
	*snap.ItemsDone = 99

	again, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.AgentStatuses[0].Agent)
	assert.Equal(t, 0, *again.ItemsDone)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	require.NoError(t, r.Create("t1", Task{}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.Update("t1", Update{}.WithProgress(i).Append(AgentStatus{Agent: "w"}))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = r.Get("t1")
		}()
	}
	wg.Wait()

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Len(t, got.AgentStatuses, 20)
	assert.Equal(t, 19, got.Progress)
}
