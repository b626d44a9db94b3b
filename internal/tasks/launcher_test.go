package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLauncher_RunsAndCompletes(t *testing.T) {
	r := NewRegistry(time.Minute)
	l := NewLauncher(context.Background(), r)

	h, err := l.Launch(NewTask("t1", "c", ScopeSingle, time.Time{}), func(ctx context.Context) error {
		return r.Update("t1", Completed("result"))
	})
	require.NoError(t, err)
	require.NoError(t, h.Err())
	assert.Equal(t, "t1", h.ID())

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "result", got.Result)
}

func TestLauncher_ErrorFailsTask(t *testing.T) {
	r := NewRegistry(time.Minute)
	l := NewLauncher(context.Background(), r)

	h, err := l.Launch(Task{ID: "t1"}, func(ctx context.Context) error {
		return errors.New("pipeline exploded")
	})
	require.NoError(t, err)
	assert.EqualError(t, h.Err(), "pipeline exploded")

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "pipeline exploded", got.Error)
}

func TestLauncher_PanicRecovered(t *testing.T) {
	r := NewRegistry(time.Minute)
	l := NewLauncher(context.Background(), r)

	h, err := l.Launch(Task{ID: "t1"}, func(ctx context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)
	require.Error(t, h.Err())

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Contains(t, got.Error, "boom")
}

func TestLauncher_DeadlineFromStartedAt(t *testing.T) {
	r := NewRegistry(time.Minute)
	l := NewLauncher(context.Background(), r)

	// Backdated beyond the budget: the context is already expired.
	started := time.Now().Add(-2 * time.Minute)
	h, err := l.Launch(Task{ID: "t1", StartedAt: started}, func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.Equal(t, started.Add(time.Minute), deadline)
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.ErrorIs(t, h.Err(), context.DeadlineExceeded)

	got, err := r.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, MaxDurationExceeded, got.Error)
}

func TestLauncher_DuplicateID(t *testing.T) {
	r := NewRegistry(time.Minute)
	l := NewLauncher(context.Background(), r)
	require.NoError(t, r.Create("t1", Task{}))

	_, err := l.Launch(Task{ID: "t1"}, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrTaskExists)
}

func TestLauncher_Wait(t *testing.T) {
	r := NewRegistry(time.Minute)
	l := NewLauncher(context.Background(), r)

	release := make(chan struct{})
	_, err := l.Launch(Task{ID: "t1"}, func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(short), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, l.Wait(context.Background()))
}

func TestLauncher_BaseCancellation(t *testing.T) {
	r := NewRegistry(time.Minute)
	base, cancel := context.WithCancel(context.Background())
	l := NewLauncher(base, r)

	h, err := l.Launch(Task{ID: "t1"}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	cancel()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not observe cancellation")
	}
	assert.ErrorIs(t, h.Err(), context.Canceled)
}
