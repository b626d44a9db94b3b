package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jonathan/content-engine/internal/tasks"
)

// handleGetTask returns the current snapshot of a task.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.registry.Get(r.PathValue("task_id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

// handleStreamTask sends a "status" event whenever the task changes and a
// final "complete" event once it is terminal.
func (s *Server) handleStreamTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("task_id")
	task, err := s.registry.Get(id)
	if err != nil {
		s.handleError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	var last snapshotKey
	for {
		if key := keyOf(task); key != last {
			last = key
			if task.Status.Terminal() {
				sse.WriteComplete(task)
				return
			}
			if err := sse.WriteEvent("status", task); err != nil {
				log.Printf("[server] stream for task %s closed: %v", id, err)
				return
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		task, err = s.registry.Get(id)
		if err != nil {
			if !errors.Is(err, tasks.ErrTaskNotFound) {
				log.Printf("[server] stream for task %s failed: %v", id, err)
			}
			sse.WriteError(err.Error())
			return
		}
	}
}

// snapshotKey captures the parts of a task that change as it runs. Agent
// statuses only ever grow, so their count is enough.
type snapshotKey struct {
	status      tasks.Status
	progress    int
	agentCount  int
	currentTask string
}

func keyOf(t tasks.Task) snapshotKey {
	return snapshotKey{
		status:      t.Status,
		progress:    t.Progress,
		agentCount:  len(t.AgentStatuses),
		currentTask: t.CurrentTask,
	}
}
