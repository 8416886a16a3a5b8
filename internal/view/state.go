// Package view models the client-side timer state as an explicit,
// serializable value plus a pure reducer. Every transition returns a new
// State; rolling back an optimistic change is just keeping the previous
// value. Nothing here ever talks to the server.
package view

import (
	"time"

	"task-tracker/internal/aggregate"
	"task-tracker/internal/models"

	"github.com/google/uuid"
)

type State struct {
	Logs         map[uuid.UUID]*models.TimeLog `json:"logs"`
	ActiveByTask map[uuid.UUID]uuid.UUID       `json:"active_by_task"`
	Totals       map[uuid.UUID]int64           `json:"totals"`
}

func New() State {
	return State{
		Logs:         map[uuid.UUID]*models.TimeLog{},
		ActiveByTask: map[uuid.UUID]uuid.UUID{},
		Totals:       map[uuid.UUID]int64{},
	}
}

func (s State) clone() State {
	next := State{
		Logs:         make(map[uuid.UUID]*models.TimeLog, len(s.Logs)),
		ActiveByTask: make(map[uuid.UUID]uuid.UUID, len(s.ActiveByTask)),
		Totals:       make(map[uuid.UUID]int64, len(s.Totals)),
	}
	for id, log := range s.Logs {
		next.Logs[id] = log
	}
	for task, id := range s.ActiveByTask {
		next.ActiveByTask[task] = id
	}
	for task, total := range s.Totals {
		next.Totals[task] = total
	}
	return next
}

// ReplaceAll rebuilds the state from a full server response.
func ReplaceAll(logs []*models.TimeLog, now time.Time) State {
	s := New()
	for _, log := range logs {
		s.Logs[log.ID] = log
		if log.Open() {
			s.ActiveByTask[log.TaskID] = log.ID
		}
	}
	s.Totals = aggregate.PerTaskTotals(logs, now)
	return s
}

// ApplyStart records an optimistic open log (client-generated id) before the
// server has confirmed it. The caller keeps the previous State and restores
// it if the request fails.
func (s State) ApplyStart(taskID uuid.UUID, startTime, now time.Time) (State, uuid.UUID) {
	next := s.clone()
	log := &models.TimeLog{
		ID:        uuid.New(),
		TaskID:    taskID,
		StartTime: startTime,
		CreatedAt: now,
		UpdatedAt: now,
	}
	next.Logs[log.ID] = log
	next.ActiveByTask[taskID] = log.ID
	return next.Tick(now), log.ID
}

// ApplyStop optimistically closes a local log the same way the server will:
// clamped floor of the difference.
func (s State) ApplyStop(logID uuid.UUID, endTime, now time.Time) State {
	log, ok := s.Logs[logID]
	if !ok || !log.Open() {
		return s
	}
	next := s.clone()
	seconds := endTime.Sub(log.StartTime).Milliseconds() / 1000
	if seconds < 0 {
		seconds = 0
	}
	closed := *log
	closed.EndTime = &endTime
	closed.DurationSeconds = &seconds
	closed.UpdatedAt = now
	next.Logs[logID] = &closed
	if next.ActiveByTask[log.TaskID] == logID {
		delete(next.ActiveByTask, log.TaskID)
	}
	return next.Tick(now)
}

// Reconcile merges a server log into local state, keyed by log id. A
// provisional id from ApplyStart is swapped out for the server's id. A stale
// server snapshot (older UpdatedAt than what we hold for the same id) is
// ignored so an in-flight response can't clobber newer local state.
func (s State) Reconcile(serverLog *models.TimeLog, provisionalID uuid.UUID, now time.Time) State {
	if cur, ok := s.Logs[serverLog.ID]; ok && cur.UpdatedAt.After(serverLog.UpdatedAt) {
		return s
	}
	next := s.clone()
	if provisionalID != uuid.Nil && provisionalID != serverLog.ID {
		delete(next.Logs, provisionalID)
		if next.ActiveByTask[serverLog.TaskID] == provisionalID {
			delete(next.ActiveByTask, serverLog.TaskID)
		}
	}
	next.Logs[serverLog.ID] = serverLog
	if serverLog.Open() {
		next.ActiveByTask[serverLog.TaskID] = serverLog.ID
	} else if next.ActiveByTask[serverLog.TaskID] == serverLog.ID {
		delete(next.ActiveByTask, serverLog.TaskID)
	}
	return next.Tick(now)
}

// Tick recomputes displayed totals for the given instant. Closed logs keep
// their frozen durations; open logs grow with now. Runs at any rate.
func (s State) Tick(now time.Time) State {
	next := s.clone()
	logs := make([]*models.TimeLog, 0, len(next.Logs))
	for _, log := range next.Logs {
		logs = append(logs, log)
	}
	next.Totals = aggregate.PerTaskTotals(logs, now)
	return next
}

// Active returns the open log for a task, if the local state has one.
func (s State) Active(taskID uuid.UUID) *models.TimeLog {
	id, ok := s.ActiveByTask[taskID]
	if !ok {
		return nil
	}
	return s.Logs[id]
}
