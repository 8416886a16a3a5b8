package timer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"task-tracker/internal/db"
	"task-tracker/internal/models"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrLogNotFound    = errors.New("time log not found")
	ErrTimerRunning   = errors.New("timer already running")
	ErrAlreadyStopped = errors.New("time log already stopped")
)

// TaskStore is the slice of task persistence the engine needs.
type TaskStore interface {
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error)
}

// TimeLogStore is the slice of time log persistence the engine needs.
// Insert must reject a second open log per task (db.ErrDuplicateOpenLog) and
// Close must reject an already-closed log (db.ErrLogAlreadyClosed).
type TimeLogStore interface {
	Insert(ctx context.Context, log *models.TimeLog) error
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.TimeLog, error)
	FindOpen(ctx context.Context, taskID, ownerID uuid.UUID) (*models.TimeLog, error)
	Close(ctx context.Context, id uuid.UUID, endTime time.Time, durationSeconds int64, updatedAt time.Time) error
}

// Engine enforces the one-active-timer-per-task invariant and computes
// durations on stop. It never auto-stops timers on task status changes;
// the handler layer sequences that explicitly.
type Engine struct {
	tasks TaskStore
	logs  TimeLogStore
	clock Clock
}

func NewEngine(tasks TaskStore, logs TimeLogStore, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{tasks: tasks, logs: logs, clock: clock}
}

// Start opens a new time log for the task. Fails with ErrTaskNotFound when
// the task is missing or owned by someone else, and ErrTimerRunning when an
// open log already exists. The pre-check via FindOpen gives the common case a
// clean error; the unique index behind Insert settles concurrent races.
func (e *Engine) Start(ctx context.Context, taskID, ownerID uuid.UUID, startTime time.Time) (*models.TimeLog, error) {
	if _, err := e.tasks.GetByID(ctx, taskID, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	open, err := e.logs.FindOpen(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrTimerRunning
	}

	now := e.clock.Now()
	log := &models.TimeLog{
		ID:        uuid.New(),
		TaskID:    taskID,
		OwnerID:   ownerID,
		StartTime: startTime,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.logs.Insert(ctx, log); err != nil {
		if errors.Is(err, db.ErrDuplicateOpenLog) {
			return nil, ErrTimerRunning
		}
		return nil, err
	}
	return log, nil
}

// Stop closes an open log. endTime == nil means "now". The raw difference is
// clamped at zero: a stop earlier than the start (clock skew, bad client
// input) stores duration 0 rather than failing, and the raw timestamps stay
// stored, so nothing is silently lost. The log is immutable afterwards.
func (e *Engine) Stop(ctx context.Context, logID, ownerID uuid.UUID, endTime *time.Time) (*models.TimeLog, error) {
	log, err := e.logs.GetByID(ctx, logID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	if !log.Open() {
		return nil, ErrAlreadyStopped
	}

	end := e.clock.Now()
	if endTime != nil {
		end = *endTime
	}
	seconds := end.Sub(log.StartTime).Milliseconds() / 1000
	if seconds < 0 {
		seconds = 0
	}

	updatedAt := e.clock.Now()
	if err := e.logs.Close(ctx, log.ID, end, seconds, updatedAt); err != nil {
		if errors.Is(err, db.ErrLogAlreadyClosed) {
			return nil, ErrAlreadyStopped
		}
		return nil, err
	}
	log.EndTime = &end
	log.DurationSeconds = &seconds
	log.UpdatedAt = updatedAt
	return log, nil
}

// ActiveFor answers "is this task currently timed, since when". Returns nil
// when no timer is running.
func (e *Engine) ActiveFor(ctx context.Context, taskID, ownerID uuid.UUID) (*models.TimeLog, error) {
	return e.logs.FindOpen(ctx, taskID, ownerID)
}
