package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TimeLog is one contiguous interval of work on a task.
// EndTime == nil means the timer is still running ("open log").
// EndTime and DurationSeconds are set together, exactly once, on stop.
type TimeLog struct {
	ID              uuid.UUID  `json:"id"`
	TaskID          uuid.UUID  `json:"task_id"`
	OwnerID         uuid.UUID  `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds *int64     `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Open reports whether the log represents a currently running timer.
func (l *TimeLog) Open() bool { return l.EndTime == nil }

// DailySummary is derived, never persisted.
type DailySummary struct {
	Date             string  `json:"date"`
	TotalTimeSeconds int64   `json:"total_time_seconds"`
	TasksWorkedOn    []*Task `json:"tasks_worked_on"`
	CompletedTasks   []*Task `json:"completed_tasks"`
	InProgressTasks  []*Task `json:"in_progress_tasks"`
	PendingTasks     []*Task `json:"pending_tasks"`
}

// convert various user inputs to the canonical status values
func NormalizeStatus(s string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending", "todo":
		return TaskStatusPending
	case "in progress", "in-progress", "in_progress", "inprogress":
		return TaskStatusInProgress
	case "completed", "done":
		return TaskStatusCompleted
	default:
		return ""
	}
}
