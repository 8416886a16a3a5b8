// Package aggregate folds time logs into per-task and per-day totals. All
// functions are pure: no I/O, deterministic for a given now, safe to re-run
// every second from a display tick loop.
package aggregate

import (
	"time"

	"task-tracker/internal/models"

	"github.com/google/uuid"
)

// LogDuration applies the three-tier duration rule:
//  1. a closed log with a stored duration reports the stored value — it is
//     frozen at stop time and later clock changes must not alter it;
//  2. an open log reports the live difference against now, clamped at zero;
//  3. a closed log missing its stored duration (degraded/legacy record)
//     falls back to recomputing from its timestamps.
func LogDuration(log *models.TimeLog, now time.Time) int64 {
	if log.EndTime != nil && log.DurationSeconds != nil {
		return *log.DurationSeconds
	}
	end := now
	if log.EndTime != nil {
		end = *log.EndTime
	}
	seconds := end.Sub(log.StartTime).Milliseconds() / 1000
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}

// PerTaskTotals maps task id to total tracked seconds across the given logs.
func PerTaskTotals(logs []*models.TimeLog, now time.Time) map[uuid.UUID]int64 {
	totals := make(map[uuid.UUID]int64, len(logs))
	for _, log := range logs {
		totals[log.TaskID] += LogDuration(log, now)
	}
	return totals
}

// DayWindow returns [local midnight of now's date, +24h).
func DayWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.Add(24 * time.Hour)
}

// BuildDailySummary buckets the day's logs and partitions all tasks by
// status. A task counts as "worked on" iff at least one of its logs started
// inside today's window, whether or not that log has ended. The status
// partition covers every task, not just worked-on ones.
func BuildDailySummary(tasks []*models.Task, logs []*models.TimeLog, now time.Time) *models.DailySummary {
	startOfDay, endOfDay := DayWindow(now)

	var totalSeconds int64
	worked := make(map[uuid.UUID]bool)
	for _, log := range logs {
		if log.StartTime.Before(startOfDay) || !log.StartTime.Before(endOfDay) {
			continue
		}
		totalSeconds += LogDuration(log, now)
		worked[log.TaskID] = true
	}

	summary := &models.DailySummary{
		Date:             startOfDay.Format("2006-01-02"),
		TotalTimeSeconds: totalSeconds,
		TasksWorkedOn:    []*models.Task{},
		CompletedTasks:   []*models.Task{},
		InProgressTasks:  []*models.Task{},
		PendingTasks:     []*models.Task{},
	}
	for _, task := range tasks {
		if worked[task.ID] {
			summary.TasksWorkedOn = append(summary.TasksWorkedOn, task)
		}
		switch task.Status {
		case models.TaskStatusCompleted:
			summary.CompletedTasks = append(summary.CompletedTasks, task)
		case models.TaskStatusInProgress:
			summary.InProgressTasks = append(summary.InProgressTasks, task)
		default:
			summary.PendingTasks = append(summary.PendingTasks, task)
		}
	}
	return summary
}
