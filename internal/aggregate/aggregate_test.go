package aggregate

import (
	"testing"
	"time"

	"task-tracker/internal/models"

	"github.com/google/uuid"
)

func closedLog(taskID uuid.UUID, start time.Time, seconds int64) *models.TimeLog {
	end := start.Add(time.Duration(seconds) * time.Second)
	return &models.TimeLog{
		ID:              uuid.New(),
		TaskID:          taskID,
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: &seconds,
	}
}

func openLog(taskID uuid.UUID, start time.Time) *models.TimeLog {
	return &models.TimeLog{ID: uuid.New(), TaskID: taskID, StartTime: start}
}

// the stored duration wins over whatever the timestamps would compute to
func TestLogDuration_StoredValueTakesPrecedence(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(500 * time.Second) // timestamps say 500
	stored := int64(100)
	log := &models.TimeLog{
		ID: uuid.New(), TaskID: uuid.New(),
		StartTime: start, EndTime: &end, DurationSeconds: &stored,
	}

	if got := LogDuration(log, end.Add(time.Hour)); got != 100 {
		t.Fatalf("LogDuration = %d, want stored 100", got)
	}
}

func TestLogDuration_OpenLogGrowsWithNow(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	log := openLog(uuid.New(), start)

	at10 := LogDuration(log, start.Add(10*time.Second))
	at20 := LogDuration(log, start.Add(20*time.Second))
	if at10 != 10 || at20 != 20 {
		t.Fatalf("live durations = %d, %d; want 10, 20", at10, at20)
	}
	if at20 < at10 {
		t.Fatalf("open log total decreased: %d then %d", at10, at20)
	}
}

func TestLogDuration_ClampsNegative(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	log := openLog(uuid.New(), start)

	if got := LogDuration(log, start.Add(-5*time.Second)); got != 0 {
		t.Fatalf("LogDuration before start = %d, want 0", got)
	}
}

// degraded record: closed but no stored duration falls back to timestamps
func TestLogDuration_TimestampFallback(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Second)
	log := &models.TimeLog{ID: uuid.New(), TaskID: uuid.New(), StartTime: start, EndTime: &end}

	if got := LogDuration(log, end.Add(time.Hour)); got != 42 {
		t.Fatalf("fallback duration = %d, want 42", got)
	}
}

func TestPerTaskTotals_SumsAcrossLogs(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	taskA := uuid.New()
	taskB := uuid.New()
	logs := []*models.TimeLog{
		closedLog(taskA, start, 100),
		closedLog(taskA, start.Add(time.Hour), 50),
		openLog(taskB, start.Add(2*time.Hour)),
	}
	now := start.Add(2*time.Hour + 30*time.Second)

	totals := PerTaskTotals(logs, now)
	if totals[taskA] != 150 {
		t.Fatalf("taskA total = %d, want 150", totals[taskA])
	}
	if totals[taskB] != 30 {
		t.Fatalf("taskB total = %d, want 30", totals[taskB])
	}
}

// logs at 23:59:59 of day D and 00:00:00 of D+1 land in different summaries
func TestBuildDailySummary_DayBoundary(t *testing.T) {
	taskID := uuid.New()
	tasks := []*models.Task{{ID: taskID, Status: models.TaskStatusPending}}

	lateD := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	earlyD1 := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	logs := []*models.TimeLog{
		closedLog(taskID, lateD, 1),
		closedLog(taskID, earlyD1, 60),
	}

	dayD := BuildDailySummary(tasks, logs, time.Date(2024, 3, 10, 23, 59, 59, 500000000, time.UTC))
	if dayD.TotalTimeSeconds != 1 {
		t.Fatalf("day D total = %d, want 1", dayD.TotalTimeSeconds)
	}
	if dayD.Date != "2024-03-10" {
		t.Fatalf("day D date = %s", dayD.Date)
	}

	dayD1 := BuildDailySummary(tasks, logs, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC))
	if dayD1.TotalTimeSeconds != 60 {
		t.Fatalf("day D+1 total = %d, want 60", dayD1.TotalTimeSeconds)
	}
	if dayD1.Date != "2024-03-11" {
		t.Fatalf("day D+1 date = %s", dayD1.Date)
	}
}

func TestBuildDailySummary_StatusPartitionCoversAllTasks(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	worked := &models.Task{ID: uuid.New(), Status: models.TaskStatusInProgress}
	idleCompleted := &models.Task{ID: uuid.New(), Status: models.TaskStatusCompleted}
	idlePending := &models.Task{ID: uuid.New(), Status: models.TaskStatusPending}
	tasks := []*models.Task{worked, idleCompleted, idlePending}

	logs := []*models.TimeLog{
		closedLog(worked.ID, now.Add(-time.Hour), 120),
		closedLog(worked.ID, now.Add(-30*time.Minute), 60), // same task twice: dedup
	}

	s := BuildDailySummary(tasks, logs, now)
	if len(s.TasksWorkedOn) != 1 || s.TasksWorkedOn[0].ID != worked.ID {
		t.Fatalf("tasks_worked_on = %v, want just the worked task", s.TasksWorkedOn)
	}
	if s.TotalTimeSeconds != 180 {
		t.Fatalf("total = %d, want 180", s.TotalTimeSeconds)
	}
	// partition is status-based, independent of logging
	if len(s.CompletedTasks) != 1 || len(s.InProgressTasks) != 1 || len(s.PendingTasks) != 1 {
		t.Fatalf("partition = %d/%d/%d, want 1/1/1",
			len(s.CompletedTasks), len(s.InProgressTasks), len(s.PendingTasks))
	}
}

// recomputing with a later now is idempotent for closed logs and
// non-decreasing for open ones
func TestBuildDailySummary_Monotonic(t *testing.T) {
	taskID := uuid.New()
	tasks := []*models.Task{{ID: taskID, Status: models.TaskStatusPending}}
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	logs := []*models.TimeLog{
		closedLog(taskID, start.Add(-time.Hour), 100),
		openLog(taskID, start),
	}

	first := BuildDailySummary(tasks, logs, start.Add(10*time.Second))
	second := BuildDailySummary(tasks, logs, start.Add(20*time.Second))
	if first.TotalTimeSeconds != 110 || second.TotalTimeSeconds != 120 {
		t.Fatalf("totals = %d then %d, want 110 then 120",
			first.TotalTimeSeconds, second.TotalTimeSeconds)
	}
}
