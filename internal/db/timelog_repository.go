package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"task-tracker/internal/models"

	"github.com/google/uuid"
)

// defines methods for time log db operations
type TimeLogRepositoryInterface interface {
	Insert(ctx context.Context, log *models.TimeLog) error
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.TimeLog, error)
	FindOpen(ctx context.Context, taskID, ownerID uuid.UUID) (*models.TimeLog, error)
	Close(ctx context.Context, id uuid.UUID, endTime time.Time, durationSeconds int64, updatedAt time.Time) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, taskID *uuid.UUID) ([]*models.TimeLog, error)
}

type TimeLogRepository struct {
	db *sql.DB
}

func NewTimeLogRepository(db *sql.DB) *TimeLogRepository {
	return &TimeLogRepository{db: db}
}

func (r *TimeLogRepository) Insert(ctx context.Context, log *models.TimeLog) error {
	query := `INSERT INTO time_logs (id, task_id, owner_id, start_time, end_time, duration_seconds, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(
		ctx, query, log.ID, log.TaskID, log.OwnerID, log.StartTime, log.EndTime,
		log.DurationSeconds, log.CreatedAt, log.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert time log for task %s: %w", log.TaskID, ErrDuplicateOpenLog)
	}
	return err
}

func (r *TimeLogRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.TimeLog, error) {
	query := `SELECT id, task_id, owner_id, start_time, end_time, duration_seconds, created_at, updated_at
	 FROM time_logs WHERE id = $1 AND owner_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// FindOpen returns the open log for (task, owner), or nil when the task has
// no running timer. At most one row can match thanks to the partial index.
func (r *TimeLogRepository) FindOpen(ctx context.Context, taskID, ownerID uuid.UUID) (*models.TimeLog, error) {
	query := `SELECT id, task_id, owner_id, start_time, end_time, duration_seconds, created_at, updated_at
	 FROM time_logs WHERE task_id = $1 AND owner_id = $2 AND end_time IS NULL`
	log, err := r.scanOne(r.db.QueryRowContext(ctx, query, taskID, ownerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return log, err
}

// Close sets end_time and duration_seconds on an open log. The end_time IS
// NULL guard makes a second concurrent stop lose the race cleanly instead of
// overwriting the frozen duration.
func (r *TimeLogRepository) Close(ctx context.Context, id uuid.UUID, endTime time.Time, durationSeconds int64, updatedAt time.Time) error {
	query := `UPDATE time_logs SET end_time = $1, duration_seconds = $2, updated_at = $3
	 WHERE id = $4 AND end_time IS NULL`
	res, err := r.db.ExecContext(ctx, query, endTime, durationSeconds, updatedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLogAlreadyClosed
	}
	return nil
}

func (r *TimeLogRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, taskID *uuid.UUID) ([]*models.TimeLog, error) {
	query := `SELECT id, task_id, owner_id, start_time, end_time, duration_seconds, created_at, updated_at
	 FROM time_logs WHERE owner_id = $1`
	args := []any{ownerID}
	if taskID != nil {
		query += ` AND task_id = $2`
		args = append(args, *taskID)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.TimeLog
	for rows.Next() {
		log, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TimeLogRepository) scanOne(row *sql.Row) (*models.TimeLog, error) {
	return r.scanRow(row)
}

func (r *TimeLogRepository) scanRow(row rowScanner) (*models.TimeLog, error) {
	log := &models.TimeLog{}
	var endTime sql.NullTime
	var duration sql.NullInt64
	err := row.Scan(
		&log.ID, &log.TaskID, &log.OwnerID, &log.StartTime, &endTime, &duration,
		&log.CreatedAt, &log.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		log.EndTime = &t
	}
	if duration.Valid {
		d := duration.Int64
		log.DurationSeconds = &d
	}
	return log, nil
}
