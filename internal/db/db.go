package db

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrDuplicateOpenLog is returned by TimeLogRepository.Insert when the
	// partial unique index rejects a second open log for the same task.
	ErrDuplicateOpenLog = errors.New("open time log already exists for task")

	// ErrLogAlreadyClosed is returned by TimeLogRepository.Close when the
	// end_time IS NULL guard matched no row.
	ErrLogAlreadyClosed = errors.New("time log already closed")
)

func Connect(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

// Schema holds the DDL for all tables. The partial unique index on
// time_logs(task_id) WHERE end_time IS NULL is what makes the
// one-open-log-per-task invariant hold under concurrent inserts; the
// application-level check in the timer engine only exists to give a clean
// error before hitting the index.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  status TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS time_logs (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  start_time TIMESTAMP NOT NULL,
  end_time TIMESTAMP,
  duration_seconds BIGINT,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_id ON tasks(owner_id);
CREATE INDEX IF NOT EXISTS idx_time_logs_owner_id ON time_logs(owner_id);
CREATE INDEX IF NOT EXISTS idx_time_logs_task_id ON time_logs(task_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_time_logs_open_task
  ON time_logs(task_id) WHERE end_time IS NULL;
`

func Migrate(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// works for both lib/pq (code 23505) and go-sqlite3; the sqlite driver is
// only linked in tests, so its error type is matched by message
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
