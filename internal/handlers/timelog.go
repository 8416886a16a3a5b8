package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"task-tracker/internal/models"
	"task-tracker/internal/timer"

	"github.com/google/uuid"
)

/*
handles routes:
- POST /time-logs - start a timer for a task
- GET /time-logs?task_id={task_id} - list the caller's time logs
*/
func (h *Handler) HandleTimeLogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.startTimeLog(w, r)
	case http.MethodGet:
		h.listTimeLogs(w, r)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) startTimeLog(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	var input struct {
		TaskID    string     `json:"task_id"`
		StartTime *time.Time `json:"start_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.TaskID == "" || input.StartTime == nil {
		sendError(w, "task_id and start_time are required", http.StatusBadRequest)
		return
	}
	taskID, err := uuid.Parse(input.TaskID)
	if err != nil {
		sendError(w, "task_id must be a valid uuid", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	logEntry, err := h.Timer.Start(ctx, taskID, owner, *input.StartTime)
	switch {
	case errors.Is(err, timer.ErrTaskNotFound):
		sendError(w, "Task not found", http.StatusNotFound)
		return
	case errors.Is(err, timer.ErrTimerRunning):
		sendError(w, "Active timer already running", http.StatusConflict)
		return
	case err != nil:
		log.Printf("Failed to start timer for task %s: %v", taskID, err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.WSHub.BroadcastTimerEvent(owner, "timer_started", logEntry)
	sendData(w, http.StatusCreated, logEntry)
}

func (h *Handler) listTimeLogs(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var taskFilter *uuid.UUID
	if q := r.URL.Query().Get("task_id"); q != "" {
		taskID, err := uuid.Parse(q)
		if err != nil {
			sendError(w, "task_id must be a valid uuid", http.StatusBadRequest)
			return
		}
		taskFilter = &taskID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	logs, err := h.LogRepo.ListByOwner(ctx, owner, taskFilter)
	if err != nil {
		log.Printf("Failed to list time logs for %s: %v", owner, err)
		sendError(w, "Failed to list time logs", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []*models.TimeLog{}
	}
	sendData(w, http.StatusOK, logs)
}

/*
routes:
- POST /time-logs/{id}/stop
*/
func (h *Handler) HandleTimeLogByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/time-logs/")
	logIDstr, action, _ := strings.Cut(rest, "/")
	if logIDstr == "" {
		sendError(w, "time log id is required", http.StatusBadRequest)
		return
	}
	logID, err := uuid.Parse(logIDstr)
	if err != nil {
		sendError(w, "time log id must be a valid uuid", http.StatusBadRequest)
		return
	}
	if action != "stop" || r.Method != http.MethodPost {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.stopTimeLog(w, r, logID)
}

func (h *Handler) stopTimeLog(w http.ResponseWriter, r *http.Request, logID uuid.UUID) {
	owner, ok := ownerID(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// body is optional; an absent end_time means "stop now"
	var input struct {
		EndTime *time.Time `json:"end_time"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&input)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	logEntry, err := h.Timer.Stop(ctx, logID, owner, input.EndTime)
	switch {
	case errors.Is(err, timer.ErrLogNotFound):
		sendError(w, "Time log not found", http.StatusNotFound)
		return
	case errors.Is(err, timer.ErrAlreadyStopped):
		sendError(w, "Time log already stopped", http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("Failed to stop time log %s: %v", logID, err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.WSHub.BroadcastTimerEvent(owner, "timer_stopped", logEntry)
	sendData(w, http.StatusOK, logEntry)
}
