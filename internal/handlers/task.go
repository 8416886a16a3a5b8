package handlers

import (
	"context"
	"database/sql"
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
- GET /tasks - list the caller's tasks, newest first
- POST /tasks - create a new task
*/
func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTasks(w, r)
	case http.MethodPost:
		h.createTask(w, r)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	tasks, err := h.TaskRepo.ListByOwner(ctx, owner)
	if err != nil {
		log.Printf("Failed to list tasks for %s: %v", owner, err)
		sendError(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	sendData(w, http.StatusOK, tasks)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
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
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		sendError(w, "Title is required", http.StatusBadRequest)
		return
	}
	if len(input.Title) > 200 {
		sendError(w, "title too long (max 200 chars)", http.StatusBadRequest)
		return
	}

	status := models.NormalizeStatus(input.Status)
	if status == "" {
		sendError(w, "Invalid status value", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.TaskRepo.Create(ctx, task); err != nil {
		log.Printf("Failed to create task for %s: %v", owner, err)
		sendError(w, "Failed to create task", http.StatusInternalServerError)
		return
	}
	h.WSHub.BroadcastTaskUpdate(owner, task)
	w.Header().Set("Location", "/tasks/"+task.ID.String())
	sendData(w, http.StatusCreated, task)
}

/*
routes:
- GET /tasks/{id},
- PUT/PATCH /tasks/{id},
- DELETE /tasks/{id}
*/
func (h *Handler) HandleTaskByID(w http.ResponseWriter, r *http.Request) {
	taskIDstr := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if taskIDstr == "" {
		sendError(w, "task_id is required", http.StatusBadRequest)
		return
	}
	taskID, err := uuid.Parse(taskIDstr)
	if err != nil {
		sendError(w, "task_id must be a valid uuid", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getTaskByID(w, r, taskID)
	case http.MethodPut, http.MethodPatch:
		h.updateTaskByID(w, r, taskID)
	case http.MethodDelete:
		h.deleteTaskByID(w, r, taskID)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getTaskByID(w http.ResponseWriter, r *http.Request, taskID uuid.UUID) {
	owner, ok := ownerID(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	task, err := h.TaskRepo.GetByID(ctx, taskID, owner)
	if err != nil {
		sendError(w, "Task not found", http.StatusNotFound)
		return
	}
	sendData(w, http.StatusOK, task)
}

func (h *Handler) updateTaskByID(w http.ResponseWriter, r *http.Request, taskID uuid.UUID) {
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := h.TaskRepo.GetByID(ctx, taskID, owner)
	if err != nil {
		sendError(w, "Task not found", http.StatusNotFound)
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Title == nil && input.Description == nil && input.Status == nil {
		sendError(w, "No fields to update", http.StatusBadRequest)
		return
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			sendError(w, "title cannot be empty", http.StatusBadRequest)
			return
		}
		if len(title) > 200 {
			sendError(w, "title too long (max 200 chars)", http.StatusBadRequest)
			return
		}
		existing.Title = title
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if len(desc) > 1000 {
			sendError(w, "description too long (max 1000 chars)", http.StatusBadRequest)
			return
		}
		existing.Description = desc
	}
	if input.Status != nil {
		status := models.NormalizeStatus(*input.Status)
		if status == "" {
			sendError(w, "Invalid status value", http.StatusBadRequest)
			return
		}
		// Completing a task with a running timer is a sequenced two-step:
		// stop the timer first so its time is frozen, then flip the status.
		// The timer engine itself never auto-stops.
		if status == models.TaskStatusCompleted && existing.Status != models.TaskStatusCompleted {
			if err := h.stopActiveTimer(ctx, taskID, owner); err != nil {
				log.Printf("Failed to stop timer before completing task %s: %v", taskID, err)
				sendError(w, "Failed to stop running timer", http.StatusInternalServerError)
				return
			}
		}
		existing.Status = status
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := h.TaskRepo.Update(ctx, existing); err != nil {
		log.Printf("Failed to update task %s: %v", taskID, err)
		sendError(w, "Failed to update task", http.StatusInternalServerError)
		return
	}
	h.WSHub.BroadcastTaskUpdate(owner, existing)
	sendData(w, http.StatusOK, existing)
}

func (h *Handler) stopActiveTimer(ctx context.Context, taskID, owner uuid.UUID) error {
	open, err := h.Timer.ActiveFor(ctx, taskID, owner)
	if err != nil || open == nil {
		return err
	}
	closed, err := h.Timer.Stop(ctx, open.ID, owner, nil)
	if errors.Is(err, timer.ErrAlreadyStopped) {
		// lost a race with an explicit stop; the time is already frozen
		return nil
	}
	if err != nil {
		return err
	}
	h.WSHub.BroadcastTimerEvent(owner, "timer_stopped", closed)
	return nil
}

func (h *Handler) deleteTaskByID(w http.ResponseWriter, r *http.Request, taskID uuid.UUID) {
	owner, ok := ownerID(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// cascades to the task's time logs, open ones included
	if err := h.TaskRepo.Delete(ctx, taskID, owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendError(w, "Task not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to delete task %s: %v", taskID, err)
		sendError(w, "Failed to delete task", http.StatusInternalServerError)
		return
	}
	h.WSHub.BroadcastTaskDeleted(owner, taskID)
	sendMessage(w, http.StatusOK, nil, "Task deleted")
}
