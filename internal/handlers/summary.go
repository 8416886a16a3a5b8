package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"task-tracker/internal/aggregate"
)

/*
GET /summary/daily - fold today's time logs and the caller's tasks into a
DailySummary. The aggregation itself is pure; this handler only fetches and
delegates, so the same computation is what clients re-run locally each tick.
*/
func (h *Handler) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner, ok := ownerID(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tasks, err := h.TaskRepo.ListByOwner(ctx, owner)
	if err != nil {
		log.Printf("Failed to list tasks for summary: %v", err)
		sendError(w, "Failed to build summary", http.StatusInternalServerError)
		return
	}
	logs, err := h.LogRepo.ListByOwner(ctx, owner, nil)
	if err != nil {
		log.Printf("Failed to list time logs for summary: %v", err)
		sendError(w, "Failed to build summary", http.StatusInternalServerError)
		return
	}

	summary := aggregate.BuildDailySummary(tasks, logs, h.Clock.Now())
	sendData(w, http.StatusOK, summary)
}
