package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

/*
POST /ai/suggest-task - turn free text into a {title, description} pair.
The suggestion service recovers from provider failures internally, so this
endpoint only ever fails on bad input.
*/
func (h *Handler) HandleSuggestTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := ownerID(r); !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	clientIP := r.RemoteAddr
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		sendError(w, "Too many suggestion requests. Please try again later.", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	var input struct {
		UserInput string `json:"user_input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	input.UserInput = strings.TrimSpace(input.UserInput)
	if input.UserInput == "" {
		sendError(w, "user_input is required", http.StatusBadRequest)
		return
	}

	suggestion := h.Suggester.Suggest(r.Context(), input.UserInput)
	sendData(w, http.StatusOK, suggestion)
}
