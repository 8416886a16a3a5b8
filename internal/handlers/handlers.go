package handlers

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"sync"
	"time"

	"task-tracker/internal/ai"
	"task-tracker/internal/db"
	"task-tracker/internal/timer"

	"github.com/google/uuid"
)

// Suggester is the AI collaborator; it never fails, so no error return.
type Suggester interface {
	Suggest(ctx context.Context, userInput string) ai.Suggestion
}

type Handler struct {
	UserRepo    db.UserRepositoryInterface
	TaskRepo    db.TaskRepositoryInterface
	LogRepo     db.TimeLogRepositoryInterface
	Timer       *timer.Engine
	Clock       timer.Clock
	Suggester   Suggester
	RateLimiter *RateLimiter
	WSHub       *WSHub
}

// Routes wires every endpoint onto a mux; main and the tests share it.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", h.Register)
	mux.HandleFunc("/auth/login", h.Login)
	mux.HandleFunc("/tasks", h.AuthMiddleware(h.HandleTasks))
	mux.HandleFunc("/tasks/", h.AuthMiddleware(h.HandleTaskByID))
	mux.HandleFunc("/time-logs", h.AuthMiddleware(h.HandleTimeLogs))
	mux.HandleFunc("/time-logs/", h.AuthMiddleware(h.HandleTimeLogByID))
	mux.HandleFunc("/summary/daily", h.AuthMiddleware(h.HandleDailySummary))
	mux.HandleFunc("/ai/suggest-task", h.AuthMiddleware(h.HandleSuggestTask))
	mux.HandleFunc("/ws", h.AuthMiddleware(h.HandleWebSocket))
	return mux
}

// apiResponse is the wire envelope for every endpoint.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func sendData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func sendMessage(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data, Message: message})
}

func sendError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}

type ctxKey string

const userIDKey ctxKey = "user_id"

// ownerID resolves the authenticated owner from the request context. The
// handlers never trust a caller-supplied owner id for scoping.
func ownerID(r *http.Request) (uuid.UUID, bool) {
	s, _ := r.Context().Value(userIDKey).(string)
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

type RateLimiter struct {
	attempts map[string]int
	limit    int
	mutex    sync.Mutex
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	count, exists := rl.attempts[ip]
	if !exists {
		rl.attempts[ip] = 1
		return true
	}
	if count >= rl.limit {
		return false
	}
	rl.attempts[ip]++
	return true
}

// reset the attempts map every window duration
func (rl *RateLimiter) cleanup() {
	for range time.Tick(rl.window) {
		rl.mutex.Lock()
		rl.attempts = make(map[string]int)
		rl.mutex.Unlock()
	}
}
