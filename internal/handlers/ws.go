package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"task-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHub fans task and timer events out to every WebSocket connection an
// owner has open, so a second tab sees timers start and stop live.
type WSHub struct {
	connections map[uuid.UUID]map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[uuid.UUID]map[*websocket.Conn]bool)}
}

func (h *WSHub) broadcast(ownerID uuid.UUID, payload map[string]any) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, exists := h.connections[ownerID]
	if !exists {
		return
	}

	message, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal WS event: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			delete(conns, conn)
			conn.Close()
		}
	}
}

func (h *WSHub) BroadcastTaskUpdate(ownerID uuid.UUID, task *models.Task) {
	h.broadcast(ownerID, map[string]any{
		"event":   "task_updated",
		"task_id": task.ID,
		"title":   task.Title,
		"status":  task.Status,
	})
}

func (h *WSHub) BroadcastTaskDeleted(ownerID, taskID uuid.UUID) {
	h.broadcast(ownerID, map[string]any{
		"event":   "task_deleted",
		"task_id": taskID,
	})
}

func (h *WSHub) BroadcastTimerEvent(ownerID uuid.UUID, event string, logEntry *models.TimeLog) {
	h.broadcast(ownerID, map[string]any{
		"event":      event,
		"log_id":     logEntry.ID,
		"task_id":    logEntry.TaskID,
		"start_time": logEntry.StartTime,
		"end_time":   logEntry.EndTime,
	})
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	clientIP := r.RemoteAddr
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		sendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Adjust for production (e.g., check specific origins)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.WSHub.mutex.Lock()
	if h.WSHub.connections[owner] == nil {
		h.WSHub.connections[owner] = make(map[*websocket.Conn]bool)
	}
	h.WSHub.connections[owner][conn] = true
	h.WSHub.mutex.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.WSHub.mutex.Lock()
			delete(h.WSHub.connections[owner], conn)
			h.WSHub.mutex.Unlock()
			conn.Close()
			return
		}
		// clients only listen; incoming messages are ignored
	}
}
