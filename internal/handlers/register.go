package handlers

import (
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"task-tracker/internal/models"

	"encoding/json"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, "Use POST method", http.StatusMethodNotAllowed)
		return
	}

	clientIP := r.RemoteAddr
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		log.Printf("Rate limit exceeded for IP: %s", clientIP)
		sendError(w, "Too many register attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Bad JSON", http.StatusBadRequest)
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		sendError(w, "Name is required", http.StatusBadRequest)
		return
	}
	if !validateEmailAndPassword(w, input.Email, input.Password) {
		return
	}

	// Duplicate email check; the unique column backs this up under races.
	if _, err := h.UserRepo.GetByEmail(r.Context(), input.Email); err == nil {
		sendError(w, "User with this email already exists", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendError(w, "Cannot hash password", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.UserRepo.Create(r.Context(), user); err != nil {
		log.Printf("Error creating user %s: %v", user.Email, err)
		sendError(w, "Cannot save user", http.StatusInternalServerError)
		return
	}

	token, err := generateJWTToken(user.ID.String())
	if err != nil {
		log.Printf("Error generating token: %v", err)
		sendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	log.Printf("User registered: %s", user.Email)
	sendMessage(w, http.StatusCreated, map[string]any{
		"user":  user,
		"token": token,
	}, "User created successfully")
}

func validateEmailAndPassword(w http.ResponseWriter, email, password string) bool {
	if !isValidEmail(email) {
		sendError(w, "Invalid email", http.StatusBadRequest)
		return false
	}
	if len(password) < 6 {
		sendError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return false
	}
	return true
}

func isValidEmail(email string) bool {
	const emailRegex = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	re := regexp.MustCompile(emailRegex)
	return re.MatchString(email)
}
