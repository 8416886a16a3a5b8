package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		repo       *MockUserRepository
		wantStatus int
	}{
		{
			name:       "successful login",
			method:     http.MethodPost,
			body:       `{"email":"user@example.com","password":"secret123"}`,
			repo:       SetupMockUser("user@example.com", "secret123"),
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			method:     http.MethodPost,
			body:       `{"email":"user@example.com","password":"wrong-pass"}`,
			repo:       SetupMockUser("user@example.com", "secret123"),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown email",
			method:     http.MethodPost,
			body:       `{"email":"ghost@example.com","password":"secret123"}`,
			repo:       NewMockUserRepository(),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid email",
			method:     http.MethodPost,
			body:       `{"email":"not-an-email","password":"secret123"}`,
			repo:       NewMockUserRepository(),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty password",
			method:     http.MethodPost,
			body:       `{"email":"user@example.com","password":""}`,
			repo:       SetupMockUser("user@example.com", "secret123"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad json",
			method:     http.MethodPost,
			body:       `{"email":`,
			repo:       NewMockUserRepository(),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			body:       "",
			repo:       NewMockUserRepository(),
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHandler(tt.repo)

			req := httptest.NewRequest(tt.method, "/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.Login(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestLogin_TokenWorksAgainstMiddleware(t *testing.T) {
	repo := SetupMockUser("user@example.com", "secret123")
	h := newAuthHandler(repo)

	body := `{"email":"user@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Token == "" {
		t.Fatal("no token in login response")
	}

	// the issued token must pass the auth middleware
	var gotUserID string
	protected := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value(userIDKey).(string)
		w.WriteHeader(http.StatusOK)
	})

	req2 := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req2.Header.Set("Authorization", "Bearer "+resp.Data.Token)
	rec2 := httptest.NewRecorder()
	protected(rec2, req2)

	if rec2.Code != http.StatusOK {
		t.Fatalf("middleware rejected freshly issued token: %d", rec2.Code)
	}
	wantID := repo.users["user@example.com"].ID.String()
	if gotUserID != wantID {
		t.Fatalf("user id from token = %s, want %s", gotUserID, wantID)
	}
}

func TestLogin_RateLimit(t *testing.T) {
	h := newAuthHandler(SetupMockUser("user@example.com", "secret123"))
	h.RateLimiter = NewRateLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"email":"user@example.com","password":"wrong"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("attempt %d rate limited too early", i+1)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"user@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt: want 429, got %d", rec.Code)
	}
}
