package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-tracker/internal/ai"

	"github.com/google/uuid"
)

func TestSuggestTask(t *testing.T) {
	_, mux, dbx, _, secret := setupHTTP(t)
	defer dbx.Close()

	authz := bearerForUser(t, secret, uuid.New().String())

	body := `{"user_input":"finish the quarterly report"}`
	req := httptest.NewRequest(http.MethodPost, "/ai/suggest-task", bytes.NewBufferString(body))
	req.Header.Set("Authorization", authz)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data ai.Suggestion `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Title != "Finish the quarterly report" {
		t.Fatalf("title = %q", resp.Data.Title)
	}
	if resp.Data.Description != "Task: finish the quarterly report" {
		t.Fatalf("description = %q", resp.Data.Description)
	}
}

func TestSuggestTask_BadInput(t *testing.T) {
	_, mux, dbx, _, secret := setupHTTP(t)
	defer dbx.Close()

	authz := bearerForUser(t, secret, uuid.New().String())

	tests := []struct {
		name string
		body string
	}{
		{name: "empty input", body: `{"user_input":"   "}`},
		{name: "missing field", body: `{}`},
		{name: "bad json", body: `{"user_input":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/ai/suggest-task", bytes.NewBufferString(tt.body))
			req.Header.Set("Authorization", authz)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSuggestTask_MethodAndAuth(t *testing.T) {
	_, mux, dbx, _, secret := setupHTTP(t)
	defer dbx.Close()

	authz := bearerForUser(t, secret, uuid.New().String())

	req := httptest.NewRequest(http.MethodGet, "/ai/suggest-task", nil)
	req.Header.Set("Authorization", authz)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET: want 405, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/ai/suggest-task", bytes.NewBufferString(`{"user_input":"x"}`))
	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusUnauthorized {
		t.Fatalf("no auth: want 401, got %d", rec2.Code)
	}
}
