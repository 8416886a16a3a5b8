package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func stubService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := NewService("test-key", "")
	s.baseURL = srv.URL
	return s
}

func completionResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestSuggest_ParsesStrictJSON(t *testing.T) {
	s := stubService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing api key header")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != defaultModel {
			t.Errorf("model = %q, want %q", req.Model, defaultModel)
		}
		w.Write([]byte(completionResponse(`{"title":"Buy groceries","description":"Milk, eggs, bread."}`)))
	})

	got := s.Suggest(context.Background(), "buy groceries")
	if got.Title != "Buy groceries" || got.Description != "Milk, eggs, bread." {
		t.Fatalf("got %+v", got)
	}
}

func TestSuggest_StripsCodeFence(t *testing.T) {
	content := "```json\n{\"title\":\"Buy groceries\",\"description\":\"Milk.\"}\n```"
	s := stubService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(content)))
	})

	got := s.Suggest(context.Background(), "buy groceries")
	if got.Title != "Buy groceries" || got.Description != "Milk." {
		t.Fatalf("got %+v", got)
	}
}

// prose answers keep the model's text as the description instead of failing
func TestSuggest_UnparseableKeepsProse(t *testing.T) {
	s := stubService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("You should buy groceries today.")))
	})

	got := s.Suggest(context.Background(), "buy groceries")
	if got.Title != "Buy groceries" {
		t.Fatalf("title = %q, want fallback title", got.Title)
	}
	if got.Description != "You should buy groceries today." {
		t.Fatalf("description = %q", got.Description)
	}
}

func TestSuggest_ProviderErrorFallsBack(t *testing.T) {
	s := stubService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got := s.Suggest(context.Background(), "buy groceries")
	want := Fallback("buy groceries")
	if got != want {
		t.Fatalf("got %+v, want fallback %+v", got, want)
	}
}

func TestSuggest_EmptyChoicesFallsBack(t *testing.T) {
	s := stubService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	got := s.Suggest(context.Background(), "buy groceries")
	if got != Fallback("buy groceries") {
		t.Fatalf("got %+v", got)
	}
}

func TestSuggest_NoAPIKeyNeverCallsProvider(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := NewService("", "")
	s.baseURL = srv.URL

	got := s.Suggest(context.Background(), "buy groceries")
	if called {
		t.Fatal("provider was called without an api key")
	}
	if got != Fallback("buy groceries") {
		t.Fatalf("got %+v", got)
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		input     string
		wantTitle string
		wantDesc  string
	}{
		{input: "buy milk", wantTitle: "Buy milk", wantDesc: "Task: buy milk"},
		{input: "Already capped", wantTitle: "Already capped", wantDesc: "Task: Already capped"},
		{input: "", wantTitle: "", wantDesc: "Task: "},
		{input: "éclair run", wantTitle: "Éclair run", wantDesc: "Task: éclair run"},
	}
	for _, tt := range tests {
		got := Fallback(tt.input)
		if got.Title != tt.wantTitle || got.Description != tt.wantDesc {
			t.Errorf("Fallback(%q) = %+v", tt.input, got)
		}
	}
}

func TestSuggest_BlankFieldsGetDefaults(t *testing.T) {
	s := stubService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(`{"title":"  ","description":""}`)))
	})

	got := s.Suggest(context.Background(), "buy groceries")
	if got.Title != "buy groceries" {
		t.Fatalf("title = %q, want raw input", got.Title)
	}
	if got.Description != "Task: buy groceries" {
		t.Fatalf("description = %q", got.Description)
	}
}
