// Package ai turns free-text task input into a {title, description} pair via
// the OpenAI chat completions API, falling back to a deterministic local
// transform whenever the provider is missing, failing, or unparseable. The
// caller never sees an error.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"

	systemPrompt = `You convert casual task text into a concise title and a short, actionable description. Respond ONLY with strict JSON: {"title": string, "description": string}. No extra text.`
)

type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Service struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewService builds a suggestion service. An empty apiKey is valid: every
// call then answers with the deterministic fallback.
func NewService(apiKey, model string) *Service {
	if model == "" {
		model = defaultModel
	}
	return &Service{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Suggest never returns an error; every failure path degrades to Fallback.
func (s *Service) Suggest(ctx context.Context, userInput string) Suggestion {
	if s.apiKey == "" {
		return Fallback(userInput)
	}

	content, err := s.complete(ctx, userInput)
	if err != nil {
		log.Printf("AI suggestion failed, using fallback: %v", err)
		return Fallback(userInput)
	}

	jsonText := stripCodeFence(content)
	var parsed Suggestion
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		// keep the model's prose as the description rather than drop it
		return Suggestion{Title: Fallback(userInput).Title, Description: content}
	}

	out := Suggestion{
		Title:       strings.TrimSpace(parsed.Title),
		Description: strings.TrimSpace(parsed.Description),
	}
	if out.Title == "" {
		out.Title = userInput
	}
	if out.Description == "" {
		out.Description = "Task: " + userInput
	}
	return out
}

func (s *Service) complete(ctx context.Context, userInput string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       s.model,
		Temperature: 0.4,
		MaxTokens:   200,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userInput},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &httpError{status: resp.StatusCode}
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", err
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return "", errEmptyCompletion
	}
	return strings.TrimSpace(chat.Choices[0].Message.Content), nil
}

// Fallback is the deterministic transform used when the provider is
// unavailable: capitalize the first rune, prefix the description.
func Fallback(userInput string) Suggestion {
	title := userInput
	if r := []rune(userInput); len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
		title = string(r)
	}
	return Suggestion{Title: title, Description: "Task: " + userInput}
}

var fenceRe = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

func stripCodeFence(content string) string {
	if m := fenceRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return content
}

type httpError struct{ status int }

func (e *httpError) Error() string {
	return http.StatusText(e.status) + " from completion endpoint"
}

var errEmptyCompletion = errors.New("no content in completion")
