// Package assistant proxies chat and speech requests to an OpenAI-compatible
// API. It holds no conversation state.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-gateway/internal/apperr"
	"voice-gateway/internal/config"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client is an OpenAI API client.
type Client struct {
	apiKey      string
	baseURL     string
	chatModel   string
	speechModel string
	speechVoice string
	httpClient  *http.Client
}

// New creates a client. A missing API key does not fail construction;
// requests report the assistant as unavailable instead.
func New(cfg config.AssistantConfig, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		chatModel:   cfg.ChatModel,
		speechModel: cfg.SpeechModel,
		speechVoice: cfg.SpeechVoice,
		httpClient:  httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a single user message and returns the first reply.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	if c.apiKey == "" {
		return "", apperr.Unavailable("chat completion not configured")
	}
	if strings.TrimSpace(message) == "" {
		return "", apperr.Validation("Message required")
	}

	resp, err := c.postJSON(ctx, "/chat/completions", chatRequest{
		Model:    c.chatModel,
		Messages: []chatMessage{{Role: "user", Content: message}},
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Upstream(fmt.Errorf("assistant: decode completion: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", apperr.Upstream(errors.New("assistant: completion returned no choices"))
	}
	return out.Choices[0].Message.Content, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Audio is a streamed speech response. Callers must close Body.
type Audio struct {
	Body        io.ReadCloser
	ContentType string
}

// Synthesize converts text to speech. An empty voice uses the configured one.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (Audio, error) {
	if c.apiKey == "" {
		return Audio{}, apperr.Unavailable("speech synthesis not configured")
	}
	if strings.TrimSpace(text) == "" {
		return Audio{}, apperr.Validation("Text required")
	}
	if voice == "" {
		voice = c.speechVoice
	}

	resp, err := c.postJSON(ctx, "/audio/speech", speechRequest{
		Model:          c.speechModel,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return Audio{}, err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "audio/mpeg"
	}
	return Audio{Body: resp.Body, ContentType: ct}, nil
}

// apiError is the error document returned by the API.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// postJSON returns the response with an unread body on success.
func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var ae apiError
		if err := json.Unmarshal(raw, &ae); err == nil && ae.Error.Message != "" {
			return nil, apperr.Upstream(errors.New(ae.Error.Message))
		}
		return nil, apperr.Upstream(fmt.Errorf("assistant: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}
	return resp, nil
}
