// Package genai wraps the Gemini generateContent REST API as a stateful
// chat session and adapts it to the tutorial's segment generation contract.
package genai

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
)

const (
	// DefaultModel matches the model the tutorial prompts were tuned on.
	DefaultModel = "gemini-2.0-flash-exp"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	requestTimeout = 60 * time.Second
)

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Client is a Gemini chat session. Every Send carries the full history, so
// feedback messages condition later replies the same way the reviewer's
// conversation would.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	history    []content
}

// NewClient returns a chat client for the given model; an empty model uses
// DefaultModel.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Send appends message to the chat history and returns the model's reply.
// The reply is recorded in the history as well.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	c.history = append(c.history, content{Role: "user", Parts: []part{{Text: message}}})

	body, err := json.Marshal(generateRequest{Contents: c.history})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}

	var reply strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		reply.WriteString(p.Text)
	}

	c.history = append(c.history, content{Role: "model", Parts: []part{{Text: reply.String()}}})
	return reply.String(), nil
}
