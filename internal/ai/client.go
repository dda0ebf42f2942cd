package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Mametango/home-signage-sub000/internal/common"
)

// Generation parameters sent with every commentary request.
const (
	Temperature = 0.7
	MaxTokens   = 120
)

// maxEchoBytes bounds how much of an upstream error body is passed back to callers.
const maxEchoBytes = 500

var (
	ErrNoAPIKey      = errors.New("ai api key not configured")
	ErrEmptyResponse = errors.New("no completion choices")
)

// Client asks an OpenAI-compatible chat endpoint for one-line commentary.
type Client struct {
	api    *openai.Client
	model  string
	label  string
	hasKey bool
}

// NewClient creates a Client. baseURL may point at any OpenAI-compatible
// endpoint; label is prefixed to every description returned by Comment.
func NewClient(apiKey, baseURL, model, label string, httpClient *http.Client) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(baseURL); base != "" {
		cfg.BaseURL = strings.TrimSuffix(base, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &Client{
		api:    openai.NewClientWithConfig(cfg),
		model:  model,
		label:  label,
		hasKey: strings.TrimSpace(apiKey) != "",
	}
}

func (c *Client) Label() string { return c.label }

// Complete returns the trimmed text of the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.hasKey {
		return "", ErrNoAPIKey
	}
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Comment returns the labelled description, the same shape the relay
// endpoint answers with.
func (c *Client) Comment(ctx context.Context, prompt string) (string, error) {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return c.label + text, nil
}

// UpstreamStatus extracts the upstream HTTP status and a truncated error
// body from err. Status is 0 when the request never got a response.
func UpstreamStatus(err error) (int, string) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, common.Truncate(apiErr.Message, maxEchoBytes)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, common.Truncate(reqErr.Error(), maxEchoBytes)
	}
	if err == nil {
		return 0, ""
	}
	return 0, common.Truncate(err.Error(), maxEchoBytes)
}
