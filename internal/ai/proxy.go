package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Mametango/home-signage-sub000/internal/common"
)

// ProxyCommenter requests commentary through a commentary relay endpoint
// instead of calling the model directly.
type ProxyCommenter struct {
	url    string
	client *http.Client
}

func NewProxyCommenter(url string, client *http.Client) *ProxyCommenter {
	if client == nil {
		client = http.DefaultClient
	}
	return &ProxyCommenter{url: url, client: client}
}

// Request and Response are the relay's wire shapes.
type Request struct {
	Prompt string `json:"prompt" validate:"required"`
}

type Response struct {
	Description string `json:"description"`
}

func (p *ProxyCommenter) Comment(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(Request{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("commentary relay: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("commentary relay: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("commentary relay: status %d: %s", resp.StatusCode, common.Truncate(string(raw), maxEchoBytes))
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("commentary relay: decode: %w", err)
	}
	return out.Description, nil
}
