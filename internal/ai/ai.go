package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Fallback strings returned instead of errors. The state controller treats
// this client as infallible, an apology is the failure mode.
const (
	fallbackOffline = "I lost connection to the neural link. Try again later."
	fallbackEmpty   = "I'm processing that thought... give me a moment."
)

const persona = `You are Cordis AI, a smart and witty assistant in a modern communication app.
Reply concisely. Use markdown. Be helpful but have personality.`

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	sugar    *zap.SugaredLogger
}

func New(endpoint string, apiKey string, sugar *zap.SugaredLogger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		sugar:    sugar,
	}
}

type completionRequest struct {
	System string `json:"system"`
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// GenerateResponse asks the completion endpoint for a reply to prompt. It
// never returns an error: any transport or decoding failure degrades to a
// fixed apology string, an empty completion to a stalling one.
func (c *Client) GenerateResponse(ctx context.Context, prompt string) string {
	body, err := json.Marshal(completionRequest{System: persona, Prompt: prompt})
	if err != nil {
		c.sugar.Error(err)
		return fallbackOffline
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.sugar.Error(err)
		return fallbackOffline
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.sugar.Error(err)
		return fallbackOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.sugar.Error(fmt.Errorf("completion endpoint answered %d", resp.StatusCode))
		return fallbackOffline
	}

	var completion completionResponse
	err = json.NewDecoder(resp.Body).Decode(&completion)
	if err != nil {
		c.sugar.Error(err)
		return fallbackOffline
	}

	if completion.Text == "" {
		return fallbackEmpty
	}
	return completion.Text
}
