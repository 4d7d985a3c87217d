// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pdiddy/paper-tracker/pkg/types"
)

// geminiAPIBase is the Gemini generateContent endpoint prefix. Declared
// as a var so tests can substitute an httptest server.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1/models"

// geminiRetryBase controls the base duration for the linear backoff
// between call attempts (delay = base * attempt number). Tests override
// this to avoid real sleeps.
var geminiRetryBase = time.Second

const (
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 1024
	defaultMaxRetries      = 3
)

// GeminiClient calls the Gemini generateContent API with linear-backoff
// retries. The zero value plus an API key is usable.
type GeminiClient struct {
	Config types.GeminiConfig
	Client *http.Client
	Logger *slog.Logger
}

// Gemini API JSON structures.
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends the prompt to the Gemini API and returns the first
// candidate's first text part.
//
// A failed attempt (transport error, non-success status, blocked prompt,
// or empty candidate list) is retried up to MaxRetries total attempts
// with a linear backoff of geminiRetryBase * attempt between attempts;
// blocked prompts go through the same retry path as transport errors.
// After the final attempt the last observed error is returned wrapped in
// ErrUpstream. Each attempt and its outcome is logged.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := g.Config
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiAPIBase, cfg.Model, cfg.APIKey)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		text, err := g.generateOnce(ctx, client, url, body)
		if err == nil {
			logger.Info("gemini call succeeded",
				"attempt", attempt,
				"max_attempts", cfg.MaxRetries)
			return text, nil
		}

		lastErr = err
		logger.Warn("gemini call failed",
			"attempt", attempt,
			"max_attempts", cfg.MaxRetries,
			"error", err)

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * geminiRetryBase):
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrUpstream, cfg.MaxRetries, lastErr)
}

// generateOnce performs a single generateContent call and classifies the
// response. Any non-nil error is considered retryable by Generate.
func (g *GeminiClient) generateOnce(ctx context.Context, client *http.Client, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("Gemini API error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("Gemini API returned HTTP %d", resp.StatusCode)
	}

	var gr geminiResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("parsing Gemini response: %w", err)
	}

	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("content blocked: %s", gr.PromptFeedback.BlockReason)
	}

	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("no response generated")
	}

	parts := gr.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", fmt.Errorf("empty candidate content")
	}

	return parts[0].Text, nil
}
