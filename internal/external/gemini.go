package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var ErrNoAPIKey = errors.New("gemini api key not configured")

const fallbackDescription = "Join us for %s, an exciting %s event in %s. Don't miss this opportunity!"

type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type GenerateOptions struct {
	Temperature     float64
	MaxOutputTokens int
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}

	return &GeminiClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Generate returns the text of the first candidate.
func (gc *GeminiClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if gc.apiKey == "" {
		return "", ErrNoAPIKey
	}

	jsonBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", gc.baseURL, gc.model, url.QueryEscape(gc.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Gateway: "gemini", StatusCode: resp.StatusCode, Message: gjson.GetBytes(body, "error.message").String()}
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", fmt.Errorf("gemini response has no candidate text")
	}
	return text.String(), nil
}

// GenerateDescription drafts an event description, falling back to a fixed sentence.
func (gc *GeminiClient) GenerateDescription(ctx context.Context, title, category, location string) string {
	prompt := fmt.Sprintf(`Write a short, engaging description (2-3 sentences) for an event with:
Title: %s
Category: %s
Location: %s

Make it exciting and professional. Do not use markdown.`, title, category, location)

	text, err := gc.Generate(ctx, prompt, GenerateOptions{Temperature: 0.7, MaxOutputTokens: 200})
	if err != nil || strings.TrimSpace(text) == "" {
		return fmt.Sprintf(fallbackDescription, title, category, location)
	}
	return strings.TrimSpace(text)
}
