package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type PinataClient struct {
	baseURL    string
	jwt        string
	apiKey     string
	secretKey  string
	gatewayURL string
	httpClient *http.Client
}

type PinataConfig struct {
	BaseURL    string
	JWT        string
	APIKey     string
	SecretKey  string
	GatewayURL string
	Timeout    time.Duration
}

type PinResult struct {
	IpfsHash  string    `json:"IpfsHash"`
	PinSize   int64     `json:"PinSize"`
	Timestamp time.Time `json:"Timestamp"`
}

type pinJSONRequest struct {
	PinataContent  any            `json:"pinataContent"`
	PinataMetadata pinataMetadata `json:"pinataMetadata"`
}

type pinataMetadata struct {
	Name string `json:"name"`
}

func NewPinataClient(cfg PinataConfig) *PinataClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PinataClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		jwt:        cfg.JWT,
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// GatewayURL returns the public gateway link for a content identifier.
func (pc *PinataClient) GatewayURL(cid string) string {
	return pc.gatewayURL + "/" + cid
}

func (pc *PinataClient) authorize(req *http.Request) {
	if pc.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+pc.jwt)
		return
	}
	req.Header.Set("pinata_api_key", pc.apiKey)
	req.Header.Set("pinata_secret_api_key", pc.secretKey)
}

func (pc *PinataClient) send(req *http.Request) (*PinResult, error) {
	pc.authorize(req)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "error.details").String()
		if msg == "" {
			msg = gjson.GetBytes(body, "error").String()
		}
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, &APIError{Gateway: "pinata", StatusCode: resp.StatusCode, Message: msg}
	}

	var result PinResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.IpfsHash == "" {
		return nil, fmt.Errorf("pinata response has no IpfsHash")
	}
	return &result, nil
}

// PinFile uploads r as a multipart file named name.
func (pc *PinataClient) PinFile(ctx context.Context, name string, r io.Reader) (*PinResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	meta, _ := json.Marshal(pinataMetadata{Name: name})
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return pc.send(req)
}

// PinJSON pins content as a JSON document named name.
func (pc *PinataClient) PinJSON(ctx context.Context, name string, content any) (*PinResult, error) {
	jsonBody, err := json.Marshal(pinJSONRequest{
		PinataContent:  content,
		PinataMetadata: pinataMetadata{Name: name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return pc.send(req)
}
