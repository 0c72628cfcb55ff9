package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docket/internal/config"
	"docket/internal/services"
)

// Result is the extraction outcome for one document or image.
type Result struct {
	DocumentType string            `json:"document_type"`
	Fields       map[string]string `json:"fields"`
	Confidence   float64           `json:"confidence"`
	RawText      string            `json:"raw_text,omitempty"`
}

// HTTPDoer describes the HTTP client used by the extraction service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the extraction service.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  HTTPDoer
}

// NewFromConfig constructs a client from application configuration.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.Extractor.BaseURL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "extractor", "new", "extractor.base_url is not configured", nil)
	}
	return New(cfg.Extractor.BaseURL, cfg.Extractor.APIKey, time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second, nil), nil
}

// New constructs a client. A nil doer falls back to a plain http.Client.
func New(baseURL, apiKey string, timeout time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
		client:  doer,
	}
}

// Extract uploads the file at sourcePath and returns the extracted fields.
// The call is idempotent on the service side; retrying a failed upload is
// always safe.
func (c *Client) Extract(ctx context.Context, sourcePath string) (*Result, error) {
	body, contentType, err := buildUpload(sourcePath)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/v1/extract", body)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "extractor", "extract", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "extractor", "extract", fmt.Sprintf("no response within %s", c.timeout), err)
		}
		return nil, services.Wrap(services.ErrExternalService, "extractor", "extract", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, services.Wrap(services.ErrConfiguration, "extractor", "extract", "authentication rejected", nil)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, services.Wrap(services.ErrValidation, "extractor", "extract", readErrorDetail(resp.Body), nil)
	default:
		return nil, services.Wrap(services.ErrExternalService, "extractor", "extract", fmt.Sprintf("service returned %d", resp.StatusCode), nil)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "extractor", "extract", "decode response", err)
	}
	return &result, nil
}

// Ping checks service reachability for preflight diagnostics.
func (c *Client) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/v1/health", nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "extractor", "ping", "build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "extractor", "ping", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrExternalService, "extractor", "ping", fmt.Sprintf("service returned %d", resp.StatusCode), nil)
	}
	return nil
}

func buildUpload(sourcePath string) (io.Reader, string, error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", services.Wrap(services.ErrNotFound, "extractor", "upload", fmt.Sprintf("source file %q missing", sourcePath), nil)
		}
		return nil, "", services.Wrap(services.ErrTransient, "extractor", "upload", "open source file", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("document", filepath.Base(sourcePath))
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "extractor", "upload", "build multipart body", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "extractor", "upload", "read source file", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "extractor", "upload", "finalize multipart body", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func readErrorDetail(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return payload.Error
	}
	return "document rejected by extraction service"
}
