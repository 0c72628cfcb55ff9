package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docket/internal/config"
)

const userAgent = "Docket/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyExtractionComplete(ctx context.Context, title string) error
	NotifyExtractionFailed(ctx context.Context, title, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyExtractionComplete(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Docket - Extraction Complete",
		message: fmt.Sprintf("Extracted: %s", title),
		tags:    []string{"docket", "extraction", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExtractionFailed(ctx context.Context, title, reason string) error {
	title = strings.TrimSpace(title)
	var builder strings.Builder
	builder.WriteString("Extraction failed: ")
	builder.WriteString(title)
	if reason = strings.TrimSpace(reason); reason != "" {
		builder.WriteString("\n")
		builder.WriteString(reason)
	}
	data := payload{
		title:    "Docket - Extraction Failed",
		message:  builder.String(),
		tags:     []string{"docket", "extraction", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Docket - Test",
		message:  "Notification system test",
		tags:     []string{"docket", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyExtractionComplete(context.Context, string) error    { return nil }
func (noopService) NotifyExtractionFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
