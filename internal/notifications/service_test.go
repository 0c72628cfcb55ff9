package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"docket/internal/config"
	"docket/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyExtractionComplete(context.Background(), "Example"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	type captured struct {
		title    string
		message  string
		tags     string
		priority string
	}
	var got captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyExtractionComplete(context.Background(), "Invoice March"); err != nil {
		t.Fatalf("NotifyExtractionComplete failed: %v", err)
	}
	if got.title != "Docket - Extraction Complete" || got.message != "Extracted: Invoice March" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.tags != "docket,extraction,completed" {
		t.Fatalf("unexpected tags %q", got.tags)
	}

	if err := svc.NotifyExtractionFailed(context.Background(), "Receipt", "service returned 500"); err != nil {
		t.Fatalf("NotifyExtractionFailed failed: %v", err)
	}
	if got.priority != "high" {
		t.Fatalf("expected high priority for failures, got %q", got.priority)
	}
	if got.message != "Extraction failed: Receipt\nservice returned 500" {
		t.Fatalf("unexpected failure message %q", got.message)
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from failing ntfy endpoint")
	}
}
