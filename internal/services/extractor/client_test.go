package extractor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docket/internal/services"
)

func writeSourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	return path
}

func TestExtractSuccess(t *testing.T) {
	var gotAuth string
	var gotFilename string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/extract" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		file, header, err := r.FormFile("document")
		if err != nil {
			t.Errorf("read form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		if body, _ := io.ReadAll(file); string(body) != "invoice body" {
			t.Errorf("unexpected upload content %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"document_type":"invoice","fields":{"total":"42.00"},"confidence":0.93}`)
	}))
	defer server.Close()

	client := New(server.URL, "secret", time.Minute, server.Client())
	path := writeSourceFile(t, "invoice.pdf", "invoice body")

	result, err := client.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.DocumentType != "invoice" || result.Fields["total"] != "42.00" {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotFilename != "invoice.pdf" {
		t.Fatalf("expected original filename, got %q", gotFilename)
	}
}

func TestExtractClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		marker error
	}{
		{"unauthorized", http.StatusUnauthorized, "", services.ErrConfiguration},
		{"rejected document", http.StatusUnprocessableEntity, `{"error":"unsupported format"}`, services.ErrValidation},
		{"server error", http.StatusInternalServerError, "", services.ErrExternalService},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer server.Close()

			client := New(server.URL, "", time.Minute, server.Client())
			_, err := client.Extract(context.Background(), writeSourceFile(t, "doc.txt", "x"))
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestExtractValidationCarriesServiceDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"error":"page 3 is blank"}`)
	}))
	defer server.Close()

	client := New(server.URL, "", time.Minute, server.Client())
	_, err := client.Extract(context.Background(), writeSourceFile(t, "doc.txt", "x"))
	if err == nil || !strings.Contains(err.Error(), "page 3 is blank") {
		t.Fatalf("expected service detail in error, got %v", err)
	}
}

func TestExtractTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := New(server.URL, "", 50*time.Millisecond, server.Client())
	_, err := client.Extract(context.Background(), writeSourceFile(t, "doc.txt", "x"))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	client := New("http://127.0.0.1:1", "", time.Minute, nil)
	_, err := client.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessorRejectsBadPayload(t *testing.T) {
	client := New("http://127.0.0.1:1", "", time.Minute, nil)
	_, err := client.Processor()(context.Background(), 42)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "", time.Minute, server.Client())
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	down := New("http://127.0.0.1:1", "", time.Minute, nil)
	if err := down.Ping(context.Background()); err == nil {
		t.Fatal("expected Ping to fail against unreachable service")
	}
}
