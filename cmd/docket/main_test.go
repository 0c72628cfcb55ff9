package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docket/internal/api"
)

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Count"},
		[][]string{{"pending", "2"}, {"complete", "5"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"Status", "pending", "complete", "5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestResolveItemID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/queue" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"aaaa1111","title":"A","status":"pending","created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"},
			{"id":"aaab2222","title":"B","status":"pending","created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}
		]}`))
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "")
	ctx := context.Background()

	if id, err := resolveItemID(ctx, client, "aaaa1111"); err != nil || id != "aaaa1111" {
		t.Fatalf("exact match: id=%q err=%v", id, err)
	}
	if id, err := resolveItemID(ctx, client, "aaab"); err != nil || id != "aaab2222" {
		t.Fatalf("unique prefix: id=%q err=%v", id, err)
	}
	if _, err := resolveItemID(ctx, client, "aaa"); err == nil {
		t.Fatal("expected ambiguous prefix to fail")
	}
	if id, err := resolveItemID(ctx, client, "zzzz"); err != nil || id != "zzzz" {
		t.Fatalf("unknown id passthrough: id=%q err=%v", id, err)
	}
}

func TestRootHelp(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, want := range []string{"run", "queue", "history", "pause", "resume"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("help missing %q:\n%s", want, out.String())
		}
	}
}
