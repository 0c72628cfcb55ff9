package intake_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"docket/internal/config"
	"docket/internal/intake"
	"docket/internal/queue"
)

type recordingSink struct {
	mu    sync.Mutex
	store *queue.Store
	paths []string
}

func (r *recordingSink) Add(id, title string, payload any) (*queue.Item, error) {
	item, err := r.store.Add(id, title, payload)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.paths = append(r.paths, payload.(string))
	r.mu.Unlock()
	return item, nil
}

func (r *recordingSink) added() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func newTestScanner(t *testing.T) (*intake.Scanner, *recordingSink, string) {
	t.Helper()
	inbox := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InboxDir = inbox
	cfg.Intake.Extensions = []string{".pdf", ".png"}

	sink := &recordingSink{store: queue.NewStore()}
	return intake.NewScanner(&cfg, sink, nil), sink, inbox
}

func dropFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestScanOncePicksUpMatchingFiles(t *testing.T) {
	scanner, sink, inbox := newTestScanner(t)

	want := dropFile(t, inbox, "tax_return-2025.pdf")
	dropFile(t, inbox, "notes.xyz")
	if err := os.Mkdir(filepath.Join(inbox, "subdir.pdf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if got := scanner.ScanOnce(context.Background()); got != 1 {
		t.Fatalf("ScanOnce enqueued %d, want 1", got)
	}
	added := sink.added()
	if len(added) != 1 || added[0] != want {
		t.Fatalf("unexpected enqueued paths %v", added)
	}

	items := sink.store.All()
	if len(items) != 1 || items[0].Title != "Tax Return 2025" {
		t.Fatalf("unexpected item %+v", items[0])
	}
}

func TestScanOnceEnqueuesEachFileOnce(t *testing.T) {
	scanner, sink, inbox := newTestScanner(t)
	dropFile(t, inbox, "a.pdf")

	scanner.ScanOnce(context.Background())
	scanner.ScanOnce(context.Background())

	if got := len(sink.added()); got != 1 {
		t.Fatalf("file enqueued %d times, want 1", got)
	}
}

func TestScanReenqueuesAfterFileRemovedAndRedropped(t *testing.T) {
	scanner, sink, inbox := newTestScanner(t)
	path := dropFile(t, inbox, "a.pdf")

	scanner.ScanOnce(context.Background())
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove file: %v", err)
	}
	// The pass after removal prunes the path from the seen set.
	scanner.ScanOnce(context.Background())

	dropFile(t, inbox, "a.pdf")
	sink.store.Clear()
	scanner.ScanOnce(context.Background())

	if got := len(sink.added()); got != 2 {
		t.Fatalf("expected re-enqueue after redrop, got %d adds", got)
	}
}

func TestScanMissingInboxIsQuiet(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.InboxDir = filepath.Join(t.TempDir(), "does-not-exist")
	scanner := intake.NewScanner(&cfg, &recordingSink{store: queue.NewStore()}, nil)

	if got := scanner.ScanOnce(context.Background()); got != 0 {
		t.Fatalf("ScanOnce enqueued %d from missing dir", got)
	}
}

func TestBackgroundScanning(t *testing.T) {
	scanner, sink, inbox := newTestScanner(t)
	scanner.SetInterval(10 * time.Millisecond)

	if err := scanner.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer scanner.Stop()

	if err := scanner.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	dropFile(t, inbox, "late-arrival.png")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sink.added()) == 1 {
			scanner.Stop()
			if scanner.Running() {
				t.Fatal("Running() = true after Stop")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background scan never picked up the file")
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/inbox/tax_return-2025.pdf", "Tax Return 2025"},
		{"receipt.jpeg", "Receipt"},
		{"scan.of.the.lease.pdf", "Scan Of The Lease"},
		{"___.pdf", "Untitled Document"},
		{"", "Untitled Document"},
	}
	for _, tc := range tests {
		if got := intake.DisplayTitle(tc.path); got != tc.want {
			t.Errorf("DisplayTitle(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
