package intake

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"docket/internal/config"
	"docket/internal/logging"
	"docket/internal/queue"
)

// Enqueuer accepts files discovered by the scanner. It is satisfied by
// the dispatcher.
type Enqueuer interface {
	Add(id, title string, payload any) (*queue.Item, error)
}

// Scanner polls the inbox directory and enqueues newly arrived files.
type Scanner struct {
	dir      string
	interval time.Duration
	accepts  func(ext string) bool
	sink     Enqueuer
	logger   *slog.Logger

	// seen tracks enqueued paths so a file is picked up once. Entries are
	// pruned when the file disappears, so dropping the same name again
	// re-enqueues it.
	seenMu sync.Mutex
	seen   map[string]struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScanner constructs a scanner over the configured inbox directory.
func NewScanner(cfg *config.Config, sink Enqueuer, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := time.Duration(cfg.Intake.ScanInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scanner{
		dir:      cfg.Paths.InboxDir,
		interval: interval,
		accepts:  cfg.AcceptsExtension,
		sink:     sink,
		logger:   logger.With(logging.String(logging.FieldComponent, "intake")),
		seen:     make(map[string]struct{}),
	}
}

// SetInterval overrides the poll cadence. Effective before Start.
func (s *Scanner) SetInterval(interval time.Duration) {
	if interval > 0 {
		s.interval = interval
	}
}

// Start begins background polling.
func (s *Scanner) Start(ctx context.Context) error {
	if s.sink == nil {
		return errors.New("scanner requires an enqueuer")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scanner already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Stop terminates polling and waits for an in-progress scan to finish.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

// Running reports whether the background loop is active.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scanner) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.ScanOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce walks the inbox a single time and enqueues eligible files.
// It returns the number of files enqueued by this pass.
func (s *Scanner) ScanOnce(ctx context.Context) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("inbox scan failed",
				logging.String(logging.FieldSource, s.dir),
				logging.Error(err),
			)
		}
		return 0
	}

	present := make(map[string]struct{}, len(entries))
	enqueued := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return enqueued
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !s.accepts(filepath.Ext(name)) {
			continue
		}

		path := filepath.Join(s.dir, name)
		present[path] = struct{}{}
		if s.alreadySeen(path) {
			continue
		}

		item, err := s.sink.Add(uuid.NewString(), DisplayTitle(path), path)
		if err != nil {
			s.logger.Warn("enqueue failed",
				logging.String(logging.FieldSource, path),
				logging.Error(err),
			)
			continue
		}
		s.markSeen(path)
		enqueued++
		s.logger.Info("file picked up",
			logging.String(logging.FieldItemID, item.ID),
			logging.String(logging.FieldItemTitle, item.Title),
			logging.String(logging.FieldSource, path),
			logging.String(logging.FieldEventType, "intake_enqueued"),
		)
	}

	s.pruneSeen(present)
	return enqueued
}

func (s *Scanner) alreadySeen(path string) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	_, ok := s.seen[path]
	return ok
}

func (s *Scanner) markSeen(path string) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	s.seen[path] = struct{}{}
}

func (s *Scanner) pruneSeen(present map[string]struct{}) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	for path := range s.seen {
		if _, ok := present[path]; !ok {
			delete(s.seen, path)
		}
	}
}
