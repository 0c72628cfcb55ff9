package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"docket/internal/api"
	"docket/internal/config"
	"docket/internal/intake"
	"docket/internal/logging"
	"docket/internal/queue"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", requireAuth(token, srv.handleStatus))
	mux.HandleFunc("/api/queue", requireAuth(token, srv.handleQueue))
	mux.HandleFunc("/api/queue/", requireAuth(token, srv.handleQueueScoped))
	mux.HandleFunc("/api/history", requireAuth(token, srv.handleHistory))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:       status.Running,
		Paused:        status.Paused,
		PID:           status.PID,
		Queue:         api.FromQueueStats(status.Queue),
		LockFilePath:  status.LockFilePath,
		HistoryDBPath: status.HistoryDBPath,
	})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items := s.daemon.Dispatcher().Items()
		views := make([]api.ItemView, 0, len(items))
		for _, item := range items {
			views = append(views, api.FromQueueItem(item))
		}
		s.writeJSON(w, http.StatusOK, api.QueueListResponse{Items: views})
	case http.MethodPost:
		s.handleAdd(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req api.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	source := strings.TrimSpace(req.SourcePath)
	if source == "" {
		s.writeError(w, http.StatusBadRequest, "source_path is required")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = intake.DisplayTitle(source)
	}

	item, err := s.daemon.Dispatcher().Add(uuid.NewString(), title, source)
	if err != nil {
		if errors.Is(err, queue.ErrDuplicateID) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.QueueItemResponse{Item: api.FromQueueItem(item)})
}

// handleQueueScoped routes /api/queue/{pause,resume,clear} and
// /api/queue/{id}[/retry].
func (s *apiServer) handleQueueScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	switch rest {
	case "pause":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.daemon.Dispatcher().Pause()
		s.writeJSON(w, http.StatusOK, api.ActionResponse{OK: true, Message: "queue paused"})
	case "resume":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.daemon.Dispatcher().Resume()
		s.writeJSON(w, http.StatusOK, api.ActionResponse{OK: true, Message: "queue resumed"})
	case "clear":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		dropped := s.daemon.Dispatcher().Clear()
		s.writeJSON(w, http.StatusOK, api.ClearResponse{Dropped: dropped})
	default:
		s.handleQueueItem(w, r, rest)
	}
}

func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request, rest string) {
	if id, ok := strings.CutSuffix(rest, "/retry"); ok {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if !s.daemon.Dispatcher().Retry(id) {
			s.writeError(w, http.StatusNotFound, "item not found or not settled")
			return
		}
		s.writeJSON(w, http.StatusOK, api.ActionResponse{OK: true, Message: "item requeued"})
		return
	}

	if rest == "" || strings.Contains(rest, "/") {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, ok := s.daemon.Dispatcher().ItemStatus(rest)
		if !ok {
			s.writeError(w, http.StatusNotFound, "queue item not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: api.FromQueueItem(item)})
	case http.MethodDelete:
		if !s.daemon.Dispatcher().Remove(rest) {
			s.writeError(w, http.StatusNotFound, "queue item not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.ActionResponse{OK: true, Message: "item removed"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.daemon.Journal().List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]api.HistoryEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, api.FromHistoryEntry(entry))
	}
	s.writeJSON(w, http.StatusOK, api.HistoryListResponse{Entries: views})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}

// requireAuth gates a handler behind the configured bearer token. An
// empty token leaves the endpoint open.
func requireAuth(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || presented != token {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
