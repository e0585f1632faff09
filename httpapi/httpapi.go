// Package httpapi implements the task-app HTTP server.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"task-app/report"
	"task-app/service"
	"task-app/task"
	"task-app/trace"
)

// CtxHandler defines a handler with context.
type CtxHandler func(context.Context, http.ResponseWriter, *http.Request)

// Server exposes HTTP endpoints over the task service.
type Server struct {
	app *service.App
	mux *http.ServeMux
}

// New constructs a Server with routes registered on a ServeMux.
func New(app *service.App) *Server {
	s := &Server{
		app: app,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this API server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Register routes on the internal ServeMux.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/add", withCtx(logger(s.handleAdd)))
	s.mux.HandleFunc("/complete", withCtx(logger(s.handleComplete)))
	s.mux.HandleFunc("/delete", withCtx(logger(s.handleDelete)))
	s.mux.HandleFunc("/get", withCtx(logger(s.handleGet)))
	s.mux.HandleFunc("/stats", withCtx(logger(s.handleStats)))
	s.mux.HandleFunc("/priority", withCtx(logger(s.handlePriority)))
	s.mux.HandleFunc("/report", withCtx(logger(s.handleReport)))
	s.mux.HandleFunc("/list", withCtx(logger(s.handleList)))

	// Health
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}

// statusFor maps service error kinds onto HTTP status codes.
func statusFor(err error) int {
	var nf *task.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	var ve *task.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// POST /add  body: {"title":"...", "priority":1|2|3}
// Priority is a pointer so an omitted field (defaults to low) can be
// told apart from an explicit invalid zero.
type addReq struct {
	Title    string         `json:"title"`
	Priority *task.Priority `json:"priority"`
}

// handleAdd creates a new task. Expects a POST with JSON body.
func (s *Server) handleAdd(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondErr(ctx, w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req addReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	priority := task.PriorityLow
	if req.Priority != nil {
		priority = *req.Priority
	}

	t, err := s.app.AddTask(ctx, req.Title, priority)
	if err != nil {
		respondErr(ctx, w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

// POST /complete  body: {"title":"..."}
func (s *Server) handleComplete(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondErr(ctx, w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	t, err := s.app.CompleteTask(ctx, req.Title)
	if err != nil {
		respondErr(ctx, w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// POST|DELETE /delete  body: {"title":"..."}
func (s *Server) handleDelete(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		respondErr(ctx, w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	t, err := s.app.DeleteTask(ctx, req.Title)
	if err != nil {
		respondErr(ctx, w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true, "title": t.Title})
}

// GET /get or /get?title=...
// If title is provided, returns that task; else returns the full list.
func (s *Server) handleGet(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondErr(ctx, w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		list, err := s.app.GetAllTasks(ctx)
		if err != nil {
			respondErr(ctx, w, statusFor(err), err)
			return
		}
		respondJSON(w, http.StatusOK, list)
		return
	}

	t, err := s.app.GetTask(ctx, title)
	if err != nil {
		respondErr(ctx, w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// GET /stats returns total/active/completed counters.
func (s *Server) handleStats(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondErr(ctx, w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	list, err := s.app.GetAllTasks(ctx)
	if err != nil {
		respondErr(ctx, w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"total":     len(list),
		"active":    task.CountActive(list),
		"completed": task.CountCompleted(list),
	})
}

// GET /priority?level=1|2|3 returns tasks filtered by priority.
func (s *Server) handlePriority(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondErr(ctx, w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	levelStr := r.URL.Query().Get("level")
	level, err := strconv.Atoi(levelStr)
	if err != nil {
		respondErr(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid priority level %q: %w", levelStr, err))
		return
	}

	list, err := s.app.TasksByPriority(ctx, task.Priority(level))
	if err != nil {
		respondErr(ctx, w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// GET /report?format=json|csv|pdf exports the task list.
func (s *Server) handleReport(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondErr(ctx, w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	data, err := report.NewExporter(s.app).Export(ctx, format)
	if err != nil {
		respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}

	switch strings.ToLower(format) {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /list serves a minimal HTML page.
func (s *Server) handleList(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	list, err := s.app.GetAllTasks(ctx)
	if err != nil {
		respondErr(ctx, w, statusFor(err), err)
		return
	}
	tpl := template.Must(template.New("list").Parse(listTemplate))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = tpl.Execute(w, struct{ Tasks []task.Task }{Tasks: list})
}

// withCtx injects a TraceID, honoring an incoming X-Trace-ID header.
func withCtx(next CtxHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h := r.Header.Get("X-Trace-ID"); h != "" {
			ctx, _ = trace.NewWithID(ctx, h)
		} else if _, ok := trace.From(ctx); !ok {
			ctx, _ = trace.New(ctx)
		}
		next(ctx, w, r.WithContext(ctx))
	}
}

// statusRecorder captures status/bytes for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// logger emits start/end logs with trace_id, method, path, status and duration.
func logger(next CtxHandler) CtxHandler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		tid, _ := trace.From(ctx)
		start := time.Now()

		sr := &statusRecorder{ResponseWriter: w, status: 200}
		slog.InfoContext(ctx, "request start",
			"method", r.Method, "path", r.URL.Path, "trace_id", tid,
		)

		next(ctx, sr, r)

		dur := time.Since(start)
		fields := []any{
			"status", sr.status, "bytes", sr.bytes, "duration_ms", dur.Milliseconds(),
			"method", r.Method, "path", r.URL.Path, "trace_id", tid,
		}
		switch {
		case sr.status >= 500:
			slog.ErrorContext(ctx, "request end", fields...)
		case sr.status >= 400:
			slog.WarnContext(ctx, "request end", fields...)
		default:
			slog.InfoContext(ctx, "request end", fields...)
		}
	}
}

// respondJSON writes v as JSON with the given status code.
// Ignores encoding errors.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondErr logs the error and responds with a JSON error message.
// Ignores encoding errors.
func respondErr(ctx context.Context, w http.ResponseWriter, status int, err error) {
	tid, _ := trace.From(ctx)
	slog.ErrorContext(ctx, "handler error", "status", status, "error", err, "trace_id", tid)
	type errResp struct {
		Error string `json:"error"`
	}
	respondJSON(w, status, errResp{Error: err.Error()})
}

// Run listens and serves on addr until context cancel.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	// Wait for context done or server error.
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

const listTemplate = "<!doctype html><html><head><meta charset=\"utf-8\"><title>Tasks</title></head><body><h1>Tasks</h1><ul>{{range .Tasks}}<li>{{.Title}} - priority {{.Priority}}{{if .Done}} - completed{{end}}</li>{{else}}<li>none</li>{{end}}</ul></body></html>"
