package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-app/service"
	"task-app/task"
)

// --- test helpers & fakes ---

// memStore is a simple in-memory Store used for tests.
type memStore struct {
	list []task.Task
}

func (m *memStore) Ensure(ctx context.Context) error {
	if m.list == nil {
		m.list = []task.Task{}
	}
	return nil
}
func (m *memStore) Load(ctx context.Context) ([]task.Task, error) {
	cp := make([]task.Task, len(m.list))
	copy(cp, m.list)
	return cp, nil
}
func (m *memStore) Save(ctx context.Context, list []task.Task) error {
	cp := make([]task.Task, len(list))
	copy(cp, list)
	m.list = cp
	return nil
}
func (m *memStore) Update(ctx context.Context, mutate func([]task.Task) ([]task.Task, error)) error {
	list, err := m.Load(ctx)
	if err != nil {
		return err
	}
	list, err = mutate(list)
	if err != nil {
		return err
	}
	return m.Save(ctx, list)
}

// newTestServer wires a Server onto an in-memory store with logs silenced.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})))
	app, err := service.NewApp(context.Background(), &memStore{})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return New(app)
}

// decodeJSON reads the response body and JSON-decodes into v.
func decodeJSON(t *testing.T, r *http.Response, v any) {
	t.Helper()
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode json: %v; body=%s", err, string(data))
	}
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	s.Handler().ServeHTTP(w, req)
	return w
}

// --- tests ---

// TestHTTPAPI_AddGetCompleteDelete_Flow walks a full task lifecycle
// through the HTTP handlers.
func TestHTTPAPI_AddGetCompleteDelete_Flow(t *testing.T) {
	s := newTestServer(t)

	// 1) Add
	w := doJSON(t, s, http.MethodPost, "/add", map[string]any{"title": "write tests", "priority": 2})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status=%d, want %d; body=%s", w.Code, http.StatusCreated, w.Body.String())
	}
	var created task.Task
	decodeJSON(t, w.Result(), &created)
	if created.Title != "write tests" || created.Priority != task.PriorityMedium || created.Done {
		t.Fatalf("created=%+v", created)
	}

	// 2) Get list (no title)
	w = doJSON(t, s, http.MethodGet, "/get", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get(all) status=%d, want %d", w.Code, http.StatusOK)
	}
	var gotList []task.Task
	decodeJSON(t, w.Result(), &gotList)
	if len(gotList) != 1 {
		t.Fatalf("get(all) len=%d, want 1", len(gotList))
	}

	// 3) Get by title
	w = doJSON(t, s, http.MethodGet, "/get?title=write+tests", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get(title) status=%d, want %d; body=%s", w.Code, http.StatusOK, w.Body.String())
	}
	var gotTask task.Task
	decodeJSON(t, w.Result(), &gotTask)
	if gotTask.Title != "write tests" {
		t.Fatalf("get(title)=%+v", gotTask)
	}

	// 4) Complete
	w = doJSON(t, s, http.MethodPost, "/complete", map[string]any{"title": "write tests"})
	if w.Code != http.StatusOK {
		t.Fatalf("complete status=%d; body=%s", w.Code, w.Body.String())
	}
	var completed task.Task
	decodeJSON(t, w.Result(), &completed)
	if !completed.Done || completed.CompletedAt == nil {
		t.Fatalf("complete returned %+v", completed)
	}

	// 5) Stats
	w = doJSON(t, s, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status=%d", w.Code)
	}
	var stats map[string]int
	decodeJSON(t, w.Result(), &stats)
	if stats["total"] != 1 || stats["active"] != 0 || stats["completed"] != 1 {
		t.Fatalf("stats=%v", stats)
	}

	// 6) Delete
	w = doJSON(t, s, http.MethodDelete, "/delete", map[string]any{"title": "write tests"})
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d; body=%s", w.Code, w.Body.String())
	}
	var deleted map[string]any
	decodeJSON(t, w.Result(), &deleted)
	if deleted["deleted"] != true || deleted["title"] != "write tests" {
		t.Fatalf("delete response=%v", deleted)
	}

	// 7) Get after delete is a 404
	w = doJSON(t, s, http.MethodGet, "/get?title=write+tests", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get(deleted) status=%d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestHTTPAPI_ErrorMapping verifies validation failures map to 400 and
// missing tasks to 404.
func TestHTTPAPI_ErrorMapping(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"add_empty_title", http.MethodPost, "/add", map[string]any{"title": ""}, http.StatusBadRequest},
		{"add_whitespace_title", http.MethodPost, "/add", map[string]any{"title": "   "}, http.StatusBadRequest},
		{"add_bad_priority", http.MethodPost, "/add", map[string]any{"title": "ok", "priority": 9}, http.StatusBadRequest},
		{"add_zero_priority", http.MethodPost, "/add", map[string]any{"title": "ok", "priority": 0}, http.StatusBadRequest},
		{"complete_missing", http.MethodPost, "/complete", map[string]any{"title": "nope"}, http.StatusNotFound},
		{"delete_missing", http.MethodPost, "/delete", map[string]any{"title": "nope"}, http.StatusNotFound},
		{"get_missing", http.MethodGet, "/get?title=nope", nil, http.StatusNotFound},
		{"priority_out_of_range", http.MethodGet, "/priority?level=9", nil, http.StatusBadRequest},
		{"priority_not_a_number", http.MethodGet, "/priority?level=abc", nil, http.StatusBadRequest},
		{"add_wrong_method", http.MethodGet, "/add", nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, s, tc.method, tc.path, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d; body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

// TestHTTPAPI_AddOmittedPriorityDefaultsLow: leaving priority out of the
// body defaults to low; only an explicit invalid value is rejected.
func TestHTTPAPI_AddOmittedPriorityDefaultsLow(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/add", map[string]any{"title": "no priority"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status=%d; body=%s", w.Code, w.Body.String())
	}
	var created task.Task
	decodeJSON(t, w.Result(), &created)
	if created.Priority != task.PriorityLow {
		t.Fatalf("created.Priority = %d, want %d", created.Priority, task.PriorityLow)
	}
}

// TestHTTPAPI_AlreadyCompletedIs400 pins the re-complete rule: the second
// completion is a validation error, not a conflict or a no-op.
func TestHTTPAPI_AlreadyCompletedIs400(t *testing.T) {
	s := newTestServer(t)

	if w := doJSON(t, s, http.MethodPost, "/add", map[string]any{"title": "once"}); w.Code != http.StatusCreated {
		t.Fatalf("add status=%d", w.Code)
	}
	if w := doJSON(t, s, http.MethodPost, "/complete", map[string]any{"title": "once"}); w.Code != http.StatusOK {
		t.Fatalf("first complete status=%d", w.Code)
	}
	w := doJSON(t, s, http.MethodPost, "/complete", map[string]any{"title": "once"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second complete status=%d, want %d; body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

// TestHTTPAPI_PriorityFilter verifies /priority returns only matching
// tasks in insertion order.
func TestHTTPAPI_PriorityFilter(t *testing.T) {
	s := newTestServer(t)

	seed := []map[string]any{
		{"title": "first high", "priority": 3},
		{"title": "a low one", "priority": 1},
		{"title": "second high", "priority": 3},
	}
	for _, body := range seed {
		if w := doJSON(t, s, http.MethodPost, "/add", body); w.Code != http.StatusCreated {
			t.Fatalf("add %v status=%d", body, w.Code)
		}
	}

	w := doJSON(t, s, http.MethodGet, "/priority?level=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("priority status=%d", w.Code)
	}
	var got []task.Task
	decodeJSON(t, w.Result(), &got)
	if len(got) != 2 || got[0].Title != "first high" || got[1].Title != "second high" {
		t.Fatalf("priority filter got %+v", got)
	}
}

// TestHTTPAPI_ReportAndList exercises the export and HTML endpoints.
func TestHTTPAPI_ReportAndList(t *testing.T) {
	s := newTestServer(t)

	if w := doJSON(t, s, http.MethodPost, "/add", map[string]any{"title": "report me"}); w.Code != http.StatusCreated {
		t.Fatalf("add status=%d", w.Code)
	}

	w := doJSON(t, s, http.MethodGet, "/report?format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report(csv) status=%d; body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("report(csv) content-type=%q", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("report me")) {
		t.Fatalf("report(csv) missing row:\n%s", w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/report?format=nope", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("report(unknown) status=%d, want 400", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/list", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("report me")) {
		t.Fatalf("list page missing task:\n%s", w.Body.String())
	}
}

// TestHTTPAPI_Healthz verifies the health endpoint.
func TestHTTPAPI_Healthz(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", w.Code)
	}
	var body map[string]string
	decodeJSON(t, w.Result(), &body)
	if body["status"] != "ok" {
		t.Fatalf("healthz body=%v", body)
	}
}

// TestHTTPAPI_TracePropagation verifies an incoming X-Trace-ID is used
// for the request context (observable through the error log path not
// panicking and the handler running normally).
func TestHTTPAPI_TracePropagation(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.Header.Set("X-Trace-ID", "external-trace-123")
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get with trace header status=%d", w.Code)
	}
}
