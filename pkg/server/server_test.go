package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/diagramkit/pkg/observability"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
	"github.com/matzehuels/diagramkit/pkg/store"
)

const tcp = "packet-beta\n0-15: \"Source Port\"\n16-31: \"Destination Port\"\n"

func newTestServer(t *testing.T, cfg Config) (*Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := log.New(&logs)
	runner, err := pipeline.NewRunner(nil, nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	return New(runner, store.NewMemoryStore(), logger, cfg), &logs
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response should carry a request ID")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	const id = "6f1c2a57-8b0e-4d5f-9a43-2c7e1b9d0f12"

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request ID = %q, want client value", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got == "not a uuid" || got == "" {
		t.Errorf("invalid client ID should be replaced, got %q", got)
	}
}

func TestPacketParse(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/v1/packet/parse", jsonBody(t, map[string]any{"source": tcp}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp parseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Diagram.Rows) != 1 || len(resp.Diagram.Rows[0]) != 2 {
		t.Errorf("rows = %+v", resp.Diagram.Rows)
	}
	if resp.SourceHash == "" {
		t.Error("missing source hash")
	}
}

func TestPacketParseDiagnostics(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/v1/packet/parse", jsonBody(t, map[string]any{"source": "packet\n0-15 \"x\"\n"}))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != "PARSE_ERROR" {
		t.Errorf("code = %q", resp.Error.Code)
	}
	if len(resp.Error.Diagnostics) == 0 || resp.Error.Diagnostics[0].Line != 2 {
		t.Errorf("diagnostics = %+v, want one on line 2", resp.Error.Diagnostics)
	}
	if resp.RequestID == "" {
		t.Error("error should carry the request ID")
	}
}

func TestPacketRender(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodPost, "/v1/packet/render", jsonBody(t, map[string]any{"source": tcp}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Destination Port") {
		t.Error("SVG should contain the labels")
	}

	rec = do(t, s, http.MethodPost, "/v1/packet/render?format=json", jsonBody(t, map[string]any{
		"source":       tcp,
		"bits_per_row": 8,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"bitsPerRow": 8`) {
		t.Errorf("JSON body = %s", rec.Body.String())
	}
}

func TestPacketRenderErrors(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxBodyBytes: 64})
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad json", "/v1/packet/render", "{", 400, "INVALID_INPUT"},
		{"unknown field", "/v1/packet/render", `{"src":"x"}`, 400, "INVALID_INPUT"},
		{"empty body", "/v1/packet/render", "", 400, "INVALID_INPUT"},
		{"too large", "/v1/packet/render", `{"source":"` + strings.Repeat("x", 100) + `"}`, 400, "INVALID_INPUT"},
		{"bad format", "/v1/packet/render?format=gif", `{"source":"packet\n"}`, 400, "INVALID_FORMAT"},
		{"gap", "/v1/packet/render", `{"source":"packet\n0-3: \"a\"\n5: \"b\"\n"}`, 422, "INVALID_PACKET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if got := decodeError(t, rec).Error.Code; got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestShape(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	body := jsonBody(t, map[string]any{"id": "n1", "label": "Delay", "padding": 8})

	rec := do(t, s, http.MethodPost, "/v1/shapes/half-rounded-rect", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `class="basic label-container"`) {
		t.Errorf("unexpected SVG: %s", rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q", rec.Header().Get("X-Cache"))
	}

	rec = do(t, s, http.MethodPost, "/v1/shapes/delay?format=json", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var summary pipeline.ShapeSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Kind != "half-rounded-rect" || summary.Radius <= 0 {
		t.Errorf("summary = %+v", summary)
	}

	rec = do(t, s, http.MethodPost, "/v1/shapes/hexagon", body)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Code != "INVALID_SHAPE" {
		t.Errorf("unknown kind: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestShapeHandDrawnLimits(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	thin := jsonBody(t, map[string]any{
		"id": "n1", "label": "Hi", "padding": 16, "look": "handDrawn",
		"cssStyles": []string{"stroke-width:0.00000001"},
	})
	rec := do(t, s, http.MethodPost, "/v1/shapes/delay", thin)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if n := rec.Body.Len(); n > 64<<10 {
		t.Errorf("thin stroke produced %d bytes of SVG", n)
	}

	huge := jsonBody(t, map[string]any{"id": "n1", "label": "Hi", "padding": 1e9, "look": "handDrawn"})
	rec = do(t, s, http.MethodPost, "/v1/shapes/delay", huge)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Code != "INVALID_SHAPE" {
		t.Errorf("huge padding: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestDiagramLifecycle(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodPost, "/v1/diagrams", jsonBody(t, map[string]any{"name": "tcp.mmd", "source": tcp}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var saved store.Diagram
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}
	if saved.Language != "packet" || saved.ExpiresAt.IsZero() {
		t.Errorf("saved = %+v", saved)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/diagrams/"+saved.ID {
		t.Errorf("Location = %q", loc)
	}

	rec = do(t, s, http.MethodGet, "/v1/diagrams/"+saved.ID, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Source Port") {
		t.Fatalf("get: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/v1/diagrams/"+saved.ID+"/svg", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<svg") {
		t.Fatalf("svg: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodDelete, "/v1/diagrams/"+saved.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/v1/diagrams/"+saved.ID, "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Error.Code != "DIAGRAM_NOT_FOUND" {
		t.Errorf("after delete: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestDiagramErrors(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodPost, "/v1/diagrams", jsonBody(t, map[string]any{"source": "packet\n0-3 \"x\"\n"}))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid source: status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/v1/diagrams", jsonBody(t, map[string]any{"language": "pie", "source": "pie\n"}))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("unknown language: status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/v1/diagrams", jsonBody(t, map[string]any{"name": "../etc/passwd", "source": tcp}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("traversal name: status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/v1/diagrams/NOT-AN-ID", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d", rec.Code)
	}
}

func TestDiagramRoutesWithoutStore(t *testing.T) {
	runner, err := pipeline.NewRunner(nil, nil, log.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	s := New(runner, nil, log.New(&bytes.Buffer{}), Config{})
	rec := do(t, s, http.MethodPost, "/v1/diagrams", jsonBody(t, map[string]any{"source": tcp}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s, http.MethodGet, "/v1/packet/render", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRecoverPanics(t *testing.T) {
	s, logs := newTestServer(t, Config{})
	h := s.requestID(s.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Error.Code != "INTERNAL_ERROR" || strings.Contains(got.Error.Message, "boom") {
		t.Errorf("error = %+v", got.Error)
	}
	if !strings.Contains(logs.String(), "boom") {
		t.Error("panic should be logged")
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	s, logs := newTestServer(t, Config{})
	do(t, s, http.MethodPost, "/v1/shapes/rect", `{"id":"a","label":"A"}`)

	if len(hooks.routes) != 1 || hooks.routes[0] != "POST /v1/shapes/{kind} OK" {
		t.Errorf("routes = %v", hooks.routes)
	}
	if !strings.Contains(logs.String(), "/v1/shapes/{kind}") {
		t.Errorf("request log should use the route pattern: %s", logs.String())
	}
}
