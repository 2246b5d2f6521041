package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/application/appendix"
	"appendix-ai-api/internal/application/extraction"
	"appendix-ai-api/internal/application/workspace"
	"appendix-ai-api/internal/config"
	"appendix-ai-api/internal/domain/entity"
	"appendix-ai-api/internal/interfaces/http/dto"
	apperrors "appendix-ai-api/pkg/errors"
)

type stubGenerator struct {
	chunks []string
	err    error
}

func (g stubGenerator) Generate(ctx context.Context, cfg entity.GenerationConfig, onIncrement appendix.IncrementFunc) (string, error) {
	if err := cfg.ValidateForGeneration(); err != nil {
		return "", err
	}
	var buf strings.Builder
	for _, c := range g.chunks {
		buf.WriteString(c)
		onIncrement(buf.String())
	}
	if g.err != nil {
		return "", g.err
	}
	return buf.String(), nil
}

type testServer struct {
	engine *gin.Engine
	svc    *workspace.Service
}

func newTestServer(t *testing.T, gen workspace.Generator) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	renderer, err := appendix.NewRenderer(appendix.RendererOptions{})
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Extraction: config.ExtractionConfig{MaxUploadBytes: 1 << 20}}
	svc := workspace.NewService(
		workspace.NewStore(workspace.StoreOptions{TTL: time.Hour}),
		extraction.NewService(cfg.Extraction.MaxUploadBytes, nil),
		gen,
		renderer,
	)

	sessions := NewSessionHandler(cfg, svc)
	generate := NewGenerateHandler(svc, gen)
	documents := NewDocumentHandler(svc)

	e := gin.New()
	e.GET("/v1/catalog", NewCatalogHandler().GetCatalog)
	e.POST("/v1/generate", generate.GenerateOnce)
	e.POST("/v1/sessions", sessions.CreateSession)
	e.GET("/v1/sessions/:sid", sessions.GetSession)
	e.PATCH("/v1/sessions/:sid/config", sessions.UpdateConfig)
	e.POST("/v1/sessions/:sid/integrations/:key/toggle", sessions.ToggleIntegration)
	e.POST("/v1/sessions/:sid/demo", sessions.LoadDemo)
	e.POST("/v1/sessions/:sid/upload", sessions.UploadFile)
	e.POST("/v1/sessions/:sid/generate", generate.GenerateSession)
	e.POST("/v1/sessions/:sid/export", documents.Export)
	e.GET("/v1/sessions/:sid/preview", documents.Preview)
	return &testServer{engine: e, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/sessions", nil, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d", w.Code)
	}
	var resp dto.Response[dto.SessionResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Data.ID
}

// stream 通过真实连接请求 SSE 接口，ResponseRecorder 不支持 CloseNotify
func (s *testServer) stream(t *testing.T, path string, body string) (int, string) {
	t.Helper()
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(data)
}

type sseEvent struct {
	Name string
	Data map[string]any
}

func parseEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event:"):
				ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &ev.Data); err != nil {
					t.Fatalf("decode %q: %v", line, err)
				}
			}
		}
		if ev.Name != "" {
			events = append(events, ev)
		}
	}
	return events
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t, stubGenerator{})
	w := s.do(t, http.MethodGet, "/v1/catalog", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"integration_topics"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, stubGenerator{})
	id := s.createSession(t)

	w := s.do(t, http.MethodPatch, "/v1/sessions/"+id+"/config",
		strings.NewReader(`{"appendix_kind":"PHU_LUC_I","teacher_name":"Nguyễn Văn A"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d body=%s", w.Code, w.Body.String())
	}
	var resp dto.Response[dto.SessionResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Config.AppendixKind != entity.AppendixKindI || resp.Data.Config.TeacherName != "Nguyễn Văn A" {
		t.Fatalf("config = %+v", resp.Data.Config)
	}

	w = s.do(t, http.MethodPatch, "/v1/sessions/"+id+"/config",
		strings.NewReader(`{"appendix_kind":"PHU_LUC_II"}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid kind status = %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/v1/sessions/"+id+"/integrations/AI/toggle", nil, "")
	var toggle dto.Response[dto.ToggleResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &toggle); err != nil {
		t.Fatal(err)
	}
	if !toggle.Data.Selected || toggle.Data.Key != "AI" {
		t.Fatalf("toggle = %+v", toggle.Data)
	}

	w = s.do(t, http.MethodGet, "/v1/sessions/missing", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing session status = %d", w.Code)
	}
}

func TestUploadTextFile(t *testing.T) {
	s := newTestServer(t, stubGenerator{})
	id := s.createSession(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "bai-day.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("Bài 1: Thông tin và dữ liệu"))
	_ = mw.Close()

	w := s.do(t, http.MethodPost, "/v1/sessions/"+id+"/upload", &body, mw.FormDataContentType())
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d body=%s", w.Code, w.Body.String())
	}
	snap, _ := s.svc.Snapshot(id)
	if snap.Config.SourceText != "Bài 1: Thông tin và dữ liệu" {
		t.Fatalf("source text = %q", snap.Config.SourceText)
	}

	w = s.do(t, http.MethodPost, "/v1/sessions/"+id+"/upload", strings.NewReader("x"), "text/plain")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file status = %d", w.Code)
	}
}

func TestUploadTooLargeSetsSessionError(t *testing.T) {
	s := newTestServer(t, stubGenerator{})
	id := s.createSession(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "lon.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(bytes.Repeat([]byte("a"), 3<<20))
	_ = mw.Close()

	w := s.do(t, http.MethodPost, "/v1/sessions/"+id+"/upload", &body, mw.FormDataContentType())
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != apperrors.MsgExtractionFailed {
		t.Fatalf("message = %q", resp.Message)
	}
	snap, _ := s.svc.Snapshot(id)
	if snap.UI.LastError == nil || *snap.UI.LastError != apperrors.MsgExtractionFailed {
		t.Fatalf("last error = %v", snap.UI.LastError)
	}
	if snap.Config.SourceText != "" {
		t.Fatalf("source text = %q", snap.Config.SourceText)
	}
}

func TestGenerateSessionStream(t *testing.T) {
	s := newTestServer(t, stubGenerator{chunks: []string{"<table>", "</table>"}})
	id := s.createSession(t)
	if _, err := s.svc.LoadDemo(id); err != nil {
		t.Fatal(err)
	}

	status, body := s.stream(t, "/v1/sessions/"+id+"/generate", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	events := parseEvents(t, body)
	if len(events) != 3 {
		t.Fatalf("events = %+v", events)
	}
	want := []string{"<table>", "<table></table>"}
	for i, html := range want {
		if events[i].Name != "content" || events[i].Data["html"] != html {
			t.Fatalf("event %d = %+v", i, events[i])
		}
	}
	if events[2].Name != "done" {
		t.Fatalf("last event = %+v", events[2])
	}

	snap, _ := s.svc.Snapshot(id)
	if snap.Document.HTML != "<table></table>" {
		t.Fatalf("document = %q", snap.Document.HTML)
	}
}

func TestGenerateSessionErrorEvent(t *testing.T) {
	gen := stubGenerator{chunks: []string{"<p>"}, err: apperrors.NewGenerationError(errors.New("503"), "", true)}
	s := newTestServer(t, gen)
	id := s.createSession(t)

	// 源文本为空：校验失败也以 error 事件返回
	_, body := s.stream(t, "/v1/sessions/"+id+"/generate", "")
	events := parseEvents(t, body)
	if len(events) != 1 || events[0].Name != "error" || events[0].Data["message"] != apperrors.MsgEmptySource {
		t.Fatalf("events = %+v", events)
	}

	if _, err := s.svc.LoadDemo(id); err != nil {
		t.Fatal(err)
	}
	_, body = s.stream(t, "/v1/sessions/"+id+"/generate", "")
	events = parseEvents(t, body)
	last := events[len(events)-1]
	if last.Name != "error" || last.Data["retryable"] != true || last.Data["message"] != apperrors.MsgGenerationFailed {
		t.Fatalf("events = %+v", events)
	}
	snap, _ := s.svc.Snapshot(id)
	if !snap.Document.Incomplete {
		t.Fatal("partial document must be marked incomplete")
	}

	status, _ := s.stream(t, "/v1/sessions/missing/generate", "")
	if status != http.StatusNotFound {
		t.Fatalf("missing session status = %d", status)
	}
}

func TestGenerateOnce(t *testing.T) {
	s := newTestServer(t, stubGenerator{chunks: []string{"<p>ok</p>"}})

	status, _ := s.stream(t, "/v1/generate", `{"appendix_kind":"PHU_LUC_III","grade_level":"Khối 6 (Mức TC1)","source_text":" ","selected_integration_keys":["NLS"]}`)
	if status != http.StatusBadRequest {
		t.Fatalf("empty source status = %d", status)
	}

	status, body := s.stream(t, "/v1/generate", `{"appendix_kind":"PHU_LUC_III","grade_level":"Khối 6 (Mức TC1)","source_text":"Bài 1","selected_integration_keys":["NLS"]}`)
	events := parseEvents(t, body)
	if status != http.StatusOK || len(events) != 2 || events[1].Name != "done" {
		t.Fatalf("status = %d body = %s", status, body)
	}
	doc, _ := events[1].Data["document"].(map[string]any)
	if doc["html"] != "<p>ok</p>" {
		t.Fatalf("done document = %v", events[1].Data)
	}
}

func TestExportAndPreview(t *testing.T) {
	s := newTestServer(t, stubGenerator{chunks: []string{"<p>doc</p>"}})
	id := s.createSession(t)
	if _, err := s.svc.LoadDemo(id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.svc.Generate(context.Background(), id, nil); err != nil {
		t.Fatal(err)
	}

	w := s.do(t, http.MethodPost, "/v1/sessions/"+id+"/export", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != appendix.WordContentType {
		t.Fatalf("content type = %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "PHU_LUC_III") {
		t.Fatalf("content disposition = %s", cd)
	}
	if !strings.Contains(w.Body.String(), "<p>doc</p>") {
		t.Fatalf("body = %s", w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/v1/sessions/"+id+"/export",
		strings.NewReader(`{"rendered":"<p>typeset</p>"}`), "application/json")
	if !strings.Contains(w.Body.String(), "<p>typeset</p>") {
		t.Fatalf("rendered markup not exported: %s", w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/v1/sessions/"+id+"/preview", nil, "")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("preview status = %d", w.Code)
	}
}
