package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gopherai-pdfchat/internal/ai"
	"gopherai-pdfchat/internal/app"
	"gopherai-pdfchat/internal/bootstrap"
	"gopherai-pdfchat/internal/config"
	"gopherai-pdfchat/internal/logging"
	"gopherai-pdfchat/internal/model"
	"gopherai-pdfchat/internal/session"
	"gopherai-pdfchat/internal/storage"
	"gopherai-pdfchat/internal/transport/http/response"
)

type stubExtractor struct{}

func (stubExtractor) Extract(path string) (string, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0
	}
	return string(data), 1
}

type stubCompleter struct {
	reply string
	calls int
}

func (c *stubCompleter) Complete(_ context.Context, _ []ai.ChatMessage) (string, error) {
	c.calls++
	return c.reply, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testClient struct {
	t      *testing.T
	router *gin.Engine
	cookie *nethttp.Cookie
}

func newTestServer(t *testing.T) (*testClient, *bootstrap.App, *stubCompleter) {
	t.Helper()

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	cfg.App.GinMode = gin.TestMode
	cfg.Session.Backend = "memory"
	cfg.Storage.UploadDir = t.TempDir()
	cfg.Storage.MaxUploadMB = 1

	files, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	completer := &stubCompleter{reply: "stub answer"}
	logger := logging.Nop()
	a := &bootstrap.App{
		Config:    cfg,
		Logger:    logger,
		Sessions:  session.NewMemoryStore(cfg.SessionTTL()),
		Files:     files,
		Documents: app.NewDocumentService(files, stubExtractor{}, app.OverwriteReplace, logger),
		Chat:      app.NewChatService(completer, logger),
		StartedAt: time.Now(),
	}
	return &testClient{t: t, router: NewRouter(a)}, a, completer
}

func (c *testClient) do(req *nethttp.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	for i := len(cookies) - 1; i >= 0; i-- {
		if cookies[i].Name == "pdfchat_session" {
			if cookies[i].MaxAge < 0 {
				c.cookie = nil
			} else {
				c.cookie = &nethttp.Cookie{Name: cookies[i].Name, Value: cookies[i].Value}
			}
			break
		}
	}
	return rec
}

func (c *testClient) json(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *testClient) upload(files map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("pdfs", name)
		if err != nil {
			c.t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			c.t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		c.t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

type skippedData struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type documentsData struct {
	Uploaded  []model.DocumentSummary `json:"uploaded"`
	Skipped   []skippedData           `json:"skipped"`
	Documents []model.DocumentSummary `json:"documents"`
}

func TestRouter_Healthz(t *testing.T) {
	client, _, _ := newTestServer(t)
	rec := client.do(httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"app":"gopherai-pdfchat"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestRouter_UploadAndList(t *testing.T) {
	client, _, _ := newTestServer(t)

	rec := client.upload(map[string]string{
		"a.pdf":     "alpha text",
		"b.pdf":     "beta text",
		"notes.txt": "ignored",
	})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}
	if client.cookie == nil {
		t.Fatal("expected a session cookie")
	}
	var data documentsData
	decode(t, rec, &data)
	if len(data.Uploaded) != 2 || len(data.Skipped) != 1 || data.Skipped[0].Filename != "notes.txt" {
		t.Errorf("unexpected upload result %+v", data)
	}

	rec = client.json(nethttp.MethodGet, "/api/v1/documents", nil)
	decode(t, rec, &data)
	if len(data.Documents) != 2 {
		t.Errorf("got %d documents, want 2", len(data.Documents))
	}
}

func TestRouter_UploadTooLargeIsRejected(t *testing.T) {
	client, _, _ := newTestServer(t)

	rec := client.upload(map[string]string{"big.pdf": strings.Repeat("x", 2<<20)})
	if rec.Code != nethttp.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want 413", rec.Code)
	}
	env := decode(t, rec, nil)
	if env.Code != response.CodeFileTooLarge || env.Message != app.ErrFileTooLarge.Error() {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestRouter_UploadOnlyNonPDFIsRejected(t *testing.T) {
	client, _, _ := newTestServer(t)

	rec := client.upload(map[string]string{"notes.txt": "x", "image.png": "y"})
	if rec.Code != nethttp.StatusUnsupportedMediaType {
		t.Fatalf("got status %d, want 415", rec.Code)
	}
	if env := decode(t, rec, nil); env.Code != response.CodeUnsupportedFile {
		t.Errorf("got code %d, want %d", env.Code, response.CodeUnsupportedFile)
	}
}

func TestRouter_UploadWithoutFiles(t *testing.T) {
	client, _, _ := newTestServer(t)
	rec := client.upload(map[string]string{})
	if rec.Code != nethttp.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestRouter_SessionsAreIsolated(t *testing.T) {
	first, a, _ := newTestServer(t)
	first.upload(map[string]string{"a.pdf": "alpha"})

	second := &testClient{t: t, router: NewRouter(a)}
	var data documentsData
	decode(t, second.json(nethttp.MethodGet, "/api/v1/documents", nil), &data)
	if len(data.Documents) != 0 {
		t.Errorf("a new client must not see another session's documents: %+v", data.Documents)
	}

	second.cookie = &nethttp.Cookie{Name: "pdfchat_session", Value: "not-a-token"}
	decode(t, second.json(nethttp.MethodGet, "/api/v1/documents", nil), &data)
	if len(data.Documents) != 0 {
		t.Errorf("an invalid token must start a fresh session: %+v", data.Documents)
	}
}

func TestRouter_ChatAndHistory(t *testing.T) {
	client, _, completer := newTestServer(t)

	var reply struct {
		Reply string `json:"reply"`
	}
	decode(t, client.json(nethttp.MethodPost, "/api/v1/chat", gin.H{"pdf_name": "a.pdf", "message": "hi"}), &reply)
	if reply.Reply != app.ReplyNoDocument {
		t.Errorf("got %q, want %q", reply.Reply, app.ReplyNoDocument)
	}

	client.upload(map[string]string{"a.pdf": "alpha"})
	decode(t, client.json(nethttp.MethodPost, "/api/v1/chat", gin.H{"pdf_name": "a.pdf", "message": "what?"}), &reply)
	if reply.Reply != "stub answer" {
		t.Errorf("got %q, want stub answer", reply.Reply)
	}
	decode(t, client.json(nethttp.MethodPost, "/api/v1/chat", gin.H{"pdf_name": "zzz.pdf", "message": "what?"}), &reply)
	if reply.Reply != app.ReplyDocumentNotFound {
		t.Errorf("got %q, want %q", reply.Reply, app.ReplyDocumentNotFound)
	}
	if completer.calls != 1 {
		t.Errorf("got %d completion calls, want 1", completer.calls)
	}

	var history struct {
		History []model.ChatTurn `json:"history"`
	}
	decode(t, client.json(nethttp.MethodGet, "/api/v1/history?pdf_name=a.pdf", nil), &history)
	if len(history.History) != 2 || history.History[1].Content != "stub answer" {
		t.Errorf("unexpected history %+v", history.History)
	}
	decode(t, client.json(nethttp.MethodGet, "/api/v1/history?pdf_name="+model.AggregateKey, nil), &history)
	if len(history.History) != 2 {
		t.Errorf("aggregate history should flatten transcripts, got %+v", history.History)
	}
}

func TestRouter_DeleteDocument(t *testing.T) {
	client, _, _ := newTestServer(t)
	client.upload(map[string]string{"a.pdf": "alpha", "b.pdf": "beta"})

	rec := client.json(nethttp.MethodDelete, "/api/v1/documents/a.pdf", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("delete status %d: %s", rec.Code, rec.Body.String())
	}
	rec = client.json(nethttp.MethodDelete, "/api/v1/documents/a.pdf", nil)
	if rec.Code != nethttp.StatusNotFound {
		t.Errorf("second delete: got status %d, want 404", rec.Code)
	}

	var data documentsData
	decode(t, client.json(nethttp.MethodDelete, "/api/v1/documents", nil), &data)
	if len(data.Documents) != 0 {
		t.Errorf("delete all left %+v", data.Documents)
	}
}

func TestRouter_ServeOwnUploadsOnly(t *testing.T) {
	client, a, _ := newTestServer(t)
	client.upload(map[string]string{"a.pdf": "alpha"})

	entries, err := os.ReadDir(a.Files.Dir())
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one stored file, got %d (%v)", len(entries), err)
	}
	stored := entries[0].Name()

	rec := client.do(httptest.NewRequest(nethttp.MethodGet, "/uploads/"+stored, nil))
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "alpha" {
		t.Errorf("got %d %q, want the stored file", rec.Code, rec.Body.String())
	}

	stranger := &testClient{t: t, router: client.router}
	rec = stranger.do(httptest.NewRequest(nethttp.MethodGet, "/uploads/"+stored, nil))
	if rec.Code != nethttp.StatusNotFound {
		t.Errorf("another session: got status %d, want 404", rec.Code)
	}
}

func TestRouter_Reset(t *testing.T) {
	client, a, _ := newTestServer(t)
	client.upload(map[string]string{"a.pdf": "alpha"})
	oldCookie := client.cookie

	rec := client.json(nethttp.MethodPost, "/api/v1/session/reset", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("reset status %d", rec.Code)
	}
	if client.cookie != nil {
		t.Error("reset should expire the session cookie")
	}

	entries, _ := os.ReadDir(a.Files.Dir())
	if len(entries) != 0 {
		t.Errorf("reset left %d stored files", len(entries))
	}

	client.cookie = oldCookie
	var data documentsData
	decode(t, client.json(nethttp.MethodGet, "/api/v1/documents", nil), &data)
	if len(data.Documents) != 0 {
		t.Errorf("old token must not bring back documents: %+v", data.Documents)
	}
}
