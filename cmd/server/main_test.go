package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/profile-directory/internal/http/health"
	"github.com/janisto/profile-directory/internal/platform/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Photo.UploadDir = filepath.Join(t.TempDir(), "uploads")
	return cfg
}

func testServer(t *testing.T) chi.Router {
	t.Helper()
	a, err := newApp(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	router := newRouter(routerConfig{version: "test"}, a)
	router.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	return router
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "test-health-req")
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", resp.Code)
	}
	var body health.Response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("expected status 'healthy', got %s", body.Status)
	}
}

func TestNotFoundReturnsProblemDetails(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "test-404-req")
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected application/problem+json content type, got %q", ct)
	}

	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal 404 response: %v", err)
	}
	if problem.Detail != "resource not found" {
		t.Fatalf("unexpected detail: %s", problem.Detail)
	}
}

func TestMethodNotAllowedReturnsProblemDetails(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "test-405-req")
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", resp.Code)
	}
	if allow := resp.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
		t.Fatalf("expected Allow header to list GET, got %q", allow)
	}

	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal 405 response: %v", err)
	}
	if !strings.Contains(problem.Detail, "POST") {
		t.Fatalf("expected detail to mention POST, got %s", problem.Detail)
	}
}

func TestRecovererReturnsProblemDetails(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "test-500-req")
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected application/problem+json content type, got %q", ct)
	}
}

func TestWildcardAcceptReturnsJSON(t *testing.T) {
	srv := testServer(t)
	tests := []struct {
		name   string
		accept string
	}{
		{"wildcard all", "*/*"},
		{"application wildcard", "application/*"},
		{"unsupported type", "text/plain"},
		{"no accept header", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/profiles", nil)
			req.Header.Set(chimiddleware.RequestIDHeader, "test-wildcard-req")
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			resp := httptest.NewRecorder()
			srv.ServeHTTP(resp, req)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 OK, got %d", resp.Code)
			}
			if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected application/json, got %q", ct)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles", nil)
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)
	if got := resp.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff on API responses, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil)
	resp = httptest.NewRecorder()
	srv.ServeHTTP(resp, req)
	if got := resp.Header().Get("Cross-Origin-Resource-Policy"); got != "cross-origin" {
		t.Fatalf("expected stored photos to be embeddable, got %q", got)
	}
	if got := resp.Header().Get("X-Frame-Options"); got != "" {
		t.Fatalf("expected no frame policy on photos, got %q", got)
	}
}

func uploadPhoto(t *testing.T, srv http.Handler, png []byte) *url.URL {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="ada.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	_, _ = part.Write(png)
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", resp.Code, resp.Body.String())
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	u, err := url.Parse(result.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestUploadedPhotoIsServed(t *testing.T) {
	srv := testServer(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 24)...)
	u := uploadPhoto(t, srv, png)

	req := httptest.NewRequest(http.MethodGet, u.Path, nil)
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected stored photo to be served, got %d", resp.Code)
	}
	if !bytes.Equal(resp.Body.Bytes(), png) {
		t.Fatal("served photo differs from upload")
	}
}

func TestUploadDirectoryIsNotListed(t *testing.T) {
	srv := testServer(t)
	u := uploadPhoto(t, srv, append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 24)...))
	name := path.Base(u.Path)

	for _, p := range []string{"/uploads/", "/uploads/."} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		resp := httptest.NewRecorder()
		srv.ServeHTTP(resp, req)

		if resp.Code != http.StatusNotFound {
			t.Fatalf("GET %s: expected 404, got %d", p, resp.Code)
		}
		if strings.Contains(resp.Body.String(), name) {
			t.Fatalf("GET %s: response exposes stored photo name", p)
		}
	}
}

func TestOpenAPIServedUnderPrefix(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil)
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	for _, p := range []string{"/profiles", "/profiles/{id}", "/uploads"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("expected path %s in OpenAPI document", p)
		}
	}
}

func TestOpenAPICBORContentTypes(t *testing.T) {
	var api huma.API
	router := chi.NewRouter()
	router.Route(apiPrefix, func(r chi.Router) {
		api = newAPI(r, "test")
	})

	type TestInput struct {
		Body struct {
			Name string `json:"name"`
		}
	}
	type TestOutput struct {
		Body struct {
			Message string `json:"message"`
		}
	}
	huma.Post(api, "/test", func(_ context.Context, input *TestInput) (*TestOutput, error) {
		out := &TestOutput{}
		out.Body.Message = "Hello, " + input.Body.Name
		return out, nil
	})

	op := api.OpenAPI().Paths["/test"].Post
	if op.RequestBody == nil {
		t.Fatal("expected request body in operation")
	}
	if _, ok := op.RequestBody.Content["application/cbor"]; !ok {
		t.Fatal("expected application/cbor in request body content")
	}
	resp200 := op.Responses["200"]
	if resp200 == nil {
		t.Fatal("expected 200 response")
	}
	if _, ok := resp200.Content["application/cbor"]; !ok {
		t.Fatal("expected application/cbor in 200 response content")
	}
}

func TestNewAppRejectsUnknownBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "cassandra"
	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("expected unknown store backend to fail")
	}

	cfg = testConfig(t)
	cfg.Photo.Backend = "ftp"
	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("expected unknown photo backend to fail")
	}
}

func TestNewAppWithRedisAddsHealthCheck(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Addr = "127.0.0.1:1"
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	check, ok := a.checks["redis"]
	if !ok {
		t.Fatal("expected redis health check")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := check(ctx); err == nil {
		t.Fatal("expected unreachable redis to fail the check")
	}
}

func TestAppCloseRunsInReverseOrder(t *testing.T) {
	var order []string
	a := &app{closers: []func() error{
		func() error { order = append(order, "first"); return nil },
		func() error { order = append(order, "second"); return errors.New("close failed") },
	}}

	err := a.Close()
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Fatalf("expected joined close error, got %v", err)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Fatalf("unexpected close order: %v", order)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}

func TestServerShutdownOnSignal(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/health", health.NewHandler(nil))

	srv := &http.Server{
		Addr:              ":0", // random available port
		Handler:           router,
		ReadHeaderTimeout: time.Second,
	}

	listenErr := make(chan error, 1)
	started := make(chan struct{})

	go func() {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			listenErr <- err
			return
		}
		close(started)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	select {
	case <-started:
	case err := <-listenErr:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for server to start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}

	select {
	case err := <-listenErr:
		t.Fatalf("unexpected listen error after shutdown: %v", err)
	default:
	}
}
