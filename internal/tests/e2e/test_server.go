package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fardapack/fardapack-crm/internal/app"
	"github.com/fardapack/fardapack-crm/internal/config"
)

// TestServer runs the full service stack behind a real HTTP listener
type TestServer struct {
	t         *testing.T
	Server    *httptest.Server
	Container *app.Container
	Config    *config.Config
	Client    *http.Client
}

// Response is a decoded API response
type Response struct {
	StatusCode int
	Body       map[string]interface{}
}

// Data returns the "data" object of the response body
func (r *Response) Data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

// List returns the "data" array of the response body
func (r *Response) List() []interface{} {
	l, _ := r.Body["data"].([]interface{})
	return l
}

// NewTestServer starts a server over a fresh SQLite store. env entries
// override the configuration the same way the service reads it.
func NewTestServer(t *testing.T, env map[string]string) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("CRM_DB_DSN", filepath.Join(t.TempDir(), "crm.db"))
	t.Setenv("CRM_BCRYPT_COST", "4")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Failed to load test config: %v", err)
	}

	ctx := context.Background()
	c, err := app.NewContainer(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	if _, err := c.AuthSvc.EnsureBootstrapAdmin(ctx, cfg.BootstrapPassword); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}

	ts := &TestServer{
		t:         t,
		Server:    httptest.NewServer(c.Router()),
		Container: c,
		Config:    cfg,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
	t.Cleanup(func() {
		ts.Server.Close()
		_ = c.Close()
	})
	return ts
}

// URL returns the absolute URL of path
func (s *TestServer) URL(path string) string {
	return s.Server.URL + path
}

// Do sends a JSON request with an optional bearer token
func (s *TestServer) Do(method, path, token string, body interface{}) *Response {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("Failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL(path), reader)
	if err != nil {
		s.t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		s.t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := &Response{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("Failed to read response body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			s.t.Fatalf("Failed to decode response %q: %v", raw, err)
		}
	}
	return out
}

// Expect sends the request and fails the test on an unexpected status
func (s *TestServer) Expect(status int, method, path, token string, body interface{}) *Response {
	s.t.Helper()
	resp := s.Do(method, path, token, body)
	if resp.StatusCode != status {
		s.t.Fatalf("%s %s: expected status %d, got %d: %v", method, path, status, resp.StatusCode, resp.Body)
	}
	return resp
}

// Login returns a session token for the given credentials
func (s *TestServer) Login(username, password string) string {
	s.t.Helper()
	resp := s.Expect(http.StatusOK, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	token, ok := resp.Data()["token"].(string)
	if !ok || token == "" {
		s.t.Fatalf("login returned no token: %v", resp.Body)
	}
	return token
}

// AdminToken logs in as the bootstrap admin
func (s *TestServer) AdminToken() string {
	return s.Login("admin", s.Config.BootstrapPassword)
}

// idOf reads the numeric id of a create response
func idOf(t *testing.T, resp *Response) uint {
	t.Helper()
	v, ok := resp.Data()["id"].(float64)
	if !ok {
		t.Fatalf("response has no id: %v", resp.Body)
	}
	return uint(v)
}
