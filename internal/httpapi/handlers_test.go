package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskdesk.org/internal/auth"
	"taskdesk.org/internal/task"
)

// apiClient drives the full middleware chain in tests. A non-empty token is
// sent as a bearer credential on every request.
type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	store := auth.NewMemoryStore()
	if err := auth.EnsureRoles(context.Background(), store); err != nil {
		t.Fatalf("EnsureRoles: %v", err)
	}
	tokens, err := auth.NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	authSvc, err := auth.NewService(store, tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	tasks, err := task.NewService(task.NewMemoryStore())
	if err != nil {
		t.Fatalf("task.NewService: %v", err)
	}

	api := New(ReadyProbe{}, "test", authSvc, tokens, tasks)
	// Tests fire requests back to back from one address.
	api.rateBurst = 1000
	api.ratePerSec = 1000
	return &apiClient{t: t, handler: api.Handler()}
}

func (c *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	return c.doRaw(method, path, reader)
}

func (c *apiClient) doRaw(method, path string, body io.Reader) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *apiClient) decode(rec *httptest.ResponseRecorder) map[string]any {
	c.t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		c.t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func (c *apiClient) register(username, password, role string) map[string]any {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"username": username, "password": password, "role": role,
	})
	if rec.Code != http.StatusCreated {
		c.t.Fatalf("register %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
	return c.decode(rec)
}

func (c *apiClient) login(username, password string) string {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusOK {
		c.t.Fatalf("login %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
	body := c.decode(rec)
	token, _ := body["access_token"].(string)
	if token == "" {
		c.t.Fatalf("login %s: no access token in %v", username, body)
	}
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	c := newTestAPI(t)

	user := c.register("alice", "pw123", "")
	if user["username"] != "alice" {
		t.Fatalf("unexpected user: %v", user)
	}
	roles, _ := user["roles"].([]any)
	if len(roles) != 1 || roles[0] != "user" {
		t.Fatalf("expected default role user, got %v", user["roles"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatal("password hash must not appear in responses")
	}

	// Duplicate username is a client error, not a conflict status.
	rec := c.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"username": "alice", "password": "other",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: status %d", rec.Code)
	}
	if c.decode(rec)["error"] != "username already taken" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c.token = c.login("alice", "pw123")
	rec = c.do(http.MethodGet, "/v1/tasks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated list: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLoginFailuresShareOneBody(t *testing.T) {
	c := newTestAPI(t)
	c.register("alice", "pw123", "")

	cases := []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "mallory", "password": "pw123"},
		{"username": "", "password": "pw123"},
		{"username": "alice", "password": ""},
	}
	for _, creds := range cases {
		rec := c.do(http.MethodPost, "/v1/auth/login", creds)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("login %v: status %d", creds, rec.Code)
		}
		if c.decode(rec)["error"] != "invalid credentials" {
			t.Fatalf("login %v leaked detail: %s", creds, rec.Body.String())
		}
	}
}

func TestRefreshEndpoint(t *testing.T) {
	c := newTestAPI(t)
	c.register("alice", "pw123", "")

	rec := c.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"username": "alice", "password": "pw123",
	})
	pair := c.decode(rec)
	refresh, _ := pair["refresh_token"].(string)
	access, _ := pair["access_token"].(string)

	rec = c.do(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status %d, body %s", rec.Code, rec.Body.String())
	}
	if c.decode(rec)["access_token"] == "" {
		t.Fatal("expected fresh access token")
	}

	// An access token is not a refresh credential.
	rec = c.do(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": access})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh with access token: status %d", rec.Code)
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	c := newTestAPI(t)

	for _, path := range []string{"/v1/tasks", "/v1/my/tasks", "/v1/tasks/some-id"} {
		rec := c.do(http.MethodGet, path, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s without token: status %d", path, rec.Code)
		}
		if got := rec.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Bearer") {
			t.Fatalf("GET %s: missing challenge header, got %q", path, got)
		}
	}

	c.token = "not-a-token"
	rec := c.do(http.MethodGet, "/v1/tasks", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d", rec.Code)
	}
}

func TestSharedTaskLifecycle(t *testing.T) {
	c := newTestAPI(t)
	c.register("alice", "pw123", "")
	c.register("bob", "pw456", "admin")
	aliceToken := c.login("alice", "pw123")
	bobToken := c.login("bob", "pw456")

	// The shared view starts empty and is readable by any authenticated user.
	c.token = aliceToken
	rec := c.do(http.MethodGet, "/v1/tasks", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("initial list: status %d, body %q", rec.Code, rec.Body.String())
	}

	// Mutations are admin-only.
	rec = c.do(http.MethodPost, "/v1/tasks", map[string]string{"title": "sneak"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user create: status %d, body %s", rec.Code, rec.Body.String())
	}

	c.token = bobToken
	rec = c.do(http.MethodPost, "/v1/tasks", map[string]string{"title": "ship release", "description": "v1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: status %d, body %s", rec.Code, rec.Body.String())
	}
	created := c.decode(rec)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("no id in %v", created)
	}
	if loc := rec.Header().Get("Location"); !strings.HasSuffix(loc, "/"+id) {
		t.Fatalf("unexpected Location: %q", loc)
	}
	if _, hasOwner := created["owner_id"]; hasOwner {
		t.Fatalf("shared task must not carry an owner: %v", created)
	}

	// Any authenticated user can read it.
	c.token = aliceToken
	rec = c.do(http.MethodGet, "/v1/tasks/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("user get: status %d", rec.Code)
	}
	if c.decode(rec)["title"] != "ship release" {
		t.Fatalf("unexpected task: %s", rec.Body.String())
	}

	// Non-admin update and delete are refused.
	rec = c.do(http.MethodPut, "/v1/tasks/"+id, map[string]string{"title": "hijack"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user update: status %d", rec.Code)
	}
	rec = c.do(http.MethodDelete, "/v1/tasks/"+id, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user delete: status %d", rec.Code)
	}

	c.token = bobToken
	rec = c.do(http.MethodPut, "/v1/tasks/"+id, map[string]string{"title": "ship release", "description": "v1.0.1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin update: status %d, body %s", rec.Code, rec.Body.String())
	}
	if c.decode(rec)["description"] != "v1.0.1" {
		t.Fatalf("update not applied: %s", rec.Body.String())
	}

	rec = c.do(http.MethodDelete, "/v1/tasks/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin delete: status %d", rec.Code)
	}
	rec = c.do(http.MethodGet, "/v1/tasks/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", rec.Code)
	}
}

func TestOwnerTaskFlow(t *testing.T) {
	c := newTestAPI(t)
	c.register("alice", "pw123", "")
	c.register("bob", "pw456", "admin")
	aliceToken := c.login("alice", "pw123")
	bobToken := c.login("bob", "pw456")

	c.token = aliceToken
	rec := c.do(http.MethodPost, "/v1/my/tasks", map[string]string{"title": "buy milk"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("owner create: status %d, body %s", rec.Code, rec.Body.String())
	}
	created := c.decode(rec)
	id, _ := created["id"].(string)
	if created["owner_id"] == "" || created["owner_id"] == nil {
		t.Fatalf("owned task must record its owner: %v", created)
	}

	// Ownership, not role, gates the personal collection.
	c.token = bobToken
	rec = c.do(http.MethodGet, "/v1/my/tasks/"+id, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin read of foreign owned task: status %d", rec.Code)
	}
	rec = c.do(http.MethodGet, "/v1/my/tasks", nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("bob's personal list leaked: %s", rec.Body.String())
	}

	// Through the shared namespace the owned id does not exist.
	rec = c.do(http.MethodGet, "/v1/tasks/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("owned task via shared path: status %d", rec.Code)
	}

	c.token = aliceToken
	rec = c.do(http.MethodPut, "/v1/my/tasks/"+id, map[string]string{"title": "buy oat milk"})
	if rec.Code != http.StatusOK {
		t.Fatalf("owner update: status %d, body %s", rec.Code, rec.Body.String())
	}
	rec = c.do(http.MethodDelete, "/v1/my/tasks/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete: status %d", rec.Code)
	}
}

func TestTaskValidation(t *testing.T) {
	c := newTestAPI(t)
	c.register("bob", "pw456", "admin")
	c.token = c.login("bob", "pw456")

	for _, payload := range []map[string]string{
		{"title": ""},
		{"title": "   "},
		{"description": "no title at all"},
	} {
		rec := c.do(http.MethodPost, "/v1/tasks", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %v: status %d", payload, rec.Code)
		}
		body := c.decode(rec)
		if _, keyed := body["title"]; !keyed {
			t.Fatalf("payload %v: validation not keyed by field: %s", payload, rec.Body.String())
		}
	}
}

func TestUnknownFieldsDropped(t *testing.T) {
	c := newTestAPI(t)
	c.register("bob", "pw456", "admin")
	c.token = c.login("bob", "pw456")

	raw := `{"title":"real","description":"d","huh":"should vanish"}`
	rec := c.doRaw(http.MethodPost, "/v1/tasks", strings.NewReader(raw))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create with extra field: status %d, body %s", rec.Code, rec.Body.String())
	}
	body := c.decode(rec)
	if _, leaked := body["huh"]; leaked {
		t.Fatalf("unknown field survived: %s", rec.Body.String())
	}
	if body["title"] != "real" {
		t.Fatalf("known fields lost: %s", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	c := newTestAPI(t)
	c.register("alice", "pw123", "")
	c.token = c.login("alice", "pw123")

	rec := c.do(http.MethodPatch, "/v1/tasks", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PATCH collection: status %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
		t.Fatalf("missing Allow header, got %q", allow)
	}
}

func TestPublicEndpoints(t *testing.T) {
	c := newTestAPI(t)

	rec := c.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", rec.Code)
	}
	if c.decode(rec)["service"] != serviceName {
		t.Fatalf("unexpected healthz body: %s", rec.Body.String())
	}

	rec = c.do(http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: status %d", rec.Code)
	}

	rec = c.do(http.MethodGet, "/v1/info", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("info: status %d", rec.Code)
	}

	rec = c.do(http.MethodGet, "/no/such/route", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown path without token: status %d", rec.Code)
	}
}

func TestMalformedJSONBody(t *testing.T) {
	c := newTestAPI(t)
	c.register("bob", "pw456", "admin")
	c.token = c.login("bob", "pw456")

	rec := c.doRaw(http.MethodPost, "/v1/tasks", strings.NewReader(`{"title":`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("truncated JSON: status %d", rec.Code)
	}
	rec = c.do(http.MethodPost, "/v1/tasks", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body: status %d", rec.Code)
	}
}
