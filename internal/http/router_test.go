package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/domain/user"
	apphttp "github.com/geocoder89/recipehub/internal/http"
	"github.com/geocoder89/recipehub/internal/http/handlers"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/repo/memory"
	"github.com/geocoder89/recipehub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type captureSender struct {
	mu    sync.Mutex
	links map[string]string
}

func (c *captureSender) SendResetLink(_ context.Context, email, resetURL string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[email] = resetURL
	return nil
}

func (c *captureSender) token(t *testing.T, email string) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.links[email]
	if !ok {
		t.Fatalf("no reset link sent to %s", email)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse reset url: %v", err)
	}
	return u.Query().Get("token")
}

type testApp struct {
	router *gin.Engine
	store  *memory.Store
	sender *captureSender
	hasher *security.Hasher
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	hasher := security.NewHasherWithParams(security.ScryptParams{N: 1024, R: 8, P: 1, KeyLen: 64, SaltLen: 16})

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	sessions := auth.NewSessionManager(store.Sessions(), store.Activities(), 0, log).WithMetrics(prom)
	resets := auth.NewResetManager(store.Users(), store.PasswordResets(), hasher, 0, log).WithMetrics(prom)
	accounts := auth.NewAccounts(store.Users(), sessions, hasher, store.Activities(), log)
	sender := &captureSender{links: map[string]string{}}

	router := apphttp.NewRouter(apphttp.Deps{
		Log:         log,
		Prom:        prom,
		Gatherer:    reg,
		Cookie:      handlers.CookieConfig{Name: "session_id"},
		Reset:       handlers.PasswordResetConfig{BaseURL: "http://localhost:3000"},
		Accounts:    accounts,
		Sessions:    accounts,
		Resets:      resets,
		ResetSender: sender,
		Activities:  store.Activities(),
		Users:       store.Users(),
	})

	return &testApp{router: router, store: store, sender: sender, hasher: hasher}
}

func (a *testApp) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) signup(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	w := a.do(http.MethodPost, "/api/auth/signup", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body=%s", w.Code, w.Body.String())
	}
	return extractSessionCookie(t, w)
}

func extractSessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestAuthFlow_SignupMeLogout(t *testing.T) {
	app := setupApp(t)

	cookie := app.signup(t, "cook@example.com", "secret1")

	w := app.do(http.MethodGet, "/api/auth/me", "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "cook@example.com") {
		t.Fatalf("me body = %s", w.Body.String())
	}

	w = app.do(http.MethodGet, "/api/auth/activity", "", cookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "User registered") {
		t.Fatalf("activity = %d %s", w.Code, w.Body.String())
	}

	w = app.do(http.MethodPost, "/api/auth/logout", "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	w = app.do(http.MethodGet, "/api/auth/me", "", cookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d, want 401", w.Code)
	}

	// second logout with the stale cookie is harmless
	w = app.do(http.MethodPost, "/api/auth/logout", "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("repeat logout status = %d", w.Code)
	}
}

func TestAuthFlow_PasswordReset(t *testing.T) {
	app := setupApp(t)
	app.signup(t, "cook@example.com", "oldpass1")

	w := app.do(http.MethodPost, "/api/auth/forgot-password", `{"email":"COOK@example.com"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("forgot status = %d", w.Code)
	}

	unknown := app.do(http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`, nil)
	if unknown.Body.String() != w.Body.String() {
		t.Fatalf("known and unknown emails answered differently: %s vs %s", w.Body.String(), unknown.Body.String())
	}

	token := app.sender.token(t, "cook@example.com")

	body := `{"token":"` + token + `","password":"newpass1"}`
	w = app.do(http.MethodPost, "/api/auth/reset-password", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d body=%s", w.Code, w.Body.String())
	}

	w = app.do(http.MethodPost, "/api/auth/reset-password", body, nil)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Reset link is invalid or has expired") {
		t.Fatalf("reused token = %d %s", w.Code, w.Body.String())
	}

	w = app.do(http.MethodPost, "/api/auth/login", `{"email":"cook@example.com","password":"oldpass1"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old password login = %d, want 401", w.Code)
	}

	w = app.do(http.MethodPost, "/api/auth/login", `{"email":"cook@example.com","password":"newpass1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("new password login = %d", w.Code)
	}
}

func TestAdmin_BlockUser(t *testing.T) {
	app := setupApp(t)
	ctx := context.Background()

	cookCookie := app.signup(t, "cook@example.com", "secret1")
	cook, _ := app.store.Users().GetByEmail(ctx, "cook@example.com")

	hash, _ := app.hasher.Hash("adminpw1")
	admin := user.User{ID: "admin-1", Email: "admin@example.com", PasswordHash: hash, Role: user.RoleAdmin, Status: user.StatusActive}
	if err := app.store.Users().Create(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	w := app.do(http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"adminpw1"}`, nil)
	adminCookie := extractSessionCookie(t, w)

	path := "/api/admin/users/" + cook.ID + "/status"

	w = app.do(http.MethodPatch, path, `{"status":"blocked"}`, cookCookie)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d, want 403", w.Code)
	}

	w = app.do(http.MethodPatch, path, `{"status":"blocked"}`, adminCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("block status = %d body=%s", w.Code, w.Body.String())
	}

	w = app.do(http.MethodGet, "/api/auth/me", "", cookCookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("blocked user me = %d, want 401", w.Code)
	}

	w = app.do(http.MethodPost, "/api/auth/login", `{"email":"cook@example.com","password":"secret1"}`, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("blocked login = %d, want 403", w.Code)
	}

	w = app.do(http.MethodPatch, "/api/admin/users/missing/status", `{"status":"active"}`, adminCookie)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown user = %d, want 404", w.Code)
	}

	w = app.do(http.MethodPatch, "/api/admin/users/admin-1/status", `{"status":"blocked"}`, adminCookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self block = %d, want 400", w.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		if w := app.do(http.MethodGet, path, "", nil); w.Code != http.StatusOK {
			t.Fatalf("%s = %d", path, w.Code)
		}
	}

	app.signup(t, "cook@example.com", "secret1")

	w := app.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "recipehub_auth_sessions_issued_total") {
		t.Fatalf("session metric missing from /metrics")
	}

	w = app.do(http.MethodGet, "/nope", "", nil)
	var resp struct {
		Error handlers.APIError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Error.Code != "not_found" {
		t.Fatalf("404 body = %s", w.Body.String())
	}
}
