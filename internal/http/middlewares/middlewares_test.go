package middlewares

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type resolverFunc func(ctx context.Context, sid string) (*user.User, error)

func (f resolverFunc) CurrentUser(ctx context.Context, sid string) (*user.User, error) {
	return f(ctx, sid)
}

func newAuthRouter(resolver SessionResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)

	m := NewSessionAuth(resolver, "session_id", slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := gin.New()
	r.Use(m.Authenticate())
	r.GET("/open", func(c *gin.Context) {
		_, ok := UserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	r.GET("/private", m.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", m.RequireAuth(), m.RequireRole(user.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doGet(r http.Handler, path, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sid})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSessionAuth(t *testing.T) {
	users := map[string]*user.User{
		"cook":  {ID: "u1", Role: user.RoleUser},
		"admin": {ID: "u2", Role: user.RoleAdmin},
	}
	r := newAuthRouter(resolverFunc(func(_ context.Context, sid string) (*user.User, error) {
		if sid == "broken" {
			return nil, errors.New("db down")
		}
		return users[sid], nil
	}))

	tests := []struct {
		name string
		path string
		sid  string
		want int
	}{
		{"anonymous_open", "/open", "", http.StatusOK},
		{"anonymous_private", "/private", "", http.StatusUnauthorized},
		{"unknown_session", "/private", "stale", http.StatusUnauthorized},
		{"valid_session", "/private", "cook", http.StatusOK},
		{"user_on_admin", "/admin", "cook", http.StatusForbidden},
		{"admin_on_admin", "/admin", "admin", http.StatusOK},
		{"resolver_error", "/open", "broken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(r, tt.path, tt.sid)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body=%s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRequireJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name string
		body string
		ct   string
		want int
	}{
		{"json", `{}`, "application/json; charset=utf-8", http.StatusNoContent},
		{"form", `a=b`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"bodyless", ``, "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tt.body))
			if tt.ct != "" {
				req.Header.Set("Content-Type", tt.ct)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials not allowed for listed origin")
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unlisted origin was allowed")
	}
}

func TestRequestID_EchoesOrGenerates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		id, _ := c.Get(CtxRequestID)
		c.String(http.StatusOK, id.(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Body.String() != "abc" || rec.Header().Get("X-Request-Id") != "abc" {
		t.Fatalf("request id not echoed")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id not generated")
	}
}
