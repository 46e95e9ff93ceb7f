package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Value struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Value.Error, body.Value.Message
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{
			name:       "any origin",
			method:     http.MethodGet,
			origin:     "http://localhost:3000",
			wantStatus: http.StatusOK,
			wantAllow:  "*",
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			origin:     "http://localhost:3000",
			wantStatus: http.StatusNoContent,
			wantAllow:  "*",
		},
		{
			name:       "no origin header",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "listed origin",
			origins:    []string{"https://grid.example.com"},
			method:     http.MethodGet,
			origin:     "https://grid.example.com",
			wantStatus: http.StatusOK,
			wantAllow:  "https://grid.example.com",
		},
		{
			name:       "unlisted origin",
			origins:    []string{"https://grid.example.com"},
			method:     http.MethodGet,
			origin:     "https://evil.example.com",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.Use(CORS(tt.origins))
			router.GET("/status", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"value": gin.H{"ready": true}})
			})

			req := httptest.NewRequest(tt.method, "/status", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantAllow != "" && tt.method == http.MethodGet {
				assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Expose-Headers")), "x-trace-id")
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	router.GET("/status", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/status", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, send("192.168.1.1").Code, "request %d", i+1)
	}

	w := send("192.168.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	code, msg := decodeError(t, w)
	assert.Equal(t, "unknown error", code)
	assert.Equal(t, rateLimitMessage, msg)

	// Another client has its own bucket
	assert.Equal(t, http.StatusOK, send("192.168.1.2").Code)
}

func TestRateLimitScopes(t *testing.T) {
	send := func(router *gin.Engine, path, ip string) int {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}
	newRouter := func(scope string) *gin.Engine {
		router := setupTestRouter()
		router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Scope: scope}))
		router.GET("/status", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET("/session/:sessionId/title", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	t.Run("global", func(t *testing.T) {
		router := newRouter(ScopeGlobal)
		assert.Equal(t, http.StatusOK, send(router, "/status", "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, send(router, "/status", "10.0.0.2"))
	})

	t.Run("session", func(t *testing.T) {
		router := newRouter(ScopeSession)
		assert.Equal(t, http.StatusOK, send(router, "/session/a/title", "10.0.0.1"))
		assert.Equal(t, http.StatusOK, send(router, "/session/b/title", "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, send(router, "/session/a/title", "10.0.0.2"))
		assert.Equal(t, http.StatusOK, send(router, "/status", "10.0.0.1"), "sessionless requests fall back to the client")
	})

	t.Run("unknown", func(t *testing.T) {
		assert.NotPanics(t, func() { RateLimit(RateLimitConfig{Scope: ScopeGlobal}) })
		assert.Panics(t, func() { RateLimit(RateLimitConfig{Scope: "tenant"}) })
	})
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		user     string
		pass     string
		path     string
		want     int
	}{
		{name: "plain match", password: "s3cret", user: "admin", pass: "s3cret", path: "/session", want: http.StatusOK},
		{name: "plain mismatch", password: "s3cret", user: "admin", pass: "nope", path: "/session", want: http.StatusUnauthorized},
		{name: "bcrypt match", password: string(hash), user: "admin", pass: "s3cret", path: "/session", want: http.StatusOK},
		{name: "bcrypt mismatch", password: string(hash), user: "admin", pass: "wrong", path: "/session", want: http.StatusUnauthorized},
		{name: "wrong user", password: "s3cret", user: "root", pass: "s3cret", path: "/session", want: http.StatusUnauthorized},
		{name: "missing credentials", password: "s3cret", path: "/session", want: http.StatusUnauthorized},
		{name: "skipped path", password: "s3cret", path: "/health", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.Use(BasicAuth(BasicAuthConfig{Username: "admin", Password: tt.password}, "/health"))
			router.GET("/session", func(c *gin.Context) { c.Status(http.StatusOK) })
			router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
				_, msg := decodeError(t, w)
				assert.Equal(t, "authentication required", msg)
			}
		})
	}
}

func TestLoggingWithBodies(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := setupTestRouter()
	router.Use(Logging(zap.New(core), LoggingConfig{Bodies: true, SkipPaths: []string{"/health"}}))
	router.POST("/session/:sessionId/element", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusNotFound, gin.H{"value": gin.H{"error": "no such element"}})
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("POST", "/session/s1/element", strings.NewReader(`{"using":"name","value":"OK"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), req)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Request rejected", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "s1", fields["session_id"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Contains(t, fields["request_body"], `"using":"name"`)
	assert.Contains(t, fields["response_body"], "no such element")
}

func TestLoggingWithoutBodies(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := setupTestRouter()
	router.Use(Logging(zap.New(core), LoggingConfig{}))
	router.GET("/status", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/status", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "request_body")
	assert.Equal(t, "/status", fields["path"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	router := setupTestRouter()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) { panic("provider crashed") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	code, msg := decodeError(t, w)
	assert.Equal(t, "unknown error", code)
	assert.Equal(t, "internal server error", msg)
	assert.NotContains(t, w.Body.String(), "provider crashed")
	assert.Equal(t, 1, logs.Len())
}

func BenchmarkRateLimit(b *testing.B) {
	router := setupTestRouter()
	router.Use(RateLimit(DefaultRateLimitConfig()))
	router.GET("/status", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/status", nil)
	req.RemoteAddr = "192.168.1.1:1234"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}
