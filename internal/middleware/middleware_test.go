package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerClient(t *testing.T) {
	r := gin.New()
	r.POST("/contact", RateLimitMiddleware(RateLimitConfig{RPS: 1, Burst: 2}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, do(r, "POST", "/contact", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, "POST", "/contact", nil).Code)

	w := do(r, "POST", "/contact", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "TOO_MANY_REQUESTS")
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// a different client has its own bucket
	req := httptest.NewRequest("POST", "/contact", nil)
	req.RemoteAddr = "198.51.100.9:4000"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitCustomRejection(t *testing.T) {
	r := gin.New()
	r.POST("/contact", RateLimitMiddleware(RateLimitConfig{
		RPS:   1,
		Burst: 1,
		OnLimit: func(c *gin.Context) {
			c.String(http.StatusTooManyRequests, "slow down")
		},
	}), func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, "POST", "/contact", nil)
	w := do(r, "POST", "/contact", nil)
	assert.Equal(t, "slow down", w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyRequestID))
	})

	w := do(r, "GET", "/", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())

	w = do(r, "GET", "/", map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", w.Body.String())
}

type fakeRecorder struct {
	mu    sync.Mutex
	paths []string
	done  chan struct{}
}

func (f *fakeRecorder) RecordVisit(ctx context.Context, ip, ua, path string) error {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func TestVisitorTracking(t *testing.T) {
	rec := &fakeRecorder{done: make(chan struct{}, 8)}
	r := gin.New()
	r.Use(VisitorTracking(rec))
	r.GET("/*path", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, "GET", "/", nil)
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("visit was not recorded")
	}

	do(r, "GET", "/static/app.css", nil)
	do(r, "GET", "/admin/dashboard", nil)
	do(r, "GET", "/", map[string]string{"DNT": "1"})
	do(r, "GET", "/", map[string]string{"Sec-GPC": "1"})

	select {
	case <-rec.done:
		t.Fatal("untracked request was recorded")
	case <-time.After(100 * time.Millisecond):
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"/"}, rec.paths)
}
