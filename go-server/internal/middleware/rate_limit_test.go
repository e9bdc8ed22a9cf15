package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupRateLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/:code", rl.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func doRequest(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/abc1234", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	r := setupRateLimitedRouter(rl)

	for i := 0; i < 5; i++ {
		w := doRequest(r, "10.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	r := setupRateLimitedRouter(rl)

	for i := 0; i < 3; i++ {
		w := doRequest(r, "10.0.0.2")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(r, "10.0.0.2")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	r := setupRateLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.3").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "10.0.0.3").Code)

	// a different client still gets through
	assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.4").Code)
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	r := setupRateLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.5").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "10.0.0.5").Code)

	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.5").Code)
}

func TestRateLimiter_ConcurrentClients(t *testing.T) {
	rl := NewRateLimiter(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				assert.True(t, rl.allow("10.0.1.1"))
			}
		}()
	}
	wg.Wait()

	// the 1001st request in the window is rejected
	assert.False(t, rl.allow("10.0.1.1"))
}
