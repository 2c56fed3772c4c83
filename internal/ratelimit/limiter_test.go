package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func remoteAddr(r *http.Request) string {
	return r.RemoteAddr
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(3, time.Minute, remoteAddr, zap.NewNop())
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/shorten/ex1", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do("1.2.3.4").Code)
	}
	rec := do("1.2.3.4")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")

	// Other clients have their own budget
	assert.Equal(t, http.StatusOK, do("5.6.7.8").Code)
}

func TestLimiter_Cleanup(t *testing.T) {
	l := New(1, time.Minute, remoteAddr, zap.NewNop())
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))

	now = now.Add(visitorIdleTTL + time.Second)
	l.cleanup()

	l.mu.Lock()
	assert.Empty(t, l.visitors)
	l.mu.Unlock()
}
