package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllow_ExhaustsAndRecovers(t *testing.T) {
	req := require.New(t)
	l := New(2, 20*time.Millisecond)

	req.True(l.Allow("k"))
	req.True(l.Allow("k"))
	req.False(l.Allow("k"))

	// Separate keys have separate buckets
	req.True(l.Allow("other"))

	// A fresh window refills the bucket
	time.Sleep(30 * time.Millisecond)
	req.True(l.Allow("k"))
}

func TestForget(t *testing.T) {
	req := require.New(t)
	l := New(1, time.Minute)

	req.True(l.Allow("k"))
	req.False(l.Allow("k"))

	l.Forget("k")
	req.True(l.Allow("k"))
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	req := require.New(t)
	l := New(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	req.Equal(http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	req.Equal(http.StatusTooManyRequests, w.Code)
}
