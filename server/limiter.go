package server

import (
	"net/http"
	"sync"
)

// UpstreamLimiter caps the number of requests that are waiting on an external
// service at the same time. A limiter with max <= 0 admits everything.
type UpstreamLimiter struct {
	max int

	mu       sync.Mutex
	inFlight int
}

// NewUpstreamLimiter creates a limiter admitting at most max concurrent requests.
func NewUpstreamLimiter(max int) *UpstreamLimiter {
	return &UpstreamLimiter{max: max}
}

// TryAcquire reserves a slot and reports whether one was available.
func (l *UpstreamLimiter) TryAcquire() bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.inFlight >= l.max {
		return false
	}
	l.inFlight++
	return true
}

// Release frees a slot obtained by TryAcquire.
func (l *UpstreamLimiter) Release() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight > 0 {
		l.inFlight--
	}
}

// InFlight returns the number of held slots.
func (l *UpstreamLimiter) InFlight() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.inFlight
}

// Remaining returns how many slots are free, or -1 when unlimited.
func (l *UpstreamLimiter) Remaining() int {
	if l == nil || l.max <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.max - l.inFlight
}

// limitUpstream wraps next so that it only runs while a slot is held.
func limitUpstream(l *UpstreamLimiter, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if !l.TryAcquire() {
			reqID, _ := RequestIDFrom(r.Context())
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, &apiError{
				Type:      "rate_limited",
				Message:   "too many concurrent upstream requests",
				RequestID: reqID,
			})
			return
		}
		defer l.Release()
		next.ServeHTTP(w, r)
	})
}
