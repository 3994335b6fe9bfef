package directory

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimitTransport paces outgoing requests with a token bucket so a large
// targets file stays under the per-user API quota. Requests wait; none are
// rejected.
type rateLimitTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func newRateLimitTransport(rps float64, next http.RoundTripper) http.RoundTripper {
	if rps <= 0 {
		return next
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &rateLimitTransport{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		next:    next,
	}
}

// RoundTrip blocks until the limiter admits the request or its context ends.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.RoundTrip(req)
}
