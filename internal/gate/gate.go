package gate

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/Rajchodisetti/quote-gateway/internal/observ"
	"github.com/Rajchodisetti/quote-gateway/internal/quotes"
)

// Gate is the admission check run before any request is processed: a
// credential check followed by a global minimum-interval throttle. The
// throttle is process-wide, protecting the single upstream session; it is
// not a fairness mechanism across clients.
type Gate struct {
	secret  string
	limiter *rate.Limiter
}

// New builds a gate enforcing minInterval between admitted requests.
// A zero minInterval disables the throttle.
func New(secret string, minInterval time.Duration) *Gate {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Gate{
		secret:  secret,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// CheckAuth compares the presented credential against the configured secret.
// Fails closed: empty or mismatched credentials are rejected.
func (g *Gate) CheckAuth(credential string) error {
	if credential == "" || credential != g.secret {
		observ.IncCounter("gate_rejections_total", map[string]string{"reason": "unauthorized"})
		return quotes.NewUnauthorized("missing or invalid credential")
	}
	return nil
}

// CheckRateLimit admits at most one request per minimum interval, globally.
// Admission consumes the shared budget.
func (g *Gate) CheckRateLimit(now time.Time) error {
	if !g.limiter.AllowN(now, 1) {
		observ.IncCounter("gate_rejections_total", map[string]string{"reason": "rate_limited"})
		return quotes.NewRateLimited("too many requests, retry later")
	}
	return nil
}

// Admit runs the gate checks in order. Auth runs before rate accounting so
// unauthenticated probes never consume the shared rate budget.
func (g *Gate) Admit(credential string, now time.Time) error {
	checks := []func() error{
		func() error { return g.CheckAuth(credential) },
		func() error { return g.CheckRateLimit(now) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}
