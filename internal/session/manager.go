package session

import (
	"context"
	"sync"
	"time"

	"github.com/Rajchodisetti/quote-gateway/internal/observ"
	"github.com/Rajchodisetti/quote-gateway/internal/quotes"
	"github.com/Rajchodisetti/quote-gateway/internal/upstream"
)

// State is the authentication state of the single upstream session.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateReady           State = "ready"
	StateDegraded        State = "degraded"
)

// Config holds credentials and retry policy for the session manager.
type Config struct {
	APIKey            string
	SecretKey         string
	MaxRetries        int
	RetryInterval     time.Duration
	PrefetchContracts bool
}

// Manager owns the process-wide upstream session. Every state transition
// happens under one mutex, so a request-triggered EnsureReady and the
// background keep-alive never race to re-authenticate: one wins, the other
// observes ready or waits. Quote fetches snapshot the handle and call the
// provider outside the lock, so an in-flight fetch keeps its old handle
// across a relogin.
type Manager struct {
	mu     sync.Mutex
	client upstream.Client
	config Config

	state          State
	sess           *upstream.Session
	lastAuth       time.Time
	remainingBytes int64

	sleep func(time.Duration)
	now   func() time.Time
}

func NewManager(client upstream.Client, config Config) *Manager {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &Manager{
		client: client,
		config: config,
		state:  StateUnauthenticated,
		sleep:  time.Sleep,
		now:    time.Now,
	}
}

// EnsureReady verifies the session is authenticated and responsive, logging
// in when it is not. It never returns an error; if recovery fails the
// session stays degraded and downstream calls report that per-request.
func (m *Manager) EnsureReady(ctx context.Context) {
	m.mu.Lock()
	state, sess := m.state, m.sess
	m.mu.Unlock()

	if state == StateReady && sess != nil {
		if _, err := m.client.ListAccounts(ctx, sess); err == nil {
			return
		} else {
			observ.IncCounter("session_probe_failures_total", nil)
			observ.Log("session_probe_failed", map[string]any{"error": err.Error()})
		}
	}
	m.Login(ctx)
}

// Login authenticates with bounded retries. On success it resets quota
// accounting from a usage probe and prefetches contract reference data when
// the remaining budget is positive. On exhausted retries the session is left
// degraded; the failure is logged, never raised.
func (m *Manager) Login(ctx context.Context) {
	callTime := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Lost the race to another Login; the session is already fresh.
	if m.state == StateReady && m.lastAuth.After(callTime) {
		return
	}

	m.setState(StateAuthenticating)
	for attempt := 1; attempt <= m.config.MaxRetries; attempt++ {
		sess, err := m.client.Login(ctx, m.config.APIKey, m.config.SecretKey)
		if err == nil {
			m.sess = sess
			m.lastAuth = m.now()
			m.remainingBytes = 0
			if u, uerr := m.client.Usage(ctx, sess); uerr == nil {
				m.remainingBytes = u.RemainingBytes
				observ.SetGauge("session_quota_remaining_bytes", float64(u.RemainingBytes), nil)
			} else {
				observ.Log("session_usage_probe_failed", map[string]any{"error": uerr.Error()})
			}
			if m.config.PrefetchContracts && m.remainingBytes > 0 {
				if pf, ok := m.client.(upstream.ContractPrefetcher); ok {
					if perr := pf.PrefetchContracts(ctx, sess); perr != nil {
						observ.Log("contract_prefetch_failed", map[string]any{"error": perr.Error()})
					}
				}
			}
			m.setState(StateReady)
			observ.Log("session_login_ok", map[string]any{"attempt": attempt})
			return
		}

		observ.IncCounter("session_login_failures_total", nil)
		observ.Log("session_login_attempt_failed", map[string]any{
			"attempt": attempt,
			"of":      m.config.MaxRetries,
			"error":   err.Error(),
		})
		if attempt < m.config.MaxRetries {
			m.sleep(m.config.RetryInterval)
		}
	}

	m.setState(StateDegraded)
	observ.Log("session_login_exhausted", map[string]any{"attempts": m.config.MaxRetries})
}

// Logout releases the session best-effort. Provider errors are logged, never
// propagated; the local state is cleared regardless.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil {
		if err := m.client.Logout(ctx, m.sess); err != nil {
			observ.Log("session_logout_failed", map[string]any{"error": err.Error()})
		}
	}
	m.sess = nil
	m.setState(StateUnauthenticated)
}

// ScheduledRelogin proactively cycles credentials ahead of the provider's
// forced daily session expiry.
func (m *Manager) ScheduledRelogin(ctx context.Context) {
	observ.Log("session_scheduled_relogin", nil)
	m.Logout(ctx)
	m.Login(ctx)
}

// FetchQuotes resolves symbols to contracts and fetches a batch snapshot.
// A session that is not ready gets one recovery attempt first, so a request
// arriving after a transient outage does not have to wait for the keep-alive
// cycle. Unresolvable symbols are silently dropped; zero resolvable contracts
// is an empty result, not an error.
func (m *Manager) FetchQuotes(ctx context.Context, symbols []string) ([]quotes.Quote, error) {
	m.mu.Lock()
	state, sess := m.state, m.sess
	m.mu.Unlock()

	if state != StateReady || sess == nil {
		m.EnsureReady(ctx)
		m.mu.Lock()
		state, sess = m.state, m.sess
		m.mu.Unlock()
	}
	if state != StateReady || sess == nil {
		return nil, quotes.NewUpstreamUnavailable("session not ready")
	}

	u, err := m.client.Usage(ctx, sess)
	if err != nil {
		return nil, quotes.NewUpstreamCallFailed("usage probe failed", err)
	}
	m.mu.Lock()
	m.remainingBytes = u.RemainingBytes
	m.mu.Unlock()
	observ.SetGauge("session_quota_remaining_bytes", float64(u.RemainingBytes), nil)
	if u.RemainingBytes < 0 {
		return nil, quotes.NewQuotaExceeded("provider quota exhausted")
	}

	contracts := make([]upstream.Contract, 0, len(symbols))
	for _, sym := range symbols {
		ct, ok := m.client.ResolveContract(sym)
		if !ok {
			observ.IncCounter("symbols_unresolved_total", nil)
			observ.Log("symbol_unresolved", map[string]any{"symbol": sym})
			continue
		}
		contracts = append(contracts, ct)
	}
	if len(contracts) == 0 {
		return nil, nil
	}

	start := m.now()
	snaps, err := m.client.Snapshots(ctx, sess, contracts)
	observ.RecordDuration("snapshot_call", m.now().Sub(start), nil)
	observ.IncCounter("snapshot_calls_total", nil)
	if err != nil {
		return nil, quotes.NewUpstreamCallFailed("snapshot call failed", err)
	}
	if len(snaps) == 0 {
		return nil, quotes.NewEmptyUpstreamResult("provider returned no snapshots")
	}

	out := make([]quotes.Quote, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, quotes.Quote{
			Symbol:      s.Code,
			Price:       s.Close,
			ChangePrice: s.ChangePrice,
			ChangeRate:  s.ChangeRate,
		})
	}
	return out, nil
}

// State reports the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RemainingBytes reports the last observed provider quota balance.
func (m *Manager) RemainingBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingBytes
}

// setState must be called with the lock held.
func (m *Manager) setState(s State) {
	if m.state == s {
		return
	}
	observ.Log("session_state", map[string]any{"from": string(m.state), "to": string(s)})
	m.state = s
	observ.SetGauge("session_state", stateToFloat(s), map[string]string{"state": string(s)})
}

func stateToFloat(s State) float64 {
	switch s {
	case StateReady:
		return 1
	case StateAuthenticating:
		return 0.5
	case StateDegraded:
		return 0
	default:
		return -1
	}
}
