package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Rajchodisetti/quote-gateway/internal/observ"
)

// HTTPConfig holds configuration for the REST provider client.
type HTTPConfig struct {
	BaseURL            string
	TimeoutSeconds     int
	RateLimitPerMinute int
	MaxRetries         int
	BackoffBaseMs      int
}

// HTTPClient talks to the provider's REST API. One instance is shared by the
// session manager and its background tasks; the contract table is populated
// by PrefetchContracts after a successful login.
type HTTPClient struct {
	config      HTTPConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter

	mu        sync.RWMutex
	contracts map[string]Contract
}

func NewHTTPClient(config HTTPConfig) *HTTPClient {
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 10
	}
	if config.RateLimitPerMinute <= 0 {
		config.RateLimitPerMinute = 60
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.BackoffBaseMs <= 0 {
		config.BackoffBaseMs = 500
	}
	return &HTTPClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(config.RateLimitPerMinute)/60), 1),
		contracts:   make(map[string]Contract),
	}
}

func (c *HTTPClient) Login(ctx context.Context, key, secret string) (*Session, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"api_key": key, "secret_key": secret}
	if err := c.call(ctx, http.MethodPost, "/v1/login", "", body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login: empty token in response")
	}
	return &Session{Token: out.Token, LoggedInAt: time.Now()}, nil
}

func (c *HTTPClient) Logout(ctx context.Context, sess *Session) error {
	return c.call(ctx, http.MethodPost, "/v1/logout", sess.Token, nil, nil)
}

func (c *HTTPClient) ListAccounts(ctx context.Context, sess *Session) ([]Account, error) {
	var out struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/accounts", sess.Token, nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

func (c *HTTPClient) Usage(ctx context.Context, sess *Session) (Usage, error) {
	var out Usage
	if err := c.call(ctx, http.MethodGet, "/v1/usage", sess.Token, nil, &out); err != nil {
		return Usage{}, err
	}
	return out, nil
}

// PrefetchContracts downloads the full contract table. Page one reports the
// page count; remaining pages are fetched concurrently.
func (c *HTTPClient) PrefetchContracts(ctx context.Context, sess *Session) error {
	first, pages, err := c.contractsPage(ctx, sess, 1)
	if err != nil {
		return err
	}

	table := make(map[string]Contract, len(first)*pages)
	var tableMu sync.Mutex
	for _, ct := range first {
		table[strings.ToUpper(ct.Code)] = ct
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for page := 2; page <= pages; page++ {
		page := page
		g.Go(func() error {
			cts, _, err := c.contractsPage(gctx, sess, page)
			if err != nil {
				return err
			}
			tableMu.Lock()
			for _, ct := range cts {
				table[strings.ToUpper(ct.Code)] = ct
			}
			tableMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.contracts = table
	c.mu.Unlock()

	observ.Log("contracts_prefetched", map[string]any{"count": len(table), "pages": pages})
	return nil
}

func (c *HTTPClient) contractsPage(ctx context.Context, sess *Session, page int) ([]Contract, int, error) {
	var out struct {
		Contracts []Contract `json:"contracts"`
		Pages     int        `json:"pages"`
	}
	path := fmt.Sprintf("/v1/contracts?page=%d", page)
	if err := c.call(ctx, http.MethodGet, path, sess.Token, nil, &out); err != nil {
		return nil, 0, err
	}
	if out.Pages <= 0 {
		out.Pages = 1
	}
	return out.Contracts, out.Pages, nil
}

// ResolveContract looks the symbol up in the prefetched table. An empty
// table resolves nothing; the caller decides what an unresolvable symbol
// means.
func (c *HTTPClient) ResolveContract(symbol string) (Contract, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ct, ok := c.contracts[strings.ToUpper(symbol)]
	return ct, ok
}

func (c *HTTPClient) Snapshots(ctx context.Context, sess *Session, contracts []Contract) ([]Snapshot, error) {
	codes := make([]string, 0, len(contracts))
	for _, ct := range contracts {
		codes = append(codes, ct.Code)
	}
	var out struct {
		Snapshots []Snapshot `json:"snapshots"`
	}
	body := map[string][]string{"codes": codes}
	if err := c.call(ctx, http.MethodPost, "/v1/snapshots", sess.Token, body, &out); err != nil {
		return nil, err
	}
	return out.Snapshots, nil
}

// call performs one provider request with rate limiting and bounded retries.
func (c *HTTPClient) call(ctx context.Context, method, path, token string, body, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(c.config.BackoffBaseMs*(1<<attempt)) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		observ.RecordDuration("upstream_call", time.Since(start), map[string]string{"path": path})
		if err != nil {
			lastErr = fmt.Errorf("%s %s: %w", method, path, err)
			continue
		}

		func() {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				lastErr = fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, string(b))
				return
			}
			lastErr = nil
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					lastErr = fmt.Errorf("%s %s: decode response: %w", method, path, err)
				}
			}
		}()

		// Client errors will not improve with retries
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return lastErr
		}
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
