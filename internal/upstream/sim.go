package upstream

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// SimClient is an in-memory provider used in simulation mode and in tests.
// It carries a built-in contract table, random-walks its prices, and burns
// quota bytes per snapshot call so the quota path can be exercised locally.
type SimClient struct {
	mu             sync.Mutex
	random         *rand.Rand
	prices         map[string]*simPrice
	contracts      map[string]Contract
	remainingBytes int64
	quotaPerCall   int64
	sessionSeq     int

	// failure toggles for tests and chaos runs
	failLogin     bool
	failProbe     bool
	failSnapshots bool
}

type simPrice struct {
	base float64
	ref  float64 // previous close, for change computation
}

func NewSimClient() *SimClient {
	c := &SimClient{
		random:         rand.New(rand.NewSource(time.Now().UnixNano())),
		prices:         make(map[string]*simPrice),
		contracts:      make(map[string]Contract),
		remainingBytes: 500 << 20,
		quotaPerCall:   4096,
	}
	seed := []struct {
		code, exchange, name string
		price                float64
	}{
		{"2330", "TSE", "TSMC", 585.0},
		{"2317", "TSE", "Hon Hai", 104.5},
		{"2454", "TSE", "MediaTek", 920.0},
		{"0050", "TSE", "Yuanta Taiwan 50", 132.8},
		{"2603", "TSE", "Evergreen Marine", 168.5},
		{"AAPL", "NASDAQ", "Apple", 206.8},
		{"NVDA", "NASDAQ", "NVIDIA", 450.0},
	}
	for _, s := range seed {
		c.contracts[s.code] = Contract{Code: s.code, Exchange: s.exchange, Name: s.name}
		c.prices[s.code] = &simPrice{base: s.price, ref: s.price}
	}
	return c
}

func (c *SimClient) Login(ctx context.Context, key, secret string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failLogin {
		return nil, fmt.Errorf("sim: login refused")
	}
	c.sessionSeq++
	return &Session{
		Token:      fmt.Sprintf("sim-session-%d", c.sessionSeq),
		LoggedInAt: time.Now(),
	}, nil
}

func (c *SimClient) Logout(ctx context.Context, sess *Session) error { return nil }

func (c *SimClient) ListAccounts(ctx context.Context, sess *Session) ([]Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failProbe {
		return nil, fmt.Errorf("sim: accounts unavailable")
	}
	return []Account{{ID: "sim-stock-acct", Type: "stock"}}, nil
}

func (c *SimClient) Usage(ctx context.Context, sess *Session) (Usage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Usage{RemainingBytes: c.remainingBytes}, nil
}

func (c *SimClient) ResolveContract(symbol string) (Contract, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ct, ok := c.contracts[strings.ToUpper(symbol)]
	return ct, ok
}

func (c *SimClient) Snapshots(ctx context.Context, sess *Session, contracts []Contract) ([]Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSnapshots {
		return nil, fmt.Errorf("sim: snapshot call failed")
	}

	out := make([]Snapshot, 0, len(contracts))
	for _, ct := range contracts {
		p, ok := c.prices[ct.Code]
		if !ok {
			continue
		}
		// random walk within +-0.5% per call
		p.base *= 1 + (c.random.Float64()-0.5)*0.01
		change := p.base - p.ref
		out = append(out, Snapshot{
			Code:        ct.Code,
			Close:       round2(p.base),
			ChangePrice: round2(change),
			ChangeRate:  round2(change / p.ref * 100),
		})
		c.remainingBytes -= c.quotaPerCall
	}
	return out, nil
}

// SetRemainingBytes overrides the simulated quota balance.
func (c *SimClient) SetRemainingBytes(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remainingBytes = n
}

// SetFailures flips the failure toggles for login, probe and snapshot calls.
func (c *SimClient) SetFailures(login, probe, snapshots bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failLogin = login
	c.failProbe = probe
	c.failSnapshots = snapshots
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
