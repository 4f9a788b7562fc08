package upstream

import (
	"context"
	"time"
)

//go:generate mockgen -source=upstream.go -destination=mock_client.go -package=upstream

// Session is an authenticated handle to the market-data provider. It is
// opaque to everything except the Client that issued it.
type Session struct {
	Token      string
	LoggedInAt time.Time
}

// Account identifies one brokerage account reachable through a session.
// Listing accounts is the cheapest authenticated call the provider offers,
// so it doubles as the liveness probe.
type Account struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Usage is the provider-side quota for a session. RemainingBytes goes
// negative once the daily transfer budget is exhausted.
type Usage struct {
	RemainingBytes int64 `json:"remaining_bytes"`
}

// Contract is a tradable-instrument handle resolved from a symbol.
type Contract struct {
	Code     string `json:"code"`
	Exchange string `json:"exchange"`
	Name     string `json:"name"`
}

// Snapshot is one quote record from the provider's batch snapshot call.
type Snapshot struct {
	Code        string  `json:"code"`
	Close       float64 `json:"close"`
	ChangePrice float64 `json:"change_price"`
	ChangeRate  float64 `json:"change_rate"`
}

// Client is the upstream provider contract.
type Client interface {
	Login(ctx context.Context, key, secret string) (*Session, error)
	Logout(ctx context.Context, sess *Session) error
	ListAccounts(ctx context.Context, sess *Session) ([]Account, error)
	Usage(ctx context.Context, sess *Session) (Usage, error)
	ResolveContract(symbol string) (Contract, bool)
	Snapshots(ctx context.Context, sess *Session, contracts []Contract) ([]Snapshot, error)
}

// ContractPrefetcher is implemented by clients that can download the
// contract reference table ahead of time. Prefetching costs quota, so the
// session manager only invokes it when the remaining budget is positive.
type ContractPrefetcher interface {
	PrefetchContracts(ctx context.Context, sess *Session) error
}
