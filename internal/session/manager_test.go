package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Rajchodisetti/quote-gateway/internal/quotes"
	"github.com/Rajchodisetti/quote-gateway/internal/upstream"
)

var errUpstream = errors.New("upstream down")

func newTestManager(client upstream.Client, cfg Config) (*Manager, *int) {
	m := NewManager(client, cfg)
	sleeps := 0
	m.sleep = func(time.Duration) { sleeps++ }
	return m, &sleeps
}

func expectLogin(client *upstream.MockClient, token string, remaining int64) {
	client.EXPECT().Login(gomock.Any(), "key", "secret").
		Return(&upstream.Session{Token: token, LoggedInAt: time.Now()}, nil)
	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: remaining}, nil)
}

func TestLoginSuccessBecomesReady(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, sleeps := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 3, RetryInterval: time.Second})

	expectLogin(client, "tok-1", 1024)

	m.Login(context.Background())

	assert.Equal(t, StateReady, m.State())
	assert.Equal(t, int64(1024), m.RemainingBytes())
	assert.Equal(t, 0, *sleeps)
}

func TestLoginRetriesThenDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, sleeps := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 3, RetryInterval: time.Second})

	client.EXPECT().Login(gomock.Any(), "key", "secret").
		Return(nil, errUpstream).Times(3)

	m.Login(context.Background())

	assert.Equal(t, StateDegraded, m.State())
	assert.Equal(t, 2, *sleeps, "sleeps between attempts, not after the last")
}

func TestLoginRecoversOnLaterAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, sleeps := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 3, RetryInterval: time.Second})

	gomock.InOrder(
		client.EXPECT().Login(gomock.Any(), "key", "secret").Return(nil, errUpstream),
		client.EXPECT().Login(gomock.Any(), "key", "secret").
			Return(&upstream.Session{Token: "tok-2"}, nil),
	)
	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 512}, nil)

	m.Login(context.Background())

	assert.Equal(t, StateReady, m.State())
	assert.Equal(t, 1, *sleeps)
}

func TestConcurrentLoginsAuthenticateOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 3})

	client.EXPECT().Login(gomock.Any(), "key", "secret").
		DoAndReturn(func(ctx context.Context, key, secret string) (*upstream.Session, error) {
			time.Sleep(50 * time.Millisecond)
			return &upstream.Session{Token: "tok-3"}, nil
		}).Times(1)
	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 100}, nil).Times(1)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Login(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, StateReady, m.State())
}

func TestEnsureReadySkipsLoginWhenProbeSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 3})

	expectLogin(client, "tok-4", 100)
	m.Login(context.Background())

	client.EXPECT().ListAccounts(gomock.Any(), gomock.Any()).
		Return([]upstream.Account{{ID: "a1", Type: "stock"}}, nil)

	m.EnsureReady(context.Background())
	assert.Equal(t, StateReady, m.State())
}

func TestEnsureReadyRecoversFromFailedProbe(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 3})

	expectLogin(client, "tok-5", 100)
	m.Login(context.Background())

	client.EXPECT().ListAccounts(gomock.Any(), gomock.Any()).Return(nil, errUpstream)
	expectLogin(client, "tok-6", 100)

	m.EnsureReady(context.Background())
	assert.Equal(t, StateReady, m.State())
}

func TestEnsureReadyLeavesDegradedOnExhaustedRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 2})

	client.EXPECT().Login(gomock.Any(), "key", "secret").Return(nil, errUpstream).Times(2)

	m.EnsureReady(context.Background())
	assert.Equal(t, StateDegraded, m.State())

	// A request against the still-broken provider retries recovery once and
	// only then reports the degraded session.
	client.EXPECT().Login(gomock.Any(), "key", "secret").Return(nil, errUpstream).Times(2)
	_, err := m.FetchQuotes(context.Background(), []string{"2330"})
	require.Error(t, err)
	assert.Equal(t, quotes.KindUpstreamUnavailable, quotes.KindOf(err))
}

func TestFetchQuotesRecoversDegradedSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	client.EXPECT().Login(gomock.Any(), "key", "secret").Return(nil, errUpstream)
	m.Login(context.Background())
	require.Equal(t, StateDegraded, m.State())

	// The provider is healthy again; the next request logs in on the spot
	// instead of waiting for the keep-alive cycle.
	expectLogin(client, "tok-recovered", 100)
	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 90}, nil)
	client.EXPECT().ResolveContract("2330").Return(upstream.Contract{Code: "2330"}, true)
	client.EXPECT().Snapshots(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]upstream.Snapshot{{Code: "2330", Close: 585}}, nil)

	got, err := m.FetchQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StateReady, m.State())
}

// prefetchingClient adds the optional contract-prefetch capability on top of
// the generated mock.
type prefetchingClient struct {
	*upstream.MockClient
	prefetches int
}

func (p *prefetchingClient) PrefetchContracts(ctx context.Context, sess *upstream.Session) error {
	p.prefetches++
	return nil
}

func TestLoginPrefetchesContractsOnlyWithPositiveQuota(t *testing.T) {
	tests := []struct {
		name           string
		remainingBytes int64
		wantPrefetches int
	}{
		{"positive quota", 1024, 1},
		{"zero quota", 0, 0},
		{"negative quota", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := &prefetchingClient{MockClient: upstream.NewMockClient(ctrl)}
			m, _ := newTestManager(client, Config{
				APIKey: "key", SecretKey: "secret", MaxRetries: 1, PrefetchContracts: true,
			})

			expectLogin(client.MockClient, "tok", tt.remainingBytes)

			m.Login(context.Background())
			assert.Equal(t, tt.wantPrefetches, client.prefetches)
		})
	}
}

func TestFetchQuotesMapsSnapshots(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok", 100)
	m.Login(context.Background())

	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 90}, nil)
	client.EXPECT().ResolveContract("2330").
		Return(upstream.Contract{Code: "2330", Exchange: "TSE"}, true)
	client.EXPECT().Snapshots(gomock.Any(), gomock.Any(), []upstream.Contract{{Code: "2330", Exchange: "TSE"}}).
		Return([]upstream.Snapshot{{Code: "2330", Close: 585, ChangePrice: 2.5, ChangeRate: 0.43}}, nil)

	got, err := m.FetchQuotes(context.Background(), []string{"2330"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, quotes.Quote{Symbol: "2330", Price: 585, ChangePrice: 2.5, ChangeRate: 0.43}, got[0])
	assert.Equal(t, int64(90), m.RemainingBytes())
}

func TestFetchQuotesDropsUnresolvableSymbols(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok", 100)
	m.Login(context.Background())

	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 90}, nil)
	client.EXPECT().ResolveContract("2330").
		Return(upstream.Contract{Code: "2330"}, true)
	client.EXPECT().ResolveContract("BOGUS").
		Return(upstream.Contract{}, false)
	client.EXPECT().Snapshots(gomock.Any(), gomock.Any(), []upstream.Contract{{Code: "2330"}}).
		Return([]upstream.Snapshot{{Code: "2330", Close: 585}}, nil)

	got, err := m.FetchQuotes(context.Background(), []string{"2330", "BOGUS"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFetchQuotesAllUnresolvableIsEmptyNotError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok", 100)
	m.Login(context.Background())

	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 90}, nil)
	client.EXPECT().ResolveContract(gomock.Any()).Return(upstream.Contract{}, false).Times(2)

	got, err := m.FetchQuotes(context.Background(), []string{"AAA", "BBB"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchQuotesQuotaExceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok", 100)
	m.Login(context.Background())

	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: -1}, nil)

	_, err := m.FetchQuotes(context.Background(), []string{"2330"})
	require.Error(t, err)
	assert.Equal(t, quotes.KindQuotaExceeded, quotes.KindOf(err))
}

func TestFetchQuotesUsageProbeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok", 100)
	m.Login(context.Background())

	client.EXPECT().Usage(gomock.Any(), gomock.Any()).Return(upstream.Usage{}, errUpstream)

	_, err := m.FetchQuotes(context.Background(), []string{"2330"})
	require.Error(t, err)
	assert.Equal(t, quotes.KindUpstreamCallFailed, quotes.KindOf(err))
}

func TestFetchQuotesSnapshotFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok", 100)
	m.Login(context.Background())

	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 90}, nil)
	client.EXPECT().ResolveContract("2330").Return(upstream.Contract{Code: "2330"}, true)
	client.EXPECT().Snapshots(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errUpstream)

	_, err := m.FetchQuotes(context.Background(), []string{"2330"})
	require.Error(t, err)
	assert.Equal(t, quotes.KindUpstreamCallFailed, quotes.KindOf(err))
}

func TestFetchQuotesEmptySnapshotsIsDistinctFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok", 100)
	m.Login(context.Background())

	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 90}, nil)
	client.EXPECT().ResolveContract("2330").Return(upstream.Contract{Code: "2330"}, true)
	client.EXPECT().Snapshots(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]upstream.Snapshot{}, nil)

	_, err := m.FetchQuotes(context.Background(), []string{"2330"})
	require.Error(t, err)
	assert.Equal(t, quotes.KindEmptyUpstreamResult, quotes.KindOf(err))
}

func TestLogoutIsBestEffort(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok", 100)
	m.Login(context.Background())

	client.EXPECT().Logout(gomock.Any(), gomock.Any()).Return(errUpstream)

	m.Logout(context.Background())
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestLogoutWithoutSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	m.Logout(context.Background())
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestScheduledReloginCyclesSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok-old", 100)
	m.Login(context.Background())

	// Logout failure is ignored; the relogin continues regardless.
	client.EXPECT().Logout(gomock.Any(), gomock.Any()).Return(errUpstream)
	var observedToken string
	client.EXPECT().Login(gomock.Any(), "key", "secret").
		DoAndReturn(func(ctx context.Context, key, secret string) (*upstream.Session, error) {
			return &upstream.Session{Token: "tok-new"}, nil
		})
	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, sess *upstream.Session) (upstream.Usage, error) {
			observedToken = sess.Token
			return upstream.Usage{RemainingBytes: 100}, nil
		})

	m.ScheduledRelogin(context.Background())

	assert.Equal(t, StateReady, m.State())
	assert.Equal(t, "tok-new", observedToken)
}

func TestScheduledReloginDoesNotDisruptInFlightFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := upstream.NewMockClient(ctrl)
	m, _ := newTestManager(client, Config{APIKey: "key", SecretKey: "secret", MaxRetries: 1})

	expectLogin(client, "tok-old", 100)
	m.Login(context.Background())

	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 90}, nil)
	client.EXPECT().ResolveContract("2330").Return(upstream.Contract{Code: "2330"}, true)

	snapshotStarted := make(chan struct{})
	releaseSnapshot := make(chan struct{})
	var fetchToken string
	client.EXPECT().Snapshots(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, sess *upstream.Session, contracts []upstream.Contract) ([]upstream.Snapshot, error) {
			fetchToken = sess.Token
			close(snapshotStarted)
			<-releaseSnapshot
			return []upstream.Snapshot{{Code: "2330", Close: 585}}, nil
		})

	client.EXPECT().Logout(gomock.Any(), gomock.Any()).Return(nil)
	client.EXPECT().Login(gomock.Any(), "key", "secret").
		Return(&upstream.Session{Token: "tok-new"}, nil)
	client.EXPECT().Usage(gomock.Any(), gomock.Any()).
		Return(upstream.Usage{RemainingBytes: 100}, nil)

	type fetchResult struct {
		quotes []quotes.Quote
		err    error
	}
	done := make(chan fetchResult, 1)
	go func() {
		got, err := m.FetchQuotes(context.Background(), []string{"2330"})
		done <- fetchResult{got, err}
	}()

	// Cycle the session while the fetch is blocked inside the provider call.
	<-snapshotStarted
	m.ScheduledRelogin(context.Background())
	close(releaseSnapshot)

	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.quotes, 1)
	assert.Equal(t, "tok-old", fetchToken, "in-flight fetch keeps the handle it started with")
	assert.Equal(t, StateReady, m.State())
}

func TestNextRelogin(t *testing.T) {
	loc := time.FixedZone("market", 8*3600)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before the hour fires today",
			time.Date(2026, 8, 31, 3, 30, 0, 0, loc),
			time.Date(2026, 8, 31, 5, 0, 0, 0, loc),
		},
		{
			"after the hour fires tomorrow",
			time.Date(2026, 8, 31, 9, 0, 0, 0, loc),
			time.Date(2026, 9, 1, 5, 0, 0, 0, loc),
		},
		{
			"exactly on the hour fires tomorrow",
			time.Date(2026, 8, 31, 5, 0, 0, 0, loc),
			time.Date(2026, 9, 1, 5, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, nextRelogin(tt.now, 5).Equal(tt.want))
		})
	}
}
