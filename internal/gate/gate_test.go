package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/quote-gateway/internal/quotes"
)

func TestCheckAuth(t *testing.T) {
	g := New("hunter2", 0)

	tests := []struct {
		name       string
		credential string
		wantErr    bool
	}{
		{"exact match", "hunter2", false},
		{"missing", "", true},
		{"mismatch", "hunter", true},
		{"case sensitive", "Hunter2", true},
		{"trailing space", "hunter2 ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckAuth(tt.credential)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, quotes.KindUnauthorized, quotes.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckAuthFailsClosedWithEmptySecret(t *testing.T) {
	g := New("", 0)
	assert.Error(t, g.CheckAuth(""))
	assert.Error(t, g.CheckAuth("anything"))
}

func TestCheckRateLimitEnforcesMinInterval(t *testing.T) {
	g := New("s", time.Second)
	base := time.Now()

	require.NoError(t, g.CheckRateLimit(base))

	err := g.CheckRateLimit(base.Add(10 * time.Millisecond))
	require.Error(t, err, "second request inside the minimum interval must be rejected")
	assert.Equal(t, quotes.KindRateLimited, quotes.KindOf(err))

	assert.NoError(t, g.CheckRateLimit(base.Add(time.Second)))
}

func TestCheckRateLimitDisabledWithZeroInterval(t *testing.T) {
	g := New("s", 0)
	base := time.Now()
	for i := 0; i < 10; i++ {
		assert.NoError(t, g.CheckRateLimit(base))
	}
}

func TestAdmitChecksAuthBeforeRateAccounting(t *testing.T) {
	g := New("hunter2", time.Minute)
	base := time.Now()

	// Unauthenticated probes must not consume the shared rate budget.
	for i := 0; i < 5; i++ {
		err := g.Admit("wrong", base.Add(time.Duration(i)*time.Millisecond))
		require.Error(t, err)
		assert.Equal(t, quotes.KindUnauthorized, quotes.KindOf(err))
	}

	require.NoError(t, g.Admit("hunter2", base.Add(10*time.Millisecond)))

	err := g.Admit("hunter2", base.Add(20*time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, quotes.KindRateLimited, quotes.KindOf(err))
}

func TestAdmitIsGlobalNotPerClient(t *testing.T) {
	g := New("hunter2", time.Minute)
	base := time.Now()

	// Two different callers share one budget; the identity of the caller
	// does not matter, only elapsed time.
	require.NoError(t, g.Admit("hunter2", base))
	err := g.Admit("hunter2", base.Add(time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, quotes.KindRateLimited, quotes.KindOf(err))
}
