package quotes

import (
	"context"
	"strings"

	"github.com/Rajchodisetti/quote-gateway/internal/observ"
)

// Fetcher obtains fresh quotes for symbols that missed the cache.
// Symbols with no resolvable contract are silently absent from the result.
type Fetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) ([]Quote, error)
}

// Cache is the read-through cache consulted before any upstream fetch.
type Cache interface {
	Get(symbol string) (Quote, bool)
	Put(symbol string, q Quote)
}

// Service coordinates one price request: admission has already happened,
// this is cache partitioning, upstream fetch and merge.
type Service struct {
	cache   Cache
	fetcher Fetcher
}

func NewService(cache Cache, fetcher Fetcher) *Service {
	return &Service{cache: cache, fetcher: fetcher}
}

// GetPrices resolves symbols against the cache, fetches the misses upstream
// and merges the two, tagging each record with its source. Duplicate symbols
// are processed independently. Once an upstream fetch fails the whole request
// fails; partial cache hits are discarded.
func (s *Service) GetPrices(ctx context.Context, symbols []string) ([]Quote, error) {
	requested := normalize(symbols)
	if len(requested) == 0 {
		return nil, NewInvalidRequest("no symbols supplied")
	}

	results := make([]Quote, 0, len(requested))
	var misses []string
	for _, sym := range requested {
		q, ok := s.cache.Get(sym)
		if !ok {
			misses = append(misses, sym)
			continue
		}
		q.Source = SourceCache
		results = append(results, q)
	}

	if len(misses) > 0 {
		fetched, err := s.fetcher.FetchQuotes(ctx, misses)
		if err != nil {
			observ.IncCounter("price_requests_total", map[string]string{"outcome": string(KindOf(err))})
			return nil, err
		}
		for _, q := range fetched {
			q.Source = SourceUpstream
			s.cache.Put(q.Symbol, q)
			results = append(results, q)
		}
	}

	if len(results) == 0 {
		observ.IncCounter("price_requests_total", map[string]string{"outcome": "no_data"})
		return nil, NewNoData("no quotes for requested symbols")
	}

	observ.IncCounter("price_requests_total", map[string]string{"outcome": "ok"})
	return results, nil
}

// normalize trims and uppercases symbols, dropping empties. Duplicates are
// kept on purpose; callers asked for them twice, they get them twice.
func normalize(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
