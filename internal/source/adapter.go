package source

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"earnradar/internal/cache"
	"earnradar/internal/models"
)

// Adapter fetches one provider's payload and maps it into canonical
// opportunities. Fetch must be safe to call repeatedly: the raw upstream
// response is cached per provider, so calls within the TTL skip the network.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Opportunity, error)
}

const DefaultPayloadTTL = 30 * time.Minute

// A transient failure gets one retry after a jittered pause. The jitter keeps
// adapters from re-hitting a struggling provider in lockstep.
const (
	fetchRetryBase   = 500 * time.Millisecond
	fetchRetryJitter = 500 * time.Millisecond
)

// fetcher is the shared cache-then-network path. Each adapter owns its own
// instance: no state is shared between providers.
type fetcher struct {
	http    *http.Client
	cache   cache.Store
	ttl     time.Duration
	limiter *rate.Limiter
	backoff func(ctx context.Context) error
}

func newFetcher(httpClient *http.Client, store cache.Store, ttl time.Duration, ratePerSec float64) *fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if store == nil {
		store = cache.NewMemory()
	}
	if ttl <= 0 {
		ttl = DefaultPayloadTTL
	}
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return &fetcher{http: httpClient, cache: store, ttl: ttl, limiter: limiter, backoff: jitterBackoff}
}

func jitterBackoff(ctx context.Context) error {
	delay := fetchRetryBase + time.Duration(rand.Int64N(int64(fetchRetryJitter)))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// getRaw returns the provider payload, serving the cached body when fresh.
func (f *fetcher) getRaw(ctx context.Context, cacheKey, url string) ([]byte, error) {
	if raw, ok, _ := f.cache.Get(ctx, cacheKey); ok {
		return raw, nil
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	raw, retryable, err := f.fetchOnce(ctx, url)
	if err != nil && retryable {
		if werr := f.backoff(ctx); werr != nil {
			return nil, err
		}
		raw, _, err = f.fetchOnce(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	// Only successful payloads are cached; failures stay retryable.
	_ = f.cache.Set(ctx, cacheKey, raw, f.ttl)
	return raw, nil
}

// fetchOnce performs a single upstream request. Transport errors, 429 and 5xx
// are transient; other non-2xx statuses are not worth a retry.
func (f *fetcher) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("http %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("http %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return raw, false, nil
}

// Slugify derives the stable slug for provider+chain+symbol triples, so a
// resync of the same upstream record always lands on the same slug.
func Slugify(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		dash := false
		for _, r := range part {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				b.WriteRune(r)
				dash = false
			default:
				if !dash && b.Len() > 0 {
					b.WriteByte('-')
					dash = true
				}
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func chainSupported(chain string, supported []string) bool {
	for _, s := range supported {
		if strings.EqualFold(chain, s) {
			return true
		}
	}
	return false
}
