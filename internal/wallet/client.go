package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"earnradar/internal/cache"
	"earnradar/internal/metrics"
)

// ErrInvalidAddress rejects malformed addresses before any network call.
type ErrInvalidAddress struct {
	Address string
}

func (e *ErrInvalidAddress) Error() string {
	return fmt.Sprintf("wallet: invalid address %q (want 0x + 40 hex characters)", e.Address)
}

const DefaultCacheTTL = 5 * time.Minute

// Client fetches wallet signals from the upstream provider. Successful
// results are cached under the lowercased address; failures are never cached
// so retries stay possible.
type Client struct {
	HTTP   *http.Client
	Logger *zap.Logger

	BaseURL  string
	Cache    cache.Store
	CacheTTL time.Duration
}

// ValidAddress reports whether addr is exactly 0x followed by 40 hex chars.
func ValidAddress(addr string) bool {
	if len(addr) != 42 || addr[0] != '0' || (addr[1] != 'x' && addr[1] != 'X') {
		return false
	}
	for i := 2; i < len(addr); i++ {
		c := addr[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// GetSignals returns the wallet's signals, serving from cache when a result
// for the same (case-normalized) address is fresh. The caller-supplied
// address string is always echoed back in the result, even on a cache hit.
func (c *Client) GetSignals(ctx context.Context, address string) (*Signals, error) {
	if !ValidAddress(address) {
		return nil, &ErrInvalidAddress{Address: address}
	}
	key := "wallet_signals:" + strings.ToLower(address)

	if c.Cache != nil {
		raw, ok, err := c.Cache.Get(ctx, key)
		if err != nil && c.Logger != nil {
			c.Logger.Warn("wallet signals cache read failed", zap.Error(err))
		}
		if ok {
			var sig Signals
			if err := json.Unmarshal(raw, &sig); err == nil {
				metrics.WalletSignalsCache.WithLabelValues("hit").Inc()
				sig.Address = address
				return &sig, nil
			}
		}
	}
	metrics.WalletSignalsCache.WithLabelValues("miss").Inc()

	sig, err := c.fetch(ctx, address)
	if err != nil {
		return nil, err
	}

	if c.Cache != nil {
		ttl := c.CacheTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		if raw, err := json.Marshal(sig); err == nil {
			if err := c.Cache.Set(ctx, key, raw, ttl); err != nil && c.Logger != nil {
				c.Logger.Warn("wallet signals cache write failed", zap.Error(err))
			}
		}
	}
	sig.Address = address
	return sig, nil
}

func (c *Client) fetch(ctx context.Context, address string) (*Signals, error) {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("wallet: signals endpoint not configured")
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	endpoint := strings.TrimRight(base, "/") + "/v1/signals/" + url.PathEscape(strings.ToLower(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wallet: signals fetch http %d", resp.StatusCode)
	}

	var sig Signals
	if err := json.NewDecoder(resp.Body).Decode(&sig); err != nil {
		return nil, fmt.Errorf("wallet: signals decode: %w", err)
	}
	return &sig, nil
}
