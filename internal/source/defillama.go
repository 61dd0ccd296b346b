package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"earnradar/internal/cache"
	"earnradar/internal/models"
)

const (
	SourceDeFiLlama = "defillama"

	// Pools below this TVL are noise for our purposes.
	DefaultMinTVLUSD = 100_000

	defillamaTrustDefault = 80
)

// llamaPool mirrors the relevant slice of the DeFiLlama /pools payload.
type llamaPool struct {
	Chain      string  `json:"chain"`
	Project    string  `json:"project"`
	Symbol     string  `json:"symbol"`
	PoolID     string  `json:"pool"`
	TVLUSD     float64 `json:"tvlUsd"`
	APY        float64 `json:"apy"`
	APYBase    float64 `json:"apyBase"`
	APYReward  float64 `json:"apyReward"`
	Stablecoin bool    `json:"stablecoin"`
	PoolMeta   string  `json:"poolMeta"`
}

type llamaPoolsResponse struct {
	Status string      `json:"status"`
	Data   []llamaPool `json:"data"`
}

// DeFiLlamaAdapter ingests yield pools from the aggregator. It is the
// highest-priority source for reconciliation.
type DeFiLlamaAdapter struct {
	Logger *zap.Logger

	BaseURL         string
	SupportedChains []string
	MinTVLUSD       float64

	f *fetcher
}

func NewDeFiLlamaAdapter(httpClient *http.Client, store cache.Store, ttl time.Duration, ratePerSec float64) *DeFiLlamaAdapter {
	return &DeFiLlamaAdapter{f: newFetcher(httpClient, store, ttl, ratePerSec)}
}

func (a *DeFiLlamaAdapter) Name() string { return SourceDeFiLlama }

func (a *DeFiLlamaAdapter) Fetch(ctx context.Context) ([]models.Opportunity, error) {
	base := strings.TrimSpace(a.BaseURL)
	if base == "" {
		base = "https://yields.llama.fi"
	}
	if a.f == nil {
		a.f = newFetcher(nil, nil, 0, 0)
	}

	raw, err := a.f.getRaw(ctx, "payload:defillama", strings.TrimRight(base, "/")+"/pools")
	if err != nil {
		return nil, fmt.Errorf("defillama fetch: %w", err)
	}

	var parsed llamaPoolsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("defillama decode: %w", err)
	}

	minTVL := a.MinTVLUSD
	if minTVL <= 0 {
		minTVL = DefaultMinTVLUSD
	}

	now := time.Now().UTC()
	out := make([]models.Opportunity, 0, len(parsed.Data))
	for _, pool := range parsed.Data {
		if !a.keep(pool, minTVL) {
			continue
		}
		out = append(out, a.transform(pool, now))
	}
	if a.Logger != nil {
		a.Logger.Debug("defillama pools mapped",
			zap.Int("total", len(parsed.Data)),
			zap.Int("kept", len(out)),
		)
	}
	return out, nil
}

// keep applies the relevance thresholds: positive yield, TVL floor, and a
// supported chain.
func (a *DeFiLlamaAdapter) keep(pool llamaPool, minTVL float64) bool {
	if pool.APY <= 0 {
		return false
	}
	if pool.TVLUSD < minTVL {
		return false
	}
	return chainSupported(pool.Chain, a.SupportedChains)
}

func (a *DeFiLlamaAdapter) transform(pool llamaPool, now time.Time) models.Opportunity {
	chain := strings.ToLower(pool.Chain)
	oppType := models.OpportunityTypeYield
	if strings.Contains(strings.ToLower(pool.PoolMeta), "staking") ||
		strings.Contains(strings.ToLower(pool.Project), "staking") {
		oppType = models.OpportunityTypeStaking
	}

	apy := decimal.NewFromFloat(pool.APY)
	apr := decimal.NewFromFloat(pool.APYBase)
	tvl := decimal.NewFromFloat(pool.TVLUSD)

	return models.Opportunity{
		Slug:         Slugify(pool.Project, chain, pool.Symbol),
		Title:        fmt.Sprintf("%s %s pool", pool.Project, pool.Symbol),
		Description:  fmt.Sprintf("Yield pool on %s with $%.0f TVL", chain, pool.TVLUSD),
		ProtocolName: pool.Project,
		Type:         oppType,
		Chains:       models.EncodeChains([]string{chain}),
		TrustScore:   defillamaTrustDefault,
		Source:       SourceDeFiLlama,
		SourceRef:    pool.PoolID,
		Requirements: models.EncodeRequirements(models.Requirements{Chains: []string{chain}}),
		Status:       models.OpportunityStatusActive,
		APR:          &apr,
		APY:          &apy,
		TVLUSD:       &tvl,
		LastSyncedAt: now,
	}
}
