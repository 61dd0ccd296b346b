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
	SourceAdmin = "admin"

	// Curated entries default higher than machine-ingested ones.
	adminTrustDefault = 90
)

type adminEntry struct {
	Ref          string   `json:"ref"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Protocol     string   `json:"protocol"`
	ProtocolLogo string   `json:"protocol_logo"`
	Type         string   `json:"type"`
	Chains       []string `json:"chains"`
	TrustScore   float64  `json:"trust_score"`
	RankScore    *float64 `json:"rank_score"`
	ExpiresAt    string   `json:"expires_at"`

	RequiredChains   []string `json:"required_chains"`
	MinWalletAgeDays int      `json:"min_wallet_age_days"`
	MinTxCount       int      `json:"min_tx_count"`

	APR    *float64 `json:"apr"`
	APY    *float64 `json:"apy"`
	TVLUSD *float64 `json:"tvl_usd"`

	QuestSteps []string `json:"quest_steps"`
	XPReward   *int     `json:"xp_reward"`

	ConversionHint        string `json:"conversion_hint"`
	PointsEstimateFormula string `json:"points_estimate_formula"`
}

type adminFeedResponse struct {
	Entries []adminEntry `json:"entries"`
}

// AdminAdapter ingests the manually curated feed. Entries arrive close to the
// canonical shape already; the adapter only normalizes and defaults.
type AdminAdapter struct {
	Logger *zap.Logger

	BaseURL string

	f *fetcher
}

func NewAdminAdapter(httpClient *http.Client, store cache.Store, ttl time.Duration, ratePerSec float64) *AdminAdapter {
	return &AdminAdapter{f: newFetcher(httpClient, store, ttl, ratePerSec)}
}

func (a *AdminAdapter) Name() string { return SourceAdmin }

func (a *AdminAdapter) Fetch(ctx context.Context) ([]models.Opportunity, error) {
	base := strings.TrimSpace(a.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("admin: feed url not configured")
	}
	if a.f == nil {
		a.f = newFetcher(nil, nil, 0, 0)
	}

	raw, err := a.f.getRaw(ctx, "payload:admin", base)
	if err != nil {
		return nil, fmt.Errorf("admin fetch: %w", err)
	}

	var parsed adminFeedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("admin decode: %w", err)
	}

	now := time.Now().UTC()
	out := make([]models.Opportunity, 0, len(parsed.Entries))
	skipped := 0
	for _, entry := range parsed.Entries {
		// Normalize before the keep check so entries whose chains are all
		// blank are skipped rather than mapped.
		chains := lowerAll(entry.Chains)
		if entry.Ref == "" || entry.Protocol == "" || len(chains) == 0 {
			skipped++
			continue
		}
		out = append(out, a.transform(entry, chains, now))
	}
	if a.Logger != nil {
		a.Logger.Debug("admin entries mapped", zap.Int("kept", len(out)), zap.Int("skipped", skipped))
	}
	return out, nil
}

func (a *AdminAdapter) transform(entry adminEntry, chains []string, now time.Time) models.Opportunity {
	trust := entry.TrustScore
	if trust <= 0 {
		trust = adminTrustDefault
	}

	oppType := strings.ToLower(strings.TrimSpace(entry.Type))
	switch oppType {
	case models.OpportunityTypeAirdrop, models.OpportunityTypeQuest,
		models.OpportunityTypePoints, models.OpportunityTypeYield,
		models.OpportunityTypeStaking:
	default:
		oppType = models.OpportunityTypeAirdrop
	}

	opp := models.Opportunity{
		Slug:         Slugify(entry.Protocol, chains[0], entry.Ref),
		Title:        entry.Title,
		Description:  entry.Description,
		ProtocolName: entry.Protocol,
		Type:         oppType,
		Chains:       models.EncodeChains(chains),
		TrustScore:   trust,
		RankScore:    entry.RankScore,
		Source:       SourceAdmin,
		SourceRef:    entry.Ref,
		Status:       models.OpportunityStatusActive,
		LastSyncedAt: now,
	}

	if entry.ProtocolLogo != "" {
		logo := entry.ProtocolLogo
		opp.ProtocolLogoURL = &logo
	}
	if entry.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, entry.ExpiresAt); err == nil {
			utc := t.UTC()
			opp.ExpiresAt = &utc
		}
	}

	opp.Requirements = models.EncodeRequirements(models.Requirements{
		Chains:           lowerAll(entry.RequiredChains),
		MinWalletAgeDays: entry.MinWalletAgeDays,
		MinTxCount:       entry.MinTxCount,
	})

	if entry.APR != nil {
		d := decimal.NewFromFloat(*entry.APR)
		opp.APR = &d
	}
	if entry.APY != nil {
		d := decimal.NewFromFloat(*entry.APY)
		opp.APY = &d
	}
	if entry.TVLUSD != nil {
		d := decimal.NewFromFloat(*entry.TVLUSD)
		opp.TVLUSD = &d
	}
	if len(entry.QuestSteps) > 0 {
		if raw, err := json.Marshal(entry.QuestSteps); err == nil {
			opp.QuestSteps = raw
		}
	}
	opp.XPReward = entry.XPReward
	if entry.ConversionHint != "" {
		hint := entry.ConversionHint
		opp.ConversionHint = &hint
	}
	if entry.PointsEstimateFormula != "" {
		formula := entry.PointsEstimateFormula
		opp.PointsEstimateFormula = &formula
	}

	return opp
}
