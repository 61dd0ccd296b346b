package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"earnradar/internal/cache"
	"earnradar/internal/models"
)

const (
	SourceGalxe = "galxe"

	galxeTrustDefault = 80
)

type galxeCampaign struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Project     string   `json:"project"`
	ProjectLogo string   `json:"project_logo"`
	Chain       string   `json:"chain"`
	EndTime     string   `json:"end_time"`
	XP          int      `json:"xp"`
	Steps       []string `json:"steps"`

	RequiredChains   []string `json:"required_chains"`
	MinWalletAgeDays int      `json:"min_wallet_age_days"`
	MinTxCount       int      `json:"min_tx_count"`
}

type galxeCampaignsResponse struct {
	Campaigns []galxeCampaign `json:"campaigns"`
}

// GalxeAdapter ingests campaign-style records. Campaign providers do not
// distinguish airdrops from quests, so each record is classified from its
// own text.
type GalxeAdapter struct {
	Logger *zap.Logger

	BaseURL         string
	SupportedChains []string

	f *fetcher
}

func NewGalxeAdapter(httpClient *http.Client, store cache.Store, ttl time.Duration, ratePerSec float64) *GalxeAdapter {
	return &GalxeAdapter{f: newFetcher(httpClient, store, ttl, ratePerSec)}
}

func (a *GalxeAdapter) Name() string { return SourceGalxe }

func (a *GalxeAdapter) Fetch(ctx context.Context) ([]models.Opportunity, error) {
	base := strings.TrimSpace(a.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("galxe: base url not configured")
	}
	if a.f == nil {
		a.f = newFetcher(nil, nil, 0, 0)
	}

	raw, err := a.f.getRaw(ctx, "payload:galxe", strings.TrimRight(base, "/")+"/campaigns")
	if err != nil {
		return nil, fmt.Errorf("galxe fetch: %w", err)
	}

	var parsed galxeCampaignsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("galxe decode: %w", err)
	}

	now := time.Now().UTC()
	out := make([]models.Opportunity, 0, len(parsed.Campaigns))
	for _, campaign := range parsed.Campaigns {
		if campaign.ID == "" || campaign.Project == "" {
			continue
		}
		if campaign.Chain != "" && !chainSupported(campaign.Chain, a.SupportedChains) {
			continue
		}
		out = append(out, a.transform(campaign, now))
	}
	if a.Logger != nil {
		a.Logger.Debug("galxe campaigns mapped",
			zap.Int("total", len(parsed.Campaigns)),
			zap.Int("kept", len(out)),
		)
	}
	return out, nil
}

func (a *GalxeAdapter) transform(campaign galxeCampaign, now time.Time) models.Opportunity {
	chain := strings.ToLower(campaign.Chain)
	if chain == "" {
		chain = "ethereum"
	}

	opp := models.Opportunity{
		Slug:         Slugify(campaign.Project, chain, campaign.ID),
		Title:        campaign.Name,
		Description:  campaign.Description,
		ProtocolName: campaign.Project,
		Type:         ClassifyCampaign(campaign.Name + " " + campaign.Description),
		Chains:       models.EncodeChains([]string{chain}),
		TrustScore:   galxeTrustDefault,
		Source:       SourceGalxe,
		SourceRef:    campaign.ID,
		Status:       models.OpportunityStatusActive,
		LastSyncedAt: now,
	}

	if campaign.ProjectLogo != "" {
		logo := campaign.ProjectLogo
		opp.ProtocolLogoURL = &logo
	}
	if campaign.EndTime != "" {
		if t, err := time.Parse(time.RFC3339, campaign.EndTime); err == nil {
			utc := t.UTC()
			opp.ExpiresAt = &utc
		}
	}
	if opp.Type == models.OpportunityTypeQuest {
		if len(campaign.Steps) > 0 {
			if raw, err := json.Marshal(campaign.Steps); err == nil {
				opp.QuestSteps = raw
			}
		}
		if campaign.XP > 0 {
			xp := campaign.XP
			opp.XPReward = &xp
		}
	}

	req := models.Requirements{
		Chains:           lowerAll(campaign.RequiredChains),
		MinWalletAgeDays: campaign.MinWalletAgeDays,
		MinTxCount:       campaign.MinTxCount,
	}
	opp.Requirements = models.EncodeRequirements(req)

	return opp
}

func lowerAll(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(strings.ToLower(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
