package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	OpportunityTypeAirdrop = "airdrop"
	OpportunityTypeQuest   = "quest"
	OpportunityTypePoints  = "points"
	OpportunityTypeYield   = "yield"
	OpportunityTypeStaking = "staking"
)

const (
	OpportunityStatusActive  = "active"
	OpportunityStatusExpired = "expired"
)

// Opportunity is the canonical record one row per upstream (source, source_ref).
// Cross-source dedup by (protocol_name, first chain) happens in the reconciler's
// merge map, not in storage.
type Opportunity struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug string `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`

	Title       string `gorm:"type:varchar(300);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	ProtocolName    string  `gorm:"type:varchar(100);not null;index" json:"protocol_name"`
	ProtocolLogoURL *string `gorm:"type:varchar(500)" json:"protocol_logo_url,omitempty"`

	Type   string         `gorm:"type:varchar(20);not null;index" json:"type"`
	Chains datatypes.JSON `gorm:"type:jsonb;not null" json:"chains"`

	TrustScore float64  `gorm:"not null" json:"trust_score"`
	RankScore  *float64 `gorm:"index" json:"rank_score,omitempty"`

	Source    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_source_ref,priority:1" json:"source"`
	SourceRef string `gorm:"type:varchar(200);not null;uniqueIndex:idx_source_ref,priority:2" json:"source_ref"`

	Requirements datatypes.JSON `gorm:"type:jsonb" json:"requirements,omitempty"`

	Status    string     `gorm:"type:varchar(20);not null;index;default:'active'" json:"status"`
	ExpiresAt *time.Time `gorm:"type:timestamptz;index" json:"expires_at,omitempty"`

	// Money-like yield metrics stay numeric to avoid float drift.
	APR    *decimal.Decimal `gorm:"type:numeric(20,10)" json:"apr,omitempty"`
	APY    *decimal.Decimal `gorm:"type:numeric(20,10)" json:"apy,omitempty"`
	TVLUSD *decimal.Decimal `gorm:"column:tvl_usd;type:numeric(30,10)" json:"tvl_usd,omitempty"`

	QuestSteps datatypes.JSON `gorm:"type:jsonb" json:"quest_steps,omitempty"`
	XPReward   *int           `json:"xp_reward,omitempty"`

	ConversionHint        *string `gorm:"type:text" json:"conversion_hint,omitempty"`
	PointsEstimateFormula *string `gorm:"type:text" json:"points_estimate_formula,omitempty"`

	LastSyncedAt time.Time `gorm:"type:timestamptz" json:"last_synced_at"`
	CreatedAt    time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}

// Requirements gates a wallet's eligibility for an opportunity.
type Requirements struct {
	Chains           []string `json:"chains,omitempty"`
	MinWalletAgeDays int      `json:"min_wallet_age_days,omitempty"`
	MinTxCount       int      `json:"min_tx_count,omitempty"`
}

func (r Requirements) Empty() bool {
	return len(r.Chains) == 0 && r.MinWalletAgeDays == 0 && r.MinTxCount == 0
}

// ChainList decodes the jsonb chains column. A broken column decodes to nil
// rather than failing the caller.
func (o *Opportunity) ChainList() []string {
	if o == nil || len(o.Chains) == 0 {
		return nil
	}
	var chains []string
	if err := json.Unmarshal(o.Chains, &chains); err != nil {
		return nil
	}
	return chains
}

func (o *Opportunity) RequirementSpec() Requirements {
	var req Requirements
	if o == nil || len(o.Requirements) == 0 {
		return req
	}
	_ = json.Unmarshal(o.Requirements, &req)
	return req
}

func (o *Opportunity) IsExpired(now time.Time) bool {
	return o != nil && o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}

func EncodeChains(chains []string) datatypes.JSON {
	raw, err := json.Marshal(chains)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

func EncodeRequirements(req Requirements) datatypes.JSON {
	if req.Empty() {
		return nil
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
