package repository

import (
	"context"
	"time"

	"earnradar/internal/models"
)

// Repository is the persistence surface shared by the sync pipeline, the feed,
// and the API handlers.
type Repository interface {
	// Opportunities. Upsert keys on (source, source_ref) so a resync of the
	// same upstream record updates in place instead of duplicating.
	UpsertOpportunity(ctx context.Context, item *models.Opportunity) error
	GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error)
	GetOpportunityBySlug(ctx context.Context, slug string) (*models.Opportunity, error)
	ListOpportunities(ctx context.Context, params ListOpportunitiesParams) ([]models.Opportunity, error)
	CountOpportunities(ctx context.Context, params ListOpportunitiesParams) (int64, error)
	ListOpportunitiesBySlugs(ctx context.Context, slugs []string) ([]models.Opportunity, error)
	ListActiveOpportunities(ctx context.Context) ([]models.Opportunity, error)
	ExpireDueOpportunities(ctx context.Context, now time.Time) (int64, error)

	// Strategies.
	CreateStrategy(ctx context.Context, item *models.Strategy) error
	GetStrategyByName(ctx context.Context, name string) (*models.Strategy, error)
	ListStrategies(ctx context.Context) ([]models.Strategy, error)
	UpdateStrategy(ctx context.Context, item *models.Strategy) error
	DeleteStrategyByName(ctx context.Context, name string) error

	// Sync provenance.
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	GetSyncState(ctx context.Context, source string) (*models.SyncState, error)
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)
}

type ListOpportunitiesParams struct {
	Limit    int
	Offset   int
	Status   *string
	Type     *string
	Chain    *string
	Source   *string
	Protocol *string
	MinTrust *float64
	OrderBy  string
	Asc      *bool
}
