package gormrepository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"earnradar/internal/models"
	"earnradar/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- opportunities ----------------------------------------------------------

// opportunityUpsertColumns are the columns refreshed on a (source, source_ref)
// conflict. id, slug, source, source_ref and created_at stay as first written.
var opportunityUpsertColumns = []string{
	"title",
	"description",
	"protocol_name",
	"protocol_logo_url",
	"type",
	"chains",
	"trust_score",
	"rank_score",
	"requirements",
	"status",
	"expires_at",
	"apr",
	"apy",
	"tvl_usd",
	"quest_steps",
	"xp_reward",
	"conversion_hint",
	"points_estimate_formula",
	"last_synced_at",
	"updated_at",
}

func (s *Store) UpsertOpportunity(ctx context.Context, item *models.Opportunity) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Source) == "" || strings.TrimSpace(item.SourceRef) == "" {
		return fmt.Errorf("upsert opportunity: missing source ref")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "source_ref"}},
		DoUpdates: clause.AssignmentColumns(opportunityUpsertColumns),
	}).Create(item).Error
}

func (s *Store) GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Opportunity
	err := s.db.WithContext(ctx).Model(&models.Opportunity{}).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetOpportunityBySlug(ctx context.Context, slug string) (*models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var item models.Opportunity
	err := s.db.WithContext(ctx).Model(&models.Opportunity{}).Where("slug = ?", slug).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOpportunityFilters(s.db.WithContext(ctx).Model(&models.Opportunity{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "trust_score")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Opportunity
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applyOpportunityFilters(s.db.WithContext(ctx).Model(&models.Opportunity{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListOpportunitiesBySlugs(ctx context.Context, slugs []string) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	slugs = cleanStrings(slugs)
	if len(slugs) == 0 {
		return nil, nil
	}
	var items []models.Opportunity
	if err := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("slug IN ?", slugs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListActiveOpportunities loads the full active set for the feed's in-memory
// ranking pass. Intentionally uncapped.
func (s *Store) ListActiveOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Opportunity
	if err := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("status = ?", models.OpportunityStatusActive).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ExpireDueOpportunities(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("status = ?", models.OpportunityStatusActive).
		Where("expires_at IS NOT NULL").
		Where("expires_at < ?", now).
		Updates(map[string]any{
			"status":     models.OpportunityStatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func applyOpportunityFilters(query *gorm.DB, params repository.ListOpportunitiesParams) *gorm.DB {
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("type = ?", strings.TrimSpace(*params.Type))
	}
	if params.Source != nil && strings.TrimSpace(*params.Source) != "" {
		query = query.Where("source = ?", strings.TrimSpace(*params.Source))
	}
	if params.Protocol != nil && strings.TrimSpace(*params.Protocol) != "" {
		query = query.Where("protocol_name ILIKE ?", "%"+strings.TrimSpace(*params.Protocol)+"%")
	}
	if params.Chain != nil && strings.TrimSpace(*params.Chain) != "" {
		chain := strings.ToLower(strings.TrimSpace(*params.Chain))
		query = query.Where("chains @> ?", fmt.Sprintf(`[%q]`, chain))
	}
	if params.MinTrust != nil && *params.MinTrust > 0 {
		query = query.Where("trust_score >= ?", *params.MinTrust)
	}
	return query
}

// --- strategies -------------------------------------------------------------

func (s *Store) CreateStrategy(ctx context.Context, item *models.Strategy) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("create strategy: missing name")
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetStrategyByName(ctx context.Context, name string) (*models.Strategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var item models.Strategy
	err := s.db.WithContext(ctx).Model(&models.Strategy{}).Where("name = ?", name).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListStrategies(ctx context.Context) ([]models.Strategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Strategy
	if err := s.db.WithContext(ctx).
		Model(&models.Strategy{}).
		Order("name asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateStrategy(ctx context.Context, item *models.Strategy) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Strategy{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"description":           item.Description,
			"steps":                 item.Steps,
			"trust_score_cached":    item.TrustScoreCached,
			"steps_trust_breakdown": item.StepsTrustBreakdown,
			"updated_at":            time.Now().UTC(),
		}).Error
}

func (s *Store) DeleteStrategyByName(ctx context.Context, name string) error {
	if s == nil || s.db == nil {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Strategy{}).Error
}

// --- sync state -------------------------------------------------------------

func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	if strings.TrimSpace(state.Source) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_success_at",
			"last_attempt_at",
			"last_error",
			"last_count",
			"stats_json",
		}),
	}).Create(state).Error
}

func (s *Store) GetSyncState(ctx context.Context, source string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	var item models.SyncState
	err := s.db.WithContext(ctx).Model(&models.SyncState{}).Where("source = ?", source).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncState
	if err := s.db.WithContext(ctx).
		Model(&models.SyncState{}).
		Order("source asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
