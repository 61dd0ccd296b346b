package ingest

import (
	"context"
	"strings"
	"time"

	"earnradar/internal/models"
	"earnradar/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Opportunities are keyed by (source, source_ref) like the real store.
type stubRepo struct {
	opportunities map[string]models.Opportunity
	states        map[string]models.SyncState
	upsertErrFor  string
	nextID        uint64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		opportunities: map[string]models.Opportunity{},
		states:        map[string]models.SyncState{},
	}
}

func upsertKey(source, ref string) string { return source + "|" + ref }

func (s *stubRepo) UpsertOpportunity(ctx context.Context, item *models.Opportunity) error {
	if s.upsertErrFor != "" && item.Slug == s.upsertErrFor {
		return errBoom
	}
	key := upsertKey(item.Source, item.SourceRef)
	if prev, ok := s.opportunities[key]; ok {
		item.ID = prev.ID
	} else {
		s.nextID++
		item.ID = s.nextID
	}
	s.opportunities[key] = *item
	return nil
}

func (s *stubRepo) GetOpportunityByID(ctx context.Context, id uint64) (*models.Opportunity, error) {
	for _, opp := range s.opportunities {
		if opp.ID == id {
			out := opp
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) GetOpportunityBySlug(ctx context.Context, slug string) (*models.Opportunity, error) {
	for _, opp := range s.opportunities {
		if opp.Slug == slug {
			out := opp
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	return s.ListActiveOpportunities(ctx)
}

func (s *stubRepo) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	return int64(len(s.opportunities)), nil
}

func (s *stubRepo) ListOpportunitiesBySlugs(ctx context.Context, slugs []string) ([]models.Opportunity, error) {
	var out []models.Opportunity
	for _, slug := range slugs {
		for _, opp := range s.opportunities {
			if opp.Slug == slug {
				out = append(out, opp)
			}
		}
	}
	return out, nil
}

func (s *stubRepo) ListActiveOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	var out []models.Opportunity
	for _, opp := range s.opportunities {
		if opp.Status == models.OpportunityStatusActive {
			out = append(out, opp)
		}
	}
	return out, nil
}

func (s *stubRepo) ExpireDueOpportunities(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for key, opp := range s.opportunities {
		if opp.Status == models.OpportunityStatusActive && opp.IsExpired(now) {
			opp.Status = models.OpportunityStatusExpired
			s.opportunities[key] = opp
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) CreateStrategy(ctx context.Context, item *models.Strategy) error { return nil }
func (s *stubRepo) GetStrategyByName(ctx context.Context, name string) (*models.Strategy, error) {
	return nil, nil
}
func (s *stubRepo) ListStrategies(ctx context.Context) ([]models.Strategy, error) { return nil, nil }
func (s *stubRepo) UpdateStrategy(ctx context.Context, item *models.Strategy) error {
	return nil
}
func (s *stubRepo) DeleteStrategyByName(ctx context.Context, name string) error { return nil }

func (s *stubRepo) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	s.states[state.Source] = *state
	return nil
}

func (s *stubRepo) GetSyncState(ctx context.Context, source string) (*models.SyncState, error) {
	if state, ok := s.states[source]; ok {
		out := state
		return &out, nil
	}
	return nil, nil
}

func (s *stubRepo) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	var out []models.SyncState
	for _, state := range s.states {
		out = append(out, state)
	}
	return out, nil
}

func (s *stubRepo) bySource(source string) []models.Opportunity {
	var out []models.Opportunity
	for key, opp := range s.opportunities {
		if strings.HasPrefix(key, source+"|") {
			out = append(out, opp)
		}
	}
	return out
}
