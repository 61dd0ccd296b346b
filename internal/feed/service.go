package feed

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"earnradar/internal/cursor"
	"earnradar/internal/metrics"
	"earnradar/internal/models"
	"earnradar/internal/repository"
	"earnradar/internal/scoring"
	"earnradar/internal/wallet"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Item is one ranked feed entry. Eligibility is present only when the caller
// supplied a wallet address.
type Item struct {
	Opportunity models.Opportunity         `json:"opportunity"`
	Eligibility *scoring.EligibilityResult `json:"eligibility,omitempty"`
}

// Page is one slice of the ranked feed. NextCursor is empty on the last page.
type Page struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	SnapshotTS int64  `json:"snapshot_ts"`
	Total      int    `json:"total"`
}

// Service serves the ranked opportunity feed. Scores are re-read from storage
// on every request; the cursor only fixes the position and the session
// snapshot, so a record whose score changed mid-session simply moves.
type Service struct {
	Repo   repository.Repository
	Wallet *wallet.Client
	Logger *zap.Logger

	PageSize    int
	MaxPageSize int
}

// Page returns the next feed slice. An empty cursorToken starts a fresh
// session with a new snapshot watermark; a non-empty one resumes the session
// it encodes and serves only items sorting strictly after it.
func (s *Service) Page(ctx context.Context, address, cursorToken string, limit int) (*Page, error) {
	limit = s.normalizeLimit(limit)

	var last *cursor.Tuple
	snapshotTS := int64(0)
	kind := "first"
	if cursorToken != "" {
		decoded, err := cursor.Decode(cursorToken)
		if err != nil {
			return nil, err
		}
		last = &decoded
		snapshotTS = decoded.SnapshotTS
		kind = "continued"
	} else {
		snapshotTS = cursor.NewSnapshot()
	}
	metrics.FeedPages.WithLabelValues(kind).Inc()

	active, err := s.Repo.ListActiveOpportunities(ctx)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		opp   models.Opportunity
		tuple cursor.Tuple
	}
	items := make([]ranked, 0, len(active))
	for i := range active {
		items = append(items, ranked{
			opp:   active[i],
			tuple: cursor.FromOpportunity(&active[i], snapshotTS),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return cursor.Compare(items[i].tuple, items[j].tuple) < 0
	})

	if last != nil {
		kept := items[:0]
		for _, it := range items {
			if cursor.After(it.tuple, *last) {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	page := &Page{SnapshotTS: snapshotTS, Total: len(active)}
	n := len(items)
	if n > limit {
		n = limit
	}

	sig := s.walletSignals(ctx, address)
	page.Items = make([]Item, 0, n)
	for i := 0; i < n; i++ {
		item := Item{Opportunity: items[i].opp}
		if address != "" {
			res := scoring.EvaluateEligibility(sig, &items[i].opp)
			item.Eligibility = &res
		}
		page.Items = append(page.Items, item)
	}

	if n > 0 && n < len(items) {
		token, err := cursor.Encode(items[n-1].tuple)
		if err != nil {
			return nil, err
		}
		page.NextCursor = token
	}
	return page, nil
}

// walletSignals is best-effort: a provider failure degrades eligibility to the
// data-unavailable verdict instead of failing the feed.
func (s *Service) walletSignals(ctx context.Context, address string) *wallet.Signals {
	if address == "" || s.Wallet == nil {
		return nil
	}
	sig, err := s.Wallet.GetSignals(ctx, address)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("wallet signals unavailable",
				zap.String("address", address),
				zap.Error(err),
			)
		}
		return nil
	}
	return sig
}

func (s *Service) normalizeLimit(limit int) int {
	fallback := s.PageSize
	if fallback <= 0 {
		fallback = DefaultPageSize
	}
	max := s.MaxPageSize
	if max <= 0 {
		max = MaxPageSize
	}
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
