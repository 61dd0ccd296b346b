package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"earnradar/internal/db"
	"earnradar/internal/metrics"
	"earnradar/internal/models"
	"earnradar/internal/repository"
	"earnradar/internal/source"
)

var ErrSyncInProgress = errors.New("sync already in progress")

const DefaultSourceTimeout = 60 * time.Second

// SyncResult is the per-source outcome of one pass.
type SyncResult struct {
	Source     string `json:"source"`
	Fetched    int    `json:"fetched"`
	Upserted   int    `json:"upserted"`
	Failed     int    `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Syncer runs all enabled adapters, reconciles the combined batch against the
// persisted set and upserts the winners. One pass runs at a time; a second
// trigger while a pass is in flight is rejected, not queued.
type Syncer struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	Adapters []source.Adapter
	Timeout  time.Duration

	running atomic.Bool
}

// Run executes one pass. With no arguments every adapter runs; naming sources
// restricts the pass to those adapters.
func (s *Syncer) Run(ctx context.Context, only ...string) ([]SyncResult, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	adapters := s.selectAdapters(only)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no matching sources")
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}

	type fetchOutcome struct {
		result  SyncResult
		records []models.Opportunity
	}

	outcomes := make([]fetchOutcome, len(adapters))
	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter source.Adapter) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			started := time.Now()
			records, err := adapter.Fetch(fetchCtx)
			elapsed := time.Since(started)

			res := SyncResult{
				Source:     adapter.Name(),
				Fetched:    len(records),
				DurationMs: elapsed.Milliseconds(),
			}
			metrics.SyncDuration.WithLabelValues(res.Source).Observe(elapsed.Seconds())
			if err != nil {
				res.Error = err.Error()
				metrics.SyncTotal.WithLabelValues(res.Source, "error").Inc()
				if s.Logger != nil {
					s.Logger.Warn("source fetch failed",
						zap.String("source", res.Source),
						zap.Error(err),
					)
				}
			} else {
				metrics.SyncTotal.WithLabelValues(res.Source, "ok").Inc()
			}
			outcomes[i] = fetchOutcome{result: res, records: records}
		}(i, adapter)
	}
	wg.Wait()

	var incoming []models.Opportunity
	for _, o := range outcomes {
		incoming = append(incoming, o.records...)
	}

	existing, err := s.Repo.ListActiveOpportunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active set: %w", err)
	}
	winners := Reconcile(existing, incoming)

	// Each record is committed independently. One bad record must not drop
	// the rest of the batch.
	upserted := make(map[string]int, len(adapters))
	failed := make(map[string]int, len(adapters))
	for i := range winners {
		opp := winners[i]
		if err := s.Repo.UpsertOpportunity(ctx, &opp); err != nil {
			failed[opp.Source]++
			metrics.SyncRecordErrors.WithLabelValues(opp.Source).Inc()
			if s.Logger != nil {
				s.Logger.Warn("opportunity upsert failed",
					zap.String("source", opp.Source),
					zap.String("slug", opp.Slug),
					zap.Error(err),
				)
			}
			continue
		}
		upserted[opp.Source]++
		metrics.SyncRecords.WithLabelValues(opp.Source).Inc()
	}

	now := db.NowUTC()
	results := make([]SyncResult, 0, len(outcomes))
	for _, o := range outcomes {
		res := o.result
		res.Upserted = upserted[res.Source]
		res.Failed = failed[res.Source]
		results = append(results, res)
		s.saveState(ctx, res, now)
	}

	if s.Logger != nil {
		s.Logger.Info("sync pass finished",
			zap.Int("incoming", len(incoming)),
			zap.Int("winners", len(winners)),
			zap.Int("existing", len(existing)),
		)
	}
	return results, nil
}

func (s *Syncer) selectAdapters(only []string) []source.Adapter {
	if len(only) == 0 {
		return s.Adapters
	}
	want := make(map[string]bool, len(only))
	for _, name := range only {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			want[name] = true
		}
	}
	if len(want) == 0 {
		return s.Adapters
	}
	out := make([]source.Adapter, 0, len(s.Adapters))
	for _, adapter := range s.Adapters {
		if want[strings.ToLower(adapter.Name())] {
			out = append(out, adapter)
		}
	}
	return out
}

func (s *Syncer) saveState(ctx context.Context, res SyncResult, now time.Time) {
	state := &models.SyncState{
		Source:        res.Source,
		LastAttemptAt: &now,
		LastCount:     res.Upserted,
	}
	if res.Error == "" {
		state.LastSuccessAt = &now
	} else {
		errMsg := res.Error
		state.LastError = &errMsg
		// A failed pass must not erase the last known good sync.
		if prev, err := s.Repo.GetSyncState(ctx, res.Source); err == nil && prev != nil {
			state.LastSuccessAt = prev.LastSuccessAt
			state.LastCount = prev.LastCount
		}
	}
	if raw, err := json.Marshal(res); err == nil {
		state.StatsJSON = raw
	}
	if err := s.Repo.SaveSyncState(ctx, state); err != nil && s.Logger != nil {
		s.Logger.Warn("save sync state failed",
			zap.String("source", res.Source),
			zap.Error(err),
		)
	}
}
