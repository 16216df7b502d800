package stats

import (
	"context"
	"time"

	"sales-observer/src/logger"
	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Stats Service (cache-or-recompute with graceful degradation)
// -----------------------------------------------------------------------------

// Service fronts the engine with the snapshot cache. Fallback order on a
// failed recomputation: last retained snapshot, then the zero default. A
// malformed or nil snapshot is never handed to the hub.
type Service struct {
	engine *Engine
	cache  *SnapshotCache
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewService(engine *Engine, cache *SnapshotCache, log *logger.Logger) *Service {
	return &Service{
		engine: engine,
		cache:  cache,
		logger: log,
	}
}

// -----------------------------------------------------------------------------

// Current returns the dashboard snapshot for now, recomputing only when the
// cached one has aged past the throttle window.
func (s *Service) Current(ctx context.Context, now time.Time) models.MStatsSnapshot {
	if snap, ok := s.cache.Get(now); ok {
		return snap
	}

	snap, err := s.engine.ComputeStats(ctx, now)
	if err != nil {
		s.logger.Warning("stats recomputation failed: %v", err)
		if last, ok := s.cache.Last(); ok {
			return last
		}
		return models.ZeroSnapshot()
	}

	s.cache.Put(snap, now)
	return snap
}

// -----------------------------------------------------------------------------

// SnapshotAge reports how old the retained snapshot is, if any.
func (s *Service) SnapshotAge(now time.Time) (time.Duration, bool) {
	computedAt, ok := s.cache.ComputedAt()
	if !ok {
		return 0, false
	}
	return now.Sub(computedAt), true
}

// -----------------------------------------------------------------------------

// Invalidate drops the cached snapshot (new insert observed).
func (s *Service) Invalidate() {
	s.cache.Invalidate()
}

// -----------------------------------------------------------------------------

// Sweep purges the slot once it has idled past the retention window.
func (s *Service) Sweep(now time.Time) {
	s.cache.Sweep(now)
}
