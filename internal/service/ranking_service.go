package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

// RankTutors scores every tutor in pool against req and orders the results by descending
// score. Scores are compared after ScoreTutor rounds them, and ties keep pool order. Inputs
// are never mutated.
func RankTutors(req models.TutoringRequest, pool []models.Tutor) []models.RankedTutor {
	ranked := make([]models.RankedTutor, 0, len(pool))
	for _, tutor := range pool {
		result := ScoreTutor(req, tutor)
		ranked = append(ranked, models.RankedTutor{
			TutorID:        tutor.ID,
			TutorName:      tutor.Name,
			Score:          result.Score,
			Justifications: result.Justifications,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// TopTutor returns the tutor RankTutors would place first, together with its score.
func TopTutor(req models.TutoringRequest, pool []models.Tutor) (models.Tutor, models.ScoreResult, bool) {
	best := -1
	var bestResult models.ScoreResult
	for i, tutor := range pool {
		result := ScoreTutor(req, tutor)
		if best < 0 || result.Score > bestResult.Score {
			best, bestResult = i, result
		}
	}
	if best < 0 {
		return models.Tutor{}, models.ScoreResult{}, false
	}
	return pool[best], bestResult, true
}

type tutorDirectory interface {
	ListActive(ctx context.Context, limit int) ([]models.Tutor, error)
}

// RankingConfig governs how tutor pools are sourced.
type RankingConfig struct {
	PoolCacheKey string
	PoolCacheTTL time.Duration
	MaxPoolSize  int
}

// RankingService resolves a consistent tutor pool snapshot and ranks it for a request.
type RankingService struct {
	directory tutorDirectory
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       RankingConfig
}

// NewRankingService wires ranking dependencies. directory and cache may be nil, in which case
// callers must supply the pool explicitly.
func NewRankingService(directory tutorDirectory, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg RankingConfig) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PoolCacheKey == "" {
		cfg.PoolCacheKey = "matching:tutors:active"
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = 500
	}
	return &RankingService{directory: directory, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// Rank returns the ordered ranking for req. The supplied pool wins over the directory.
func (s *RankingService) Rank(ctx context.Context, req dto.RankRequest) (*dto.RankResponse, error) {
	pool := req.Tutors
	cached := false
	if len(pool) == 0 {
		var err error
		pool, cached, err = s.LoadPool(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(pool) == 0 {
		return nil, appErrors.Validation("tutors", "tutor pool is empty")
	}

	start := time.Now()
	results := RankTutors(req.Request, pool)
	s.metrics.ObserveRanking(len(pool), time.Since(start))

	return &dto.RankResponse{Results: results, PoolSize: len(pool), PoolCache: cached}, nil
}

// ResolvePool returns explicit when non-empty, otherwise the directory snapshot.
func (s *RankingService) ResolvePool(ctx context.Context, explicit []models.Tutor) ([]models.Tutor, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	pool, _, err := s.LoadPool(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, appErrors.Validation("tutors", "tutor pool is empty")
	}
	return pool, nil
}

// LoadPool returns one snapshot of the active tutor pool, preferring the cache. The boolean
// reports a cache hit.
func (s *RankingService) LoadPool(ctx context.Context) ([]models.Tutor, bool, error) {
	if s.directory == nil {
		return nil, false, appErrors.Validation("tutors", "tutors are required when no tutor directory is configured")
	}

	var pool []models.Tutor
	if hit, _ := s.cache.Get(ctx, s.cfg.PoolCacheKey, &pool); hit {
		return pool, true, nil
	}

	pool, err := s.directory.ListActive(ctx, s.cfg.MaxPoolSize)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor pool")
	}
	if len(pool) > 0 {
		_ = s.cache.Set(ctx, s.cfg.PoolCacheKey, pool, s.cfg.PoolCacheTTL)
	}
	s.logger.Debug("tutor pool loaded from directory", zap.Int("size", len(pool)))
	return pool, false, nil
}

// InvalidatePool drops the cached snapshot so the next pass reads the directory.
func (s *RankingService) InvalidatePool(ctx context.Context) error {
	return s.cache.Invalidate(ctx, s.cfg.PoolCacheKey)
}
