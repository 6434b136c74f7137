package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/dto"
	"github.com/openassess/grading-controller/internal/observability"
	"github.com/openassess/grading-controller/internal/repository"
)

// ETAService estimates how long a newly arriving submission at a location
// would wait before being graded. Pure read path; staleness of a few seconds
// is acceptable, so results are cached per location.
type ETAService interface {
	Estimate(ctx context.Context, location string) (dto.ETAResponse, error)
}

type etaService struct {
	submissions    repository.SubmissionRepository
	graders        repository.GraderRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	historyWindow  time.Duration
	defaultSeconds int
	logger         zerolog.Logger
	now            func() time.Time
}

// NewETAService builds the estimator. A nil cache client disables caching.
func NewETAService(submissions repository.SubmissionRepository, graders repository.GraderRepository, cache *redis.Client, cacheTTL, historyWindow time.Duration, defaultSeconds int, logger zerolog.Logger) ETAService {
	return &etaService{
		submissions:    submissions,
		graders:        graders,
		cache:          cache,
		cacheTTL:       cacheTTL,
		historyWindow:  historyWindow,
		defaultSeconds: defaultSeconds,
		logger:         logger.With().Str("component", "eta_service").Logger(),
		now:            time.Now,
	}
}

func (s *etaService) Estimate(ctx context.Context, location string) (dto.ETAResponse, error) {
	if location == "" {
		return dto.ETAResponse{}, NewMissingKeyError("location")
	}

	cacheKey := fmt.Sprintf("eta:location:%s", location)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ETAResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				observability.ETAQueries().WithLabelValues("cache").Inc()
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read eta cache")
		}
	}

	backlog, err := s.submissions.CountPendingByLocation(ctx, location)
	if err != nil {
		return dto.ETAResponse{}, &StoreError{Op: "count pending submissions", Err: err}
	}

	completed, err := s.graders.CountCompletedAtLocationSince(ctx, location, s.now().Add(-s.historyWindow))
	if err != nil {
		return dto.ETAResponse{}, &StoreError{Op: "count completed grades", Err: err}
	}

	response := dto.ETAResponse{
		Location:   location,
		ETASeconds: s.estimateSeconds(backlog, completed),
	}

	source := "computed"
	if completed == 0 {
		source = "default"
	}
	observability.ETAQueries().WithLabelValues(source).Inc()

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store eta cache")
			}
		}
	}

	return response, nil
}

// estimateSeconds projects the wait for a submission arriving behind the
// current backlog at the observed throughput. A location with no grading
// history falls back to the configured default rather than failing.
func (s *etaService) estimateSeconds(backlog, completedInWindow int64) int {
	if completedInWindow <= 0 {
		return s.defaultSeconds
	}

	ratePerSecond := float64(completedInWindow) / s.historyWindow.Seconds()
	eta := int(math.Ceil(float64(backlog+1) / ratePerSecond))
	if eta < 1 {
		eta = 1
	}

	return eta
}
