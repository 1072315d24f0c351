package services

import (
	"context"
	"fmt"
	"time"

	"MediCore/authz"
	"MediCore/cache"
	"MediCore/models"
	"MediCore/repositories"

	"github.com/rs/zerolog"
)

const defaultAnalyticsTTL = 60 * time.Second

// AnalyticsService serves dashboard counters, cached per day for a short TTL.
type AnalyticsService struct {
	analytics repositories.AnalyticsRepository
	cache     cache.Store
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewAnalyticsService(deps Dependencies) *AnalyticsService {
	ttl := deps.AnalyticsTTL
	if ttl <= 0 {
		ttl = defaultAnalyticsTTL
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{
		analytics: deps.Repos.Analytics,
		cache:     deps.Cache,
		ttl:       ttl,
		now:       now,
		log:       deps.Log.With().Str("service", "analytics").Logger(),
	}
}

func (s *AnalyticsService) Admin(ctx context.Context, caller authz.Identity) (*models.AdminAnalytics, error) {
	if err := authz.Require(caller, authz.ViewAdminAnalytics); err != nil {
		return nil, err
	}
	today := s.now()
	key := fmt.Sprintf("analytics:admin:%s", today.Format("2006-01-02"))

	var summary models.AdminAnalytics
	if s.cached(ctx, key, &summary) {
		return &summary, nil
	}
	fresh, err := s.analytics.AdminSummary(ctx, today)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, fresh)
	return fresh, nil
}

func (s *AnalyticsService) Doctor(ctx context.Context, caller authz.Identity) (*models.DoctorAnalytics, error) {
	if err := authz.Require(caller, authz.ViewDoctorAnalytics); err != nil {
		return nil, err
	}
	today := s.now()
	key := fmt.Sprintf("analytics:doctor:%s:%s", caller.ID, today.Format("2006-01-02"))

	var summary models.DoctorAnalytics
	if s.cached(ctx, key, &summary) {
		return &summary, nil
	}
	fresh, err := s.analytics.DoctorSummary(ctx, caller.ID, today)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, fresh)
	return fresh, nil
}

// cached never fails the request; a broken cache only costs a recomputation.
func (s *AnalyticsService) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := cache.GetJSON(ctx, s.cache, key, dest)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("analytics cache read failed")
		return false
	}
	return found
}

func (s *AnalyticsService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("analytics cache write failed")
	}
}
