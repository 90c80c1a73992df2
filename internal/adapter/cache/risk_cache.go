package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"carecompanion/internal/domain"
)

const (
	latestRiskPrefix = "risk:latest:"
	riskGenPrefix    = "risk:gen:"
)

// RiskCache caches the latest assessment per user in front of a
// RiskAssessmentRepository. Inserts bump a per-user generation and drop the
// user's entry; a reader only fills the entry if the generation it saw
// before reading the repository is still current. Cache failures are
// logged and fall through to the repository.
type RiskCache struct {
	next domain.RiskAssessmentRepository
	kv   KV
	ttl  time.Duration
	log  *zap.Logger
}

var _ domain.RiskAssessmentRepository = (*RiskCache)(nil)

// NewRiskCache wraps next.
func NewRiskCache(next domain.RiskAssessmentRepository, kv KV, ttl time.Duration, log *zap.Logger) *RiskCache {
	return &RiskCache{next: next, kv: kv, ttl: ttl, log: log.Named("risk_cache")}
}

func latestKey(userID string) string { return latestRiskPrefix + userID }

func genKey(userID string) string { return riskGenPrefix + userID }

// InsertRiskAssessment stores a, advances the user's generation and drops
// the cached latest entry.
func (c *RiskCache) InsertRiskAssessment(ctx context.Context, a domain.RiskAssessment) (*domain.RiskAssessment, error) {
	stored, err := c.next.InsertRiskAssessment(ctx, a)
	if err != nil {
		return nil, err
	}
	if _, err := c.kv.Incr(ctx, genKey(a.UserID)); err != nil {
		c.log.Warn("advance risk generation", zap.String("user_id", a.UserID), zap.Error(err))
	}
	if err := c.kv.Del(ctx, latestKey(a.UserID)); err != nil {
		c.log.Warn("invalidate latest risk", zap.String("user_id", a.UserID), zap.Error(err))
	}
	return stored, nil
}

// FindLatestRiskAssessment serves from cache when possible.
func (c *RiskCache) FindLatestRiskAssessment(ctx context.Context, userID string) (*domain.RiskAssessment, error) {
	key := latestKey(userID)
	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var a domain.RiskAssessment
		if jerr := json.Unmarshal([]byte(raw), &a); jerr == nil {
			return &a, nil
		}
		c.log.Warn("discarding corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, ErrMiss):
		c.log.Warn("cache get", zap.String("key", key), zap.Error(err))
	}

	// the generation must be read before the repository
	gen, genErr := c.kv.Get(ctx, genKey(userID))
	switch {
	case errors.Is(genErr, ErrMiss):
		gen, genErr = "0", nil
	case genErr != nil:
		c.log.Warn("cache get generation", zap.String("user_id", userID), zap.Error(genErr))
	}

	a, err := c.next.FindLatestRiskAssessment(ctx, userID)
	if err != nil || a == nil || genErr != nil {
		return a, err
	}
	if b, jerr := json.Marshal(a); jerr == nil {
		if _, serr := c.kv.SetIfEqual(ctx, key, string(b), c.ttl, genKey(userID), gen); serr != nil {
			c.log.Warn("cache set", zap.String("key", key), zap.Error(serr))
		}
	}
	return a, nil
}

// ListRiskAssessments is not cached.
func (c *RiskCache) ListRiskAssessments(ctx context.Context, userID string, limit int) ([]domain.RiskAssessment, error) {
	return c.next.ListRiskAssessments(ctx, userID, limit)
}
