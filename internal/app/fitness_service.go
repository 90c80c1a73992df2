package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carecompanion/internal/domain"
)

// fitnessWindow is how far back a proxied aggregate reaches.
const fitnessWindow = 7 * 24 * time.Hour

// FitnessProvider is the port for the external fitness API.
type FitnessProvider interface {
	// AuthCodeURL returns the consent page URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for provider tokens.
	Exchange(ctx context.Context, code string) (*domain.FitnessLink, error)
	// Aggregate fetches one metric between start and end. When the provider
	// refreshed the access token, the refreshed link is returned too.
	Aggregate(ctx context.Context, link domain.FitnessLink, metric domain.FitnessMetric, start, end time.Time) (json.RawMessage, *domain.FitnessLink, error)
}

// FitnessService connects user accounts to the fitness provider and
// proxies dataset requests.
type FitnessService struct {
	provider FitnessProvider
	links    domain.FitnessLinkRepository
	tokens   *TokenIssuer
	log      *zap.Logger
	now      func() time.Time
}

// NewFitnessService creates a FitnessService. A nil provider disables it.
func NewFitnessService(provider FitnessProvider, links domain.FitnessLinkRepository, tokens *TokenIssuer, log *zap.Logger) *FitnessService {
	return &FitnessService{provider: provider, links: links, tokens: tokens, log: log.Named("fitness"), now: time.Now}
}

// Enabled reports whether a provider is configured.
func (s *FitnessService) Enabled() bool { return s.provider != nil }

// ConnectURL returns the provider consent URL for userID.
func (s *FitnessService) ConnectURL(userID string) (string, error) {
	if s.provider == nil {
		return "", ErrUnavailable
	}
	state, err := s.tokens.issueState(userID)
	if err != nil {
		return "", err
	}
	return s.provider.AuthCodeURL(state), nil
}

// Callback completes the consent flow and stores the granted tokens.
func (s *FitnessService) Callback(ctx context.Context, state, code string) error {
	if s.provider == nil {
		return ErrUnavailable
	}
	if code == "" {
		return invalid("missing authorization code")
	}
	userID, err := s.tokens.verifyState(state)
	if err != nil {
		return err
	}
	link, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.log.Error("token exchange failed", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("token exchange failed: %w", err)
	}
	link.UserID = userID
	link.UpdatedAt = s.now().UTC()
	if err := s.links.SaveFitnessLink(ctx, *link); err != nil {
		return fmt.Errorf("save fitness link: %w", err)
	}
	s.log.Info("fitness account connected", zap.String("user_id", userID))
	return nil
}

// Fetch proxies one metric over the last seven days.
func (s *FitnessService) Fetch(ctx context.Context, userID string, metric domain.FitnessMetric) (json.RawMessage, error) {
	if s.provider == nil {
		return nil, ErrUnavailable
	}
	link, err := s.links.GetFitnessLink(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get fitness link: %w", err)
	}
	if link == nil || link.AccessToken == "" {
		return nil, ErrFitnessNotLinked
	}

	end := s.now()
	data, refreshed, err := s.provider.Aggregate(ctx, *link, metric, end.Add(-fitnessWindow), end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", metric, err)
	}
	if refreshed != nil {
		refreshed.UserID = userID
		refreshed.UpdatedAt = s.now().UTC()
		if err := s.links.SaveFitnessLink(ctx, *refreshed); err != nil {
			s.log.Warn("persist refreshed token", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return data, nil
}
