package domain

import (
	"context"
	"time"
)

// FitnessMetric names a dataset that can be pulled from the fitness provider.
type FitnessMetric string

const (
	MetricSteps     FitnessMetric = "steps"
	MetricHeartRate FitnessMetric = "heart_rate"
	MetricSleep     FitnessMetric = "sleep"
	MetricOxygen    FitnessMetric = "oxygen"
)

// FitnessLink holds the provider tokens granted by one user.
type FitnessLink struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	UpdatedAt    time.Time
}

// FitnessLinkRepository is the port for provider token storage.
type FitnessLinkRepository interface {
	// SaveFitnessLink inserts or replaces the link for l.UserID.
	SaveFitnessLink(ctx context.Context, l FitnessLink) error
	// GetFitnessLink returns nil, nil when the user never connected.
	GetFitnessLink(ctx context.Context, userID string) (*FitnessLink, error)
}
