// Package googlefit is the Google Fit implementation of app.FitnessProvider.
package googlefit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"carecompanion/internal/domain"
)

const (
	// DefaultBaseURL is the Google APIs host.
	DefaultBaseURL = "https://www.googleapis.com"

	aggregatePath = "/fitness/v1/users/me/dataset:aggregate"
	dayMillis     = int64(24 * time.Hour / time.Millisecond)
)

var scopes = []string{
	"openid", "email", "profile",
	"https://www.googleapis.com/auth/fitness.activity.read",
}

// Config holds the OAuth client registration and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// Endpoint overrides the Google OAuth endpoint.
	Endpoint *oauth2.Endpoint
}

// Client talks to the Google Fit REST API on behalf of linked users.
type Client struct {
	oauth   *oauth2.Config
	baseURL string
	log     *zap.Logger
}

// New creates a Client.
func New(cfg Config, log *zap.Logger) *Client {
	ep := endpoints.Google
	if cfg.Endpoint != nil {
		ep = *cfg.Endpoint
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     ep,
		},
		baseURL: base,
		log:     log.Named("googlefit"),
	}
}

// AuthCodeURL returns the consent URL. Offline access with forced consent
// makes Google return a refresh token every time.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*domain.FitnessLink, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return linkFromToken(tok), nil
}

type aggregateBy struct {
	DataTypeName string `json:"dataTypeName"`
	DataSourceID string `json:"dataSourceId,omitempty"`
}

type bucketByTime struct {
	DurationMillis int64 `json:"durationMillis"`
}

type aggregateRequest struct {
	AggregateBy     []aggregateBy `json:"aggregateBy"`
	BucketByTime    *bucketByTime `json:"bucketByTime,omitempty"`
	StartTimeMillis int64         `json:"startTimeMillis"`
	EndTimeMillis   int64         `json:"endTimeMillis"`
}

func aggregateBody(metric domain.FitnessMetric, start, end time.Time) (aggregateRequest, error) {
	req := aggregateRequest{
		BucketByTime:    &bucketByTime{DurationMillis: dayMillis},
		StartTimeMillis: start.UnixMilli(),
		EndTimeMillis:   end.UnixMilli(),
	}
	switch metric {
	case domain.MetricSteps:
		req.AggregateBy = []aggregateBy{{
			DataTypeName: "com.google.step_count.delta",
			DataSourceID: "derived:com.google.step_count.delta:com.google.android.gms:estimated_steps",
		}}
	case domain.MetricHeartRate:
		req.AggregateBy = []aggregateBy{{DataTypeName: "com.google.heart_rate.bpm"}}
	case domain.MetricSleep:
		// sleep segments are returned raw, not bucketed
		req.AggregateBy = []aggregateBy{{DataTypeName: "com.google.sleep.segment"}}
		req.BucketByTime = nil
	case domain.MetricOxygen:
		req.AggregateBy = []aggregateBy{{DataTypeName: "com.google.oxygen_saturation"}}
	default:
		return req, fmt.Errorf("unknown fitness metric %q", metric)
	}
	return req, nil
}

// Aggregate posts a dataset aggregate request for metric. If the stored
// access token had to be refreshed, the new link is returned alongside the
// data.
func (c *Client) Aggregate(ctx context.Context, link domain.FitnessLink, metric domain.FitnessMetric, start, end time.Time) (json.RawMessage, *domain.FitnessLink, error) {
	body, err := aggregateBody(metric, start, end)
	if err != nil {
		return nil, nil, err
	}

	ts := c.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  link.AccessToken,
		RefreshToken: link.RefreshToken,
		TokenType:    link.TokenType,
		Expiry:       link.Expiry,
	})
	rc := resty.NewWithClient(oauth2.NewClient(ctx, ts)).
		SetBaseURL(c.baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	resp, err := rc.R().SetContext(ctx).SetBody(body).Post(aggregatePath)
	if err != nil {
		c.log.Error("google fit call failed", zap.String("metric", string(metric)), zap.Error(err))
		return nil, nil, fmt.Errorf("google fit: %w", err)
	}
	if resp.IsError() {
		c.log.Warn("google fit returned error",
			zap.String("metric", string(metric)),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, nil, fmt.Errorf("google fit: %s", resp.Status())
	}

	var refreshed *domain.FitnessLink
	if tok, err := ts.Token(); err == nil && tok.AccessToken != link.AccessToken {
		refreshed = linkFromToken(tok)
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = link.RefreshToken
		}
	}
	return json.RawMessage(resp.Body()), refreshed, nil
}

func linkFromToken(tok *oauth2.Token) *domain.FitnessLink {
	return &domain.FitnessLink{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}
