package googlefit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"carecompanion/internal/domain"
)

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/fitness/callback",
		BaseURL:      srv.URL,
		Endpoint: &oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, zap.NewNop())
}

func TestAuthCodeURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	u, err := url.Parse(newTestClient(srv).AuthCodeURL("st4te"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Contains(t, q.Get("scope"), "fitness.activity.read")
}

func TestAggregateBody(t *testing.T) {
	start := time.UnixMilli(1762560000000)
	end := time.UnixMilli(1762646399999)

	steps, err := aggregateBody(domain.MetricSteps, start, end)
	require.NoError(t, err)
	assert.Equal(t, "derived:com.google.step_count.delta:com.google.android.gms:estimated_steps", steps.AggregateBy[0].DataSourceID)
	assert.Equal(t, int64(86400000), steps.BucketByTime.DurationMillis)
	assert.Equal(t, int64(1762560000000), steps.StartTimeMillis)

	sleep, err := aggregateBody(domain.MetricSleep, start, end)
	require.NoError(t, err)
	assert.Nil(t, sleep.BucketByTime)

	_, err = aggregateBody("calories", start, end)
	assert.Error(t, err)
}

func TestAggregate(t *testing.T) {
	var got aggregateRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != aggregatePath {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bucket":[{"dataset":[]}]}`))
	}))
	defer srv.Close()

	link := domain.FitnessLink{AccessToken: "tok", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	data, refreshed, err := newTestClient(srv).Aggregate(context.Background(), link, domain.MetricHeartRate, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Nil(t, refreshed)
	assert.JSONEq(t, `{"bucket":[{"dataset":[]}]}`, string(data))
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "com.google.heart_rate.bpm", got.AggregateBy[0].DataTypeName)
}

func TestAggregate_RefreshesExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
		case aggregatePath:
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"bucket":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	link := domain.FitnessLink{AccessToken: "stale", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(-time.Hour)}
	_, refreshed, err := newTestClient(srv).Aggregate(context.Background(), link, domain.MetricSteps, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.Equal(t, "fresh", refreshed.AccessToken)
	assert.Equal(t, "refresh", refreshed.RefreshToken)
}

func TestAggregate_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	link := domain.FitnessLink{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}
	_, _, err := newTestClient(srv).Aggregate(context.Background(), link, domain.MetricOxygen, time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}
