// Package gemini is a minimal REST client for the Gemini generateContent
// endpoint. It implements app.ChatModel.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-pro"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client calls one Gemini model.
type Client struct {
	http  *resty.Client
	model string
	log   *zap.Logger
}

// New creates a Client. Empty baseURL and model fall back to the defaults.
func New(apiKey, model, baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	http := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(60*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetQueryParam("key", apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: http, model: model, log: log.Named("gemini")}
}

// Generate sends prompt as a single user turn and returns the concatenated
// text of the first candidate. An empty string means the model produced no
// text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var (
		out     generateResponse
		failure apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", c.model).
		SetBody(generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}).
		SetResult(&out).
		SetError(&failure).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if resp.IsError() {
		c.log.Warn("gemini returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("status", failure.Error.Status),
		)
		if failure.Error.Message != "" {
			return "", fmt.Errorf("gemini: %s: %s", resp.Status(), failure.Error.Message)
		}
		return "", errors.New("gemini: " + resp.Status())
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
