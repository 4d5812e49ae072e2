package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrCredentialsMissing  = errors.New("daraja consumer key or secret not configured")
	ErrUpstreamUnavailable = fmt.Errorf("%w: daraja oauth unavailable", model.ErrUpstream)
)

const defaultTokenTimeout = 10 * time.Second

type TokenConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	OAuthURL       string
	Timeout        time.Duration
}

// tokenResponse is the Daraja OAuth body; expires_in arrives as a string.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// TokenProvider fetches Daraja access tokens. Every call goes to the
// network: there is no caching and no retry.
type TokenProvider struct {
	config TokenConfig
	client *fasthttp.Client
}

func NewTokenProvider(config TokenConfig, client *fasthttp.Client) *TokenProvider {
	if config.Timeout <= 0 {
		config.Timeout = defaultTokenTimeout
	}
	if client == nil {
		client = &fasthttp.Client{
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		}
	}
	return &TokenProvider{
		config: config,
		client: client,
	}
}

func (p *TokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	if p.config.ConsumerKey == "" || p.config.ConsumerSecret == "" {
		return "", ErrCredentialsMissing
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(tokenURL(p.config.OAuthURL))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAuthorization, basicAuth(p.config.ConsumerKey, p.config.ConsumerSecret))

	deadline := time.Now().Add(p.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := p.client.DoDeadline(req, resp, deadline); err != nil {
		logger.Warn("daraja token request failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		logger.Warn("daraja token request rejected", "status", code)
		return "", fmt.Errorf("%w: unexpected status code %d", ErrUpstreamUnavailable, code)
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: decode token: %w", ErrUpstreamUnavailable, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUpstreamUnavailable)
	}

	return body.AccessToken, nil
}

// tokenURL adds the client_credentials grant unless the configured URL
// already carries a query.
func tokenURL(base string) string {
	if strings.Contains(base, "?") {
		return base
	}
	return base + "?grant_type=client_credentials"
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}
