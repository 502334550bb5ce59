package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"beatleader-bot/internal/config"
	"beatleader-bot/internal/constants"
	"beatleader-bot/internal/metrics"
)

const (
	appName    = "beatleader-bot"
	appVersion = "1.0.0"
	repoURL    = "https://github.com/beatleader/clan-bot"
)

// Client is the BeatLeader API client. Every request passes through one
// shared token bucket, so outbound traffic never exceeds the upstream's
// 10 req/s allowance regardless of which worker is calling.
type Client struct {
	baseURL    string
	stagingURL string
	timeout    time.Duration
	http       *fasthttp.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	oauth      *config.OAuthConfig
}

func NewClient(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    constants.UpstreamBaseURL,
		stagingURL: constants.UpstreamStagingBaseURL,
		timeout:    constants.UpstreamTimeout,
		http: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.UpstreamTimeout,
			WriteTimeout:        constants.UpstreamTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: rate.NewLimiter(rate.Limit(constants.UpstreamRequestsPerSecond), 1),
		logger:  logger.With().Str("component", "bl_client").Logger(),
		metrics: m,
		oauth:   cfg.OAuth,
	}
}

func userAgent() string {
	return fmt.Sprintf("%s/%s %s", appName, appVersion, repoURL)
}

// waitTurn blocks until the limiter admits one request. The jitter spreads
// worker bursts so admissions do not all land on bucket refill boundaries.
// A consumed permit is not returned on cancellation.
func (c *Client) waitTurn(ctx context.Context) error {
	jitter := time.Duration(rand.Int63n(int64(constants.UpstreamRateJitterMax)))
	select {
	case <-ctx.Done():
		return ErrCancelled
	case <-time.After(jitter):
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return fmt.Errorf("%w: %s", ErrRequest, err)
	}
	return nil
}

func doRequest[T any](ctx context.Context, c *Client, method, url string, params []QueryParam, body []byte, contentType string, bearer string) (*T, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetUserAgent(userAgent())
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip, br")
	for _, param := range params {
		param.Apply(req.URI().QueryArgs())
	}
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if bearer != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+bearer)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("network").Inc()
		c.logger.Warn().Err(err).Str("url", url).Msg("upstream request failed")
		return nil, fmt.Errorf("%w: %s", ErrNetwork, err)
	}

	respBody, err := resp.BodyUncompressed()
	if err != nil {
		respBody = resp.Body()
	}

	if err := classifyStatus(resp.StatusCode(), respBody); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(outcomeLabel(err)).Inc()
		c.logger.Debug().
			Int("status", resp.StatusCode()).
			Str("url", url).
			Dur("duration", time.Since(start)).
			Msg("upstream request not ok")
		return nil, err
	}

	c.metrics.UpstreamRequests.WithLabelValues("ok").Inc()

	var result T
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrJSONDecode, err)
		}
	}
	return &result, nil
}

func outcomeLabel(err error) string {
	var clientErr *ClientError
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrServer):
		return "server"
	case errors.As(err, &clientErr):
		return "client"
	default:
		return "unknown"
	}
}
