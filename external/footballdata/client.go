package footballdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	"github.com/riskibarqy/match-tracker/internal/platform/resilience"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

const (
	defaultBaseURL    = "https://api.football-data.org/v4"
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 2 * time.Second
	maxResponseBytes  = 6 << 20
)

// errFootballDataTransient classifies connection and timeout failures.
// It carries the usecase sentinel so callers can log the taxonomy
// without importing this package.
var errFootballDataTransient = crerr.Mark(
	crerr.New("football-data transient failure"),
	usecase.ErrUpstreamTransient,
)

// apiStatusError carries the upstream HTTP status of a non-2xx reply.
type apiStatusError struct {
	status int
	body   string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("provider status=%d body=%s", e.status, e.body)
}

// restrictedAccess reports plan-restricted or missing resources: the
// free tier answers 403 for scorers and standings of some competitions
// and 404 for resources it does not carry. Both mean there is nothing
// to show, not that the cycle failed.
func restrictedAccess(err error) bool {
	var statusErr *apiStatusError
	if !crerr.As(err, &statusErr) {
		return false
	}
	return statusErr.status == http.StatusForbidden || statusErr.status == http.StatusNotFound
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	RetryDelay     time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the football-data.org v4 API. Transient failures are
// retried exactly once after a fixed delay; non-2xx responses fail
// immediately since they signal a bad competition code or an exhausted
// quota, which a retry cannot fix. Scorers and standings degrade a
// 403 or 404 reply to an empty result instead of an error.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	retryDelay     time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	now            func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		retryDelay:     retryDelay,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		now:            time.Now,
	}
}

// FetchMatches pulls matches of the look-back window [now-lookback,
// now] in UTC calendar dates. Records that fail structural decode are
// dropped and counted; the page itself still succeeds.
func (c *Client) FetchMatches(ctx context.Context, code string, lookback time.Duration) (usecase.UpstreamMatchPage, error) {
	if strings.TrimSpace(code) == "" {
		return usecase.UpstreamMatchPage{}, fmt.Errorf("%w: competition code is required", usecase.ErrInvalidInput)
	}

	now := c.now().UTC()
	query := map[string]string{
		"dateFrom": now.Add(-lookback).Format("2006-01-02"),
		"dateTo":   now.Format("2006-01-02"),
	}

	var envelope matchesEnvelope
	if err := c.doJSON(ctx, "/competitions/"+code+"/matches", query, &envelope); err != nil {
		return usecase.UpstreamMatchPage{}, fmt.Errorf("fetch matches competition=%s: %w", code, err)
	}

	page := usecase.UpstreamMatchPage{Matches: make([]usecase.UpstreamMatch, 0, len(envelope.Matches))}
	for _, raw := range envelope.Matches {
		var record rawMatch
		if err := sonic.Unmarshal(raw, &record); err != nil {
			page.Dropped++
			c.logger.WarnContext(ctx, "dropping undecodable match record",
				"competition", code,
				"error", err,
			)
			continue
		}
		page.Matches = append(page.Matches, mapRawMatch(record, envelope.Competition))
	}

	return page, nil
}

func (c *Client) FetchScorers(ctx context.Context, code string, limit int) ([]scorers.Scorer, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: competition code is required", usecase.ErrInvalidInput)
	}
	query := map[string]string{}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}

	var envelope scorersEnvelope
	if err := c.doJSON(ctx, "/competitions/"+code+"/scorers", query, &envelope); err != nil {
		if restrictedAccess(err) {
			c.logger.DebugContext(ctx, "scorers not available for competition", "competition", code)
			return []scorers.Scorer{}, nil
		}
		return nil, fmt.Errorf("fetch scorers competition=%s: %w", code, err)
	}
	return envelope.Scorers, nil
}

func (c *Client) FetchStandings(ctx context.Context, code string) ([]usecase.UpstreamStandingsTable, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: competition code is required", usecase.ErrInvalidInput)
	}

	var envelope standingsEnvelope
	if err := c.doJSON(ctx, "/competitions/"+code+"/standings", nil, &envelope); err != nil {
		if restrictedAccess(err) {
			c.logger.DebugContext(ctx, "standings not available for competition", "competition", code)
			return []usecase.UpstreamStandingsTable{}, nil
		}
		return nil, fmt.Errorf("fetch standings competition=%s: %w", code, err)
	}

	out := make([]usecase.UpstreamStandingsTable, 0, len(envelope.Standings))
	for _, table := range envelope.Standings {
		out = append(out, usecase.UpstreamStandingsTable{Type: table.Type, Rows: table.Table})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "football-data circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: match data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && usecase.IsTransient(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

// executeRequest issues one authenticated GET with at most one retry.
// Only transient failures (connection, timeout, truncated body) are
// retried; any HTTP status outside 2xx fails immediately.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= 1; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("X-Auth-Token", c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Wrapf(errFootballDataTransient, "send request: %s", sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errFootballDataTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			default:
				lastErr = &apiStatusError{status: resp.StatusCode, body: abbreviateBody(raw)}
				c.logger.WarnContext(ctx, "football-data request rejected",
					"url", fullURL,
					"status", resp.StatusCode,
				)
				return nil, lastErr
			}
		}

		if attempt == 1 {
			break
		}
		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "football-data request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" || token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}

func abbreviateBody(raw []byte) string {
	const maxLen = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}
