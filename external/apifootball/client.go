package apifootball

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/betledger-sync/internal/domain/fixture"
	"github.com/riskibarqy/betledger-sync/internal/platform/cache"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
	"github.com/riskibarqy/betledger-sync/internal/platform/resilience"
	"github.com/riskibarqy/betledger-sync/internal/usecase"
)

const (
	defaultBaseURL  = "https://v3.football.api-sports.io"
	apiKeyHeader    = "x-apisports-key"
	maxResponseSize = 6 << 20
)

var errAPIFootballTransient = crerr.New("api-football transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// CacheTTL keeps fixture list responses cached in process for the
	// given window. Zero disables caching. Every upstream call counts
	// against the daily quota, so back-to-back triggers should not pay
	// twice for the same league window.
	CacheTTL time.Duration
}

// Client talks to the API-Football v3 REST endpoints. It satisfies the
// usecase FixtureSource, ScoreSource and QuotaSource ports.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	fixtures       *cache.Store
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
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	var fixtures *cache.Store
	if cfg.CacheTTL > 0 {
		fixtures = cache.NewStore(cfg.CacheTTL)
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		fixtures:       fixtures,
	}
}

// FetchUpcoming lists fixtures for a league between now and now plus
// the horizon, in UTC. Rows the provider returns without an id, names
// or a kickoff time are dropped.
func (c *Client) FetchUpcoming(ctx context.Context, leagueID int, horizonDays int) ([]fixture.Fixture, error) {
	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}
	if horizonDays < 1 {
		return nil, fmt.Errorf("%w: horizon days must be at least one", usecase.ErrInvalidInput)
	}

	now := time.Now().UTC()
	query := map[string]string{
		"league":   strconv.Itoa(leagueID),
		"season":   strconv.Itoa(seasonFor(now)),
		"from":     now.Format("2006-01-02"),
		"to":       now.AddDate(0, 0, horizonDays).Format("2006-01-02"),
		"timezone": "UTC",
	}

	if c.fixtures == nil {
		return c.fetchUpcoming(ctx, leagueID, query)
	}

	key := "fixtures:" + query["league"] + ":" + query["from"] + ":" + query["to"]
	value, err := c.fixtures.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return c.fetchUpcoming(ctx, leagueID, query)
	})
	if err != nil {
		return nil, err
	}

	cached, ok := value.([]fixture.Fixture)
	if !ok {
		return c.fetchUpcoming(ctx, leagueID, query)
	}
	return cached, nil
}

func (c *Client) fetchUpcoming(ctx context.Context, leagueID int, query map[string]string) ([]fixture.Fixture, error) {
	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, "/fixtures", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch upcoming fixtures league_id=%d: %w", leagueID, err)
	}

	out := make([]fixture.Fixture, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		mapped, ok := mapFixtureItem(item, leagueID)
		if !ok {
			c.logger.WarnContext(ctx, "skip malformed provider fixture row", "league_id", leagueID, "fixture_id", item.Fixture.ID)
			continue
		}
		out = append(out, mapped)
	}
	return out, nil
}

// FetchScore resolves the score for one fixture. A nil result with a
// nil error means the provider has no record under that id.
func (c *Client) FetchScore(ctx context.Context, externalID string) (*fixture.ScoreResult, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external fixture id must not be empty", usecase.ErrInvalidInput)
	}

	query := map[string]string{"id": externalID}

	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, "/fixtures", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch score fixture_id=%s: %w", externalID, err)
	}
	if len(envelope.Response) == 0 {
		return nil, nil
	}

	item := envelope.Response[0]
	result := &fixture.ScoreResult{
		Status:   fixture.NormalizeStatus(item.Fixture.Status.Short),
		HasGoals: item.Goals.Home != nil && item.Goals.Away != nil,
	}
	if item.Goals.Home != nil {
		result.HomeScore = *item.Goals.Home
	}
	if item.Goals.Away != nil {
		result.AwayScore = *item.Goals.Away
	}
	if fixture.IsFullTimeStatus(result.Status) && !result.HasGoals {
		c.logger.WarnContext(ctx, "full-time fixture missing goal counts, keeping it pending", "external_match_id", externalID, "status", result.Status)
	}
	return result, nil
}

// RemainingCalls reports how many requests are left in the current
// daily quota window.
func (c *Client) RemainingCalls(ctx context.Context) (int, error) {
	var envelope statusEnvelope
	if err := c.doJSON(ctx, "/status", nil, &envelope); err != nil {
		return 0, fmt.Errorf("fetch account status: %w", err)
	}

	remaining := envelope.Response.Requests.LimitDay - envelope.Response.Requests.Current
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: football data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
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

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isAPIFootballCircuitFailure(reqErr) {
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

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set(apiKeyHeader, c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errAPIFootballTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errAPIFootballTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if providerErr := extractProviderError(raw); providerErr != "" {
					return nil, fmt.Errorf("provider rejected request: %s", providerErr)
				}
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errAPIFootballTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "api-football request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func mapFixtureItem(item fixtureItem, fallbackLeagueID int) (fixture.Fixture, bool) {
	if item.Fixture.ID <= 0 {
		return fixture.Fixture{}, false
	}

	var kickoff time.Time
	if item.Fixture.Timestamp > 0 {
		kickoff = time.Unix(item.Fixture.Timestamp, 0).UTC()
	} else if parsed, ok := fixture.ParseProviderTime(item.Fixture.Date); ok {
		kickoff = parsed
	} else {
		return fixture.Fixture{}, false
	}

	home := strings.TrimSpace(item.Teams.Home.Name)
	away := strings.TrimSpace(item.Teams.Away.Name)
	if home == "" || away == "" {
		return fixture.Fixture{}, false
	}

	leagueID := item.League.ID
	if leagueID <= 0 {
		leagueID = fallbackLeagueID
	}

	return fixture.Fixture{
		ExternalID: strconv.FormatInt(item.Fixture.ID, 10),
		LeagueID:   leagueID,
		HomeTeam:   home,
		AwayTeam:   away,
		KickoffAt:  kickoff,
		Status:     fixture.NormalizeStatus(item.Fixture.Status.Short),
	}, true
}

// seasonFor maps a UTC instant to the API-Football season year. European
// seasons roll over in July.
func seasonFor(now time.Time) int {
	if now.Month() >= time.July {
		return now.Year()
	}
	return now.Year() - 1
}

// extractProviderError surfaces the in-band error field the provider
// populates on HTTP 200 responses for bad keys or bad parameters.
func extractProviderError(raw []byte) string {
	var probe struct {
		Errors any `json:"errors"`
	}
	if err := sonic.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	switch v := probe.Errors.(type) {
	case map[string]any:
		parts := make([]string, 0, len(v))
		for key, value := range v {
			parts = append(parts, fmt.Sprintf("%s: %v", key, value))
		}
		return strings.Join(parts, "; ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, value := range v {
			parts = append(parts, fmt.Sprintf("%v", value))
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" || token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}

func isAPIFootballCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errAPIFootballTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
