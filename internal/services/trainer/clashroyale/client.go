// Package clashroyale is a caching read-through client for the public Clash
// Royale API. Responses are returned as raw JSON for verbatim proxying.
package clashroyale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	"github.com/louisbranch/cardtrainer/internal/platform/timeouts"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.clashroyale.com/v1"
	// DefaultCacheSize bounds each response cache.
	DefaultCacheSize = 512
	// DefaultCardsTTL applies to the card list, which rarely changes.
	DefaultCardsTTL = 5 * time.Minute
	// DefaultTTL applies to every other endpoint.
	DefaultTTL = 60 * time.Second

	maxBodyBytes = 8 << 20
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = apperrors.New(apperrors.CodeUpstreamNotConfigured, "Clash Royale API key not configured")

// APIError is a non-2xx upstream response. Status is passed through to the
// proxy's client.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("Clash Royale API error: %d", e.Status)
}

// Detail includes the upstream reason when one was sent.
func (e *APIError) Detail() string {
	switch {
	case e.Reason != "" && e.Message != "":
		return e.Error() + " (" + e.Reason + ": " + e.Message + ")"
	case e.Reason != "":
		return e.Error() + " (" + e.Reason + ")"
	default:
		return e.Error()
	}
}

// Config configures a Client. Zero values select defaults.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	CacheSize  int
	CardsTTL   time.Duration
	TTL        time.Duration
	Logger     *zap.Logger
}

// Client calls the upstream API with response caching.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger

	cardsCache *expirable.LRU[string, json.RawMessage]
	cache      *expirable.LRU[string, json.RawMessage]
	group      singleflight.Group
}

// New builds a client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.Upstream}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cardsTTL := cfg.CardsTTL
	if cardsTTL <= 0 {
		cardsTTL = DefaultCardsTTL
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		http:       httpClient,
		logger:     logging.OrNop(cfg.Logger),
		cardsCache: expirable.NewLRU[string, json.RawMessage](size, nil, cardsTTL),
		cache:      expirable.NewLRU[string, json.RawMessage](size, nil, ttl),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// get fetches path with query, serving from cache when possible.
func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	key := path
	if encoded := query.Encode(); encoded != "" {
		key += "?" + encoded
	}
	cache := c.cache
	if path == "/cards" {
		cache = c.cardsCache
	}
	if body, ok := cache.Get(key); ok {
		return body, nil
	}

	// The shared fetch outlives any single caller's cancellation.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Upstream)
		defer cancel()
		body, err := c.fetch(fetchCtx, key)
		if err != nil {
			return nil, err
		}
		cache.Add(key, body)
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	}
}

func (c *Client) fetch(ctx context.Context, pathAndQuery string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, upstreamFailure("Clash Royale API request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, upstreamFailure("read Clash Royale API response", err)
	}
	c.logger.Debug("clash royale request",
		zap.String("path", pathAndQuery),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	if !gjson.ValidBytes(body) {
		return nil, upstreamFailure("Clash Royale API returned invalid JSON", nil)
	}
	return json.RawMessage(body), nil
}

// upstreamFailure reports a transport or decoding failure as a 502.
func upstreamFailure(message string, cause error) *apperrors.Error {
	return &apperrors.Error{
		Code:     apperrors.CodeUpstreamFailed,
		Message:  message,
		Metadata: map[string]string{"Status": strconv.Itoa(http.StatusBadGateway)},
		Cause:    cause,
	}
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		apiErr.Reason = parsed.Get("reason").String()
		apiErr.Message = parsed.Get("message").String()
	}
	return apiErr
}
