// Package feed is the client for the broadcaster metadata API: channel
// services, the currently-airing schedule, and per-media playout descriptors.
//
// The API is JSONP-era: responses may arrive wrapped in a callback
// (`callback({...})`) depending on upstream caching, so every body goes
// through a tolerant unwrap before decoding. Payloads are treated as opaque
// JSON shapes (types.go); no interpretation happens here beyond decoding.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/livetuner/live-tuner/internal/httpclient"
	"github.com/livetuner/live-tuner/internal/metrics"
)

// ErrTimeout marks a fetch that exceeded its deadline. Callers treat it like
// any other transport failure; the sentinel only exists so logs and metrics
// can tell timeouts from refusals.
var ErrTimeout = errors.New("feed: request timed out")

// ErrNoPlayout is returned when the playouts endpoint answers with an empty
// data list for a (content, media) pair.
var ErrNoPlayout = errors.New("feed: no playout for media")

// Config drives a Client. Zero values are replaced with safe defaults by New.
type Config struct {
	// BaseURL of the metadata API, e.g. "https://external.api.example.com/v1".
	BaseURL string

	// AppID / AppKey are the API credentials appended to every request.
	AppID  string
	AppKey string

	// Timeout per request. Default: 15s.
	Timeout time.Duration

	// RequestsPerSecond caps the request rate against the API. Default: 5.
	RequestsPerSecond float64

	// Client may be nil to use the shared default.
	Client *http.Client
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Client == nil {
		c.Client = httpclient.WithTimeout(c.Timeout)
	}
}

// Client fetches services, schedules and playout descriptors.
// Safe for concurrent use.
type Client struct {
	cfg     Config
	limiter *rate.Limiter
}

// New returns a Client for cfg. cfg.BaseURL must be set.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if cfg.BaseURL == "" {
		return nil, errors.New("feed: Config must set BaseURL")
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}, nil
}

// Services fetches the service listing filtered to the given service type
// (e.g. "tv").
func (c *Client) Services(ctx context.Context, typ string) ([]Service, error) {
	q := url.Values{}
	if typ != "" {
		q.Set("type", typ)
	}
	var out []Service
	if err := c.getData(ctx, "services", "/services.json", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Schedule fetches the currently-airing schedule restricted to exactly the
// given service ids. The caller is expected to pass the ids returned by a
// preceding Services call; the two listings then describe the same channels.
func (c *Client) Schedule(ctx context.Context, serviceIDs []string) ([]ScheduleItem, error) {
	q := url.Values{}
	q.Set("service", strings.Join(serviceIDs, ","))
	var out []ScheduleItem
	if err := c.getData(ctx, "schedule", "/schedules/now.json", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamDescriptor fetches the playout descriptor for one (content, media)
// pair. Returns ErrNoPlayout when the API has no playout for the pair.
func (c *Client) StreamDescriptor(ctx context.Context, contentID, mediaID string) (StreamDescriptor, error) {
	q := url.Values{}
	q.Set("program", contentID)
	q.Set("media", mediaID)
	var out []StreamDescriptor
	if err := c.getData(ctx, "playouts", "/playouts.json", q, &out); err != nil {
		return StreamDescriptor{}, err
	}
	if len(out) == 0 {
		return StreamDescriptor{}, fmt.Errorf("%w: content=%s media=%s", ErrNoPlayout, contentID, mediaID)
	}
	// First descriptor wins; the API orders by preference.
	return out[0], nil
}

// getData GETs path with query q, unwraps JSONP if present, and decodes the
// "data" envelope into out.
func (c *Client) getData(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.classify(endpoint, err)
	}
	if c.cfg.AppID != "" {
		q.Set("app_id", c.cfg.AppID)
	}
	if c.cfg.AppKey != "" {
		q.Set("app_key", c.cfg.AppKey)
	}
	reqURL := c.cfg.BaseURL + path + "?" + q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("feed: %s: %w", endpoint, err)
	}

	release := httpclient.GlobalHostSem.Acquire(c.cfg.BaseURL)
	resp, err := c.cfg.Client.Do(req)
	release()
	if err != nil {
		metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return c.classify(endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("feed: %s: unexpected status %s", endpoint, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return c.classify(endpoint, err)
	}
	body = unwrapJSONP(body)

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("feed: %s: decode envelope: %w", endpoint, err)
	}
	if len(envelope.Data) == 0 {
		metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("feed: %s: response has no data field", endpoint)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("feed: %s: decode data: %w", endpoint, err)
	}
	metrics.FeedRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

// classify maps deadline errors onto ErrTimeout so callers can tell a slow
// upstream from a broken one.
func (c *Client) classify(endpoint string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, endpoint, c.cfg.Timeout)
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, endpoint, c.cfg.Timeout)
	}
	return fmt.Errorf("feed: %s: %w", endpoint, err)
}
