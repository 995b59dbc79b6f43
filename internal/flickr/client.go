package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/virtualtourist/internal/logger"
	"codeberg.org/snonux/virtualtourist/internal/metrics"
)

const (
	DefaultBaseURL           = "https://api.flickr.com/services/rest/"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 60
	DefaultBreakerFailures   = 5
	DefaultBreakerCooldown   = 30 * time.Second
	DefaultMaxImageBytes     = 10 * 1024 * 1024

	opSearch   = "search"
	opDownload = "download"
)

// Config configures a Client. Zero values select the defaults above; a
// negative RequestsPerMinute disables rate limiting.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
	BreakerFailures   int
	BreakerCooldown   time.Duration
	MaxImageBytes     int64

	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// Client talks to the Flickr REST endpoint and downloads photo binaries
type Client struct {
	baseURL       string
	apiKey        string
	maxImageBytes int64
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker
	rateLimit     *rateLimiter
	metrics       *metrics.Metrics
	log           *logger.Logger
}

// NewClient creates a new Flickr API client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = DefaultBreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = DefaultBreakerCooldown
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}

	log := cfg.Logger.With("flickr")
	failures := uint32(cfg.BreakerFailures)

	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		maxImageBytes: cfg.MaxImageBytes,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "flickr",
			Timeout: cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warning("circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
		rateLimit: newRateLimiter(cfg.RequestsPerMinute),
		metrics:   cfg.Metrics,
		log:       log,
	}
}

// Params merges the fixed photo search arguments with the query's own
func (c *Client) Params(q SearchQuery) map[string]string {
	params := q.Params()
	params["method"] = photoSearchMethod
	params["api_key"] = c.apiKey
	params["safe_search"] = "1"
	params["extras"] = "url_m"
	params["format"] = "json"
	params["nojsoncallback"] = "1"
	return params
}

// Search performs one GET against the endpoint and returns the decoded top
// level JSON object
func (c *Client) Search(ctx context.Context, params map[string]string) (map[string]any, error) {
	if err := c.rateLimit.wait(ctx); err != nil {
		return nil, &TransportError{Op: opSearch, URL: c.baseURL, Timeout: isTimeout(err), Err: err}
	}

	reqURL := c.baseURL + EncodeParams(params)
	c.log.Debug("search page=%s per_page=%s", params["page"], params["per_page"])

	body, err := c.get(ctx, opSearch, reqURL, 0)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc == nil {
		return nil, &ParseError{Err: errors.New("body is not a JSON object")}
	}

	return doc, nil
}

// Download fetches the raw bytes at imageURL
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	data, err := c.get(ctx, opDownload, imageURL, c.maxImageBytes)
	if err != nil {
		return nil, err
	}
	c.metrics.AddDownloadedBytes(len(data))
	return data, nil
}

// get runs one request through the circuit breaker. limit > 0 caps the body
// size.
func (c *Client) get(ctx context.Context, op, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}

	started := time.Now()
	defer c.metrics.ObserveRequest(op, started)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(req, op, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransportError{Op: op, URL: redact(req), Err: err}
		}
		return nil, err
	}

	return result.([]byte), nil
}

func (c *Client) do(req *http.Request, op string, limit int64) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: redact(req), Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{
			Op:         op,
			URL:        redact(req),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server returned %s", resp.Status),
		}
	}

	var reader io.Reader = resp.Body
	if limit > 0 {
		if resp.ContentLength > limit {
			return nil, fmt.Errorf("file too large: %d bytes (max %d)", resp.ContentLength, limit)
		}
		reader = io.LimitReader(resp.Body, limit+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &TransportError{Op: op, URL: redact(req), Timeout: isTimeout(err), Err: err}
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, fmt.Errorf("file too large: more than %d bytes", limit)
	}

	return body, nil
}

// countsAsSuccess decides what the breaker treats as a healthy call. Only
// connection failures and 5xx answers count against it; a missing image or
// a caller cancelling its context does not.
func countsAsSuccess(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return te.StatusCode != 0 && te.StatusCode < 500
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// redact strips the query string so the API key never ends up in errors
func redact(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
