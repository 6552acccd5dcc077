package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/retry"
	"git.home.luguber.info/inful/docpublisher/internal/version"
)

// PropertyKey names the content property holding page provenance.
const PropertyKey = "docpublisher"

const defaultPageSize = 50

// Client talks to one Confluence space.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	token      string
	spaceKey   string
	retry      retry.Policy
	pageSize   int
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the retry policy derived from configuration.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithPageSize sets the page size used when listing children.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client from configuration.
func New(cfg config.ConfluenceConfig, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("confluence base_url must be an absolute URL").
			WithCause(err).
			WithContext("base_url", cfg.BaseURL).
			Build()
	}
	policy, err := retry.FromConfig(cfg.Retry)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		username:   cfg.Username,
		token:      cfg.APIToken,
		spaceKey:   cfg.SpaceKey,
		retry:      policy,
		pageSize:   defaultPageSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newRequest builds a request for endpoint, a path below /rest/api with an
// optional query string.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.ConfigError("failed to parse base URL").
			WithCause(err).
			WithContext("base_url", c.baseURL).
			Build()
	}
	u.Path = path.Join(u.Path, "rest/api", strings.TrimPrefix(endpoint, "/"))
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.InternalError("failed to marshal request body").WithCause(err).Build()
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errors.RemoteError("failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", u.String()).
			Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "docpublisher/"+version.Version)
	req.SetBasicAuth(c.username, c.token)
	return req, nil
}

// do sends the request and decodes a JSON response into result when it is
// non-nil.
func (c *Client) do(req *http.Request, result any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.NetworkError("confluence request failed").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("Confluence request",
		logfields.Method(req.Method),
		logfields.URL(req.URL.Path),
		logfields.Status(resp.StatusCode),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	if resp.StatusCode >= 400 {
		return statusError(req, resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.RemoteError("failed to decode confluence response").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Build()
		}
	}
	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	body := strings.ReplaceAll(string(limited), "\n", " ")

	b := errors.RemoteError(fmt.Sprintf("confluence API error: %s", resp.Status))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		b = errors.AuthError(fmt.Sprintf("confluence rejected credentials: %s", resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		b = errors.NewError(errors.CategoryNotFound, fmt.Sprintf("confluence resource not found: %s", resp.Status))
	case resp.StatusCode == http.StatusTooManyRequests:
		b = b.RateLimit()
	case resp.StatusCode >= 500:
		b = b.Retryable()
	}
	return b.
		WithContext("status", resp.StatusCode).
		WithContext("method", req.Method).
		WithContext("url", req.URL.String()).
		WithContext("response", body).
		Build()
}

// call runs one request under the retry policy. A fresh request is built
// for every attempt so bodies are never reused.
func (c *Client) call(ctx context.Context, operation, method, endpoint string, query url.Values, body, result any) error {
	return c.retry.Do(ctx, operation, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, method, endpoint, query, body)
		if err != nil {
			return err
		}
		return c.do(req, result)
	})
}
