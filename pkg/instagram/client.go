package instagram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"igarchiver/pkg/config"
	errs "igarchiver/pkg/errors"
	"igarchiver/pkg/logger"
)

// Client is the HTTP fetch capability shared by profile extraction,
// pagination and asset downloads
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a client for the configured host. The timeout bounds
// every request; callers cancel earlier through the request context.
func NewClient(cfg config.InstagramConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURL
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
		},
		baseURL: baseURL,
		logger:  log,
	}
	if cfg.SessionID != "" {
		c.SetSession(cfg.SessionID, cfg.CSRFToken)
	}
	return c
}

// BaseURL returns the host every profile and pagination URL is built on
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetSession attaches the session cookies sent with every request
func (c *Client) SetSession(sessionID, csrfToken string) {
	cookie := "sessionid=" + sessionID
	if csrfToken != "" {
		cookie += "; csrftoken=" + csrfToken
		c.headers["X-CSRFToken"] = csrfToken
	}
	c.headers["Cookie"] = cookie
}

// Fetch performs a GET and returns the status code and body whatever the
// status. Only network and read failures produce an error, always a
// *errors.TransportError with status 0.
func (c *Client) Fetch(ctx context.Context, rawURL string, params url.Values) (int, []byte, error) {
	target := rawURL
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		target = rawURL + sep + params.Encode()
	}

	resp, err := c.get(ctx, target)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorWithFields("failed to read response body", map[string]interface{}{
			"url":   target,
			"error": err.Error(),
		})
		return 0, nil, &errs.TransportError{URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	return resp.StatusCode, body, nil
}

// Download fetches one asset. Any non-2xx status is a *errors.TransportError.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	status, body, err := c.Fetch(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if err := c.checkResponseStatus(rawURL, status); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("successfully downloaded asset", map[string]interface{}{
		"url":  rawURL,
		"size": len(body),
	})
	return body, nil
}

// get performs an HTTP request with the configured headers
func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &errs.TransportError{URL: target, Err: fmt.Errorf("create request: %w", err)}
	}
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    target,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      target,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.TransportError{URL: target, Err: err}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      target,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

// checkResponseStatus maps a non-2xx status to a transport error
func (c *Client) checkResponseStatus(target string, status int) error {
	if status >= 200 && status < 300 {
		return nil
	}

	fields := map[string]interface{}{
		"status": status,
		"url":    target,
	}
	switch {
	case status == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.logger.WarnWithFields("authentication required", fields)
	case status == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
	default:
		c.logger.ErrorWithFields("unexpected status", fields)
	}
	return &errs.TransportError{URL: target, Status: status}
}
