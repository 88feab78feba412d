// Package legistar issues paginated requests against a city's Legistar
// web API and classifies failures. The client never retries; retry
// policy lives with the orchestrator so pagination and transport
// concerns stay independently testable.
package legistar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/solo800/civic-stream/internal/matter"
)

// orderBy keeps "recent matters first" semantics consistent across
// deployments.
const orderBy = "MatterIntroDate desc"

// Options configures the client.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond throttles politeness against the shared
	// Legistar host. Zero uses the default.
	RequestsPerSecond float64
}

// Client is a thin HTTP client for Legistar matters endpoints.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// Page is one page of raw matters. URL is the exact request URL that
// produced the items, recorded on every normalized record. HasMore is
// false once the source is exhausted.
type Page struct {
	Items   []matter.Raw
	URL     string
	HasMore bool
}

// NewClient creates a client with a bounded request timeout.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "civic-stream/1.0"
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 5
	}
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		userAgent: opts.UserAgent,
	}
}

// PageURL builds the request URL for one page of matters.
func PageURL(baseURL, token string, offset, pageSize int) string {
	q := url.Values{}
	q.Set("$skip", strconv.Itoa(offset))
	q.Set("$top", strconv.Itoa(pageSize))
	q.Set("$orderby", orderBy)
	if token != "" {
		q.Set("token", token)
	}
	return baseURL + "/matters?" + q.Encode()
}

// FetchPage requests one page of matters. Classification:
// 200 with a JSON array is success (an empty or short page means the
// source is exhausted); 401/403 is AuthError; 404 is UpstreamError;
// any other non-2xx status, a transport failure, or a timeout is
// NetworkError.
func (c *Client) FetchPage(ctx context.Context, baseURL, token string, offset, pageSize int) (Page, error) {
	pageURL := PageURL(baseURL, token, offset, pageSize)
	page := Page{URL: pageURL}

	if err := c.limiter.Wait(ctx); err != nil {
		return page, eris.Wrap(err, "legistar: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return page, eris.Wrap(err, "legistar: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	zap.L().Debug("fetching page",
		zap.String("component", "legistar.client"),
		zap.Int("offset", offset),
		zap.Int("page_size", pageSize),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return page, &NetworkError{Err: err, URL: pageURL}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return page, &AuthError{StatusCode: resp.StatusCode, URL: pageURL}
	case resp.StatusCode == http.StatusNotFound:
		return page, &UpstreamError{StatusCode: resp.StatusCode, URL: pageURL, Detail: "city code or endpoint path is wrong"}
	default:
		return page, &NetworkError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var items []matter.Raw
	if err := dec.Decode(&items); err != nil {
		// A 200 that is not a JSON array is almost always an HTML
		// landing page behind a wrong endpoint, not a flaky response.
		return page, &UpstreamError{StatusCode: resp.StatusCode, URL: pageURL, Detail: "response is not a JSON array: " + err.Error()}
	}

	page.Items = items
	page.HasMore = len(items) == pageSize
	return page, nil
}
