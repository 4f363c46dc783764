// Package fetch provides the HTTP client used by the remote extractors.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/logger"
)

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 30 * time.Second

// userAgent is sent with every request; some sites reject Go's default.
const userAgent = "Mozilla/5.0 (compatible; ragify/1.0; +https://github.com/ragify/ragify)"

// maxBodySize caps downloaded pages and transcripts.
const maxBodySize = 32 << 20

// Options configures the client.
type Options struct {
	// Timeout bounds each request.
	Timeout time.Duration

	// Retries is the number of retries after a failed attempt.
	Retries int

	// RetryWait is the initial wait between retries.
	RetryWait time.Duration
}

// NewClient creates a resty client for fetching pages and transcripts.
func NewClient(opts Options) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(10 * opts.RetryWait).
		SetResponseBodyLimit(maxBodySize)

	client.AddRetryCondition(retryCondition)
	return client
}

// retryCondition retries network errors and transient statuses.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// Response is a successfully fetched body.
type Response struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Get fetches url. Network failures and non-2xx statuses are reported as
// domain.ErrFetchFailed.
func Get(ctx context.Context, client *resty.Client, url string, headers map[string]string) (*Response, error) {
	logger.Debug("fetch: GET %s", url)

	resp, err := client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetchFailed, url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrFetchFailed, url, resp.StatusCode())
	}

	final := url
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		final = resp.RawResponse.Request.URL.String()
	}

	return &Response{
		Body:        resp.Body(),
		ContentType: resp.Header().Get("Content-Type"),
		FinalURL:    final,
	}, nil
}
