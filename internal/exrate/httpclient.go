package exrate

import (
	"log/slog"
	"time"

	"resty.dev/v3"
)

const (
	// DefaultTimeout bounds a single request; there is no retry after it fires
	DefaultTimeout = 30 * time.Second

	acceptTabular = "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet;q=0.9, */*;q=0.1"
)

// NewHTTPClient creates an HTTP client for tabular rate sources.
// Retries are disabled: a failure surfaces to the caller immediately.
func NewHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", acceptTabular).
		SetRetryCount(0).
		AddResponseMiddleware(responseLogger)

	return client
}

// responseLogger logs every completed response for observability
func responseLogger(_ *resty.Client, r *resty.Response) error {
	slog.Debug("rate source responded",
		"method", r.Request.Method,
		"url", r.Request.URL,
		"status_code", r.StatusCode(),
		"content_type", r.Header().Get("Content-Type"))
	return nil
}
