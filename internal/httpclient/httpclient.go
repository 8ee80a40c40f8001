// Package httpclient builds the HTTP client shared by the provider adapters
// and the archive client: bounded per-request timeout, retries on connection
// errors and 5xx responses with backoff.
package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// New returns an HTTP client with retries and an overall per-request
// timeout. The returned client has the stdlib http.Client interface with
// retryablehttp logic internally, so it drops into any client code.
func New(timeout time.Duration, logger *slog.Logger) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: logger})

	client := retryClient.StandardClient()
	client.Timeout = timeout
	return client
}

type leveledSlog struct {
	inner *slog.Logger
}

// Intermediate retry failures are expected, so client ERRORs log at WARN.
func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}
