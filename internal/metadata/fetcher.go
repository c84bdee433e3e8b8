package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	// browserUserAgent is sent so invite pages render their preview tags
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxRedirects     = 10
	maxBodyBytes     = 1 << 20 // 1MB
)

// StatusError is returned for any non-2xx response
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Fetcher loads live metadata for a link
type Fetcher interface {
	Fetch(ctx context.Context, link string) (Metadata, error)
}

// HTTPFetcher GETs the link and parses the returned page
type HTTPFetcher struct {
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
	validate func(string) error
	dialOK   func(string) error
	logger   *zap.Logger
}

// FetcherOption configures an HTTPFetcher
type FetcherOption func(*HTTPFetcher)

// WithURLValidator replaces ValidateURL as the guard applied to the link and
// to every redirect target
func WithURLValidator(validate func(string) error) FetcherOption {
	return func(f *HTTPFetcher) {
		f.validate = validate
	}
}

// WithDialGuard replaces GuardAddress as the check applied to every resolved
// address before a connection is made
func WithDialGuard(guard func(address string) error) FetcherOption {
	return func(f *HTTPFetcher) {
		f.dialOK = guard
	}
}

// WithTransport sets the round tripper used by the underlying client
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client.Transport = rt
	}
}

func NewHTTPFetcher(timeout time.Duration, logger *zap.Logger, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		validate: ValidateURL,
		dialOK:   GuardAddress,
		logger:   logger.Named("fetcher"),
	}
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			return f.dialOK(address)
		},
	}
	f.client = &http.Client{
		Timeout: timeout,
		// No proxy: the dial guard must see the real destination
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		// Limit redirects to prevent infinite loops
		if len(via) >= maxRedirects {
			return fmt.Errorf("too many redirects")
		}
		return f.validate(req.URL.String())
	}
	f.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "MetadataFetcher",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: remoteHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, link string) (Metadata, error) {
	if err := f.validate(link); err != nil {
		return Metadata{}, err
	}
	res, err := f.cb.Execute(func() (interface{}, error) {
		return f.fetch(ctx, link)
	})
	if err != nil {
		return Metadata{}, err
	}
	return res.(Metadata), nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, link string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Metadata{}, &StatusError{StatusCode: resp.StatusCode}
	}
	return Parse(io.LimitReader(resp.Body, maxBodyBytes))
}

// remoteHealthy reports whether err leaves the remote's health untouched.
// Pages without preview tags, refused redirects and client errors do not
// count toward tripping the breaker.
func remoteHealthy(err error) bool {
	if err == nil || errors.Is(err, ErrNoMetadata) || errors.Is(err, ErrURLNotAllowed) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode < 500
}
