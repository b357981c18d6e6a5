package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/listo-ph/listo/internal/resilience"
)

// ErrTooLarge is returned when a response exceeds HTTPOptions.MaxBytes.
var ErrTooLarge = eris.New("fetcher: response too large")

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBytes caps the response body. Zero means 32 MiB.
	MaxBytes int64
	Backoff  resilience.Backoff
	// Limiter throttles requests. Nil allows 5 per second.
	Limiter *rate.Limiter
}

// HTTPFetcher implements Fetcher using net/http with retry and rate limiting.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 32 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "listo/1.0"
	}
	if opts.Backoff.Notify == nil {
		opts.Backoff.Notify = resilience.LogRetries("fetcher", "download")
	}
	lim := opts.Limiter
	if lim == nil {
		lim = rate.NewLimiter(5, 5)
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: lim,
	}
}

// Download fetches rawURL, retrying network failures, 429 and 5xx responses.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (*Download, error) {
	return resilience.RetryValue(ctx, f.opts.Backoff, func(ctx context.Context) (*Download, error) {
		return f.get(ctx, rawURL)
	})
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (*Download, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: get %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("fetcher: get %s: status %d", rawURL, resp.StatusCode)
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resilience.Transient(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", rawURL)
	}
	if int64(len(body)) > f.opts.MaxBytes {
		return nil, eris.Wrapf(ErrTooLarge, "%s exceeds %d bytes", rawURL, f.opts.MaxBytes)
	}

	zap.L().Debug("fetcher: downloaded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(body)),
		zap.String("content_type", resp.Header.Get("Content-Type")),
	)
	return &Download{URL: rawURL, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}
