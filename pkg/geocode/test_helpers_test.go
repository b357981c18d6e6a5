package geocode

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newRewriteClient returns a client that sends requests under endpoint to srvURL instead,
// keeping path suffix and query.
func newRewriteClient(srvURL, endpoint string) *http.Client {
	return &http.Client{Transport: redirectTransport{srvURL: srvURL, endpoint: endpoint}}
}

type redirectTransport struct {
	srvURL   string
	endpoint string
}

func (t redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rest, ok := strings.CutPrefix(req.URL.String(), t.endpoint)
	if !ok {
		return http.DefaultTransport.RoundTrip(req)
	}
	target, err := url.Parse(t.srvURL + rest)
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.URL = target
	out.Host = target.Host
	return http.DefaultTransport.RoundTrip(out)
}
