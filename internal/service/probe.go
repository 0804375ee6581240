package service

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Prober performs a single liveness check against an endpoint. Connection
// errors, timeouts and non-success statuses all fold into false; a probe
// never returns an error.
type Prober interface {
	Check(ctx context.Context, url string) bool
}

// HTTPProbe is the production Prober: one GET per check, bounded by a
// per-call timeout so a hung service can never stall a polling tick past its
// cadence.
type HTTPProbe struct {
	client *http.Client
}

func NewHTTPProbe(timeout time.Duration) HTTPProbe {
	return HTTPProbe{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

func (p HTTPProbe) Check(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	// redirects are followed by the client, so anything below 400 counts
	return resp.StatusCode < http.StatusBadRequest
}
