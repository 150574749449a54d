package connectivity

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Checker reports whether the remote service is reachable.
type Checker interface {
	CheckConnection(ctx context.Context) bool
}

// Probe checks reachability with a GET to a lightweight endpoint.
type Probe struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewProbe returns a probe for serverURL+path. Each check is bounded by
// timeout.
func NewProbe(serverURL, path string, timeout time.Duration) *Probe {
	return &Probe{
		url:     strings.TrimRight(serverURL, "/") + path,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// CheckConnection reports true for any HTTP response below 500. Transport
// errors, timeouts and 5xx answers mean unreachable.
func (p *Probe) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode < http.StatusInternalServerError
}
