// Package webfetch performs outbound HTTP requests on behalf of users: link
// previews and the resume download proxy. Destinations are user supplied,
// so production clients refuse private, loopback and metadata addresses.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/khoahotran/folio/pkg/apperror"
)

const userAgent = "folio-preview/1.0"

// NewSafeClient returns an http.Client that resolves and checks every
// destination IP before dialing, redirects included.
func NewSafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(cfg).Client
}

func newRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperror.NewValidation("url", "Please enter a valid URL")
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

func mapTransportError(target string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewUpstreamTimeout(fmt.Sprintf("GET %s timed out", target), err)
	}
	return apperror.NewInternal(fmt.Sprintf("GET %s failed", target), err)
}
