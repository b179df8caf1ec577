package preview

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

const DefaultTimeout = 10 * time.Second

// FetchPreviewUseCase scrapes title, description and images for a link. A
// slow or broken site yields a bare preview, never an error.
type FetchPreviewUseCase struct {
	fetcher service.LinkPreviewFetcher
	timeout time.Duration
	metrics metrics.Recorder
	logger  logger.Logger
}

func NewFetchPreviewUseCase(f service.LinkPreviewFetcher, timeout time.Duration, rec metrics.Recorder, log logger.Logger) *FetchPreviewUseCase {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &FetchPreviewUseCase{fetcher: f, timeout: timeout, metrics: rec, logger: log}
}

type FetchPreviewInput struct {
	URL string
}

type FetchPreviewOutput struct {
	Preview *service.LinkPreview
}

func (uc *FetchPreviewUseCase) Execute(ctx context.Context, input FetchPreviewInput) (*FetchPreviewOutput, error) {
	target, err := parseTarget(input.URL)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	p, err := uc.fetcher.FetchPreview(fetchCtx, target)
	if err != nil {
		reason := "fetch"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, apperror.ErrUpstreamTimeout) {
			reason = "timeout"
		}
		uc.metrics.PreviewFailed(reason)
		uc.logger.Warn("Link preview degraded", zap.String("url", target), zap.String("reason", reason), zap.Error(err))
		return &FetchPreviewOutput{Preview: &service.LinkPreview{URL: target}}, nil
	}
	if p == nil {
		p = &service.LinkPreview{}
	}
	p.URL = target
	return &FetchPreviewOutput{Preview: p}, nil
}

func parseTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperror.NewValidation("url", "Please enter a valid URL")
	}
	return u.String(), nil
}
