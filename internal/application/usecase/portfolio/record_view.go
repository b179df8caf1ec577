package portfolio

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

const viewRecordTimeout = 5 * time.Second

// DirectViewRecorder increments the counter in storage from a detached
// goroutine. Used when no broker is configured.
type DirectViewRecorder struct {
	repo    portfolio.Repository
	metrics metrics.Recorder
	logger  logger.Logger
}

func NewDirectViewRecorder(repo portfolio.Repository, rec metrics.Recorder, log logger.Logger) *DirectViewRecorder {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &DirectViewRecorder{repo: repo, metrics: rec, logger: log}
}

var _ service.ViewRecorder = (*DirectViewRecorder)(nil)

func (r *DirectViewRecorder) RecordView(ctx context.Context, slug string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), viewRecordTimeout)
		defer cancel()
		if err := r.repo.IncrementViews(ctx, slug); err != nil {
			r.metrics.ViewRecordFailed()
			r.logger.Warn("Failed to record view", zap.String("slug", slug), zap.Error(err))
			return
		}
		r.metrics.ViewRecorded()
	}()
}

// ProcessViewEventUseCase applies view events consumed by the worker.
type ProcessViewEventUseCase struct {
	repo    portfolio.Repository
	metrics metrics.Recorder
	logger  logger.Logger
}

func NewProcessViewEventUseCase(repo portfolio.Repository, rec metrics.Recorder, log logger.Logger) *ProcessViewEventUseCase {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &ProcessViewEventUseCase{repo: repo, metrics: rec, logger: log}
}

// Execute returns an error only when the event should be retried. Views
// for portfolios that were unpublished or deleted meanwhile are dropped.
func (uc *ProcessViewEventUseCase) Execute(ctx context.Context, evt service.ViewEvent) error {
	err := uc.repo.IncrementViews(ctx, evt.Slug)
	if err == nil {
		uc.metrics.ViewRecorded()
		return nil
	}
	uc.metrics.ViewRecordFailed()
	if errors.Is(err, apperror.ErrNotFound) {
		uc.logger.Debug("Dropping view for unavailable portfolio", zap.String("slug", evt.Slug))
		return nil
	}
	return err
}

// ProcessPortfolioEventUseCase purges cached public views named by a change event.
type ProcessPortfolioEventUseCase struct {
	cache  service.PortfolioCache
	logger logger.Logger
}

func NewProcessPortfolioEventUseCase(cache service.PortfolioCache, log logger.Logger) *ProcessPortfolioEventUseCase {
	return &ProcessPortfolioEventUseCase{cache: cache, logger: log}
}

func (uc *ProcessPortfolioEventUseCase) Execute(ctx context.Context, evt service.PortfolioEvent) error {
	if len(evt.Slugs) == 0 {
		return nil
	}
	if err := uc.cache.Invalidate(ctx, evt.Slugs...); err != nil {
		return apperror.NewInternal("failed to purge public cache", err)
	}
	uc.logger.Debug("Purged public cache", zap.String("event_type", string(evt.EventType)), zap.Strings("slugs", evt.Slugs))
	return nil
}
