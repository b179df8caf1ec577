package portfolio

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
	"github.com/khoahotran/folio/pkg/tracing"
)

// GetPublicPortfolioUseCase renders the visitor page for a slug and counts
// the visit.
type GetPublicPortfolioUseCase struct {
	repo     portfolio.Repository
	userRepo user.Repository
	cache    service.PortfolioCache
	views    service.ViewRecorder
	metrics  metrics.Recorder
	logger   logger.Logger
	tracer   trace.Tracer
}

func NewGetPublicPortfolioUseCase(
	repo portfolio.Repository,
	userRepo user.Repository,
	cache service.PortfolioCache,
	views service.ViewRecorder,
	rec metrics.Recorder,
	log logger.Logger,
) *GetPublicPortfolioUseCase {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &GetPublicPortfolioUseCase{
		repo:     repo,
		userRepo: userRepo,
		cache:    cache,
		views:    views,
		metrics:  rec,
		logger:   log,
		tracer:   tracing.Tracer("folio/usecase/portfolio"),
	}
}

type GetPublicPortfolioInput struct {
	Slug string
}

type GetPublicPortfolioOutput struct {
	Portfolio *service.PublicPortfolio
}

func (uc *GetPublicPortfolioUseCase) Execute(ctx context.Context, input GetPublicPortfolioInput) (*GetPublicPortfolioOutput, error) {
	ctx, span := uc.tracer.Start(ctx, "GetPublicPortfolio")
	defer span.End()

	slug, err := portfolio.NormalizeSlug(input.Slug)
	if err != nil {
		return nil, apperror.NewNotFound("portfolio", input.Slug)
	}
	span.SetAttributes(attribute.String("portfolio.slug", slug))

	// The version is read before storage so an unpublish or edit that lands
	// during this render turns the cache fill below into a no-op.
	cacheable := false
	var version int64
	if uc.cache != nil {
		if view, ok := uc.cache.Get(ctx, slug); ok {
			uc.metrics.CacheResult(true)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			uc.recordView(ctx, slug)
			return &GetPublicPortfolioOutput{Portfolio: view}, nil
		}
		uc.metrics.CacheResult(false)

		if version, err = uc.cache.Version(ctx, slug); err != nil {
			uc.logger.Warn("Failed to read public cache version", zap.String("slug", slug), zap.Error(err))
		} else {
			cacheable = true
		}
	}

	p, err := uc.repo.GetPublic(ctx, slug)
	if err != nil {
		return nil, err
	}

	view := &service.PublicPortfolio{
		Slug:        p.Slug,
		ThemeConfig: p.ThemeConfig,
		Content:     portfolio.PublicView(p.Content, p.SectionVisibility, p.HiddenItems),
		Views:       p.Views,
		UpdatedAt:   p.UpdatedAt,
	}
	if owner, err := uc.userRepo.FindByID(ctx, p.UserID); err != nil {
		uc.logger.Warn("Failed to load portfolio owner", zap.String("slug", slug), zap.Error(err))
	} else {
		view.OwnerName = owner.Name
		view.OwnerImage = owner.AvatarURL
	}

	if cacheable {
		stored, err := uc.cache.Set(ctx, slug, version, view)
		switch {
		case err != nil:
			uc.logger.Warn("Failed to cache public portfolio", zap.String("slug", slug), zap.Error(err))
		case !stored:
			uc.logger.Debug("Skipped caching superseded public view", zap.String("slug", slug))
		}
	}

	uc.recordView(ctx, slug)
	return &GetPublicPortfolioOutput{Portfolio: view}, nil
}

func (uc *GetPublicPortfolioUseCase) recordView(ctx context.Context, slug string) {
	if uc.views != nil {
		uc.views.RecordView(ctx, slug)
	}
}
