package portfolio

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type CreatePortfolioUseCase struct {
	repo      portfolio.Repository
	allocator *SlugAllocator
	mutator   *Mutator
	logger    logger.Logger
}

func NewCreatePortfolioUseCase(repo portfolio.Repository, allocator *SlugAllocator, mutator *Mutator, log logger.Logger) *CreatePortfolioUseCase {
	return &CreatePortfolioUseCase{repo: repo, allocator: allocator, mutator: mutator, logger: log}
}

type CreatePortfolioInput struct {
	UserID      uuid.UUID
	Slug        string
	DisplayName string
}

type CreatePortfolioOutput struct {
	Portfolio *portfolio.Portfolio
}

func (uc *CreatePortfolioUseCase) Execute(ctx context.Context, input CreatePortfolioInput) (*CreatePortfolioOutput, error) {
	slug, err := portfolio.NormalizeSlug(input.Slug)
	if err != nil {
		return nil, err
	}
	displayName := portfolio.SanitizeText(input.DisplayName)
	if err := portfolio.ValidateProfile(portfolio.Profile{DisplayName: displayName}); err != nil {
		return nil, err
	}

	if _, err := uc.repo.FindByUserID(ctx, input.UserID); err == nil {
		return nil, apperror.NewConflict("portfolio", "user", input.UserID.String())
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	p := portfolio.New(input.UserID, slug, displayName)
	if err := uc.insert(ctx, p); err != nil {
		return nil, err
	}
	return &CreatePortfolioOutput{Portfolio: p}, nil
}

// insert reserves the slug and writes p. Shared with the profile mutator,
// which creates the portfolio on first save.
func (uc *CreatePortfolioUseCase) insert(ctx context.Context, p *portfolio.Portfolio) error {
	if err := uc.allocator.Reserve(ctx, p.Slug, p.UserID); err != nil {
		if errors.Is(err, apperror.ErrSlugTaken) {
			uc.mutator.metrics.SlugConflict()
		}
		return err
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		if errors.Is(err, apperror.ErrSlugTaken) {
			uc.mutator.metrics.SlugConflict()
		}
		return err
	}

	uc.logger.Info("Portfolio created", zap.String("user_id", p.UserID.String()), zap.String("slug", p.Slug))
	uc.mutator.refresh(ctx, service.PortfolioCreated, p.UserID, "", p.Slug)
	return nil
}
