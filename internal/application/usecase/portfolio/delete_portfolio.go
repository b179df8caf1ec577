package portfolio

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

type DeletePortfolioUseCase struct {
	repo    portfolio.Repository
	mutator *Mutator
	logger  logger.Logger
}

func NewDeletePortfolioUseCase(repo portfolio.Repository, mutator *Mutator, log logger.Logger) *DeletePortfolioUseCase {
	return &DeletePortfolioUseCase{repo: repo, mutator: mutator, logger: log}
}

type DeletePortfolioInput struct {
	UserID uuid.UUID
}

// Execute hard-deletes the portfolio. The owning user is kept.
func (uc *DeletePortfolioUseCase) Execute(ctx context.Context, input DeletePortfolioInput) error {
	p, err := uc.repo.FindByUserID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, input.UserID); err != nil {
		return err
	}

	uc.logger.Info("Portfolio deleted", zap.String("user_id", input.UserID.String()), zap.String("slug", p.Slug))
	uc.mutator.refresh(ctx, service.PortfolioDeleted, input.UserID, "", p.Slug)
	return nil
}
