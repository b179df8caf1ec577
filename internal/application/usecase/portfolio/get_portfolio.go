package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/portfolio"
)

type GetMyPortfolioUseCase struct {
	repo portfolio.Repository
}

func NewGetMyPortfolioUseCase(repo portfolio.Repository) *GetMyPortfolioUseCase {
	return &GetMyPortfolioUseCase{repo: repo}
}

type GetMyPortfolioInput struct {
	UserID uuid.UUID
}

type GetMyPortfolioOutput struct {
	Portfolio *portfolio.Portfolio
}

// Execute returns the owner's full document. Legacy items without ids come
// back keyed by position so edits keep their hidden state. Hidden keys whose
// item is gone are left out of the response; storage drops them on the next
// hidden-items save.
func (uc *GetMyPortfolioUseCase) Execute(ctx context.Context, input GetMyPortfolioInput) (*GetMyPortfolioOutput, error) {
	p, err := uc.repo.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	p.Content = p.Content.WithItemKeys()
	p.HiddenItems = portfolio.PruneHiddenItems(p.Content, p.HiddenItems)
	return &GetMyPortfolioOutput{Portfolio: p}, nil
}

type ExportPortfolioUseCase struct {
	repo portfolio.Repository
}

func NewExportPortfolioUseCase(repo portfolio.Repository) *ExportPortfolioUseCase {
	return &ExportPortfolioUseCase{repo: repo}
}

type ExportPortfolioInput struct {
	UserID uuid.UUID
}

type ExportedPortfolio struct {
	Slug        string                `json:"slug"`
	Content     portfolio.Content     `json:"content"`
	ThemeConfig portfolio.ThemeConfig `json:"themeConfig"`
}

type ExportDocument struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Portfolio  ExportedPortfolio `json:"portfolio"`
}

type ExportPortfolioOutput struct {
	Document ExportDocument
	Filename string
}

// Execute returns the raw, unfiltered content: hidden items are included.
func (uc *ExportPortfolioUseCase) Execute(ctx context.Context, input ExportPortfolioInput) (*ExportPortfolioOutput, error) {
	p, err := uc.repo.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return &ExportPortfolioOutput{
		Document: ExportDocument{
			ExportedAt: time.Now().UTC(),
			Portfolio: ExportedPortfolio{
				Slug:        p.Slug,
				Content:     p.Content,
				ThemeConfig: p.ThemeConfig,
			},
		},
		Filename: fmt.Sprintf("portfolio-%s-export.json", p.Slug),
	}, nil
}
