package portfolio

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

// SettingsUseCase covers theme, visibility and publishing.
type SettingsUseCase struct {
	mutator *Mutator
}

func NewSettingsUseCase(mutator *Mutator) *SettingsUseCase {
	return &SettingsUseCase{mutator: mutator}
}

type UpdateThemeInput struct {
	UserID uuid.UUID
	Theme  portfolio.ThemeConfig
}

type UpdateSectionVisibilityInput struct {
	UserID     uuid.UUID
	Visibility portfolio.SectionVisibility
}

type UpdateHiddenItemsInput struct {
	UserID uuid.UUID
	Hidden map[string][]string
}

type TogglePublishInput struct {
	UserID uuid.UUID
}

type UpdateSettingsOutput struct {
	Portfolio *portfolio.Portfolio
}

func (uc *SettingsUseCase) ExecuteUpdateTheme(ctx context.Context, input UpdateThemeInput) (*UpdateSettingsOutput, error) {
	theme := input.Theme
	if theme.Mode == "" {
		theme.Mode = portfolio.ModeSystem
	}
	if err := portfolio.ValidateTheme(theme); err != nil {
		return nil, err
	}
	return uc.run(ctx, input.UserID, "themeConfig", func(p *portfolio.Portfolio) (portfolio.Changes, error) {
		p.ThemeConfig = theme
		return portfolio.Changes{ThemeConfig: &theme}, nil
	})
}

func (uc *SettingsUseCase) ExecuteUpdateSectionVisibility(ctx context.Context, input UpdateSectionVisibilityInput) (*UpdateSettingsOutput, error) {
	vis := input.Visibility
	return uc.run(ctx, input.UserID, "sectionVisibility", func(p *portfolio.Portfolio) (portfolio.Changes, error) {
		p.SectionVisibility = vis
		return portfolio.Changes{SectionVisibility: &vis}, nil
	})
}

func (uc *SettingsUseCase) ExecuteUpdateHiddenItems(ctx context.Context, input UpdateHiddenItemsInput) (*UpdateSettingsOutput, error) {
	hidden := make(portfolio.HiddenItems, len(input.Hidden))
	for name, keys := range input.Hidden {
		section := portfolio.Section(name)
		if !section.Valid() {
			return nil, apperror.NewValidation("hiddenItems."+name, fmt.Sprintf("Unknown section '%s'", name))
		}
		hidden[section] = keys
	}

	return uc.run(ctx, input.UserID, "hiddenItems", func(p *portfolio.Portfolio) (portfolio.Changes, error) {
		p.HiddenItems = portfolio.PruneHiddenItems(p.Content, hidden)
		return portfolio.Changes{HiddenItems: p.HiddenItems}, nil
	})
}

func (uc *SettingsUseCase) ExecuteTogglePublish(ctx context.Context, input TogglePublishInput) (*UpdateSettingsOutput, error) {
	return uc.run(ctx, input.UserID, "isPublished", func(p *portfolio.Portfolio) (portfolio.Changes, error) {
		published := !p.IsPublished
		p.IsPublished = published
		return portfolio.Changes{IsPublished: &published}, nil
	})
}

func (uc *SettingsUseCase) run(ctx context.Context, userID uuid.UUID, section string, change changeFunc) (*UpdateSettingsOutput, error) {
	updated, err := uc.mutator.apply(ctx, userID, section, change)
	if err != nil {
		return nil, err
	}
	return &UpdateSettingsOutput{Portfolio: updated}, nil
}
