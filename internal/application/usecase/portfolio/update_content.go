package portfolio

import (
	"context"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/portfolio"
)

// ContentUseCase replaces whole content sections. Each call is last write
// wins for its own section only.
type ContentUseCase struct {
	mutator *Mutator
}

func NewContentUseCase(mutator *Mutator) *ContentUseCase {
	return &ContentUseCase{mutator: mutator}
}

type UpdateExperienceInput struct {
	UserID uuid.UUID
	Items  []portfolio.Experience
}

type UpdateProjectsInput struct {
	UserID uuid.UUID
	Items  []portfolio.Project
}

type UpdateCertificationsInput struct {
	UserID uuid.UUID
	Items  []portfolio.Certification
}

type UpdateAssetInput struct {
	UserID uuid.UUID
	URL    string
}

type UpdateContentOutput struct {
	Portfolio *portfolio.Portfolio
}

func (uc *ContentUseCase) ExecuteUpdateExperience(ctx context.Context, input UpdateExperienceInput) (*UpdateContentOutput, error) {
	items := portfolio.SanitizeExperience(input.Items)
	if err := portfolio.ValidateExperience(items); err != nil {
		return nil, err
	}
	return uc.replace(ctx, input.UserID, portfolio.FieldExperience, func(p *portfolio.Portfolio) any {
		p.Content.Experience = portfolio.AssignExperienceIDs(p.Content.Experience, items)
		return p.Content.Experience
	})
}

func (uc *ContentUseCase) ExecuteUpdateProjects(ctx context.Context, input UpdateProjectsInput) (*UpdateContentOutput, error) {
	items := portfolio.SanitizeProjects(input.Items)
	if err := portfolio.ValidateProjects(items); err != nil {
		return nil, err
	}
	return uc.replace(ctx, input.UserID, portfolio.FieldProjects, func(p *portfolio.Portfolio) any {
		p.Content.Projects = portfolio.AssignProjectIDs(p.Content.Projects, items)
		return p.Content.Projects
	})
}

func (uc *ContentUseCase) ExecuteUpdateCertifications(ctx context.Context, input UpdateCertificationsInput) (*UpdateContentOutput, error) {
	items := portfolio.SanitizeCertifications(input.Items)
	if err := portfolio.ValidateCertifications(items); err != nil {
		return nil, err
	}
	return uc.replace(ctx, input.UserID, portfolio.FieldCertifications, func(p *portfolio.Portfolio) any {
		p.Content.Certifications = portfolio.AssignCertificationIDs(p.Content.Certifications, items)
		return p.Content.Certifications
	})
}

func (uc *ContentUseCase) ExecuteUpdateAvatar(ctx context.Context, input UpdateAssetInput) (*UpdateContentOutput, error) {
	if err := portfolio.ValidateAssetURL(portfolio.FieldAvatar, input.URL); err != nil {
		return nil, err
	}
	return uc.replace(ctx, input.UserID, portfolio.FieldAvatar, func(p *portfolio.Portfolio) any {
		p.Content.Avatar = input.URL
		return input.URL
	})
}

func (uc *ContentUseCase) ExecuteUpdateResume(ctx context.Context, input UpdateAssetInput) (*UpdateContentOutput, error) {
	if err := portfolio.ValidateAssetURL(portfolio.FieldResume, input.URL); err != nil {
		return nil, err
	}
	return uc.replace(ctx, input.UserID, portfolio.FieldResume, func(p *portfolio.Portfolio) any {
		p.Content.Resume = input.URL
		return input.URL
	})
}

func (uc *ContentUseCase) replace(ctx context.Context, userID uuid.UUID, field string, set func(p *portfolio.Portfolio) any) (*UpdateContentOutput, error) {
	updated, err := uc.mutator.apply(ctx, userID, field, func(p *portfolio.Portfolio) (portfolio.Changes, error) {
		return portfolio.Changes{Content: map[string]any{field: set(p)}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateContentOutput{Portfolio: updated}, nil
}
