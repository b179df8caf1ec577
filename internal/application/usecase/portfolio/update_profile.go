package portfolio

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

// UpdateProfileUseCase saves the profile form. The first save creates the
// portfolio; later saves may move it to a new slug.
type UpdateProfileUseCase struct {
	repo      portfolio.Repository
	allocator *SlugAllocator
	mutator   *Mutator
	creator   *CreatePortfolioUseCase
}

func NewUpdateProfileUseCase(repo portfolio.Repository, allocator *SlugAllocator, mutator *Mutator, creator *CreatePortfolioUseCase) *UpdateProfileUseCase {
	return &UpdateProfileUseCase{repo: repo, allocator: allocator, mutator: mutator, creator: creator}
}

type UpdateProfileInput struct {
	UserID      uuid.UUID
	Slug        string
	DisplayName string
	Headline    string
	Bio         string
	Skills      []string
	SocialLinks map[string]string
}

type UpdateProfileOutput struct {
	Portfolio *portfolio.Portfolio
	Created   bool
}

func (uc *UpdateProfileUseCase) Execute(ctx context.Context, input UpdateProfileInput) (*UpdateProfileOutput, error) {
	slug, err := portfolio.NormalizeSlug(input.Slug)
	if err != nil {
		return nil, err
	}
	prof := portfolio.Profile{
		DisplayName: portfolio.SanitizeText(input.DisplayName),
		Headline:    portfolio.SanitizeText(input.Headline),
		Bio:         portfolio.SanitizeText(input.Bio),
		Skills:      portfolio.NormalizeSkills(input.Skills),
	}
	if err := portfolio.ValidateProfile(prof); err != nil {
		return nil, err
	}
	links := portfolio.NormalizeSocialLinks(input.SocialLinks)
	if err := portfolio.ValidateSocialLinks(links); err != nil {
		return nil, err
	}

	_, err = uc.repo.FindByUserID(ctx, input.UserID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		p := portfolio.New(input.UserID, slug, prof.DisplayName)
		p.Content.Headline = prof.Headline
		p.Content.Bio = prof.Bio
		p.Content.Skills = prof.Skills
		p.Content.SocialLinks = links
		err := uc.creator.insert(ctx, p)
		if err == nil {
			return &UpdateProfileOutput{Portfolio: p, Created: true}, nil
		}
		if !uc.createdConcurrently(ctx, input.UserID, slug, err) {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	updated, err := uc.mutator.apply(ctx, input.UserID, "profile", func(p *portfolio.Portfolio) (portfolio.Changes, error) {
		var ch portfolio.Changes
		if slug != p.Slug {
			if err := uc.allocator.Reserve(ctx, slug, input.UserID); err != nil {
				if errors.Is(err, apperror.ErrSlugTaken) {
					uc.mutator.metrics.SlugConflict()
				}
				return ch, err
			}
			ch.Slug = &slug
			p.Slug = slug
		}

		p.Content.DisplayName = prof.DisplayName
		p.Content.Headline = prof.Headline
		p.Content.Bio = prof.Bio
		p.Content.Skills = prof.Skills
		p.Content.SocialLinks = links
		ch.Content = map[string]any{
			portfolio.FieldDisplayName: prof.DisplayName,
			portfolio.FieldHeadline:    prof.Headline,
			portfolio.FieldBio:         prof.Bio,
			portfolio.FieldSkills:      prof.Skills,
			portfolio.FieldSocialLinks: links,
		}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateProfileOutput{Portfolio: updated}, nil
}

// createdConcurrently reports whether insertErr came from another first save
// for the same user winning the race, in which case this save becomes an
// update. Either unique index may report the collision.
func (uc *UpdateProfileUseCase) createdConcurrently(ctx context.Context, userID uuid.UUID, slug string, insertErr error) bool {
	switch {
	case errors.Is(insertErr, apperror.ErrConflict):
		return true
	case errors.Is(insertErr, apperror.ErrSlugTaken):
		existing, err := uc.repo.FindByUserID(ctx, userID)
		return err == nil && existing.Slug == slug
	}
	return false
}
