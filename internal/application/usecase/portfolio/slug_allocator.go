package portfolio

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

// SlugAllocator answers whether a slug is free. Its answers are advisory:
// the unique index on slug decides at write time.
type SlugAllocator struct {
	repo portfolio.Repository
}

func NewSlugAllocator(repo portfolio.Repository) *SlugAllocator {
	return &SlugAllocator{repo: repo}
}

// IsAvailable reports whether slug is unheld or held by excludingUserID.
// slug must already be normalized.
func (a *SlugAllocator) IsAvailable(ctx context.Context, slug string, excludingUserID uuid.UUID) (bool, error) {
	holder, err := a.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return holder.UserID == excludingUserID, nil
}

// Reserve re-checks availability right before a slug-setting write.
func (a *SlugAllocator) Reserve(ctx context.Context, slug string, userID uuid.UUID) error {
	ok, err := a.IsAvailable(ctx, slug, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewSlugTaken(slug)
	}
	return nil
}

type CheckSlugInput struct {
	UserID uuid.UUID
	Slug   string
}

type CheckSlugOutput struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Check is the dashboard's live availability probe. Malformed slugs are
// reported as unavailable rather than as errors.
func (a *SlugAllocator) Check(ctx context.Context, input CheckSlugInput) (*CheckSlugOutput, error) {
	slug, err := portfolio.NormalizeSlug(input.Slug)
	if err != nil {
		var appErr *apperror.AppError
		reason := "invalid username"
		if errors.As(err, &appErr) {
			reason = appErr.Message
		}
		return &CheckSlugOutput{Slug: input.Slug, Available: false, Reason: reason}, nil
	}

	ok, err := a.IsAvailable(ctx, slug, input.UserID)
	if err != nil {
		return nil, err
	}
	out := &CheckSlugOutput{Slug: slug, Available: ok}
	if !ok {
		out.Reason = "This username is already taken"
	}
	return out, nil
}
