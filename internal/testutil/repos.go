// Package testutil holds in-memory collaborators for use case and handler
// tests. The repositories enforce the same uniqueness rules as the real
// stores' indexes.
package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
)

type PortfolioRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*portfolio.Portfolio

	// IncrementErr, when set, fails every IncrementViews call.
	IncrementErr error
}

func NewPortfolioRepo() *PortfolioRepo {
	return &PortfolioRepo{byUser: map[uuid.UUID]*portfolio.Portfolio{}}
}

var _ portfolio.Repository = (*PortfolioRepo)(nil)

func (r *PortfolioRepo) Create(_ context.Context, p *portfolio.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[p.UserID]; ok {
		return apperror.NewConflict("portfolio", "user_id", p.UserID.String())
	}
	if r.slugHolder(p.Slug) != nil {
		return apperror.NewSlugTaken(p.Slug)
	}
	r.byUser[p.UserID] = clonePortfolio(p)
	return nil
}

func (r *PortfolioRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*portfolio.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byUser[userID]
	if !ok {
		return nil, apperror.NewNotFound("portfolio", userID.String())
	}
	return clonePortfolio(p), nil
}

func (r *PortfolioRepo) FindBySlug(_ context.Context, slug string) (*portfolio.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.slugHolder(slug)
	if p == nil {
		return nil, apperror.NewNotFound("portfolio", slug)
	}
	return clonePortfolio(p), nil
}

func (r *PortfolioRepo) GetPublic(_ context.Context, slug string) (*portfolio.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.slugHolder(slug)
	if p == nil || !p.IsPublished {
		return nil, apperror.NewNotFound("portfolio", slug)
	}
	return clonePortfolio(p), nil
}

func (r *PortfolioRepo) Update(_ context.Context, userID uuid.UUID, ch portfolio.Changes) (*portfolio.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byUser[userID]
	if !ok {
		return nil, apperror.NewNotFound("portfolio", userID.String())
	}
	if ch.Slug != nil {
		if holder := r.slugHolder(*ch.Slug); holder != nil && holder.UserID != userID {
			return nil, apperror.NewSlugTaken(*ch.Slug)
		}
	}

	updated := clonePortfolio(p)
	if err := updated.Apply(ch); err != nil {
		return nil, apperror.NewInternal("failed to apply changes", err)
	}
	r.byUser[userID] = updated
	return clonePortfolio(updated), nil
}

func (r *PortfolioRepo) IncrementViews(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.IncrementErr != nil {
		return r.IncrementErr
	}
	p := r.slugHolder(slug)
	if p == nil || !p.IsPublished {
		return apperror.NewNotFound("portfolio", slug)
	}
	p.Views++
	return nil
}

func (r *PortfolioRepo) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[userID]; !ok {
		return apperror.NewNotFound("portfolio", userID.String())
	}
	delete(r.byUser, userID)
	return nil
}

// Put stores p as is, bypassing the uniqueness checks. Used to seed legacy
// documents.
func (r *PortfolioRepo) Put(p *portfolio.Portfolio) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[p.UserID] = clonePortfolio(p)
}

func (r *PortfolioRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

func (r *PortfolioRepo) slugHolder(slug string) *portfolio.Portfolio {
	for _, p := range r.byUser {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}

func clonePortfolio(p *portfolio.Portfolio) *portfolio.Portfolio {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	var out portfolio.Portfolio
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

type UserRepo struct {
	mu         sync.Mutex
	byExternal map[string]*user.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{byExternal: map[string]*user.User{}}
}

var _ user.Repository = (*UserRepo)(nil)

func (r *UserRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byExternal {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", id.String())
}

func (r *UserRepo) FindByExternalID(_ context.Context, externalID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byExternal[externalID]
	if !ok {
		return nil, apperror.NewNotFound("user", externalID)
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) EnsureByExternalID(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byExternal[u.ExternalID]; ok {
		cp := *existing
		return &cp, nil
	}
	stored := *u
	r.byExternal[u.ExternalID] = &stored
	cp := stored
	return &cp, nil
}

func (r *UserRepo) Upsert(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byExternal[u.ExternalID]; ok {
		existing.Email = u.Email
		existing.Name = u.Name
		existing.AvatarURL = u.AvatarURL
		existing.UpdatedAt = u.UpdatedAt
		cp := *existing
		return &cp, nil
	}
	stored := *u
	r.byExternal[u.ExternalID] = &stored
	cp := stored
	return &cp, nil
}

func (r *UserRepo) DeleteByExternalID(_ context.Context, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byExternal[externalID]; !ok {
		return apperror.NewNotFound("user", externalID)
	}
	delete(r.byExternal, externalID)
	return nil
}

func (r *UserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byExternal)
}
