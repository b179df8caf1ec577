package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

// ResolveUserUseCase maps a verified identity to the local user, creating
// it on first sight.
type ResolveUserUseCase struct {
	userRepo user.Repository
	logger   logger.Logger
}

func NewResolveUserUseCase(repo user.Repository, log logger.Logger) *ResolveUserUseCase {
	return &ResolveUserUseCase{userRepo: repo, logger: log}
}

type ResolveUserInput struct {
	Identity auth.Identity
}

type ResolveUserOutput struct {
	User    *user.User
	Created bool
}

func (uc *ResolveUserUseCase) Execute(ctx context.Context, input ResolveUserInput) (*ResolveUserOutput, error) {
	id := input.Identity
	if id.ExternalID == "" {
		return nil, apperror.NewUnauthorized("identity has no subject", nil)
	}

	u, err := uc.userRepo.FindByExternalID(ctx, id.ExternalID)
	if err == nil {
		return &ResolveUserOutput{User: u}, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	u, err = uc.userRepo.EnsureByExternalID(ctx, user.New(id.ExternalID, id.Email, id.DisplayName, id.AvatarURL))
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Provisioned user on first request", zap.String("user_id", u.ID.String()), zap.String("external_id", id.ExternalID))
	return &ResolveUserOutput{User: u, Created: true}, nil
}
