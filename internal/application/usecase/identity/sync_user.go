package identity

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// SyncUserUseCase applies identity provider lifecycle events to local users.
type SyncUserUseCase struct {
	userRepo user.Repository
	logger   logger.Logger
}

func NewSyncUserUseCase(repo user.Repository, log logger.Logger) *SyncUserUseCase {
	return &SyncUserUseCase{userRepo: repo, logger: log}
}

type SyncUserInput struct {
	EventType  string
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	ImageURL   string
}

func (uc *SyncUserUseCase) Execute(ctx context.Context, input SyncUserInput) error {
	if input.ExternalID == "" {
		return apperror.NewInvalidInput("webhook payload has no user id", nil)
	}
	log := uc.logger.With(zap.String("event_type", input.EventType), zap.String("external_id", input.ExternalID))

	switch input.EventType {
	case EventUserCreated, EventUserUpdated:
		name := strings.TrimSpace(input.FirstName + " " + input.LastName)
		u, err := uc.userRepo.Upsert(ctx, user.New(input.ExternalID, input.Email, name, input.ImageURL))
		if err != nil {
			return err
		}
		log.Info("User synced from identity provider", zap.String("user_id", u.ID.String()))
	case EventUserDeleted:
		err := uc.userRepo.DeleteByExternalID(ctx, input.ExternalID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		log.Info("User removed by identity provider")
	default:
		log.Debug("Ignoring unsupported identity event")
	}
	return nil
}
