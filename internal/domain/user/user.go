package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

const DefaultName = "User"

func New(externalID, email, name, avatarURL string) *User {
	now := time.Now().UTC()
	if name == "" {
		name = DefaultName
	}
	return &User{
		ID:         uuid.New(),
		ExternalID: externalID,
		Email:      email,
		Name:       name,
		AvatarURL:  avatarURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	// EnsureByExternalID inserts u unless a user with the same external id
	// exists, and returns the stored user either way.
	EnsureByExternalID(ctx context.Context, u *User) (*User, error)
	// Upsert overwrites email, name and avatar of the user with the same
	// external id, creating it when absent.
	Upsert(ctx context.Context, u *User) (*User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
}
