package service

import (
	"context"

	"github.com/khoahotran/folio/pkg/auth"
)

// IdentityVerifier turns a bearer token into the caller's identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}
