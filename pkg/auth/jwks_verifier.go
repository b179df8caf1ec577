package auth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

const jwksCacheTTL = 5 * time.Minute

type providerClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (c *providerClaims) Validate(context.Context) error {
	return nil
}

// JWKSVerifier validates RS256 session tokens issued by the external
// identity provider against its published key set.
type JWKSVerifier struct {
	validator *validator.Validator
}

func NewJWKSVerifier(issuer, audience string) (*JWKSVerifier, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, jwksCacheTTL)

	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &providerClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot set up jwt validator: %w", err)
	}
	return &JWKSVerifier{validator: v}, nil
}

func (v *JWKSVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	raw, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := raw.(*validator.ValidatedClaims)
	if !ok {
		return Identity{}, fmt.Errorf("unexpected claims type %T", raw)
	}
	if claims.RegisteredClaims.Subject == "" {
		return Identity{}, ErrMissingSubject
	}

	id := Identity{ExternalID: claims.RegisteredClaims.Subject}
	if custom, ok := claims.CustomClaims.(*providerClaims); ok && custom != nil {
		id.Email = custom.Email
		id.DisplayName = custom.Name
		id.AvatarURL = custom.Picture
	}
	return id, nil
}
