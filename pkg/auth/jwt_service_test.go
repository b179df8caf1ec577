package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken(Identity{
		ExternalID:  "user_2abc",
		Email:       "ada@example.com",
		DisplayName: "Ada Lovelace",
	})
	require.NoError(t, err)

	id, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", id.ExternalID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, "Ada Lovelace", id.DisplayName)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).GenerateToken(Identity{ExternalID: "user_1"})
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)
	token, err := svc.GenerateToken(Identity{ExternalID: "user_1"})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestJWTService_RequiresSubject(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	token, err := svc.GenerateToken(Identity{})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrMissingSubject)
}
