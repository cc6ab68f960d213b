package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bounty-service/internal/config"
	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/repository"
	"github.com/spec-kit/bounty-service/internal/repository/memory"
)

func newTestAuthService(t *testing.T) (*AuthService, repository.Store) {
	t.Helper()
	memStore := memory.NewStore()
	store := memStore.Repositories()
	profiles := NewProfileService(ProfileDependencies{Store: store, Tx: memStore})
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              4,
		},
	}
	return NewAuthService(cfg, store, profiles), store
}

func TestSignupAndLogin(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	profile, token, _, err := svc.Signup(ctx, SignupInput{
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Password:    "hunter22",
		Role:        domain.RoleDeveloper,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.SubjectID)
	assert.Equal(t, domain.RoleDeveloper, claims.Role)

	// Signup records USER_CREATED through the profile service.
	entries, err := store.Audit.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EventUserCreated, entries[0].EventType)

	logged, _, _, err := svc.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, logged.ID)

	_, _, _, err = svc.Login(ctx, "ada@example.com", "wrong")
	assertDomainErrorCode(t, err, "UNAUTHORIZED")
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, _, err := svc.Signup(ctx, SignupInput{
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Password:    "hunter22",
		Role:        domain.RoleDeveloper,
	})
	require.NoError(t, err)

	_, _, _, err = svc.Signup(ctx, SignupInput{
		Email:       "ada@example.com",
		DisplayName: "Ada Again",
		Password:    "hunter23",
		Role:        domain.RoleDeveloper,
	})
	assertDomainErrorCode(t, err, "VALIDATION_FAILED")
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, _, err := svc.Signup(ctx, SignupInput{
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Password:    "hunter22",
		Role:        domain.RoleDeveloper,
	})
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token.Token, "newpassword"))

	// Old password no longer works, the new one does.
	_, _, _, err = svc.Login(ctx, "ada@example.com", "hunter22")
	assertDomainErrorCode(t, err, "UNAUTHORIZED")
	_, _, _, err = svc.Login(ctx, "ada@example.com", "newpassword")
	require.NoError(t, err)

	// A token is single use.
	err = svc.ConfirmPasswordReset(ctx, token.Token, "another")
	assertDomainErrorCode(t, err, "VALIDATION_FAILED")
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assertDomainErrorCode(t, err, "NOT_FOUND")
}
