package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}
	return NewJWTService(cfg)
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "testuser",
		Permissions: []string{"journal:create", "journal:post", "period:close"},
	}
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.expiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, err := svc.GenerateToken(input)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, input.TenantID.String(), claims.TenantID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, input.Permissions, claims.Permissions)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Errors(t *testing.T) {
	svc := newTestJWTService()

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "a-different-secret-key-32-chars!!",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "test-issuer",
		})
		token, err := other.GenerateToken(newTestInput())
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: -time.Minute,
			Issuer:                "test-issuer",
		})
		token, err := expired.GenerateToken(newTestInput())
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("missing tenant claim", func(t *testing.T) {
		now := time.Now()
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.New().String(),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			UserID: uuid.New().String(),
		}
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		token, err := raw.SignedString([]byte("test-secret-key-at-least-32-chars"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})
}

func TestClaims_Permissions(t *testing.T) {
	claims := &Claims{Permissions: []string{"journal:create", "journal:review"}}

	assert.True(t, claims.HasPermission("journal:create"))
	assert.False(t, claims.HasPermission("journal:post"))
	assert.True(t, claims.HasAnyPermission("journal:post", "journal:review"))
	assert.False(t, claims.HasAnyPermission("journal:post", "period:close"))
}

func TestClaims_UUIDs(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	claims := &Claims{TenantID: tenantID.String(), UserID: userID.String()}

	gotTenant, err := claims.GetTenantUUID()
	require.NoError(t, err)
	assert.Equal(t, tenantID, gotTenant)

	gotUser, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)

	claims.TenantID = "bogus"
	_, err = claims.GetTenantUUID()
	assert.Error(t, err)
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	t.Run("future expiry", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
			},
		}
		assert.Greater(t, claims.GetRemainingTTL(), 9*time.Minute)
	})

	t.Run("past expiry clamps to zero", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		assert.Equal(t, time.Duration(0), claims.GetRemainingTTL())
	})

	t.Run("no expiry", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), (&Claims{}).GetRemainingTTL())
	})
}
