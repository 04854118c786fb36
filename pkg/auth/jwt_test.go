package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T, secret string, expiration time.Duration) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     secret,
		Issuer:     "txshield-test",
		Expiration: expiration,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t, "test-secret-key-for-unit-tests", 15*time.Minute)
	userID := uuid.New()

	tokenString, err := svc.GenerateToken(userID, []string{RoleAdmin, RoleAnalyst})
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{RoleAdmin, RoleAnalyst}, claims.Roles)
	assert.Equal(t, "txshield-test", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.True(t, claims.IsAdmin())
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService(t, "test-secret-key-for-unit-tests", -1*time.Hour)

	tokenString, err := svc.GenerateToken(uuid.New(), []string{RoleUser})
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	require.Error(t, err)
}

func TestValidateToken_InvalidSignature(t *testing.T) {
	svc1 := newTestJWTService(t, "secret-one", 15*time.Minute)
	svc2 := newTestJWTService(t, "secret-two", 15*time.Minute)

	tokenString, err := svc1.GenerateToken(uuid.New(), []string{RoleUser})
	require.NoError(t, err)

	_, err = svc2.ValidateToken(tokenString)
	require.Error(t, err)
}

func TestValidateToken_MissingUserID(t *testing.T) {
	svc := newTestJWTService(t, "secret", 15*time.Minute)

	tokenString, err := svc.GenerateToken(uuid.Nil, []string{RoleUser})
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user id")
}

func TestNewJWTService_RequiresKeyMaterial(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Issuer: "x"})
	require.Error(t, err)
}

func TestHasRole(t *testing.T) {
	claims := Claims{Roles: []string{RoleAdmin, RoleAnalyst}}

	assert.True(t, claims.HasRole(RoleAdmin))
	assert.True(t, claims.HasRole(RoleAnalyst))
	assert.False(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole("nonexistent"))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc.def", want: "abc.def", ok: true},
		{header: "bearer abc.def", want: "abc.def", ok: true},
		{header: "abc.def", want: "abc.def", ok: true},
		{header: "", ok: false},
		{header: "Bearer ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClaimsFromContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	expected := &Claims{UserID: uuid.New(), Roles: []string{RoleUser}}
	got, ok := ClaimsFromContext(ContextWithClaims(context.Background(), expected))
	require.True(t, ok)
	assert.Equal(t, expected.UserID, got.UserID)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestJWTService(t, "secret", 15*time.Minute)
	token, err := svc.GenerateToken(uuid.New(), []string{RoleUser})
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "bearer token", header: "Bearer " + token},
		{name: "bare token", header: token},
		{name: "empty", header: "  ", wantErr: ErrMissingCredentials},
		{name: "scheme only", header: "Bearer", wantErr: ErrMalformedCredentials},
		{name: "too many parts", header: "Bearer a b", wantErr: ErrMalformedCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Authenticate(tt.header)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{RoleUser}, claims.Roles)
		})
	}
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	issuer := newTestJWTService(t, "shared", 15*time.Minute)
	other, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "someone-else"})
	require.NoError(t, err)

	token, err := issuer.GenerateToken(uuid.New(), nil)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_RejectsAlgorithmSwitch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rsaSvc, err := NewJWTService(JWTConfig{
		PrivateKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})),
		Issuer:        "txshield-test",
	})
	require.NoError(t, err)

	hmacToken, err := newTestJWTService(t, "secret", time.Minute).GenerateToken(uuid.New(), nil)
	require.NoError(t, err)

	_, err = rsaSvc.ValidateToken(hmacToken)
	require.Error(t, err)
}

func TestCanReadAll(t *testing.T) {
	assert.True(t, Claims{Roles: []string{RoleAdmin}}.CanReadAll())
	assert.True(t, Claims{Roles: []string{RoleAnalyst}}.CanReadAll())
	assert.False(t, Claims{Roles: []string{RoleUser, RoleAPIClient}}.CanReadAll())
}
