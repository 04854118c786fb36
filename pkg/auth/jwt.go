package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrValidationOnly is returned by GenerateToken when the service only holds a public key.
var ErrValidationOnly = errors.New("auth: no private key configured (validation-only mode)")

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	// Secret is an HMAC-SHA256 key. Used only when no RSA key is given.
	Secret string

	// PrivateKeyPEM enables issuer mode (RS256). The public key is derived from it.
	PrivateKeyPEM string

	// PublicKeyPEM enables validation-only mode (RS256).
	PublicKeyPEM string

	Issuer     string
	Expiration time.Duration

	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
}

// JWTService signs and validates access tokens.
type JWTService struct {
	config     JWTConfig
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewJWTService creates a JWTService. Key precedence is private key, then
// public key, then shared secret.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	svc := &JWTService{config: cfg}

	switch {
	case cfg.PrivateKeyPEM != "":
		privKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("auth: parse RSA private key: %w", err)
		}
		svc.privateKey = privKey
		svc.publicKey = &privKey.PublicKey
	case cfg.PublicKeyPEM != "":
		pubKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("auth: parse RSA public key: %w", err)
		}
		svc.publicKey = pubKey
	case cfg.Secret != "":
	default:
		return nil, errors.New("auth: jwt configuration requires PrivateKeyPEM, PublicKeyPEM, or Secret")
	}

	if svc.config.Expiration <= 0 {
		svc.config.Expiration = time.Hour
	}

	return svc, nil
}

func (s *JWTService) usesRSA() bool {
	return s.publicKey != nil
}

func (s *JWTService) method() jwt.SigningMethod {
	if s.usesRSA() {
		return jwt.SigningMethodRS256
	}
	return jwt.SigningMethodHS256
}

// GenerateToken creates a signed token for the given user and roles.
func (s *JWTService) GenerateToken(userID uuid.UUID, roles []string) (string, error) {
	var key any = []byte(s.config.Secret)
	if s.usesRSA() {
		if s.privateKey == nil {
			return "", ErrValidationOnly
		}
		key = s.privateKey
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		UserID: userID,
		Roles:  roles,
	}

	signed, err := jwt.NewWithClaims(s.method(), claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a token string. Only the configured
// algorithm is accepted and expiry is mandatory. Tokens without a user ID are
// rejected so every authenticated request has a resolvable owner.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.config.Leeway),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, s.verificationKey, opts...); err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("auth: token carries no user id")
	}
	return claims, nil
}

func (s *JWTService) verificationKey(*jwt.Token) (any, error) {
	if s.usesRSA() {
		return s.publicKey, nil
	}
	return []byte(s.config.Secret), nil
}

// LoadKeyFromFile reads a PEM-encoded key from a file path.
func LoadKeyFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("auth: read key file %q: %w", path, err)
	}
	return string(data), nil
}
