package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var (
	// ErrMissingCredentials means no authorization header was sent.
	ErrMissingCredentials = errors.New("auth: missing authorization header")

	// ErrMalformedCredentials means the header is not a bearer token.
	ErrMalformedCredentials = errors.New("auth: invalid authorization format")
)

type claimsKey struct{}

// ContextWithClaims returns a new context with the given Claims attached.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext extracts Claims from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// BearerToken extracts the token from an Authorization value. The "Bearer"
// scheme is optional and case-insensitive.
func BearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	switch {
	case len(fields) == 2 && strings.EqualFold(fields[0], "bearer"):
		return fields[1], true
	case len(fields) == 1 && !strings.EqualFold(fields[0], "bearer"):
		return fields[0], true
	default:
		return "", false
	}
}

// Authenticate validates an Authorization header value and returns its claims.
func (s *JWTService) Authenticate(header string) (*Claims, error) {
	if strings.TrimSpace(header) == "" {
		return nil, ErrMissingCredentials
	}
	token, ok := BearerToken(header)
	if !ok {
		return nil, ErrMalformedCredentials
	}
	return s.ValidateToken(token)
}

// UnaryAuthInterceptor authenticates every unary call except skipMethods and
// stores the claims on the handler context.
func UnaryAuthInterceptor(jwtService *JWTService, skipMethods []string) grpc.UnaryServerInterceptor {
	skip := make(map[string]struct{}, len(skipMethods))
	for _, m := range skipMethods {
		skip[m] = struct{}{}
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("authorization"); len(v) > 0 {
				header = v[0]
			}
		}

		claims, err := jwtService.Authenticate(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(ContextWithClaims(ctx, claims), req)
	}
}
