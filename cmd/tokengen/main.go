// Command tokengen issues a signed development JWT for a user and role set.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/txshield/txshield/pkg/auth"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("tokengen", flag.ContinueOnError)
	userFlag := fs.String("user", "", "user ID (UUID); a random one is generated when empty")
	rolesFlag := fs.String("roles", auth.RoleUser, "comma-separated roles, e.g. admin,analyst")
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret (defaults to $JWT_SECRET)")
	keyFile := fs.String("private-key", "", "RSA private key PEM file; overrides -secret")
	issuer := fs.String("issuer", envOr("JWT_ISSUER", "txshield"), "token issuer")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userID := uuid.New()
	if *userFlag != "" {
		parsed, err := uuid.Parse(*userFlag)
		if err != nil {
			return fmt.Errorf("invalid -user: %w", err)
		}
		userID = parsed
	}

	cfg := auth.JWTConfig{Issuer: *issuer, Expiration: *ttl}
	switch {
	case *keyFile != "":
		pem, err := auth.LoadKeyFromFile(*keyFile)
		if err != nil {
			return err
		}
		cfg.PrivateKeyPEM = pem
	case *secret != "":
		cfg.Secret = *secret
	default:
		return errors.New("one of -secret, $JWT_SECRET or -private-key is required")
	}

	svc, err := auth.NewJWTService(cfg)
	if err != nil {
		return err
	}
	token, err := svc.GenerateToken(userID, splitRoles(*rolesFlag))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "user %s\n", userID)
	fmt.Println(token)
	return nil
}

func splitRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
