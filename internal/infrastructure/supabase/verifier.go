// Package supabase adapts Supabase-issued bearer tokens to the core's
// identity contract.
package supabase

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with the project's shared JWT
// secret. Token issuance, password flows and OAuth redirects stay with
// the provider.
type Verifier struct {
	secret   []byte
	audience string
}

func NewVerifier(secret, audience string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("supabase: jwt secret is required")
	}
	return &Verifier{secret: []byte(secret), audience: audience}, nil
}

func (v *Verifier) Verify(_ context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.NewAuthError(domain.AuthErrMissingCredential, nil)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed := &claims{}
	_, err := jwt.ParseWithClaims(token, parsed, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, domain.NewAuthError(translateKind(err), err)
	}

	if parsed.Subject == "" {
		return nil, domain.NewAuthError(domain.AuthErrInvalidCredential, errors.New("token missing subject"))
	}

	return &domain.Identity{
		UserID: parsed.Subject,
		Email:  parsed.Email,
	}, nil
}

// translateKind maps provider-specific verification failures to the
// single AuthErrorKind taxonomy owned by the core boundary.
func translateKind(err error) domain.AuthErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.AuthErrExpiredCredential
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return domain.AuthErrInvalidCredential
	default:
		return domain.AuthErrInvalidCredential
	}
}

// StaticVerifier resolves fixed tokens to fixed identities. It keeps
// development and handler tests off the real provider.
type StaticVerifier struct {
	tokens map[string]domain.Identity
}

func NewStaticVerifier(tokens map[string]domain.Identity) *StaticVerifier {
	return &StaticVerifier{tokens: tokens}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.NewAuthError(domain.AuthErrMissingCredential, nil)
	}
	identity, ok := v.tokens[token]
	if !ok {
		return nil, domain.NewAuthError(domain.AuthErrInvalidCredential, fmt.Errorf("unknown token"))
	}
	return &identity, nil
}
