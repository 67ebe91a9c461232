package domain

import (
	"context"
	"fmt"
)

// Identity is the verified result of a bearer credential. It travels in
// the request context; there is no process-wide auth state.
type Identity struct {
	UserID string
	Email  string
}

// AuthErrorKind classifies credential verification failures at the core
// boundary. Provider-specific error codes are translated to these kinds
// by the identity adapter.
type AuthErrorKind string

const (
	AuthErrMissingCredential AuthErrorKind = "missing_credential"
	AuthErrInvalidCredential AuthErrorKind = "invalid_credential"
	AuthErrExpiredCredential AuthErrorKind = "expired_credential"
	AuthErrUnavailable       AuthErrorKind = "provider_unavailable"
)

type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// TokenVerifier resolves a bearer credential to an owner identity. Token
// issuance, password handling and OAuth flows belong to the external
// identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
