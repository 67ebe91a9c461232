package domain

import "context"

// EmailKind selects the template used by the external email service.
type EmailKind string

const (
	EmailVerification  EmailKind = "verification"
	EmailPasswordReset EmailKind = "password_reset"
	EmailExpiryAlert   EmailKind = "link_expiry_alert"
)

// EmailSender delivers a templated email through the external service.
// Failures are non-fatal to the operation that triggered the send.
type EmailSender interface {
	Send(ctx context.Context, kind EmailKind, to string, params map[string]string) error
}
