// Package brevo sends templated transactional email through the Brevo
// HTTP API. Delivery is owned by the provider; this adapter only posts
// "send email of kind K to address A".
package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

const requestTimeout = 10 * time.Second

var subjects = map[domain.EmailKind]string{
	domain.EmailVerification:  "Verify your email address",
	domain.EmailPasswordReset: "Reset your password",
	domain.EmailExpiryAlert:   "One of your links is about to expire",
}

type Sender struct {
	apiURL    string
	apiKey    string
	fromEmail string
	fromName  string
	client    *http.Client
	logger    *slog.Logger
}

func NewSender(apiURL, apiKey, fromEmail, fromName string, logger *slog.Logger) *Sender {
	return &Sender{
		apiURL:    apiURL,
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    logger,
	}
}

type sendRequest struct {
	Sender      party   `json:"sender"`
	To          []party `json:"to"`
	Subject     string  `json:"subject"`
	Params      any     `json:"params,omitempty"`
	TextContent string  `json:"textContent"`
}

type party struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (s *Sender) Send(ctx context.Context, kind domain.EmailKind, to string, params map[string]string) error {
	subject, ok := subjects[kind]
	if !ok {
		return fmt.Errorf("brevo: unknown email kind %q", kind)
	}

	payload := sendRequest{
		Sender:      party{Email: s.fromEmail, Name: s.fromName},
		To:          []party{{Email: to}},
		Subject:     subject,
		Params:      params,
		TextContent: textBody(kind, params),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("brevo: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("brevo: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo: send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("brevo: send failed with status %d", resp.StatusCode)
	}

	s.logger.Info("Email queued with provider", "kind", kind, "status", resp.StatusCode)
	return nil
}

func textBody(kind domain.EmailKind, params map[string]string) string {
	switch kind {
	case domain.EmailVerification:
		return fmt.Sprintf("Follow this link to verify your email address: %s", params["link"])
	case domain.EmailPasswordReset:
		return fmt.Sprintf("Follow this link to reset your password: %s", params["link"])
	case domain.EmailExpiryAlert:
		return fmt.Sprintf("Your short link %s expires at %s.", params["slug"], params["expiresAt"])
	default:
		return ""
	}
}

// NoOpSender drops email on the floor; used when email is not
// configured.
type NoOpSender struct {
	logger *slog.Logger
}

func NewNoOpSender(logger *slog.Logger) *NoOpSender {
	return &NoOpSender{logger: logger}
}

func (s *NoOpSender) Send(_ context.Context, kind domain.EmailKind, to string, _ map[string]string) error {
	s.logger.Debug("Email sending disabled, dropping message", "kind", kind, "to", to)
	return nil
}
