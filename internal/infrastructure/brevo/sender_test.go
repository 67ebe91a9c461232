package brevo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSender_Send(t *testing.T) {
	var captured map[string]interface{}
	var apiKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sender := NewSender(server.URL, "key-123", "no-reply@savlinks.app", "Savlinks", testLogger())

	err := sender.Send(context.Background(), domain.EmailVerification, "user@example.com", map[string]string{
		"link": "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if apiKey != "key-123" {
		t.Errorf("expected api-key header key-123, got %q", apiKey)
	}
	if captured["subject"] != "Verify your email address" {
		t.Errorf("unexpected subject: %v", captured["subject"])
	}

	to, ok := captured["to"].([]interface{})
	if !ok || len(to) != 1 {
		t.Fatalf("expected single recipient, got %v", captured["to"])
	}
	recipient := to[0].(map[string]interface{})
	if recipient["email"] != "user@example.com" {
		t.Errorf("expected recipient user@example.com, got %v", recipient["email"])
	}
}

func TestSender_Send_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := NewSender(server.URL, "bad-key", "no-reply@savlinks.app", "Savlinks", testLogger())

	if err := sender.Send(context.Background(), domain.EmailPasswordReset, "user@example.com", nil); err == nil {
		t.Fatal("expected error for provider rejection")
	}
}

func TestSender_Send_UnknownKind(t *testing.T) {
	sender := NewSender("http://localhost:1", "key", "from@example.com", "X", testLogger())

	if err := sender.Send(context.Background(), domain.EmailKind("bogus"), "user@example.com", nil); err == nil {
		t.Fatal("expected error for unknown email kind")
	}
}

func TestNoOpSender(t *testing.T) {
	sender := NewNoOpSender(testLogger())

	if err := sender.Send(context.Background(), domain.EmailVerification, "user@example.com", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
