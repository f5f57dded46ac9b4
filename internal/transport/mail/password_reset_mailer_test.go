package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestSendPasswordReset(t *testing.T) {
	m := NewPasswordResetMailer("smtp.example.com", "587", "user", "pass", "noreply@example.com")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		if a == nil {
			t.Fatalf("expected auth when credentials are set")
		}
		return nil
	}

	link := "https://app.example.com/reset-password?token=abc"
	if err := m.SendPasswordReset(context.Background(), "a@x.com", link); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "noreply@example.com" {
		t.Fatalf("unexpected envelope %s %s", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "a@x.com" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	if !strings.Contains(gotMsg, link) {
		t.Fatalf("expected link in body")
	}
	if !strings.Contains(gotMsg, "Subject: Reset your password\r\n") {
		t.Fatalf("missing subject header")
	}
}

func TestSendPasswordResetRejects(t *testing.T) {
	var unset *PasswordResetMailer
	if err := unset.SendPasswordReset(context.Background(), "a@x.com", "l"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := NewPasswordResetMailer("", "", "", "", "").SendPasswordReset(context.Background(), "a@x.com", "l"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	m := NewPasswordResetMailer("h", "25", "", "", "f@x.com")
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatalf("send must not be called")
		return nil
	}
	if err := m.SendPasswordReset(context.Background(), "a@x.com\r\nBcc: b@x.com", "l"); err == nil {
		t.Fatalf("expected header injection to be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.SendPasswordReset(ctx, "a@x.com", "l"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
