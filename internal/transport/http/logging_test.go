package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/njprem/authcore-api/internal/service"
)

func TestSanitizeBodyRedactsCredentials(t *testing.T) {
	body := []byte(`{"email":"alex@example.com","password":"correct-horse","nested":{"new_password":"x","reset_token":"y"}}`)

	summary, ok := sanitizeBody(body, "application/json").(map[string]interface{})
	if !ok {
		t.Fatalf("expected map summary, got %T", sanitizeBody(body, "application/json"))
	}
	if summary["email"] != "alex@example.com" {
		t.Fatalf("expected email kept, got %v", summary["email"])
	}
	if summary["password"] != redacted {
		t.Fatalf("expected password redacted, got %v", summary["password"])
	}
	nested := summary["nested"].(map[string]interface{})
	if nested["new_password"] != redacted || nested["reset_token"] != redacted {
		t.Fatalf("expected nested secrets redacted, got %v", nested)
	}
}

func TestSanitizeBodyFormAndBinary(t *testing.T) {
	form, ok := sanitizeBody([]byte("email=a%40b.c&token=abc"), "application/x-www-form-urlencoded").(map[string]interface{})
	if !ok {
		t.Fatal("expected form fields")
	}
	if form["token"] != redacted {
		t.Fatalf("expected token redacted, got %v", form["token"])
	}
	if got := sanitizeBody([]byte{0xff, 0x00, 0x01}, "application/octet-stream"); got != "binary" {
		t.Fatalf("expected binary marker, got %v", got)
	}
	if got := sanitizeBody(nil, "application/json"); got != nil {
		t.Fatalf("expected nil for empty body, got %v", got)
	}
}

func TestSanitizeBodyTruncatesLargeJSON(t *testing.T) {
	body := fmt.Sprintf(`{"items":[%s"x"]}`, strings.Repeat(`"aaaaaaaaaa",`, 400))

	summary, ok := sanitizeBody([]byte(body), "application/json").(map[string]interface{})
	if !ok {
		t.Fatal("expected map summary")
	}
	if summary["_truncated"] != true {
		t.Fatalf("expected truncation marker, got %v", summary)
	}
}

func TestRedactQuery(t *testing.T) {
	cases := map[string]string{
		"/api/v1/auth/me":                       "/api/v1/auth/me",
		"/reset-password?token=abc":             "/reset-password?token=redacted",
		"/api/v1/projects?page=2":               "/api/v1/projects?page=2",
		"/cb?access_token=abc&state=xyz":        "/cb?access_token=redacted&state=xyz",
		"/api/v1/auth/reset-password?token=%zz": "/api/v1/auth/reset-password",
	}
	for in, want := range cases {
		if got := redactQuery(in); got != want {
			t.Fatalf("redactQuery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: service.ErrInvalidInput, want: http.StatusBadRequest},
		{err: service.ErrResetTokenInvalid, want: http.StatusBadRequest},
		{err: service.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: fmt.Errorf("wrap: %w", service.ErrUnauthorized), want: http.StatusUnauthorized},
		{err: service.ErrEmailAlreadyUsed, want: http.StatusConflict},
		{err: service.ErrRateLimited, want: http.StatusTooManyRequests},
		{err: service.ErrProjectNotFound, want: http.StatusNotFound},
		{err: service.ErrFederatedUnavailable, want: http.StatusServiceUnavailable},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
