package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("mailer missing configuration")

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type PasswordResetMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	send     sendFunc
}

func NewPasswordResetMailer(host, port, username, password, from string) *PasswordResetMailer {
	return &PasswordResetMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
		send:     smtp.SendMail,
	}
}

// Configured reports whether enough settings are present to send mail.
func (m *PasswordResetMailer) Configured() bool {
	return m != nil && m.host != "" && m.port != "" && m.from != ""
}

func (m *PasswordResetMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if strings.ContainsAny(email, "\r\n") {
		return fmt.Errorf("mail: invalid recipient")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	message, err := buildResetMessage(m.from, email, link, time.Now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return m.send(addr, auth, m.from, []string{email}, message)
}

func buildResetMessage(from, to, link string, now time.Time) ([]byte, error) {
	if link == "" {
		return nil, fmt.Errorf("mail: empty reset link")
	}
	body := fmt.Sprintf("We received a request to reset your password.\n\n"+
		"Open this link within the next hour to choose a new one:\n%s\n\n"+
		"If you did not request this, you can ignore this email.", link)

	var message strings.Builder
	fmt.Fprintf(&message, "From: %s\r\n", from)
	fmt.Fprintf(&message, "To: %s\r\n", to)
	message.WriteString("Subject: Reset your password\r\n")
	fmt.Fprintf(&message, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	message.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	message.WriteString("\r\n")
	return []byte(message.String()), nil
}
