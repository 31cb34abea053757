// Package mail delivers password-reset messages. SMTP settings, including TLS
// verification, are explicit configuration on the client, never process-wide
// state.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	From         string
	ResetURLBase string
	// SkipVerify disables certificate verification for this client only.
	SkipVerify bool
}

type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s?token=%s", strings.TrimRight(m.cfg.ResetURLBase, "/"), token)
	body := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: Password reset",
		"",
		"A password reset was requested for your account.",
		"The link below is valid for one hour and can be used once:",
		"",
		link,
		"",
		"If you did not request this, ignore this message.",
	}, "\r\n")
	return m.send(ctx, to, []byte(body))
}

func (m *SMTPMailer) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{
			ServerName:         m.cfg.Host,
			InsecureSkipVerify: m.cfg.SkipVerify,
		}
		if err := c.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// LogMailer is the dev fallback when no SMTP host is configured. It logs that
// a reset was dispatched but never the token itself.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.Logger.Info("password reset dispatched", "to", to)
	return nil
}
