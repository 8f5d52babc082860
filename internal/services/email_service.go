package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"

	"github.com/resend/resend-go/v2"
)

// EmailSender delivers transactional email. It implements the
// otp.EmailChannel interface.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPEmailService sends mail over an SMTP relay with implicit TLS
// (port 465 style, matching a Gmail app-password setup).
type SMTPEmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPEmailService constructs an SMTPEmailService.
func NewSMTPEmailService(host, port, username, password, from string) *SMTPEmailService {
	if from == "" {
		from = username
	}
	return &SMTPEmailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers a single HTML message.
func (s *SMTPEmailService) Send(ctx context.Context, to, subject, html string) error {
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", s.from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			html,
	)

	serverAddr := s.host + ":" + s.port

	tlsConfig := &tls.Config{ServerName: s.host}
	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return writer.Close()
}

// ResendEmailService sends mail via the Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

// NewResendEmailService constructs a ResendEmailService.
func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from address is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

// Send delivers a single HTML message.
func (s *ResendEmailService) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

// NoopEmailService logs instead of sending; used when no provider is configured.
type NoopEmailService struct{}

// Send logs the attempted delivery.
func (s *NoopEmailService) Send(ctx context.Context, to, subject, html string) error {
	log.Printf("[Email] noop send to=%s subject=%q", to, subject)
	return nil
}
