package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/coach-plus/backend/config"
)

// Mailer sends transactional mail. Callers treat delivery as
// best-effort; a failed send never fails the triggering operation.
type Mailer interface {
	SendVerificationEmail(userEmail, firstname, token string) error
	SendNewPasswordEmail(userEmail, firstname, newPassword string) error
}

type emailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) Mailer {
	return &emailService{cfg: cfg}
}

func (s *emailService) SendVerificationEmail(userEmail, firstname, token string) error {
	subject := "Coach+ - Please verify your email address"
	templateData := struct {
		Firstname        string
		VerificationLink string
	}{
		Firstname:        firstname,
		VerificationLink: fmt.Sprintf("%s/verification/%s", s.cfg.AppURL, token),
	}

	htmlBody, err := s.generateEmailBody("templates/emails/verification.html", templateData)
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}

	return s.sendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *emailService) SendNewPasswordEmail(userEmail, firstname, newPassword string) error {
	subject := "Coach+ - Your new password"
	templateData := struct {
		Firstname   string
		NewPassword string
	}{
		Firstname:   firstname,
		NewPassword: newPassword,
	}

	htmlBody, err := s.generateEmailBody("templates/emails/new_password.html", templateData)
	if err != nil {
		return fmt.Errorf("failed to render new-password email: %w", err)
	}

	return s.sendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *emailService) generateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templatePath, err)
	}

	return body.String(), nil
}

func (s *emailService) sendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("failed to open TLS connection: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		// STARTTLS
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close DATA writer: %w", err)
	}

	return nil
}
