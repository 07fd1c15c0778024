package services

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/Dosada05/match-archive/config"
)

//go:embed templates/emails/*.html
var emailTemplatesFS embed.FS

var emailTemplates = template.Must(template.ParseFS(emailTemplatesFS, "templates/emails/*.html"))

// Mailer - отправка писем из сервисов.
type Mailer interface {
	SendWelcomeEmail(userEmail, nickname, confirmationToken string) error
	SendPasswordResetEmail(userEmail, resetToken string) error
	SendTeamInviteEmail(userEmail, teamName, inviteLink string, expiresAt time.Time) error
}

type EmailService struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewEmailService(cfg *config.Config, logger *slog.Logger) *EmailService {
	return &EmailService{cfg: cfg, logger: logger}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if !s.cfg.SMTPEnabled() {
		// Без SMTP письмо только логируется (локальная разработка).
		s.logger.Info("smtp disabled, email not sent", slog.Any("to", to), slog.String("subject", subject))
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

func (s *EmailService) GenerateEmailBody(templateName string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, templateName, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", templateName, err)
	}
	return body.String(), nil
}

func (s *EmailService) SendWelcomeEmail(userEmail, nickname, confirmationToken string) error {
	data := struct {
		Email            string
		Nickname         string
		ConfirmationLink string
	}{
		Email:            userEmail,
		Nickname:         nickname,
		ConfirmationLink: fmt.Sprintf("%s/confirm-email?token=%s", s.cfg.PublicURL, confirmationToken),
	}

	htmlBody, err := s.GenerateEmailBody("welcome_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела приветственного письма: %w", err)
	}
	return s.SendEmail([]string{userEmail}, "Welcome to Match Archive", htmlBody)
}

func (s *EmailService) SendPasswordResetEmail(userEmail, resetToken string) error {
	data := struct {
		Email     string
		ResetLink string
	}{
		Email:     userEmail,
		ResetLink: fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicURL, resetToken),
	}

	htmlBody, err := s.GenerateEmailBody("password_reset_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма для сброса пароля: %w", err)
	}
	return s.SendEmail([]string{userEmail}, "Match Archive password reset", htmlBody)
}

func (s *EmailService) SendTeamInviteEmail(userEmail, teamName, inviteLink string, expiresAt time.Time) error {
	data := struct {
		TeamName   string
		InviteLink string
		ExpiresAt  string
	}{
		TeamName:   teamName,
		InviteLink: inviteLink,
		ExpiresAt:  expiresAt.In(s.cfg.Timezone).Format("2006-01-02 15:04"),
	}

	htmlBody, err := s.GenerateEmailBody("team_invite_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма-приглашения: %w", err)
	}
	return s.SendEmail([]string{userEmail}, fmt.Sprintf("Invitation to %s", teamName), htmlBody)
}
