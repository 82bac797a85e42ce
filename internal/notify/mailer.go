// Package notify delivers OTP e-mail and admin chat notifications.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"quickbook/internal/config"

	"github.com/mailjet/mailjet-apiv3-go"
	"github.com/rs/zerolog"
)

const otpSubject = "Your OTP for QuickBook Registration"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #050e1d; padding: 20px; text-align: center; color: white;">
      <h2>QuickBook Registration</h2>
    </div>
    <div style="padding: 20px; background-color: #f9f9f9; border: 1px solid #dddddd;">
      <p>Hello,</p>
      <p>Use the following one-time password to complete your QuickBook registration:</p>
      <div style="text-align: center; padding: 15px; margin: 20px 0; font-size: 28px; font-weight: bold; letter-spacing: 5px; color: #4285f4;">{{.Code}}</div>
      <p style="color: #ff0000; font-weight: bold;">This OTP is valid for {{.Minutes}} minutes only.</p>
      <p>If you did not request this OTP, please ignore this email.</p>
      <p>Best regards,<br/>The QuickBook Team</p>
    </div>
    <div style="margin-top: 20px; font-size: 12px; text-align: center; color: #777777;">
      <p>This is an automated message. Please do not reply to this email.</p>
      <p>&copy; {{.Year}} QuickBook. All rights reserved.</p>
    </div>
  </div>
</body>
</html>`))

type otpView struct {
	Code    string
	Minutes int
	Year    int
}

func renderOTP(code string, ttl time.Duration, now time.Time) (string, string, error) {
	minutes := int(ttl.Minutes())
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, otpView{Code: code, Minutes: minutes, Year: now.Year()}); err != nil {
		return "", "", fmt.Errorf("render otp mail: %w", err)
	}
	text := fmt.Sprintf("Your OTP is: %s\nValid for %d minutes.", code, minutes)
	return text, buf.String(), nil
}

// MailjetMailer sends transactional mail through the Mailjet v3.1 API.
type MailjetMailer struct {
	send      func(*mailjet.MessagesV31) (*mailjet.ResultsV31, error)
	fromEmail string
	fromName  string
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewMailjetMailer(cfg config.MailjetConfig, logger *zerolog.Logger) *MailjetMailer {
	client := mailjet.NewMailjetClient(cfg.APIKeyPublic, cfg.APIKeyPrivate)
	return &MailjetMailer{
		send: func(m *mailjet.MessagesV31) (*mailjet.ResultsV31, error) {
			return client.SendMailV31(m)
		},
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
		now:       time.Now,
	}
}

func (m *MailjetMailer) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text, html, err := renderOTP(code, ttl, m.now())
	if err != nil {
		return err
	}

	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From:     &mailjet.RecipientV31{Email: m.fromEmail, Name: m.fromName},
		To:       &mailjet.RecipientsV31{{Email: email}},
		Subject:  otpSubject,
		TextPart: text,
		HTMLPart: html,
	}}}

	res, err := m.send(messages)
	if err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	if res != nil && len(res.ResultsV31) > 0 && res.ResultsV31[0].Status != "success" {
		return fmt.Errorf("mailjet send: status %s", res.ResultsV31[0].Status)
	}
	m.logger.Debug().Str("email", email).Msg("otp mail sent")
	return nil
}

// LogMailer writes the code to the log instead of sending it. Development only.
type LogMailer struct {
	logger *zerolog.Logger
}

func NewLogMailer(logger *zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	m.logger.Warn().Str("email", email).Str("otp", code).Dur("ttl", ttl).Msg("mail delivery disabled, otp logged")
	return nil
}
