package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/lumeno/auth-service/internal/config"
	"github.com/lumeno/auth-service/internal/logging"
)

// Service delivers account mail over SMTP. Callers decide whether a send
// failure is fatal; this type only reports it.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
}

func NewService(cfg config.EmailConfig) *Service {
	from := cfg.SenderEmail
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    from,
	}
}

// SendWelcome greets a freshly registered account.
func (s *Service) SendWelcome(ctx context.Context, to string) error {
	logger := logging.FromContext(ctx)

	body := fmt.Sprintf("Welcome! Your account has been created with email id: %s", to)
	if err := s.sendEmail(to, "Welcome to our platform!", body); err != nil {
		logger.Error("failed to send welcome email", "email", to, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("welcome email sent", "email", to)
	return nil
}

// SendVerifyOtp mails an account-verification code.
func (s *Service) SendVerifyOtp(ctx context.Context, to, code string) error {
	logger := logging.FromContext(ctx)

	body, err := renderOtpTemplate(verifyOtpTmpl, to, code)
	if err != nil {
		logger.Error("failed to render verification email", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(to, "Your Account Verification OTP", body); err != nil {
		logger.Error("failed to send verification email", "email", to, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification otp email sent", "email", to)
	return nil
}

// SendResetOtp mails a password-reset code.
func (s *Service) SendResetOtp(ctx context.Context, to, code string) error {
	logger := logging.FromContext(ctx)

	body, err := renderOtpTemplate(resetOtpTmpl, to, code)
	if err != nil {
		logger.Error("failed to render reset email", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(to, "Your Password Reset OTP", body); err != nil {
		logger.Error("failed to send reset email", "email", to, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("reset otp email sent", "email", to)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

var (
	verifyOtpTmpl = template.Must(template.New("verifyOtp").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Verify your email address</h2>
    <p>Use the code below to verify the account registered with <strong>{{.Email}}</strong>.</p>
    <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Otp}}</p>
    <p>This code expires in 24 hours. If you didn't create an account, you can safely ignore this email.</p>
</body>
</html>
`))

	resetOtpTmpl = template.Must(template.New("resetOtp").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Reset your password</h2>
    <p>Use the code below to reset the password for <strong>{{.Email}}</strong>.</p>
    <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Otp}}</p>
    <p>This code expires in 15 minutes. If you didn't request a reset, your password remains unchanged.</p>
</body>
</html>
`))
)

func renderOtpTemplate(tmpl *template.Template, email, code string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Email string
		Otp   string
	}{
		Email: email,
		Otp:   code,
	}

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
