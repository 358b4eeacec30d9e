package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/freshcart/freshcart/internal/logging"
)

// Mailer sends transactional email over SMTP
type Mailer struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	fromName     string
	baseURL      string
}

func NewMailer(smtpHost, smtpPort, smtpUser, smtpPassword, fromName, baseURL string) *Mailer {
	return &Mailer{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		fromName:     fromName,
		baseURL:      baseURL,
	}
}

// SendActivationEmail sends the account activation link to a new user.
// Called from dispatcher workers, never from the request path.
func (m *Mailer) SendActivationEmail(ctx context.Context, toEmail, username, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	activationLink := fmt.Sprintf("%s/user/active/%s", m.baseURL, token)

	subject := fmt.Sprintf("Welcome to %s — activate your account", m.fromName)
	body, err := m.renderActivationEmail(username, activationLink)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := m.sendEmail(toEmail, subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("activation email sent", "email", toEmail)
	return nil
}

func (m *Mailer) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", m.smtpUser, m.smtpPassword, m.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		m.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", m.smtpHost, m.smtpPort)
	return smtp.SendMail(addr, auth, m.fromEmail, []string{to}, msg)
}

var activationTemplate = template.Must(template.New("activation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #2E8B57;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .button {
            display: inline-block;
            background-color: #2E8B57;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Welcome, {{.Username}}!</h1>
    </div>
    <div class="content">
        <h2>Activate your account</h2>
        <p>Thank you for registering! Please click the button below to activate your account.</p>

        <a href="{{.ActivationLink}}" class="button" style="color: white !important;">Activate Account</a>

        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all; color: #2E8B57;">{{.ActivationLink}}</p>

        <p style="margin-top: 30px;">If you didn't create an account, you can safely ignore this email.</p>
    </div>
    <div class="footer">
        <p>This link will expire in 1 hour.</p>
    </div>
</body>
</html>
`))

func (m *Mailer) renderActivationEmail(username, activationLink string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Username       string
		ActivationLink string
	}{
		Username:       username,
		ActivationLink: activationLink,
	}

	if err := activationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
