package email

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender handles sending emails via SendGrid
type Sender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSender creates a new email sender
func NewSender(apiKey, fromName, fromEmail string) *Sender {
	return &Sender{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// SendOtpEmail sends the password-reset code to the account's email.
func (s *Sender) SendOtpEmail(recipientEmail, code string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	subject := "Your OTP for SafeStreet Password Reset"
	to := mail.NewEmail(recipientEmail, recipientEmail)

	plainText := fmt.Sprintf(`Hello,

Your OTP is %s. It will expire in 10 minutes.

If you did not request a password reset, please ignore this email.

Best regards,
The SafeStreet Team`, code)

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>SafeStreet Password Reset</h2>
    <p>Hello,</p>
    <p>Your one-time passcode is:</p>
    <p style="font-size: 28px; font-weight: bold; letter-spacing: 4px;">%s</p>
    <p>It will expire in 10 minutes.</p>
    <p>If you did not request a password reset, please ignore this email.</p>
    <p>Best regards,<br>The SafeStreet Team</p>
</body>
</html>`, code)

	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
