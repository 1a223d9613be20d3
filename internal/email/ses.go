package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Service handles sending transactional email via AWS SES
type Service struct {
	client    *ses.Client
	fromEmail string
	fromName  string
	baseURL   string
}

// NewService creates a new email service using AWS SES
func NewService(region, fromEmail, fromName, baseURL string) (*Service, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}, nil
}

// SendPasswordResetEmail sends a password reset email with the reset token.
// The web app's reset page extracts the token and calls the confirm endpoint.
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, resetToken string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, resetToken)

	subject := "Reset Your Ambira Password"
	htmlBody := fmt.Sprintf(`
		<div style="max-width: 600px; margin: 0 auto; padding: 20px; font-family: -apple-system, 'Segoe UI', Roboto, sans-serif;">
			<h1>Reset Your Password</h1>
			<p>You requested to reset your password for your Ambira account.</p>
			<p>Click the button below to reset your password. This link will expire in 1 hour.</p>
			<a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #007a5c; color: white; text-decoration: none; border-radius: 6px;">Reset Password</a>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; color: #666;">%s</p>
			<p>If you did not request this, you can safely ignore this email.</p>
		</div>`, resetURL, resetURL)
	textBody := fmt.Sprintf("Reset your Ambira password: %s\n\nThis link expires in 1 hour. If you did not request this, ignore this email.", resetURL)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

// SendWelcomeEmail greets a newly registered user
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	subject := "Welcome to Ambira"
	htmlBody := fmt.Sprintf(`
		<div style="max-width: 600px; margin: 0 auto; padding: 20px; font-family: -apple-system, 'Segoe UI', Roboto, sans-serif;">
			<h1>Welcome, %s!</h1>
			<p>Your Ambira account is ready. Log your first focus session, follow some friends, and start a streak.</p>
			<a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #007a5c; color: white; text-decoration: none; border-radius: 6px;">Open Ambira</a>
		</div>`, name, s.baseURL)
	textBody := fmt.Sprintf("Welcome to Ambira, %s! Your account is ready: %s", name, s.baseURL)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *Service) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	return nil
}
