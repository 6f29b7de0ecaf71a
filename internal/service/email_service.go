package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"taskminder/internal/models"
)

// EmailService sends transactional email via Amazon SES. It is the delivery
// collaborator behind both the OTP engine and the reminder scheduler.
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
	debug     bool
}

// NewEmailService creates a new email service
func NewEmailService(awsRegion, fromEmail, fromName string, debug bool) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
	}

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create SES client
	client := sesv2.NewFromConfig(cfg)

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		debug:     debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendOtpEmail delivers a one-time passcode to the user's registered address
func (s *EmailService) SendOtpEmail(ctx context.Context, toEmail, toName, code, purpose string, expiresAt time.Time) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): %s code to %s", purpose, toEmail)
		return nil
	}

	minutes := int(time.Until(expiresAt).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var subject, intro string
	switch purpose {
	case models.PurposeReset:
		subject = "Reset your TaskMinder password"
		intro = "We received a request to reset your TaskMinder password. Use the code below to continue:"
	default:
		subject = "Verify your TaskMinder account"
		intro = "Thanks for signing up for TaskMinder! Use the code below to verify your email address:"
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 16px; background-color: #f0f4f8; border-radius: 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<p>Hi %s,</p>
		<p>%s</p>
		<p class="code">%s</p>
		<p><strong>This code expires in %d minutes.</strong></p>
		<p>If you didn't request this code, you can safely ignore this email.</p>
		<div class="footer">
			<p>This is an automated email from TaskMinder. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, toName, intro, code, minutes)

	textBody := fmt.Sprintf(`Hi %s,

%s

    %s

This code expires in %d minutes.

If you didn't request this code, you can safely ignore this email.

---
This is an automated email from TaskMinder. Please do not reply.
`, toName, intro, code, minutes)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendReminderEmail notifies a task owner about an upcoming deadline
func (s *EmailService) SendReminderEmail(ctx context.Context, toEmail, toName string, task *models.Task) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): reminder for task %d to %s", task.ID, toEmail)
		return nil
	}

	deadline := task.Deadline.Format("Mon, Jan 2 2006 at 15:04")
	subject := fmt.Sprintf("Reminder: %q is due soon", task.Title)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.task { background-color: #f9f9f9; padding: 20px; border-radius: 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<p>Hi %s,</p>
		<p>Your task is coming up on its deadline:</p>
		<div class="task">
			<p><strong>%s</strong></p>
			<p>Due: %s</p>
			<p>Priority: %s</p>
		</div>
		<div class="footer">
			<p>This is an automated email from TaskMinder. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, toName, task.Title, deadline, task.Priority)

	textBody := fmt.Sprintf(`Hi %s,

Your task is coming up on its deadline:

  %s
  Due: %s
  Priority: %s

---
This is an automated email from TaskMinder. Please do not reply.
`, toName, task.Title, deadline, task.Priority)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: to=%s, subject=%s", toEmail, subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
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
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
