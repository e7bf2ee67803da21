package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"gymtrack_app_echo/internal/config"
)

// EmailSender delivers a plain-text email
type EmailSender interface {
	SendEmail(ctx context.Context, to []string, subject, body string) error
}

// NewEmailSender picks the transport configured by EMAIL_TRANSPORT
func NewEmailSender(ctx context.Context, cfg config.EmailConfig) (EmailSender, error) {
	if cfg.Transport == "ses" {
		return NewSESEmailService(ctx, cfg.AWSRegion, cfg.SESFrom)
	}
	return NewEmailService(cfg), nil
}

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService(cfg config.EmailConfig) *EmailService {
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.From,
	}
}

func (s *EmailService) SendEmail(ctx context.Context, to []string, subject, body string) error {
	if s.host == "" || s.port == "" || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	// Build the message
	message := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", s.from, strings.Join(to, ", "), subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, to, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SESEmailService sends through Amazon SES using the default AWS credential chain
type SESEmailService struct {
	client *ses.Client
	from   string
}

func NewSESEmailService(ctx context.Context, region, from string) (*SESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("AWS config load failed: %w", err)
	}
	return &SESEmailService{client: ses.NewFromConfig(cfg), from: from}, nil
}

func (s *SESEmailService) SendEmail(ctx context.Context, to []string, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
		Source: aws.String(s.from),
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}
