// Package ses sends operator alert emails via AWS SES
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/utils"
)

// SendEmailAPI is the subset of the SES client used here
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Service handles SES email operations
type Service struct {
	client    SendEmailAPI
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// AlertParams describes a failure reported by one of the sync functions
type AlertParams struct {
	To         []string
	Function   string
	RequestID  string
	Message    string
	ReportedAt time.Time
}

// NewService creates a new SES service from the default AWS config chain
func NewService(ctx context.Context, region, fromEmail string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewServiceWithClient(ses.NewFromConfig(cfg), fromEmail), nil
}

// NewServiceWithClient creates a service around an existing client
func NewServiceWithClient(client SendEmailAPI, fromEmail string) *Service {
	return &Service{client: client, fromEmail: fromEmail}
}

// SendEmail sends a basic email and returns the SES message id
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (string, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: params.To,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	utils.GetLogger().Debug("Email sent",
		zap.Strings("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", messageID),
	)
	return messageID, nil
}

// SendAlert emails a failure report
func (s *Service) SendAlert(ctx context.Context, params AlertParams) error {
	htmlBody, err := renderAlertHTML(params)
	if err != nil {
		return fmt.Errorf("failed to render alert template: %w", err)
	}

	_, err = s.SendEmail(ctx, EmailParams{
		To:       params.To,
		Subject:  fmt.Sprintf("[%s] Salesforce sync error", params.Function),
		HTMLBody: htmlBody,
		TextBody: renderAlertText(params),
	})
	return err
}

var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333;">
    <h2>Salesforce sync error</h2>
    <table>
        <tr><td><b>Function</b></td><td>{{.Function}}</td></tr>
        {{if .RequestID}}<tr><td><b>Request</b></td><td>{{.RequestID}}</td></tr>{{end}}
        <tr><td><b>Reported</b></td><td>{{.ReportedAt.Format "2006-01-02 15:04:05 MST"}}</td></tr>
    </table>
    <pre>{{.Message}}</pre>
</body>
</html>`))

func renderAlertHTML(params AlertParams) (string, error) {
	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderAlertText(params AlertParams) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Function: %s\n", params.Function)
	if params.RequestID != "" {
		fmt.Fprintf(&buf, "Request: %s\n", params.RequestID)
	}
	fmt.Fprintf(&buf, "Reported: %s\n\n", params.ReportedAt.Format(time.RFC3339))
	buf.WriteString(params.Message)
	buf.WriteString("\n")
	return buf.String()
}
