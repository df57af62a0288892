// Package reporting is the error sink for failures that must not stop a handler.
package reporting

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	sesservice "pledge-salesforce-sync/internal/services/ses"
	"pledge-salesforce-sync/internal/utils"
)

// Reporter records a free-text failure. Implementations never fail the caller.
type Reporter interface {
	Report(ctx context.Context, message string)
}

// LogReporter writes reports at error level.
type LogReporter struct {
	Logger *zap.Logger
}

// Report implements Reporter.
func (r LogReporter) Report(ctx context.Context, message string) {
	logger := r.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}
	fields := []zap.Field{zap.String("report", message)}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		fields = append(fields, zap.String("awsRequestID", lc.AwsRequestID))
	}
	logger.Error("Reported error", fields...)
}

// AlertSender is satisfied by ses.Service.
type AlertSender interface {
	SendAlert(ctx context.Context, params sesservice.AlertParams) error
}

// DefaultEmailTimeout bounds one alert send when EmailReporter.Timeout is unset.
const DefaultEmailTimeout = 2 * time.Second

// EmailReporter emails each report. Failures are only logged.
//
// The send is synchronous so that it completes before a Lambda invocation
// freezes; a report can therefore hold the calling handler for up to
// Timeout. Keep Timeout short.
type EmailReporter struct {
	Sender   AlertSender
	To       []string
	Function string
	Timeout  time.Duration
}

// Report implements Reporter.
func (r EmailReporter) Report(ctx context.Context, message string) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultEmailTimeout
	}
	// Detached from ctx so a cancelled invocation still gets its alert out
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	params := sesservice.AlertParams{
		To:         r.To,
		Function:   r.Function,
		Message:    message,
		ReportedAt: time.Now().UTC(),
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		params.RequestID = lc.AwsRequestID
	}

	if err := r.Sender.SendAlert(sendCtx, params); err != nil {
		utils.GetLogger().Warn("Failed to send alert email", zap.Error(err))
	}
}

// Multi fans a report out to several reporters in order.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(ctx context.Context, message string) {
	for _, r := range m {
		r.Report(ctx, message)
	}
}
