package delivery

import (
	"context"
	"log/slog"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// Ensure LogDeliverer implements model.Deliverer.
var _ model.Deliverer = (*LogDeliverer)(nil)

// LogDeliverer writes the plain-text report to the logger. Used by the
// CLI when no SMTP transport is configured; the API surface instead
// returns the report payload directly.
type LogDeliverer struct {
	logger *slog.Logger
}

// NewLogDeliverer returns a deliverer that logs reports instead of sending them.
func NewLogDeliverer(logger *slog.Logger) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

// Verify always succeeds.
func (d *LogDeliverer) Verify(_ context.Context) error {
	return nil
}

// Deliver logs the report text.
func (d *LogDeliverer) Deliver(_ context.Context, recipient, subject string, report model.Report) error {
	d.logger.Info("report (no transport configured)",
		"recipient", recipient,
		"subject", subject,
	)
	d.logger.Info(report.Text)
	return nil
}
