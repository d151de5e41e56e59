package delivery

import (
	"context"
	"fmt"
	"log/slog"

	gomail "gopkg.in/gomail.v2"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// Ensure SMTPDeliverer implements model.Deliverer.
var _ model.Deliverer = (*SMTPDeliverer)(nil)

// SMTPDeliverer sends reports over SMTP. Transport rejections are
// wrapped in model.DeliveryError so callers can tell them apart from
// validation failures.
type SMTPDeliverer struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

// NewSMTPDeliverer creates a deliverer for the given SMTP endpoint.
func NewSMTPDeliverer(host string, port int, username, password, from string, logger *slog.Logger) *SMTPDeliverer {
	return &SMTPDeliverer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger,
	}
}

// Verify checks the transport is usable by dialing and closing a
// connection. Used to gate delivery endpoints with a 503 before any
// message is attempted.
func (d *SMTPDeliverer) Verify(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		closer, err := d.dialer.Dial()
		if err != nil {
			done <- err
			return
		}
		done <- closer.Close()
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp verify: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp verify: %w", err)
		}
		return nil
	}
}

// Deliver sends the report to recipient with both plain-text and HTML
// parts. The recipient must already have passed ValidateAddress.
func (d *SMTPDeliverer) Deliver(ctx context.Context, recipient, subject string, report model.Report) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", d.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", report.Text)
	msg.AddAlternative("text/html", report.HTML)

	// gomail has no context support; run the send in a goroutine so a
	// cancelled caller is not stuck behind a slow SMTP server.
	done := make(chan error, 1)
	go func() {
		done <- d.dialer.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return &model.DeliveryError{Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			d.logger.Error("smtp delivery failed", "recipient", recipient, "error", err)
			return &model.DeliveryError{Err: err}
		}
	}

	d.logger.Info("report delivered", "recipient", recipient, "subject", subject)
	return nil
}
