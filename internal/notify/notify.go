// Package notify emails the operators when a batch run fails.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"
	libtelemetry "akleg-data/lib/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

var tracer = libtelemetry.Tracer("akleg.internal.notify")

const (
	report_notifier_send = "notifier.send"
)

// SmtpConfig is the "notify" section of akleg.json5, an empty server disables notifications.
type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.Recipients) > 0
}

// Failure describes a failed run.
type Failure struct {
	RunId  string
	Branch string
	Stage  string
	Start  time.Time
	Err    error
}

type Notifier struct {
	config SmtpConfig
	tel    telemetry.API
}

func NewNotifier(config SmtpConfig, tel telemetry.API) *Notifier {
	assert.NotNil(tel)
	if config.Port == 0 {
		config.Port = 587
	}
	return &Notifier{
		config: config,
		tel:    telemetry.NewScopedAPI("notify", tel),
	}
}

func (n *Notifier) compose(f Failure) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("akleg-data <%s>", n.config.EmailAddress)
	mail.To = n.config.Recipients
	mail.Subject = fmt.Sprintf("akleg-data: batch %s failed at %s", f.Branch, f.Stage)

	var body strings.Builder
	fmt.Fprintf(&body, "Run:    %s\n", f.RunId)
	fmt.Fprintf(&body, "Branch: %s\n", f.Branch)
	fmt.Fprintf(&body, "Stage:  %s\n", f.Stage)
	fmt.Fprintf(&body, "Start:  %s\n\n", f.Start.Format(time.RFC3339))
	if f.Err != nil {
		body.WriteString(f.Err.Error())
		body.WriteString("\n")
	}
	mail.Text = []byte(body.String())
	return mail
}

// NotifyFailure sends the failure to every recipient, it is a no-op when notifications are disabled.
func (n *Notifier) NotifyFailure(ctx context.Context, f Failure) error {
	if n == nil || !n.config.Enabled() {
		return nil
	}
	_, span := tracer.Start(ctx, "NotifyFailure")
	defer span.End()

	mail := n.compose(f)
	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)

	err := mail.Send(addr, smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		n.tel.ReportBroken(report_notifier_send, err, addr)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send failure email: %w", err)
	}
	return nil
}
