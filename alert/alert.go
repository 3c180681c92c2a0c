// Package alert evaluates metric thresholds and delivers cooldown-gated
// email alerts over SMTP.
package alert

import (
	"fmt"
	"time"

	"skylog/config"
	"skylog/models"

	"github.com/wneessen/go-mail"
)

// Cooldown is the minimum gap between alerts for one project. The claim
// timestamp lives on the project row, so the window survives restarts.
const Cooldown = time.Hour

// Thresholds are breach limits in percent.
type Thresholds struct {
	CPU    float64
	Memory float64
}

// DefaultThresholds alerts at 90% for both metrics.
func DefaultThresholds() Thresholds {
	return Thresholds{CPU: 90, Memory: 90}
}

// Breach describes one threshold violation.
type Breach struct {
	Metric    string
	Value     float64
	Threshold float64
}

// Evaluate checks a snapshot against the thresholds. CPU is checked first;
// memory only reports when CPU did not breach, so a single push yields at
// most one alert even when both metrics are over the line.
func Evaluate(snap models.MetricsSnapshot, t Thresholds) (Breach, bool) {
	if snap.CPU > t.CPU {
		return Breach{Metric: "CPU", Value: snap.CPU, Threshold: t.CPU}, true
	}
	if snap.Memory > t.Memory {
		return Breach{Metric: "memory", Value: snap.Memory, Threshold: t.Memory}, true
	}
	return Breach{}, false
}

// CooldownElapsed reports whether enough time passed since the last alert
// for a new one to fire. A nil last timestamp means no alert was ever sent.
func CooldownElapsed(last *time.Time, now time.Time, window time.Duration) bool {
	if last == nil {
		return true
	}
	return !last.After(now.Add(-window))
}

// Mailer sends one plain-text mail. Satisfied by SMTPMailer and by test
// fakes.
type Mailer interface {
	SendMail(to, subject, body string) error
}

// SMTPMailer delivers mail through the configured SMTP relay.
type SMTPMailer struct {
	cfg config.SMTP
}

func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendMail(to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// Notifier formats and sends threshold alert mail.
type Notifier struct {
	mailer     Mailer
	thresholds Thresholds
}

// NewNotifier builds a notifier, or nil when SMTP is not configured so
// callers can skip alerting entirely.
func NewNotifier(cfg config.SMTP) *Notifier {
	if !cfg.Configured() {
		return nil
	}
	return &Notifier{mailer: NewSMTPMailer(cfg), thresholds: DefaultThresholds()}
}

// NewNotifierWithMailer wires a custom mailer, used by tests.
func NewNotifierWithMailer(m Mailer, t Thresholds) *Notifier {
	return &Notifier{mailer: m, thresholds: t}
}

func (n *Notifier) Thresholds() Thresholds {
	return n.thresholds
}

// Send delivers one breach alert for a project.
func (n *Notifier) Send(to, organization, project string, b Breach) error {
	subject := fmt.Sprintf("[skylog] %s alert for %s/%s", b.Metric, organization, project)
	body := fmt.Sprintf(
		"%s usage on project %q reached %.0f%%, above the %.0f%% threshold.\n\n"+
			"Organization: %s\nTime: %s\n\n"+
			"No further alerts will be sent for this project for %s.\n",
		b.Metric, project, b.Value, b.Threshold,
		organization, time.Now().UTC().Format(time.RFC3339),
		Cooldown,
	)
	return n.mailer.SendMail(to, subject, body)
}
