// Package email delivers escalation records over SMTP. The account password
// is never configured in plain text: it is resolved through viant/scy from
// an encrypted secret resource.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/viant/scy"

	"github.com/complianceworxs/govledger/service/escalation"
)

// Config describes the SMTP endpoint and the secret resource holding the
// account password.
type Config struct {
	Host      string   `json:"host" yaml:"host" env:"HOST"`
	Port      int      `json:"port" yaml:"port" env:"PORT" envDefault:"587"`
	Username  string   `json:"username" yaml:"username" env:"USERNAME"`
	From      string   `json:"from" yaml:"from" env:"FROM"`
	To        []string `json:"to" yaml:"to" env:"TO"`
	SecretURL string   `json:"secretURL" yaml:"secretURL" env:"SECRET_URL"`
	SecretKey string   `json:"secretKey" yaml:"secretKey" env:"SECRET_KEY" envDefault:"blowfish://default"`
}

// Validate reports missing settings.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("smtp host cannot be empty")
	}
	if c.From == "" {
		return fmt.Errorf("smtp sender cannot be empty")
	}
	if len(c.To) == 0 {
		return fmt.Errorf("smtp recipients cannot be empty")
	}
	return nil
}

// Notifier sends one plain-text mail per escalation record.
type Notifier struct {
	config  Config
	secrets *scy.Service

	once     sync.Once
	password string
	loadErr  error
}

var _ escalation.Notifier = (*Notifier)(nil)

// New creates an SMTP notifier from the given configuration.
func New(config Config) (*Notifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Notifier{config: config, secrets: scy.New()}, nil
}

// Notify delivers the record. Errors are returned to the caller, which logs
// them; delivery failure never affects the ledger.
func (n *Notifier) Notify(ctx context.Context, r *escalation.Record) error {
	password, err := n.loadPassword(ctx)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Escalation [%s]: action %s", r.Source, r.ActionID)
	body := n.body(r)
	msg := strings.Builder{}
	msg.WriteString("From: " + n.config.From + "\r\n")
	msg.WriteString("To: " + strings.Join(n.config.To, ", ") + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)
	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, password, n.config.Host)
	}
	if err := smtp.SendMail(addr, auth, n.config.From, n.config.To, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send escalation mail for action %s: %w", r.ActionID, err)
	}
	return nil
}

func (n *Notifier) body(r *escalation.Record) string {
	b := strings.Builder{}
	b.WriteString("Escalation for review by " + r.Target + "\n\n")
	b.WriteString("Action:  " + r.ActionID + "\n")
	if r.Title != "" {
		b.WriteString("Title:   " + r.Title + "\n")
	}
	if r.Agent != "" {
		b.WriteString("Agent:   " + r.Agent + "\n")
	}
	b.WriteString("Source:  " + r.Source + "\n")
	if len(r.Reasons) > 0 {
		b.WriteString("Reasons: " + strings.Join(r.Reasons, ", ") + "\n")
	}
	b.WriteString("At:      " + r.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST") + "\n")
	return b.String()
}

// loadPassword resolves the SMTP password once per process.
func (n *Notifier) loadPassword(ctx context.Context) (string, error) {
	n.once.Do(func() {
		if n.config.SecretURL == "" {
			return
		}
		resource := scy.NewResource(nil, n.config.SecretURL, n.config.SecretKey)
		secret, err := n.secrets.Load(ctx, resource)
		if err != nil {
			n.loadErr = fmt.Errorf("failed to load smtp secret from %s: %w", n.config.SecretURL, err)
			return
		}
		n.password = secret.String()
	})
	return n.password, n.loadErr
}
