package notifxconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/wakka/pkg/logx"
	"github.com/Abraxas-365/wakka/pkg/notifx"
)

// Provider prints emails to the terminal via logx. Intended for development
// and testing setups without SES credentials.
type Provider struct{}

// NewProvider creates a new console email provider.
func NewProvider() *Provider {
	return &Provider{}
}

// SendEmail logs the email details instead of sending it.
func (p *Provider) SendEmail(_ context.Context, msg notifx.Message) error {
	logx.WithFields(logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	}).Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	return nil
}
