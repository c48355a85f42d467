/*
Package email sends the run summary through one of the supported providers.

Credentials come from the environment:

	mailgun   MAILGUN_DOMAIN, MAILGUN_API_KEY
	sendgrid  SENDGRID_API_KEY
	ses       AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION (default AWS chain)
*/
package email

import (
	"context"
	"fmt"
	"os"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type Provider string

const (
	ProviderMailgun  Provider = "mailgun"
	ProviderSendGrid Provider = "sendgrid"
	ProviderSES      Provider = "ses"
)

var Providers = []Provider{ProviderMailgun, ProviderSendGrid, ProviderSES}

type Message struct {
	Sender     string
	Recipients []string
	Subject    string
	Text       string
	HTML       string
}

func (m Message) Validate() (e *xerr.Error) {
	if strings.TrimSpace(m.Sender) == "" {
		return xerr.NewError(fmt.Errorf("sender is empty"), "validate email", m.Subject)
	}
	if len(m.Recipients) == 0 {
		return xerr.NewError(fmt.Errorf("no recipients"), "validate email", m.Subject)
	}
	for _, recipient := range m.Recipients {
		if !strings.Contains(recipient, "@") {
			return xerr.NewError(fmt.Errorf("bad recipient address '%s'", recipient), "validate email", m.Subject)
		}
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) (e *xerr.Error)
}

/*
NewSender builds the provider client from environment credentials.
*/
func NewSender(ctx context.Context, provider Provider) (sender Sender, e *xerr.Error) {
	switch provider {
	case ProviderMailgun:
		e = requireEnv(provider, "MAILGUN_DOMAIN", "MAILGUN_API_KEY")
		if e != nil {
			return nil, e
		}
		return NewMailgunSender(os.Getenv("MAILGUN_DOMAIN"), os.Getenv("MAILGUN_API_KEY"), ""), nil
	case ProviderSendGrid:
		e = requireEnv(provider, "SENDGRID_API_KEY")
		if e != nil {
			return nil, e
		}
		return NewSendGridSender(os.Getenv("SENDGRID_API_KEY"), ""), nil
	case ProviderSES:
		return NewSESSender(ctx, os.Getenv("AWS_REGION"))
	default:
		return nil, xerr.NewError(fmt.Errorf("unknown provider '%s'", provider), "select email provider", Providers)
	}
}

// SendMessage validates msg and sends it with the given provider.
func SendMessage(ctx context.Context, provider Provider, msg Message) (e *xerr.Error) {
	e = msg.Validate()
	if e != nil {
		return e
	}
	sender, e := NewSender(ctx, provider)
	if e != nil {
		return e
	}
	tl.Log(tl.Info1, palette.Blue, "Sending '%s' to %s via %s", msg.Subject, strings.Join(msg.Recipients, ", "), provider)
	return sender.Send(ctx, msg)
}

func requireEnv(provider Provider, names ...string) (e *xerr.Error) {
	var missing []string
	for _, name := range names {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return xerr.NewError(fmt.Errorf("missing env vars %s", strings.Join(missing, ", ")), "configure email provider", provider)
	}
	return nil
}
