package email

import (
	"context"

	"github.com/mailgun/mailgun-go/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type MailgunSender struct {
	mg *mailgun.MailgunImpl
}

// NewMailgunSender; apiBase overrides the API address when not empty.
func NewMailgunSender(domain, apiKey, apiBase string) *MailgunSender {
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		mg.SetAPIBase(apiBase)
	}
	return &MailgunSender{mg: mg}
}

func (s *MailgunSender) Send(ctx context.Context, msg Message) (e *xerr.Error) {
	m := s.mg.NewMessage(msg.Sender, msg.Subject, msg.Text, msg.Recipients...)
	if msg.HTML != "" {
		m.SetHtml(msg.HTML)
	}
	response, id, sendErr := s.mg.Send(ctx, m)
	if sendErr != nil {
		return xerr.NewError(sendErr, "send email via mailgun", msg.Recipients)
	}
	tl.Log(tl.Detailed, palette.Green, "Mailgun accepted message %s: %s", id, response)
	return nil
}
