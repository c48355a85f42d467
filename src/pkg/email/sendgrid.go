package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

type SendGridSender struct {
	apiKey string
	host   string
}

// NewSendGridSender; host defaults to the public API.
func NewSendGridSender(apiKey, host string) *SendGridSender {
	if host == "" {
		host = sendGridHost
	}
	return &SendGridSender{apiKey: apiKey, host: host}
}

func buildSendGridMail(msg Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", msg.Sender))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, recipient := range msg.Recipients {
		p.AddTos(mail.NewEmail("", recipient))
	}
	m.AddPersonalizations(p)

	m.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) (e *xerr.Error) {
	request := sendgrid.GetRequest(s.apiKey, sendGridEndpoint, s.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(buildSendGridMail(msg))

	response, sendErr := sendgrid.MakeRequestWithContext(ctx, request)
	if sendErr != nil {
		return xerr.NewError(sendErr, "send email via sendgrid", msg.Recipients)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return xerr.NewError(fmt.Errorf("status %d: %s", response.StatusCode, response.Body), "send email via sendgrid", msg.Recipients)
	}
	tl.Log(tl.Detailed, palette.Green, "SendGrid accepted message, status %s", response.StatusCode)
	return nil
}
