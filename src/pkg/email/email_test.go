package email_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"teamwork-invoicer/src/pkg/email"
)

func message() email.Message {
	return email.Message{
		Sender:     "invoices@example.com",
		Recipients: []string{"boss@example.com", "accounting@example.com"},
		Subject:    "Invoices 20240201 - 20240229",
		Text:       "2 invoices created",
		HTML:       "<p>2 invoices created</p>",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if e := message().Validate(); e != nil {
		t.Fatalf("valid message rejected: %v", e)
	}

	noSender := message()
	noSender.Sender = " "
	noRecipients := message()
	noRecipients.Recipients = nil
	badRecipient := message()
	badRecipient.Recipients = []string{"boss"}

	for name, msg := range map[string]email.Message{
		"no sender":     noSender,
		"no recipients": noRecipients,
		"bad recipient": badRecipient,
	} {
		if e := msg.Validate(); e == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestNewSenderErrors(t *testing.T) {
	t.Setenv("MAILGUN_DOMAIN", "")
	t.Setenv("MAILGUN_API_KEY", "")
	t.Setenv("SENDGRID_API_KEY", "")

	for _, provider := range []email.Provider{"pigeon", email.ProviderMailgun, email.ProviderSendGrid} {
		if _, e := email.NewSender(context.Background(), provider); e == nil {
			t.Fatalf("%s: expected an error", provider)
		}
	}
}

func TestSendMessageRejectsInvalid(t *testing.T) {
	t.Parallel()

	msg := message()
	msg.Recipients = nil
	if e := email.SendMessage(context.Background(), email.ProviderSendGrid, msg); e == nil {
		t.Fatalf("expected a validation error")
	}
}

func TestSendGridSender(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := email.NewSendGridSender("sg-key", server.URL)
	if e := sender.Send(context.Background(), message()); e != nil {
		t.Fatalf("send: %v", e)
	}
	if gotPath != "/v3/mail/send" || gotAuth != "Bearer sg-key" {
		t.Fatalf("unexpected request %s auth %q", gotPath, gotAuth)
	}
	personalizations, _ := payload["personalizations"].([]any)
	if len(personalizations) != 1 {
		t.Fatalf("unexpected personalizations %v", payload["personalizations"])
	}
	to, _ := personalizations[0].(map[string]any)["to"].([]any)
	if len(to) != 2 {
		t.Fatalf("expected 2 recipients, got %v", to)
	}
}

func TestSendGridSenderStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"message":"bad key"}]}`)
	}))
	defer server.Close()

	e := email.NewSendGridSender("wrong", server.URL).Send(context.Background(), message())
	if e == nil {
		t.Fatalf("expected an error on 401")
	}
}
