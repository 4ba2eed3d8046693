package notifx_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/notifx"
)

type captureSender struct {
	sent []notifx.Message
}

func (s *captureSender) SendEmail(_ context.Context, msg notifx.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

func TestSendEmail_FillsDefaultFrom(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "no-reply@example.com")

	err := client.SendEmail(context.Background(), notifx.Message{
		To:      []string{"ana@example.com"},
		Subject: "Hello",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sender.sent[0].From != "no-reply@example.com" {
		t.Fatalf("from = %q, want default", sender.sent[0].From)
	}
}

func TestSendEmail_KeepsExplicitFrom(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "no-reply@example.com")

	err := client.SendEmail(context.Background(), notifx.Message{
		From:    "support@example.com",
		To:      []string{"ana@example.com"},
		Subject: "Hello",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sender.sent[0].From != "support@example.com" {
		t.Fatalf("from = %q, want explicit sender", sender.sent[0].From)
	}
}

func TestSendEmail_ValidatesMessage(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "no-reply@example.com")
	ctx := context.Background()

	err := client.SendEmail(ctx, notifx.Message{Subject: "Hello"})
	if !errx.IsCode(err, notifx.ErrInvalidMessage) {
		t.Fatalf("no recipients: expected NOTIFX_INVALID_MESSAGE, got %v", err)
	}

	err = client.SendEmail(ctx, notifx.Message{To: []string{"ana@example.com"}})
	if !errx.IsCode(err, notifx.ErrInvalidMessage) {
		t.Fatalf("empty subject: expected NOTIFX_INVALID_MESSAGE, got %v", err)
	}
}

func TestSendTemplatedEmail(t *testing.T) {
	sender := &captureSender{}
	client := notifx.NewClient(sender, "no-reply@example.com")

	if err := client.RegisterTemplate("greeting", "<p>Hello {{.Name}}</p>"); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := client.SendTemplatedEmail(context.Background(), "greeting",
		struct{ Name string }{Name: "Ana"},
		notifx.Message{To: []string{"ana@example.com"}, Subject: "Hi"})
	if err != nil {
		t.Fatalf("send templated: %v", err)
	}
	if !strings.Contains(sender.sent[0].HTMLBody, "Hello Ana") {
		t.Fatalf("body = %q", sender.sent[0].HTMLBody)
	}
}

func TestSendTemplatedEmail_UnknownTemplate(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "no-reply@example.com")

	err := client.SendTemplatedEmail(context.Background(), "missing", nil,
		notifx.Message{To: []string{"ana@example.com"}, Subject: "Hi"})
	if !errx.IsCode(err, notifx.ErrTemplateNotFound) {
		t.Fatalf("expected NOTIFX_TEMPLATE_NOT_FOUND, got %v", err)
	}
}

func TestRegisterTemplate_ParseError(t *testing.T) {
	client := notifx.NewClient(&captureSender{}, "no-reply@example.com")

	err := client.RegisterTemplate("broken", "{{.Name")
	if !errx.IsCode(err, notifx.ErrTemplateParse) {
		t.Fatalf("expected NOTIFX_TEMPLATE_PARSE, got %v", err)
	}
}

func TestNewSendFailed(t *testing.T) {
	cause := errors.New("smtp connection refused")

	err := notifx.NewSendFailed(cause)
	if !errx.IsCode(err, notifx.ErrSendFailed) {
		t.Fatalf("expected NOTIFX_SEND_FAILED, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the transport cause to be wrapped, got %v", err)
	}
}
