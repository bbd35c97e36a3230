package sender

import (
	"context"
	"errors"
	"testing"

	"github.com/sendrelay/sendrelay/internal/domain"
	"github.com/wneessen/go-mail"
)

type fakeSMTPClient struct {
	dialAndSendFn func(ctx context.Context, messages ...*mail.Msg) error
}

func (f *fakeSMTPClient) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	if f.dialAndSendFn != nil {
		return f.dialAndSendFn(ctx, messages...)
	}
	return nil
}

func TestEmailSenderSendSuccess(t *testing.T) {
	t.Parallel()

	var gotMessages []*mail.Msg

	s, err := NewEmailSender(EmailConfig{
		Host:    "smtp.example.com",
		From:    "noreply@example.com",
		Subject: "Heads up",
	})
	if err != nil {
		t.Fatalf("NewEmailSender() error = %v", err)
	}
	s.newClient = func() (smtpClient, error) {
		return &fakeSMTPClient{
			dialAndSendFn: func(ctx context.Context, messages ...*mail.Msg) error {
				gotMessages = messages
				return nil
			},
		}, nil
	}

	notification := domain.Notification{
		ID:               "n1",
		UserID:           "u1",
		Channel:          domain.ChannelEmail,
		RecipientAddress: "user@example.com",
		Message:          "hello",
	}

	if err := s.Send(context.Background(), notification); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(gotMessages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(gotMessages))
	}
}

func TestEmailSenderSendInvalidRecipient(t *testing.T) {
	t.Parallel()

	s, err := NewEmailSender(EmailConfig{Host: "smtp.example.com", From: "noreply@example.com"})
	if err != nil {
		t.Fatalf("NewEmailSender() error = %v", err)
	}
	s.newClient = func() (smtpClient, error) {
		t.Fatal("client should not be dialed for an invalid recipient")
		return nil, nil
	}

	sendErr := s.Send(context.Background(), domain.Notification{
		RecipientAddress: "not an address",
		Message:          "hello",
	})
	if !IsPermanent(sendErr) {
		t.Fatalf("invalid recipient should be permanent, got %v", sendErr)
	}
}

func TestEmailSenderSendDialFailureIsTransient(t *testing.T) {
	t.Parallel()

	s, err := NewEmailSender(EmailConfig{Host: "smtp.example.com", From: "noreply@example.com"})
	if err != nil {
		t.Fatalf("NewEmailSender() error = %v", err)
	}
	s.newClient = func() (smtpClient, error) {
		return &fakeSMTPClient{
			dialAndSendFn: func(ctx context.Context, messages ...*mail.Msg) error {
				return errors.New("dial tcp: connection refused")
			},
		}, nil
	}

	sendErr := s.Send(context.Background(), domain.Notification{
		RecipientAddress: "user@example.com",
		Message:          "hello",
	})
	if sendErr == nil {
		t.Fatal("Send() should fail when dialing fails")
	}
	if IsPermanent(sendErr) {
		t.Fatal("dial failure should be transient")
	}
}

func TestClassifySMTPError(t *testing.T) {
	t.Parallel()

	rejected := &mail.SendError{Reason: mail.ErrSMTPRcptTo}
	if !IsPermanent(classifySMTPError(rejected)) {
		t.Fatal("rejected recipient should be permanent")
	}

	connect := &mail.SendError{Reason: mail.ErrConnCheck}
	if IsPermanent(classifySMTPError(connect)) {
		t.Fatal("connect failure should be transient")
	}
}

func TestNewEmailSenderValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewEmailSender(EmailConfig{From: "noreply@example.com"}); err == nil {
		t.Fatal("expected error for missing host")
	}
	if _, err := NewEmailSender(EmailConfig{Host: "smtp.example.com"}); err == nil {
		t.Fatal("expected error for missing from address")
	}
}
