package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendrelay/sendrelay/internal/domain"
	"github.com/wneessen/go-mail"
)

// EmailConfig holds SMTP transport settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
	UseTLS   bool
}

// EmailSender delivers notifications over SMTP using go-mail.
type EmailSender struct {
	cfg       EmailConfig
	newClient func() (smtpClient, error)
}

type smtpClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

func NewEmailSender(cfg EmailConfig) (*EmailSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if strings.TrimSpace(cfg.Subject) == "" {
		cfg.Subject = "Notification"
	}

	s := &EmailSender{cfg: cfg}
	s.newClient = s.dialClient
	return s, nil
}

func (s *EmailSender) dialClient() (smtpClient, error) {
	tlsPolicy := mail.NoTLS
	if s.cfg.UseTLS {
		tlsPolicy = mail.TLSMandatory
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return mail.NewClient(s.cfg.Host, opts...)
}

func (s *EmailSender) Send(ctx context.Context, n domain.Notification) error {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return &Error{Permanent: true, Message: "invalid from address", Cause: err}
	}
	if err := m.To(n.RecipientAddress); err != nil {
		return &Error{Permanent: true, Message: fmt.Sprintf("invalid recipient %q", n.RecipientAddress), Cause: err}
	}
	m.Subject(s.cfg.Subject)
	m.SetBodyString(mail.TypeTextPlain, n.Message)

	client, err := s.newClient()
	if err != nil {
		return &Error{Message: "smtp client setup failed", Cause: err}
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return classifySMTPError(err)
	}

	return nil
}

// classifySMTPError maps go-mail failures onto the transient/permanent
// taxonomy: connect and timeout failures retry, 5xx recipient or content
// rejections do not.
func classifySMTPError(err error) error {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) && !sendErr.IsTemp() {
		switch sendErr.Reason {
		case mail.ErrSMTPRcptTo, mail.ErrSMTPMailFrom, mail.ErrSMTPData, mail.ErrSMTPDataClose:
			return &Error{Permanent: true, Message: "recipient rejected by smtp server", Cause: err}
		}
	}

	return &Error{Message: "smtp delivery failed", Cause: err}
}
