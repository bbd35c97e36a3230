package sender

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sendrelay/sendrelay/internal/domain"
)

const defaultSMSTimeout = 10 * time.Second

// SMSConfig holds the HTTP SMS gateway settings.
type SMSConfig struct {
	Endpoint   string
	AuthToken  string
	FromNumber string
}

type smsRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// SMSSender delivers notifications through a Twilio-style HTTP gateway.
type SMSSender struct {
	client *resty.Client
	cfg    SMSConfig
}

func NewSMSSender(cfg SMSConfig) (*SMSSender, error) {
	client := resty.New()
	client.SetTimeout(defaultSMSTimeout)
	client.SetRetryCount(0)

	return NewSMSSenderWithClient(cfg, client)
}

func NewSMSSenderWithClient(cfg SMSConfig, client *resty.Client) (*SMSSender, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("sms gateway endpoint is required")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid sms gateway endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSMSTimeout)
	}
	// Retrying is the dispatch engine's job, not the HTTP client's.
	client.SetRetryCount(0)

	return &SMSSender{client: client, cfg: cfg}, nil
}

func (s *SMSSender) Send(ctx context.Context, n domain.Notification) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("sms sender is not initialized")
	}

	req := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(smsRequest{
			To:   n.RecipientAddress,
			From: s.cfg.FromNumber,
			Body: n.Message,
		})
	if s.cfg.AuthToken != "" {
		req.SetAuthToken(s.cfg.AuthToken)
	}

	response, err := req.Post(s.cfg.Endpoint)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &Error{Message: "sms gateway request failed", Cause: err}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(response.String())
	msg := fmt.Sprintf("sms gateway returned status %d", statusCode)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}

	return &Error{
		Permanent: !isTransientHTTPStatus(statusCode),
		Message:   msg,
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
