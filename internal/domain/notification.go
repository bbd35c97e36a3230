package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status represents the lifecycle state of a notification.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSending  Status = "SENDING"
	StatusSent     Status = "SENT"
	StatusFailed   Status = "FAILED"
	StatusRetrying Status = "RETRYING"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSending, StatusSent, StatusFailed, StatusRetrying:
		return true
	}
	return false
}

// Terminal reports whether no further delivery attempts may follow.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// CanTransition reports whether the edge from -> to exists in the
// notification state machine. Claiming moves PENDING or RETRYING to
// SENDING; a SENDING attempt resolves to SENT, RETRYING or FAILED.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending, StatusRetrying:
		return to == StatusSending
	case StatusSending:
		return to == StatusSent || to == StatusRetrying || to == StatusFailed
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Channel represents the delivery channel.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelInApp Channel = "IN_APP"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	ch := Channel(normalized)
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// MaxSMSMessage is the longest accepted SMS payload (concatenated segments).
const MaxSMSMessage = 1600

// Notification is the core domain entity representing a message to be
// delivered through a single channel.
type Notification struct {
	ID               string
	UserID           string
	Channel          Channel
	Message          string
	RecipientAddress string
	Status           Status
	AttemptCount     int
	MaxAttempts      int
	LastError        *string
	NextRetryAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

func (n *Notification) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	if !n.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, n.Channel)
	}

	recipient := strings.TrimSpace(n.RecipientAddress)
	switch n.Channel {
	case ChannelEmail:
		if recipient == "" {
			return fmt.Errorf("%w: recipient address is required for email", ErrValidation)
		}
		if !strings.Contains(recipient, "@") {
			return fmt.Errorf("%w: invalid email address %q", ErrValidation, recipient)
		}
	case ChannelSMS:
		if recipient == "" {
			return fmt.Errorf("%w: recipient address is required for sms", ErrValidation)
		}
		if !strings.HasPrefix(recipient, "+") {
			return fmt.Errorf("%w: phone number must be in international format", ErrValidation)
		}
		if utf8.RuneCountInString(n.Message) > MaxSMSMessage {
			return fmt.Errorf("%w: SMS message exceeds %d characters", ErrValidation, MaxSMSMessage)
		}
	case ChannelInApp:
		// In-app delivery targets the user inbox; no address needed.
	}

	return nil
}
