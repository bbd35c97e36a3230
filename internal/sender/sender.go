package sender

import (
	"context"
	"fmt"

	"github.com/sendrelay/sendrelay/internal/domain"
)

// Sender is the outbound delivery port for one channel. It attempts
// delivery of the notification's message to its recipient address; a nil
// return means the message was handed to the channel transport. Failures
// are reported as *Error so callers can distinguish transient from
// permanent ones.
//
// Senders never touch notification status. Interpreting the result is the
// dispatch worker's job.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Registry resolves the sender for a channel.
type Registry struct {
	senders map[domain.Channel]Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[domain.Channel]Sender)}
}

func (r *Registry) Register(channel domain.Channel, s Sender) {
	if r.senders == nil {
		r.senders = make(map[domain.Channel]Sender)
	}
	r.senders[channel] = s
}

// For returns the sender registered for channel. An unknown channel is a
// permanent error: retrying cannot make a sender appear.
func (r *Registry) For(channel domain.Channel) (Sender, error) {
	if r != nil {
		if s, ok := r.senders[channel]; ok && s != nil {
			return s, nil
		}
	}
	return nil, &Error{
		Permanent: true,
		Message:   fmt.Sprintf("no sender registered for channel %q", channel),
	}
}
