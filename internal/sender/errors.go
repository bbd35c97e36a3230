package sender

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Error classifies a delivery failure. Permanent failures (malformed
// address, rejected recipient or content) will never succeed on retry;
// everything else is assumed transient.
type Error struct {
	Permanent bool
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "send error")
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsPermanent reports whether a send failure is not worth retrying.
// Timeouts and cancellations are transient: the per-attempt deadline cuts
// off slow providers and the retry policy gets another go at them.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var sendErr *Error
	if errors.As(err, &sendErr) {
		return sendErr.Permanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return false
	}

	// Unclassified errors ride the retry path.
	return false
}
