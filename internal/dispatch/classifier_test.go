package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sendrelay/sendrelay/internal/sender"
)

func TestOutcomeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "nil error is delivered", err: nil, want: OutcomeDelivered},
		{name: "permanent sender error", err: &sender.Error{Permanent: true, Message: "bad recipient"}, want: OutcomePermanentFailure},
		{name: "transient sender error", err: &sender.Error{Message: "gateway 503"}, want: OutcomeTransientFailure},
		{name: "wrapped permanent error", err: fmt.Errorf("send: %w", &sender.Error{Permanent: true, Message: "rejected"}), want: OutcomePermanentFailure},
		{name: "deadline exceeded is transient", err: context.DeadlineExceeded, want: OutcomeTransientFailure},
		{name: "context canceled is transient", err: context.Canceled, want: OutcomeTransientFailure},
		{name: "unknown error is transient", err: errors.New("something broke"), want: OutcomeTransientFailure},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := OutcomeOf(tc.err); got != tc.want {
				t.Fatalf("OutcomeOf() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyDelivered(t *testing.T) {
	t.Parallel()

	decision := Classify(nil, 1, DefaultRetryPolicy())
	if decision.Kind != Succeed {
		t.Fatalf("decision = %+v, want Succeed", decision)
	}
}

func TestClassifyTransientRetries(t *testing.T) {
	t.Parallel()

	sendErr := &sender.Error{Message: "gateway 503"}

	decision := Classify(sendErr, 1, DefaultRetryPolicy())
	if decision.Kind != RetryAfter {
		t.Fatalf("decision kind = %v, want RetryAfter", decision.Kind)
	}
	if decision.Delay != 30*time.Second {
		t.Fatalf("delay = %s, want 30s", decision.Delay)
	}
	if decision.Reason != sendErr.Error() {
		t.Fatalf("reason = %q, want sender message", decision.Reason)
	}

	decision = Classify(sendErr, 2, DefaultRetryPolicy())
	if decision.Kind != RetryAfter || decision.Delay != 60*time.Second {
		t.Fatalf("decision = %+v, want RetryAfter 60s", decision)
	}
}

func TestClassifyTransientExhausted(t *testing.T) {
	t.Parallel()

	decision := Classify(&sender.Error{Message: "gateway 503"}, 3, DefaultRetryPolicy())
	if decision.Kind != GiveUp {
		t.Fatalf("decision kind = %v, want GiveUp", decision.Kind)
	}
	if decision.Reason != ReasonMaxAttempts {
		t.Fatalf("reason = %q, want %q", decision.Reason, ReasonMaxAttempts)
	}
}

func TestClassifyPermanentGivesUpImmediately(t *testing.T) {
	t.Parallel()

	sendErr := &sender.Error{Permanent: true, Message: "mailbox does not exist"}

	decision := Classify(sendErr, 1, DefaultRetryPolicy())
	if decision.Kind != GiveUp {
		t.Fatalf("decision kind = %v, want GiveUp", decision.Kind)
	}
	if decision.Reason != sendErr.Error() {
		t.Fatalf("reason = %q, want sender message", decision.Reason)
	}
}
