package dispatch

import (
	"time"

	"github.com/sendrelay/sendrelay/internal/sender"
)

// Outcome is the classified result of a single sender invocation.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeTransientFailure
	OutcomePermanentFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeTransientFailure:
		return "transient_failure"
	case OutcomePermanentFailure:
		return "permanent_failure"
	}
	return "unknown"
}

// DecisionKind enumerates what the worker should do with an attempt result.
type DecisionKind int

const (
	Succeed DecisionKind = iota
	RetryAfter
	GiveUp
)

// Decision tells the dispatch worker how to transition a notification
// after an attempt: mark sent, schedule a delayed retry, or fail it.
type Decision struct {
	Kind   DecisionKind
	Delay  time.Duration
	Reason string
}

// ReasonMaxAttempts is recorded as last_error when the retry budget runs out.
const ReasonMaxAttempts = "max attempts exceeded"

// OutcomeOf maps a sender error to an outcome. A nil error is a delivery.
// Anything not explicitly permanent is treated as transient, so unexpected
// sender panics-turned-errors and timeouts go down the retry path rather
// than being dropped.
func OutcomeOf(sendErr error) Outcome {
	if sendErr == nil {
		return OutcomeDelivered
	}
	if sender.IsPermanent(sendErr) {
		return OutcomePermanentFailure
	}
	return OutcomeTransientFailure
}

// Classify turns a sender result into a dispatch decision. attemptsMade is
// the number of delivery attempts completed for the notification, including
// the one that produced sendErr.
func Classify(sendErr error, attemptsMade int, policy RetryPolicy) Decision {
	switch OutcomeOf(sendErr) {
	case OutcomeDelivered:
		return Decision{Kind: Succeed}
	case OutcomePermanentFailure:
		return Decision{Kind: GiveUp, Reason: sendErr.Error()}
	}

	delay, ok := policy.Next(attemptsMade)
	if !ok {
		return Decision{Kind: GiveUp, Reason: ReasonMaxAttempts}
	}
	return Decision{Kind: RetryAfter, Delay: delay, Reason: sendErr.Error()}
}
