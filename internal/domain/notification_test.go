package domain

import (
	"errors"
	"testing"
)

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	status, err := ParseStatusFromString(" pending ")
	if err != nil {
		t.Fatalf("ParseStatusFromString() error = %v", err)
	}
	if status != StatusPending {
		t.Fatalf("status = %s, want PENDING", status)
	}

	if _, err := ParseStatusFromString("bogus"); !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestParseChannelFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Channel
	}{
		{in: "email", want: ChannelEmail},
		{in: "SMS", want: ChannelSMS},
		{in: "in_app", want: ChannelInApp},
		{in: "in-app", want: ChannelInApp},
	}

	for _, tt := range tests {
		got, err := ParseChannelFromString(tt.in)
		if err != nil {
			t.Fatalf("ParseChannelFromString(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseChannelFromString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseChannelFromString("pigeon"); !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	if !StatusSent.Terminal() || !StatusFailed.Terminal() {
		t.Fatal("SENT and FAILED should be terminal")
	}
	if StatusPending.Terminal() || StatusSending.Terminal() || StatusRetrying.Terminal() {
		t.Fatal("PENDING, SENDING and RETRYING should not be terminal")
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := [][2]Status{
		{StatusPending, StatusSending},
		{StatusRetrying, StatusSending},
		{StatusSending, StatusSent},
		{StatusSending, StatusRetrying},
		{StatusSending, StatusFailed},
	}
	for _, edge := range allowed {
		if !CanTransition(edge[0], edge[1]) {
			t.Fatalf("CanTransition(%s, %s) = false, want true", edge[0], edge[1])
		}
	}

	denied := [][2]Status{
		{StatusPending, StatusSent},
		{StatusPending, StatusFailed},
		{StatusSent, StatusSending},
		{StatusFailed, StatusSending},
		{StatusSending, StatusPending},
		{StatusRetrying, StatusSent},
	}
	for _, edge := range denied {
		if CanTransition(edge[0], edge[1]) {
			t.Fatalf("CanTransition(%s, %s) = true, want false", edge[0], edge[1])
		}
	}
}

func TestNotificationValidate(t *testing.T) {
	t.Parallel()

	base := Notification{
		UserID:           "u1",
		Channel:          ChannelEmail,
		Message:          "hello",
		RecipientAddress: "user@example.com",
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	n := base
	n.UserID = "  "
	if err := n.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty user id: error = %v, want ErrValidation", err)
	}

	n = base
	n.Message = ""
	if err := n.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty message: error = %v, want ErrValidation", err)
	}

	n = base
	n.RecipientAddress = "not-an-address"
	if err := n.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad email: error = %v, want ErrValidation", err)
	}

	n = base
	n.Channel = ChannelSMS
	n.RecipientAddress = "05551112233"
	if err := n.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("non-international phone: error = %v, want ErrValidation", err)
	}
	n.RecipientAddress = "+15551112233"
	if err := n.Validate(); err != nil {
		t.Fatalf("valid sms: unexpected error: %v", err)
	}

	n = base
	n.Channel = ChannelInApp
	n.RecipientAddress = ""
	if err := n.Validate(); err != nil {
		t.Fatalf("in-app without address: unexpected error: %v", err)
	}

	n = base
	n.Channel = Channel("CARRIER_PIGEON")
	if err := n.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("invalid channel: error = %v, want ErrValidation", err)
	}
}
