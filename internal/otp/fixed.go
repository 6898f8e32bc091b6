package otp

import (
	"context"
	"fmt"

	"credvault/internal/notify"
)

// DefaultFixedCode is the demo code every address receives in fixed mode.
const DefaultFixedCode = "123456"

// FixedVerifier hands out the same code to everyone. Use it for demos and
// local development only.
type FixedVerifier struct {
	code     string
	notifier notify.Notifier
}

func NewFixedVerifier(code string, notifier notify.Notifier) *FixedVerifier {
	if code == "" {
		code = DefaultFixedCode
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &FixedVerifier{code: code, notifier: notifier}
}

func (v *FixedVerifier) Send(ctx context.Context, email string) error {
	v.notifier.Notify(ctx, codeMessage(email, v.code))
	return nil
}

func (v *FixedVerifier) Verify(_ context.Context, _ string, code string) (bool, error) {
	return codesEqual(code, v.code), nil
}

func codeMessage(email, code string) notify.Message {
	return notify.Message{
		To:      email,
		Subject: "Your Verification Code",
		Body:    fmt.Sprintf("Your OTP is %s", code),
		Kind:    notify.KindOneTimeCode,
	}
}
