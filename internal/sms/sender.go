// Package sms delivers OTP messages.
package sms

import (
	"context"
	"fmt"
)

// Sender delivers body to an E.164 recipient and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// OTPBody formats the message text carrying code.
func OTPBody(code int) string {
	return fmt.Sprintf("[Image Verify] OTP Code: %d", code)
}
