// Package limiter throttles OTP validation attempts per identity and client IP.
package limiter

import (
	"context"
	"time"

	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

// AllClients is the ip hash of the identity-wide scope. HashIP never returns
// an empty slice, so it cannot collide with a per-IP row.
var AllClients = []byte{}

// Limiter tracks failed OTP validations and temporary lockouts.
type Limiter interface {
	// Allow reports whether validation is currently allowed and the remaining block.
	Allow(ctx context.Context, key model.IdentityKey, ipHash []byte) (bool, time.Duration, error)
	// Success clears the counters after a valid code.
	Success(ctx context.Context, key model.IdentityKey, ipHash []byte) error
	// Failure records a wrong code; it may start a block.
	Failure(ctx context.Context, key model.IdentityKey, ipHash []byte) (bool, time.Duration, error)
}
