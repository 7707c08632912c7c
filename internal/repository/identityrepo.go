// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

// IdentityRepository provides keyed access to identity documents.
type IdentityRepository interface {
	// Get loads an identity by key; returns errs.ErrNotFound when absent.
	Get(ctx context.Context, key model.IdentityKey) (*model.Identity, error)
	// Create inserts a new identity; returns errs.ErrAlreadyRegistered on key collision.
	Create(ctx context.Context, id *model.Identity) error
	// SetOTP replaces the OTP sub-record (last writer wins).
	SetOTP(ctx context.Context, key model.IdentityKey, otp model.OTP) error
}
