package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

// IdentityRepo implements IdentityRepository using PostgreSQL.
type IdentityRepo struct{ db *DB }

// NewIdentityRepo constructs an identity repository.
func NewIdentityRepo(db *DB) *IdentityRepo { return &IdentityRepo{db: db} }

// Create inserts a new identity row without an OTP.
func (r *IdentityRepo) Create(ctx context.Context, id *model.Identity) error {
	const q = `
INSERT INTO identities (phone_number, country_code, full_name, face_images)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, id.Key.PhoneNumber, id.Key.CountryCode, id.FullName, id.FaceImages)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyRegistered
	}
	return err
}

// Get selects an identity by its composite key.
func (r *IdentityRepo) Get(ctx context.Context, key model.IdentityKey) (*model.Identity, error) {
	const q = `
SELECT phone_number, country_code, full_name, face_images, otp_code, otp_expiration_time, created_at
FROM identities WHERE phone_number=$1 AND country_code=$2`
	var (
		id   model.Identity
		code *int32
		exp  *int64
	)
	err := r.db.Pool.QueryRow(ctx, q, key.PhoneNumber, key.CountryCode).Scan(
		&id.Key.PhoneNumber, &id.Key.CountryCode, &id.FullName, &id.FaceImages, &code, &exp, &id.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	// both columns are written together; a half-set row is treated as no OTP
	if code != nil && exp != nil {
		id.OTP = &model.OTP{Code: int(*code), ExpirationTime: *exp}
	}
	return &id, nil
}

// SetOTP overwrites the OTP columns; no compare-and-swap.
func (r *IdentityRepo) SetOTP(ctx context.Context, key model.IdentityKey, otp model.OTP) error {
	const q = `
UPDATE identities
SET otp_code = $3, otp_expiration_time = $4
WHERE phone_number = $1 AND country_code = $2`
	tag, err := r.db.Pool.Exec(ctx, q, key.PhoneNumber, key.CountryCode, int32(otp.Code), otp.ExpirationTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
