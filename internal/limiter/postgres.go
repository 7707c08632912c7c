package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds lockout parameters.
type Config struct {
	Window   time.Duration // failures older than this restart the count
	MaxFails int
	BlockFor time.Duration
}

// PG keeps limiter state in the otp_limiter table.
type PG struct {
	q   Querier
	cfg Config
	now func() time.Time
}

// NewPG constructs a limiter over q.
func NewPG(q Querier, cfg Config) *PG {
	if cfg.MaxFails <= 0 {
		cfg.MaxFails = 5
	}
	return &PG{q: q, cfg: cfg, now: time.Now}
}

// HashIP returns a stable hash for an IP string so raw addresses are never stored.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Allow reports whether validation is allowed and how long the current block lasts.
func (l *PG) Allow(ctx context.Context, key model.IdentityKey, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM otp_limiter WHERE phone_number=$1 AND country_code=$2 AND ip_hash=$3`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, key.PhoneNumber, key.CountryCode, ipHash).Scan(&blockedUntil)
	switch {
	case err == nil:
		if now := l.now(); blockedUntil.After(now) {
			return false, blockedUntil.Sub(now), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Success resets the counters for (key, ip).
func (l *PG) Success(ctx context.Context, key model.IdentityKey, ipHash []byte) error {
	const q = `
INSERT INTO otp_limiter (phone_number, country_code, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,$3,0,'epoch',now())
ON CONFLICT (phone_number, country_code, ip_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	_, err := l.q.Exec(ctx, q, key.PhoneNumber, key.CountryCode, ipHash)
	return err
}

// Failure counts a wrong code and blocks once MaxFails is reached within Window.
func (l *PG) Failure(ctx context.Context, key model.IdentityKey, ipHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO otp_limiter (phone_number, country_code, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,$3,1,'epoch',now())
ON CONFLICT (phone_number, country_code, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - otp_limiter.updated_at > $4::interval THEN 1 ELSE otp_limiter.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.q.QueryRow(ctx, q, key.PhoneNumber, key.CountryCode, ipHash, l.cfg.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.cfg.MaxFails {
		return false, 0, nil
	}
	const upd = `UPDATE otp_limiter SET blocked_until=$4 WHERE phone_number=$1 AND country_code=$2 AND ip_hash=$3`
	if _, err := l.q.Exec(ctx, upd, key.PhoneNumber, key.CountryCode, ipHash, l.now().Add(l.cfg.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.cfg.BlockFor, nil
}
