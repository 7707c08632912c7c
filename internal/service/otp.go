package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/hamzaharrayhan/face-recognition-login/internal/crypto"
	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
	"github.com/hamzaharrayhan/face-recognition-login/internal/limiter"
	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
	"github.com/hamzaharrayhan/face-recognition-login/internal/repository"
	"github.com/hamzaharrayhan/face-recognition-login/internal/sms"
)

// OTPLifetime is how long an issued code stays valid.
const OTPLifetime = 120 * time.Second

// OTPService issues and validates SMS one-time passcodes.
type OTPService interface {
	// Issue creates, persists and sends a new code. With resend it refuses
	// while the current code is still active.
	Issue(ctx context.Context, key model.IdentityKey, resend bool) (model.OTPIssue, error)
	// Validate checks code against the stored challenge without consuming it.
	Validate(ctx context.Context, key model.IdentityKey, code int) error
	// ValidateFromIP applies attempt limiting per (key, ip) and per key, validates and issues an access token.
	ValidateFromIP(ctx context.Context, key model.IdentityKey, code int, ip string) (model.Tokens, error)
}

// OTPServiceImpl implements OTPService over an identity repository and an SMS sender.
type OTPServiceImpl struct {
	identities repository.IdentityRepository
	sender     sms.Sender
	lim        limiter.Limiter
	idLim      limiter.Limiter
	signKey    []byte
	accessTTL  time.Duration

	now     func() time.Time
	newCode func() (int, error)
}

// OTPOption customises an OTPServiceImpl.
type OTPOption func(*OTPServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) OTPOption {
	return func(s *OTPServiceImpl) { s.now = now }
}

// WithCodeGenerator replaces the crypto/rand code source.
func WithCodeGenerator(gen func() (int, error)) OTPOption {
	return func(s *OTPServiceImpl) { s.newCode = gen }
}

// WithAccessTokens enables HS256 access tokens after a validated code.
func WithAccessTokens(signKey []byte, ttl time.Duration) OTPOption {
	return func(s *OTPServiceImpl) {
		s.signKey = signKey
		s.accessTTL = ttl
	}
}

// WithIdentityLimiter adds a lockout counted across all client IPs for an identity.
func WithIdentityLimiter(lim limiter.Limiter) OTPOption {
	return func(s *OTPServiceImpl) { s.idLim = lim }
}

// NewOTPService constructs the OTP lifecycle. lim may be nil to disable attempt limiting.
func NewOTPService(identities repository.IdentityRepository, sender sms.Sender, lim limiter.Limiter, opts ...OTPOption) *OTPServiceImpl {
	s := &OTPServiceImpl{
		identities: identities,
		sender:     sender,
		lim:        lim,
		now:        time.Now,
		newCode:    pkgcrypto.RandomCode,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue persists a fresh challenge before sending it; a send failure leaves it stored.
func (s *OTPServiceImpl) Issue(ctx context.Context, key model.IdentityKey, resend bool) (model.OTPIssue, error) {
	now := s.now().Unix()
	if resend {
		id, err := s.identities.Get(ctx, key)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return model.OTPIssue{}, errs.ErrNoActiveChallenge
		case err != nil:
			return model.OTPIssue{}, fmt.Errorf("%w: %v", errs.ErrStorageRead, err)
		case id.OTP == nil:
			return model.OTPIssue{}, errs.ErrNoActiveChallenge
		case id.OTP.ExpirationTime > now:
			return model.OTPIssue{}, errs.ErrTooSoonToResend
		}
	}

	code, err := s.newCode()
	if err != nil {
		return model.OTPIssue{}, fmt.Errorf("generate code: %w", err)
	}
	otp := model.OTP{Code: code, ExpirationTime: now + int64(OTPLifetime/time.Second)}

	if err := s.identities.SetOTP(ctx, key, otp); err != nil {
		return model.OTPIssue{}, fmt.Errorf("%w: %v", errs.ErrStorageWrite, err)
	}

	msgID, err := s.sender.Send(ctx, key.Recipient(), sms.OTPBody(code))
	if err != nil {
		return model.OTPIssue{}, fmt.Errorf("%w: %v", errs.ErrDelivery, err)
	}
	return model.OTPIssue{MessageID: msgID, Code: code, ExpirationTime: otp.ExpirationTime}, nil
}

// Validate checks the code first and expiry second.
func (s *OTPServiceImpl) Validate(ctx context.Context, key model.IdentityKey, code int) error {
	id, err := s.identities.Get(ctx, key)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return errs.ErrVerificationFailed
	case err != nil:
		return fmt.Errorf("%w: %v", errs.ErrStorageRead, err)
	case id.OTP == nil:
		return errs.ErrVerificationFailed
	}
	if !pkgcrypto.CodesEqual(id.OTP.Code, code) {
		return errs.ErrInvalidCode
	}
	if s.now().Unix() > id.OTP.ExpirationTime {
		return errs.ErrExpired
	}
	return nil
}

// limiterScope pairs a limiter with the ip hash it is keyed on.
type limiterScope struct {
	lim    limiter.Limiter
	ipHash []byte
}

// scopes returns the per-IP scope and the identity-wide scope, when configured.
func (s *OTPServiceImpl) scopes(ip string) []limiterScope {
	var out []limiterScope
	if s.lim != nil {
		out = append(out, limiterScope{lim: s.lim, ipHash: limiter.HashIP(ip)})
	}
	if s.idLim != nil {
		out = append(out, limiterScope{lim: s.idLim, ipHash: limiter.AllClients})
	}
	return out
}

// ValidateFromIP validates with rate limiting by (key, ip) and by key alone,
// then issues an access token.
func (s *OTPServiceImpl) ValidateFromIP(ctx context.Context, key model.IdentityKey, code int, ip string) (model.Tokens, error) {
	scopes := s.scopes(ip)

	for _, sc := range scopes {
		allowed, _, err := sc.lim.Allow(ctx, key, sc.ipHash)
		if err != nil {
			return model.Tokens{}, err
		}
		if !allowed {
			return model.Tokens{}, errs.ErrRateLimited
		}
	}

	if err := s.Validate(ctx, key, code); err != nil {
		if !errors.Is(err, errs.ErrInvalidCode) {
			return model.Tokens{}, err
		}
		blocked := false
		for _, sc := range scopes {
			b, _, ferr := sc.lim.Failure(ctx, key, sc.ipHash)
			if ferr != nil {
				// an unrecorded failure must not look like an ordinary wrong code
				return model.Tokens{}, fmt.Errorf("record failed attempt: %w", ferr)
			}
			blocked = blocked || b
		}
		if blocked {
			return model.Tokens{}, errors.Join(errs.ErrRateLimited, err)
		}
		return model.Tokens{}, err
	}

	for _, sc := range scopes {
		if err := sc.lim.Success(ctx, key, sc.ipHash); err != nil {
			return model.Tokens{}, fmt.Errorf("reset attempt limiter: %w", err)
		}
	}

	if len(s.signKey) == 0 {
		return model.Tokens{}, nil
	}
	access, exp, err := s.issueAccessToken(key)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, nil
}

// issueAccessToken creates a signed HS256 JWT for the identity.
func (s *OTPServiceImpl) issueAccessToken(key model.IdentityKey) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   key.Subject(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}
