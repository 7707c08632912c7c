package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
	"github.com/hamzaharrayhan/face-recognition-login/internal/face"
	"github.com/hamzaharrayhan/face-recognition-login/internal/imaging"
	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
	"github.com/hamzaharrayhan/face-recognition-login/internal/repository"
)

// NoMatchError carries the distances of a failed verification.
type NoMatchError struct {
	Distances []float64
}

func (e *NoMatchError) Error() string { return "face match not found" }

func (e *NoMatchError) Unwrap() error { return errs.ErrNoMatch }

// VerificationService matches a probe face against an identity's references.
type VerificationService interface {
	// Verify issues an OTP when the probe matches any reference image.
	Verify(ctx context.Context, key model.IdentityKey, probe []byte) (model.Verification, error)
}

// VerificationServiceImpl implements VerificationService; it issues an OTP on a match.
type VerificationServiceImpl struct {
	identities repository.IdentityRepository
	images     repository.ImageStore
	encoder    face.Encoder
	matcher    *face.Matcher
	otp        OTPService
	maxDim     int

	cache    repository.EncodingCache
	cacheTTL time.Duration
}

// NewVerificationService constructs VerificationService.
func NewVerificationService(identities repository.IdentityRepository, images repository.ImageStore, encoder face.Encoder, matcher *face.Matcher, otp OTPService, maxDim int) *VerificationServiceImpl {
	if matcher == nil {
		matcher = face.NewMatcher()
	}
	return &VerificationServiceImpl{
		identities: identities,
		images:     images,
		encoder:    encoder,
		matcher:    matcher,
		otp:        otp,
		maxDim:     maxDim,
	}
}

// WithCache enables the reference encoding cache.
func (s *VerificationServiceImpl) WithCache(c repository.EncodingCache, ttl time.Duration) *VerificationServiceImpl {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// Verify treats an unknown identity as having no references, which yields a no-match.
func (s *VerificationServiceImpl) Verify(ctx context.Context, key model.IdentityKey, probe []byte) (model.Verification, error) {
	if len(probe) == 0 {
		return model.Verification{}, errs.ErrInvalidImageData
	}
	img, err := imaging.Prepare(probe, s.maxDim)
	if err != nil {
		return model.Verification{}, err
	}
	encs, err := s.encoder.Encode(ctx, img)
	if err != nil {
		return model.Verification{}, err
	}
	if len(encs) == 0 {
		return model.Verification{}, errs.ErrNoFaceDetected
	}
	probeEnc := encs[0]

	var refs []string
	id, err := s.identities.Get(ctx, key)
	switch {
	case err == nil:
		refs = id.FaceImages
	case !errors.Is(err, errs.ErrNotFound):
		return model.Verification{}, fmt.Errorf("%w: %v", errs.ErrStorageRead, err)
	}

	known := make([]model.FaceEncoding, 0, len(refs))
	for _, ref := range refs {
		enc, err := s.referenceEncoding(ctx, ref)
		if err != nil {
			return model.Verification{}, fmt.Errorf("%w: %s: %v", errs.ErrReferenceUnavailable, ref, err)
		}
		known = append(known, enc)
	}

	res := s.matcher.Match(known, probeEnc)
	if !res.AnyMatch {
		return model.Verification{}, &NoMatchError{Distances: res.Distances}
	}

	issue, err := s.otp.Issue(ctx, key, false)
	if err != nil {
		return model.Verification{}, fmt.Errorf("%w: %w", errs.ErrOTPIssuance, err)
	}
	return model.Verification{Distances: res.Distances, OTPIssue: issue}, nil
}

func (s *VerificationServiceImpl) referenceEncoding(ctx context.Context, ref string) (model.FaceEncoding, error) {
	if s.cache != nil {
		if enc, ok, err := s.cache.Get(ctx, ref); err == nil && ok {
			return enc, nil
		}
	}

	data, err := s.images.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Prepare(data, s.maxDim)
	if err != nil {
		return nil, err
	}
	encs, err := s.encoder.Encode(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(encs) == 0 {
		return nil, errs.ErrNoFaceDetected
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, ref, encs[0], s.cacheTTL)
	}
	return encs[0], nil
}
