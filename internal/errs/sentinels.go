// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Validation and lookup.
var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyRegistered indicates an identity already exists for the key.
	ErrAlreadyRegistered = errors.New("already registered")
)

// Image and face processing.
var (
	// ErrInvalidImageData indicates an empty or non-binary probe image.
	ErrInvalidImageData = errors.New("invalid image data")

	// ErrImageDecode indicates the image bytes could not be decoded to pixels.
	ErrImageDecode = errors.New("image decode")

	// ErrNoFaceDetected indicates zero face encodings were extracted.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrFaceService indicates the face-encoding capability failed.
	ErrFaceService = errors.New("face service")

	// ErrReferenceUnavailable indicates a stored reference image could not be
	// fetched, decoded or encoded.
	ErrReferenceUnavailable = errors.New("reference unavailable")

	// ErrNoMatch indicates no reference matched the probe.
	ErrNoMatch = errors.New("no match")
)

// Storage and delivery.
var (
	// ErrStorageRead indicates a store read failure other than not-found.
	ErrStorageRead = errors.New("storage read")

	// ErrStorageWrite indicates a store write failure.
	ErrStorageWrite = errors.New("storage write")

	// ErrImageWrite is the ErrStorageWrite raised by the image store.
	ErrImageWrite = fmt.Errorf("image %w", ErrStorageWrite)

	// ErrDelivery indicates the notification channel failed to send.
	ErrDelivery = errors.New("delivery")
)

// OTP state.
var (
	// ErrOTPIssuance indicates issuance failed after a successful face match.
	ErrOTPIssuance = errors.New("otp issuance")

	// ErrNoActiveChallenge indicates a resend was requested with no OTP on record.
	ErrNoActiveChallenge = errors.New("no active challenge")

	// ErrTooSoonToResend indicates an unexpired OTP blocks resending.
	ErrTooSoonToResend = errors.New("too soon to resend")

	// ErrVerificationFailed is the generic OTP failure that hides whether the identity exists.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrInvalidCode indicates the submitted code does not match.
	ErrInvalidCode = errors.New("invalid code")

	// ErrExpired indicates the submitted code matched but has expired.
	ErrExpired = errors.New("expired")

	// ErrRateLimited indicates temporary lock due to repeated failed validations.
	ErrRateLimited = errors.New("rate limited")
)
