// Package model defines domain entities used by services and repositories.
package model

import (
	"time"
)

// ReferenceImageCount is the number of enrollment images per identity.
const ReferenceImageCount = 3

// IdentityKey is the composite, immutable identity key.
type IdentityKey struct {
	PhoneNumber string
	CountryCode string
}

// Recipient returns the E.164-style destination used for SMS delivery.
func (k IdentityKey) Recipient() string {
	return "+" + k.CountryCode + k.PhoneNumber
}

// Subject returns a stable string form of the key, used as token subject and limiter key.
func (k IdentityKey) Subject() string {
	return k.CountryCode + ":" + k.PhoneNumber
}

// OTP is the one-time-passcode sub-record of an identity.
type OTP struct {
	Code           int   // 6 digits, [100000, 999999]
	ExpirationTime int64 // unix seconds
}

// Identity is one enrolled person.
type Identity struct {
	Key        IdentityKey
	FullName   string
	FaceImages []string // opaque image refs, exactly ReferenceImageCount
	OTP        *OTP     // nil until the first issuance
	CreatedAt  time.Time
}

// FaceEncoding is a fixed-length feature vector derived from one face image.
type FaceEncoding []float64

// OTPIssue reports a freshly issued challenge.
type OTPIssue struct {
	MessageID      string
	Code           int
	ExpirationTime int64
}

// Verification is the successful outcome of a face verification.
type Verification struct {
	Distances []float64
	OTPIssue
}

// Tokens collects the access token issued after a validated OTP.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}
