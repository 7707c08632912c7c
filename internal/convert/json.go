// Package convert maps domain values to and from the JSON wire format.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

// --- response envelope ---

// Envelope wraps every HTTP response body.
type Envelope struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data,omitempty"`
}

// VerificationData is returned by a successful face verification.
type VerificationData struct {
	FaceDistances []float64 `json:"face_distances"`
	MessageID     string    `json:"message_id"`
	OTPCode       int       `json:"otp_code"`
	OTPExpiration int64     `json:"otp_expiration"`
}

// DistancesData is returned when no reference matched.
type DistancesData struct {
	FaceDistances []float64 `json:"face_distances"`
}

// OTPIssueData is returned by resend.
type OTPIssueData struct {
	MessageID     string `json:"message_id"`
	OTPCode       int    `json:"otp_code"`
	OTPExpiration int64  `json:"otp_expiration"`
}

// TokenData is returned by OTP validation when access tokens are enabled.
type TokenData struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

func distances(d []float64) []float64 {
	if d == nil {
		return []float64{}
	}
	return d
}

// ToVerificationData converts a verification outcome.
func ToVerificationData(v model.Verification) VerificationData {
	return VerificationData{
		FaceDistances: distances(v.Distances),
		MessageID:     v.MessageID,
		OTPCode:       v.Code,
		OTPExpiration: v.ExpirationTime,
	}
}

// ToDistancesData converts the distances of a failed match.
func ToDistancesData(d []float64) DistancesData {
	return DistancesData{FaceDistances: distances(d)}
}

// ToOTPIssueData converts an issued challenge.
func ToOTPIssueData(i model.OTPIssue) OTPIssueData {
	return OTPIssueData{MessageID: i.MessageID, OTPCode: i.Code, OTPExpiration: i.ExpirationTime}
}

// ToTokenData converts tokens; it returns nil when no token was issued.
func ToTokenData(t model.Tokens) *TokenData {
	if t.AccessToken == "" {
		return nil
	}
	return &TokenData{AccessToken: t.AccessToken, ExpiresAt: t.ExpiresAt.UTC().Format(time.RFC3339)}
}

// --- requests ---

// OTPCode accepts the code as a JSON number or a numeric string.
type OTPCode int

func (c *OTPCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("otp: %w", err)
	}
	*c = OTPCode(n)
	return nil
}

// IdentityRequest is the JSON body of resend.
type IdentityRequest struct {
	PhoneNumber string `json:"phone_number"`
	CountryCode string `json:"country_code"`
}

// Key returns the identity key of the request.
func (r IdentityRequest) Key() model.IdentityKey {
	return model.IdentityKey{PhoneNumber: r.PhoneNumber, CountryCode: r.CountryCode}
}

// Complete reports whether both key parts are present.
func (r IdentityRequest) Complete() bool {
	return r.PhoneNumber != "" && r.CountryCode != ""
}

// VerifyOTPRequest is the JSON body of OTP validation.
type VerifyOTPRequest struct {
	IdentityRequest
	OTP OTPCode `json:"otp"`
}

// Complete reports whether the key and a non-zero code are present.
func (r VerifyOTPRequest) Complete() bool {
	return r.IdentityRequest.Complete() && r.OTP != 0
}
