package httpapi

import (
	"errors"
	"net/http"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
)

// errorCase maps a sentinel to a status and a client-facing message.
// Tables are scanned in order, so more specific sentinels come first.
type errorCase struct {
	target  error
	status  int
	message string
}

const (
	msgDecode        = "Failed to decode image. The image might be corrupt or invalid."
	msgFaceService   = "Face recognition service unavailable."
	msgStorageRead   = "Failed to read identity record."
	msgSaveOTP       = "Failed to save OTP and expiration time"
	msgSendOTP       = "Failed to send OTP"
	msgRateLimited   = "Too many failed attempts. Please try again later."
	msgTooManyReqs   = "Too many requests"
	msgInternal      = "internal server error"
	msgMissingFields = "Invalid or missing data"
)

var registerErrors = []errorCase{
	{errs.ErrValidation, http.StatusBadRequest, "Face images must be exactly 3"},
	{errs.ErrAlreadyRegistered, http.StatusBadRequest, "Phone number and country code already registered."},
	{errs.ErrImageDecode, http.StatusInternalServerError, msgDecode},
	{errs.ErrNoFaceDetected, http.StatusBadRequest, "No face detected in one of the uploaded images."},
	{errs.ErrFaceService, http.StatusInternalServerError, msgFaceService},
	{errs.ErrImageWrite, http.StatusInternalServerError, "Failed to save image."},
	{errs.ErrStorageWrite, http.StatusInternalServerError, "Failed to save identity record."},
	{errs.ErrStorageRead, http.StatusInternalServerError, msgStorageRead},
}

var verifyImageErrors = []errorCase{
	{errs.ErrInvalidImageData, http.StatusInternalServerError, "Invalid image data. Ensure that the image data is properly transmitted and in bytes."},
	{errs.ErrImageDecode, http.StatusInternalServerError, msgDecode},
	{errs.ErrNoFaceDetected, http.StatusBadRequest, "No face image found, please upload a valid face image."},
	{errs.ErrReferenceUnavailable, http.StatusInternalServerError, "Failed to load registered face images."},
	{errs.ErrNoMatch, http.StatusInternalServerError, "Face match not found"},
	{errs.ErrDelivery, http.StatusInternalServerError, msgSendOTP},
	{errs.ErrStorageWrite, http.StatusInternalServerError, msgSaveOTP},
	{errs.ErrFaceService, http.StatusInternalServerError, msgFaceService},
	{errs.ErrStorageRead, http.StatusInternalServerError, msgStorageRead},
}

var verifyOTPErrors = []errorCase{
	{errs.ErrRateLimited, http.StatusTooManyRequests, msgRateLimited},
	{errs.ErrVerificationFailed, http.StatusBadRequest, "OTP verification failed. Please try again later."},
	{errs.ErrInvalidCode, http.StatusBadRequest, "Invalid OTP. Please try again."},
	{errs.ErrExpired, http.StatusBadRequest, "OTP expired. Please try again."},
	{errs.ErrStorageRead, http.StatusInternalServerError, msgStorageRead},
}

var resendOTPErrors = []errorCase{
	{errs.ErrNoActiveChallenge, http.StatusBadRequest, "Failed to get OTP and expiration time"},
	{errs.ErrTooSoonToResend, http.StatusBadRequest, "Failed to resend OTP as it is not expired yet"},
	{errs.ErrStorageWrite, http.StatusInternalServerError, msgSaveOTP},
	{errs.ErrDelivery, http.StatusInternalServerError, msgSendOTP},
	{errs.ErrStorageRead, http.StatusInternalServerError, msgStorageRead},
}

// mapError resolves err against table. Unknown errors are 500 with the error text.
func mapError(err error, table []errorCase) (int, string) {
	for _, c := range table {
		if errors.Is(err, c.target) {
			return c.status, c.message
		}
	}
	return http.StatusInternalServerError, err.Error()
}
