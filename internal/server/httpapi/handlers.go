package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hamzaharrayhan/face-recognition-login/internal/convert"
	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
	"github.com/hamzaharrayhan/face-recognition-login/internal/service"
)

const defaultMaxUpload = 32 << 20

type handler struct {
	reg       service.RegistrationService
	ver       service.VerificationService
	otp       service.OTPService
	maxUpload int64
	metrics   *Metrics
	log       *zap.Logger
}

func (h *handler) ping(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusOK, "success health check", nil)
}

func (h *handler) notFound(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusNotFound, "not found", nil)
}

// parseMultipart caps the body at maxUpload and parses the form.
func (h *handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	return r.ParseMultipartForm(h.maxUpload)
}

func formValue(r *http.Request, name string) string {
	if vs := r.MultipartForm.Value[name]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		writeEnvelope(w, http.StatusBadRequest, msgMissingFields, nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["face_image"]
	if len(files) < model.ReferenceImageCount {
		writeEnvelope(w, http.StatusBadRequest, "Face images must be exactly 3", nil)
		return
	}
	files = files[:model.ReferenceImageCount]

	fullName := formValue(r, "full_name")
	key := model.IdentityKey{PhoneNumber: formValue(r, "phone_number"), CountryCode: formValue(r, "country_code")}
	if fullName == "" || key.PhoneNumber == "" || key.CountryCode == "" {
		writeEnvelope(w, http.StatusBadRequest, msgMissingFields, nil)
		return
	}

	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		b, err := readPart(fh)
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, msgMissingFields, nil)
			return
		}
		images = append(images, b)
	}

	if err := h.reg.Register(r.Context(), fullName, key, images); err != nil {
		h.writeError(w, r, err, registerErrors, nil)
		return
	}
	writeEnvelope(w, http.StatusOK, "Success Register!", nil)
}

func (h *handler) verifyImage(w http.ResponseWriter, r *http.Request) {
	const missing = "Missing phone number, country code, or face image"
	if err := h.parseMultipart(w, r); err != nil {
		writeEnvelope(w, http.StatusBadRequest, missing, nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	key := model.IdentityKey{PhoneNumber: formValue(r, "phone_number"), CountryCode: formValue(r, "country_code")}
	var probe []byte
	if files := r.MultipartForm.File["face_image"]; len(files) > 0 {
		b, err := readPart(files[0])
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, missing, nil)
			return
		}
		probe = b
	}
	if key.PhoneNumber == "" || key.CountryCode == "" || len(probe) == 0 {
		writeEnvelope(w, http.StatusBadRequest, missing, nil)
		return
	}

	v, err := h.ver.Verify(r.Context(), key, probe)
	if err != nil {
		var nm *service.NoMatchError
		if errors.As(err, &nm) {
			h.metrics.verification("no_match")
			h.writeError(w, r, err, verifyImageErrors, convert.ToDistancesData(nm.Distances))
			return
		}
		h.metrics.verification("error")
		h.writeError(w, r, err, verifyImageErrors, nil)
		return
	}
	h.metrics.verification("match")
	writeEnvelope(w, http.StatusOK, "face match found", convert.ToVerificationData(v))
}

func (h *handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	const missing = "Missing phone number, country code, or otp"
	var req convert.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Complete() {
		writeEnvelope(w, http.StatusBadRequest, missing, nil)
		return
	}

	tokens, err := h.otp.ValidateFromIP(r.Context(), req.Key(), int(req.OTP), clientIP(r))
	if err != nil {
		h.metrics.otpCheck("rejected")
		h.writeError(w, r, err, verifyOTPErrors, nil)
		return
	}
	h.metrics.otpCheck("verified")
	if td := convert.ToTokenData(tokens); td != nil {
		writeEnvelope(w, http.StatusOK, "OTP verified", td)
		return
	}
	writeEnvelope(w, http.StatusOK, "OTP verified", nil)
}

func (h *handler) resendOTP(w http.ResponseWriter, r *http.Request) {
	const missing = "Missing phone number or country code"
	var req convert.IdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Complete() {
		writeEnvelope(w, http.StatusBadRequest, missing, nil)
		return
	}

	issue, err := h.otp.Issue(r.Context(), req.Key(), true)
	if err != nil {
		h.writeError(w, r, err, resendOTPErrors, nil)
		return
	}
	writeEnvelope(w, http.StatusOK, "OTP sent", convert.ToOTPIssueData(issue))
}
