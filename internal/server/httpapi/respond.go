package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hamzaharrayhan/face-recognition-login/internal/convert"
	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
)

// writeEnvelope writes the JSON envelope. A nil data is omitted.
func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(convert.Envelope{Message: message, StatusCode: status, Data: data})
}

// writeError maps err through table. Server-side failures other than a face
// mismatch are logged with the cause.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error, table []errorCase, data any) {
	status, msg := mapError(err, table)
	if status >= http.StatusInternalServerError && !errors.Is(err, errs.ErrNoMatch) {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeEnvelope(w, status, msg, data)
}
