// Package httpapi exposes the registration, verification and OTP flows over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamzaharrayhan/face-recognition-login/internal/service"
)

// Services are the flows served by the router.
type Services struct {
	Registration service.RegistrationService
	Verification service.VerificationService
	OTP          service.OTPService
}

// Options tune transport limits. Zero values disable the limiter and use a 32 MiB upload cap.
type Options struct {
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	Metrics        *Metrics
	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Services, opts Options, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{
		reg:       svc.Registration,
		ver:       svc.Verification,
		otp:       svc.OTP,
		maxUpload: opts.MaxUploadBytes,
		metrics:   opts.Metrics,
		log:       log,
	}
	if h.maxUpload <= 0 {
		h.maxUpload = defaultMaxUpload
	}

	r := chi.NewRouter()
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(recoverer(log))
	r.Use(logging(log, opts.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(rateLimit(newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst)))

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.notFound)

	r.Get("/ping", h.ping)
	r.Post("/register", h.register)
	r.Post("/verify-image", h.verifyImage)
	r.Post("/verify-otp", h.verifyOTP)
	r.Post("/resend-otp", h.resendOTP)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	return r
}
