package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/face?sslmode=disable")
	t.Setenv("FACE_ENCODER_URL", "http://localhost:5000")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_MESSAGING_SERVICE_SID", "MG1")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.HealthAddr != ":8081" {
		t.Errorf("addrs = %q %q", cfg.HTTPAddr, cfg.HealthAddr)
	}
	if cfg.ImageStore != ImageStorePostgres {
		t.Errorf("ImageStore = %q", cfg.ImageStore)
	}
	if cfg.SMSMaxAttempts != 5 {
		t.Errorf("SMSMaxAttempts = %d, want 5", cfg.SMSMaxAttempts)
	}
	if cfg.FaceMaxDimension != 1024 {
		t.Errorf("FaceMaxDimension = %d", cfg.FaceMaxDimension)
	}
	if cfg.MaxUploadBytes != 32<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.AccessTTL() != 15*time.Minute || cfg.CacheTTL() != 24*time.Hour || cfg.EncoderTimeout() != 30*time.Second {
		t.Errorf("durations = %v %v %v", cfg.AccessTTL(), cfg.CacheTTL(), cfg.EncoderTimeout())
	}
	if cfg.OTPMaxFails != 5 || cfg.FailWindow() != 15*time.Minute || cfg.BlockFor() != 15*time.Minute {
		t.Errorf("limiter = %d %v %v", cfg.OTPMaxFails, cfg.FailWindow(), cfg.BlockFor())
	}
	if cfg.OTPMaxIdentityFails != 20 {
		t.Errorf("OTPMaxIdentityFails = %d", cfg.OTPMaxIdentityFails)
	}
	if cfg.TrustProxyHeaders {
		t.Errorf("proxy headers must not be trusted by default")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("IMAGE_STORE", "s3")
	t.Setenv("S3_BUCKET", "faces")
	t.Setenv("JWT_ACCESS_TTL", "1h")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SMS_MAX_ATTEMPTS", "3")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.ImageStore != ImageStoreS3 || cfg.S3Bucket != "faces" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AccessTTL() != time.Hour || cfg.RateLimitRPS != 2.5 || cfg.SMSMaxAttempts != 3 {
		t.Errorf("overrides not applied: %v %v %d", cfg.AccessTTL(), cfg.RateLimitRPS, cfg.SMSMaxAttempts)
	}
	if !cfg.TrustProxyHeaders {
		t.Errorf("TRUST_PROXY_HEADERS not applied")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad store", map[string]string{"IMAGE_STORE": "dynamodb"}, "IMAGE_STORE"},
		{"dev sms in production", map[string]string{"SMS_DEV_MODE": "true", "APP_ENV": "production"}, "SMS_DEV_MODE"},
		{"missing twilio", map[string]string{"TWILIO_AUTH_TOKEN": ""}, "TWILIO"},
		{"missing encoder", map[string]string{"FACE_ENCODER_URL": ""}, "FACE_ENCODER_URL"},
		{"missing db", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) || !strings.HasPrefix(err.Error(), "config:") {
				t.Fatalf("want config error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_DevModeWithoutTwilio(t *testing.T) {
	setRequired(t)
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("SMS_DEV_MODE", "true")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.SMSDevMode || !cfg.IsDevelopment() {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestDuration_FallsBack(t *testing.T) {
	c := &Config{JWTAccessTTL: "nonsense", OTPBlockFor: "-1m"}
	if c.AccessTTL() != 15*time.Minute || c.BlockFor() != 15*time.Minute {
		t.Errorf("fallbacks = %v %v", c.AccessTTL(), c.BlockFor())
	}
}
