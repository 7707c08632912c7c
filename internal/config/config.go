// Package config loads server settings from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Image store backends.
const (
	ImageStorePostgres = "postgres"
	ImageStoreS3       = "s3"
)

// Config holds the server settings. Durations are Go duration strings.
type Config struct {
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	HealthAddr  string `mapstructure:"HEALTH_ADDR"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	Env         string `mapstructure:"APP_ENV"`

	ImageStore string `mapstructure:"IMAGE_STORE"`
	S3Bucket   string `mapstructure:"S3_BUCKET"`
	S3Region   string `mapstructure:"S3_REGION"`

	FaceEncoderURL     string `mapstructure:"FACE_ENCODER_URL"`
	FaceEncoderTimeout string `mapstructure:"FACE_ENCODER_TIMEOUT"`
	FaceMaxDimension   int    `mapstructure:"FACE_MAX_DIMENSION"`

	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	EncodingCacheTTL string `mapstructure:"ENCODING_CACHE_TTL"`

	TwilioAccountSID          string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken           string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioMessagingServiceSID string `mapstructure:"TWILIO_MESSAGING_SERVICE_SID"`
	TwilioBaseURL             string `mapstructure:"TWILIO_BASE_URL"`
	SMSMaxAttempts            int    `mapstructure:"SMS_MAX_ATTEMPTS"`
	// SMSDevMode logs messages instead of sending them. Never in production.
	SMSDevMode bool `mapstructure:"SMS_DEV_MODE"`

	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`
	JWTAccessTTL  string `mapstructure:"JWT_ACCESS_TTL"`

	OTPMaxFails   int    `mapstructure:"OTP_MAX_FAILS"`
	// OTPMaxIdentityFails bounds failed codes per identity across all client IPs.
	OTPMaxIdentityFails int `mapstructure:"OTP_MAX_IDENTITY_FAILS"`
	OTPFailWindow string `mapstructure:"OTP_FAIL_WINDOW"`
	OTPBlockFor   string `mapstructure:"OTP_BLOCK_FOR"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	MaxUploadBytes int64   `mapstructure:"MAX_UPLOAD_BYTES"`
	// TrustProxyHeaders reads the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool `mapstructure:"TRUST_PROXY_HEADERS"`
}

// Load reads .env if present, applies environment overrides and defaults, and validates.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("HEALTH_ADDR", ":8081")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("IMAGE_STORE", ImageStorePostgres)
	v.SetDefault("S3_BUCKET", "python-face-recognition")
	v.SetDefault("S3_REGION", "me-central-1")
	v.SetDefault("FACE_ENCODER_URL", "")
	v.SetDefault("FACE_ENCODER_TIMEOUT", "30s")
	v.SetDefault("FACE_MAX_DIMENSION", 1024)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("ENCODING_CACHE_TTL", "24h")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_MESSAGING_SERVICE_SID", "")
	v.SetDefault("TWILIO_BASE_URL", "https://api.twilio.com")
	v.SetDefault("SMS_MAX_ATTEMPTS", 5)
	v.SetDefault("SMS_DEV_MODE", false)
	v.SetDefault("JWT_SIGNING_KEY", "")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("OTP_MAX_FAILS", 5)
	v.SetDefault("OTP_MAX_IDENTITY_FAILS", 20)
	v.SetDefault("OTP_FAIL_WINDOW", "15m")
	v.SetDefault("OTP_BLOCK_FOR", "15m")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("MAX_UPLOAD_BYTES", 32<<20)
	v.SetDefault("TRUST_PROXY_HEADERS", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings and their combinations.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set")
	}
	if c.FaceEncoderURL == "" {
		return errors.New("config: FACE_ENCODER_URL must be set")
	}
	switch c.ImageStore {
	case ImageStorePostgres:
	case ImageStoreS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return errors.New("config: S3_BUCKET and S3_REGION must be set when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("config: IMAGE_STORE must be %q or %q, got %q", ImageStorePostgres, ImageStoreS3, c.ImageStore)
	}
	if c.SMSDevMode && c.IsProduction() {
		return errors.New("config: SMS_DEV_MODE must not be true when APP_ENV=production")
	}
	if !c.SMSDevMode && (c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioMessagingServiceSID == "") {
		return errors.New("config: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_MESSAGING_SERVICE_SID must be set unless SMS_DEV_MODE=true")
	}
	if c.FaceMaxDimension < 0 {
		return errors.New("config: FACE_MAX_DIMENSION must not be negative")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// AccessTTL is the access token lifetime.
func (c *Config) AccessTTL() time.Duration { return duration(c.JWTAccessTTL, 15*time.Minute) }

// EncoderTimeout bounds one call to the face encoder.
func (c *Config) EncoderTimeout() time.Duration { return duration(c.FaceEncoderTimeout, 30*time.Second) }

// CacheTTL is the lifetime of cached reference encodings.
func (c *Config) CacheTTL() time.Duration { return duration(c.EncodingCacheTTL, 24*time.Hour) }

// FailWindow is the window in which failed OTP attempts accumulate.
func (c *Config) FailWindow() time.Duration { return duration(c.OTPFailWindow, 15*time.Minute) }

// BlockFor is how long an identity and IP stay locked after too many failures.
func (c *Config) BlockFor() time.Duration { return duration(c.OTPBlockFor, 15*time.Minute) }
