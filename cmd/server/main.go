// Command face-server starts the face verification HTTP API and its health probes.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hamzaharrayhan/face-recognition-login/internal/config"
	"github.com/hamzaharrayhan/face-recognition-login/internal/face"
	"github.com/hamzaharrayhan/face-recognition-login/internal/limiter"
	"github.com/hamzaharrayhan/face-recognition-login/internal/migrate"
	"github.com/hamzaharrayhan/face-recognition-login/internal/repository"
	"github.com/hamzaharrayhan/face-recognition-login/internal/repository/postgres"
	"github.com/hamzaharrayhan/face-recognition-login/internal/repository/rediscache"
	"github.com/hamzaharrayhan/face-recognition-login/internal/repository/s3store"
	"github.com/hamzaharrayhan/face-recognition-login/internal/server/health"
	"github.com/hamzaharrayhan/face-recognition-login/internal/server/httpapi"
	"github.com/hamzaharrayhan/face-recognition-login/internal/service"
	"github.com/hamzaharrayhan/face-recognition-login/internal/sms"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg != nil && cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// main loads configuration, runs migrations, wires adapters and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := newLogger(nil)
		l.Fatal("load config", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("imageStore", cfg.ImageStore),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ver, err := migrate.Up(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}
	logger.Info("schema ready", zap.Int64("version", ver))

	db, err := postgres.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	identities := postgres.NewIdentityRepo(db)
	var images repository.ImageStore = postgres.NewImageRepo(db)
	if cfg.ImageStore == config.ImageStoreS3 {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			logger.Fatal("aws config", zap.Error(err))
		}
		images = s3store.New(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Region)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = rdb.Close() }()
	}

	// Collaborators
	encoder := face.NewHTTPEncoder(cfg.FaceEncoderURL, cfg.EncoderTimeout())

	var sender sms.Sender
	if cfg.SMSDevMode {
		logger.Warn("SMS_DEV_MODE enabled: OTP messages are logged, not delivered")
		sender = sms.NewLogSender(logger)
	} else {
		sender = sms.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioMessagingServiceSID, cfg.TwilioBaseURL, cfg.SMSMaxAttempts)
	}

	lim := limiter.NewPG(db.Pool, limiter.Config{
		Window:   cfg.FailWindow(),
		MaxFails: cfg.OTPMaxFails,
		BlockFor: cfg.BlockFor(),
	})

	identityLim := limiter.NewPG(db.Pool, limiter.Config{
		Window:   cfg.FailWindow(),
		MaxFails: cfg.OTPMaxIdentityFails,
		BlockFor: cfg.BlockFor(),
	})

	// Services
	otpOpts := []service.OTPOption{service.WithIdentityLimiter(identityLim)}
	if cfg.JWTSigningKey != "" {
		otpOpts = append(otpOpts, service.WithAccessTokens([]byte(cfg.JWTSigningKey), cfg.AccessTTL()))
	}
	otpSvc := service.NewOTPService(identities, sender, lim, otpOpts...)
	regSvc := service.NewRegistrationService(identities, images, encoder, cfg.FaceMaxDimension)
	verSvc := service.NewVerificationService(identities, images, encoder, face.NewMatcher(), otpSvc, cfg.FaceMaxDimension)
	if rdb != nil {
		verSvc.WithCache(rediscache.New(rdb), cfg.CacheTTL())
	}

	// HTTP API
	metrics := httpapi.NewMetrics()
	router := httpapi.NewRouter(httpapi.Services{
		Registration: regSvc,
		Verification: verSvc,
		OTP:          otpSvc,
	}, httpapi.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        metrics,

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	}, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Health probes
	probes := []health.Probe{
		{Name: "postgres", Check: db.Ping},
		{Name: "face-encoder", Check: encoder.HealthCheck},
	}
	if rdb != nil {
		probes = append(probes, health.Probe{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
	}
	hs := health.New(logger.Named("health"), 10*time.Second, !cfg.IsProduction(), probes...)
	hlis, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		logger.Fatal("listen health", zap.Error(err))
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("health listening", zap.String("addr", cfg.HealthAddr))
		if err := hs.Serve(ctx, hlis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
