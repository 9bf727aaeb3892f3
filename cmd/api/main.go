// Entry point for REST API
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // report time zones inside distroless images

	"attendance.service/internal/adapters/captcha"
	"attendance.service/internal/adapters/geocoding"
	"attendance.service/internal/api"
	"attendance.service/internal/api/handler"
	"attendance.service/internal/api/middleware"
	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/core/throttle"
	"attendance.service/internal/live"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("attendance-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	ctx := context.Background()

	// DB connection
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer pool.Close()
	log.Info().Msg("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize dependencies
	users := repository.NewUserRepository(pool)
	events := repository.NewAttendanceRepository(pool)
	tx := database.NewTransactionManager(pool)
	hasher := core.NewPasswordHasher(cfg.BcryptCost)
	tokens := core.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	guard := throttle.NewGuard(throttle.NewMemoryStore(), throttle.WithPolicy(cfg.LoginMaxFailures, cfg.LoginLockout))

	var verifier core.CaptchaVerifier = captcha.NewRecaptcha(cfg.RecaptchaSecret, cfg.RecaptchaURL)
	if cfg.RecaptchaSecret == "" {
		if !cfg.IsLocalDev {
			log.Fatal().Msg("RECAPTCHA_SECRET is required outside local development")
		}
		log.Warn().Msg("RECAPTCHA_SECRET not set, captcha checks are disabled")
		verifier = captcha.AllowAll{}
	}

	origins := middleware.NewOriginPolicy(cfg.CORSAllowedOrigins, cfg.IsLocalDev)
	hub := live.NewHub(origins.CheckOrigin)
	defer hub.Close()

	producer := messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.AttendanceSQSQueueURL)

	authService := core.NewAuthService(users, guard, verifier, tokens, hasher)
	attendanceService := core.NewAttendanceService(events, users, tx,
		core.WithGeocoder(geocoding.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent)),
		core.WithPublisher(producer),
		core.WithBroadcaster(hub),
	)
	userService := core.NewUserService(users, events, tx, hasher)

	if err := authService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin account")
	}

	// Setup router and server
	router := api.NewRouter(api.Deps{
		Auth:       authService,
		Attendance: attendanceService,
		Users:      userService,
		Tokens:     tokens,
		Exports: &handler.ExportHandler{
			Attendance: attendanceService,
			Users:      userService,
			Location:   cfg.Location(),
		},
		Live:    hub.ServeWS,
		Origins: origins,
	})

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           otelhttp.NewHandler(router, "api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Hijacked websocket connections are not tracked by Shutdown.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
