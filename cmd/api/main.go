// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Passage HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis when configured.
//  5. Run database migrations (idempotent).
//  6. Build the token codec.
//  7. Wire outbound integrations (mail, broker, media).
//  8. Wire domain services and HTTP handlers.
//  9. Start background jobs.
//  10. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/passage/internal/api"
	"github.com/taibuivan/passage/internal/mail/bounce"
	"github.com/taibuivan/passage/internal/platform/broker"
	"github.com/taibuivan/passage/internal/platform/config"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/cors"
	"github.com/taibuivan/passage/internal/platform/jobs"
	"github.com/taibuivan/passage/internal/platform/mailer"
	"github.com/taibuivan/passage/internal/platform/media"
	"github.com/taibuivan/passage/internal/platform/middleware"
	"github.com/taibuivan/passage/internal/platform/migration"
	pgstore "github.com/taibuivan/passage/internal/platform/postgres"
	redisstore "github.com/taibuivan/passage/internal/platform/redis"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/users/account"
	"github.com/taibuivan/passage/internal/users/auth"
)

// imapTimeout bounds dialing and each command against the bounce mailbox.
const imapTimeout = 30 * time.Second

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[Passage] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// appCtx lives until shutdown and stops background goroutines.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	// Optional. Without it every replica runs the background jobs itself.
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
	} else {
		log.Warn("redis_disabled", slog.String("reason", "REDIS_URL is empty"))
	}

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Codec ────────────────────────────────────────────────────
	codec, err := sec.NewTokenCodec(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize token codec")

	// ── 7. Outbound Integrations ──────────────────────────────────────────
	var publisher broker.Publisher = broker.Noop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, derr := broker.Dial(cfg.AMQPURL, log)
		must(log, derr, "connect to amqp broker")
		defer func() {
			if cerr := amqpPublisher.Close(); cerr != nil {
				log.Error("amqp close error", slog.Any("error", cerr))
			}
		}()
		publisher = amqpPublisher
	}

	var uploader media.Uploader = media.Disabled{}
	if cfg.CloudinaryURL != "" {
		cloudinaryUploader, uerr := media.NewCloudinaryUploader(cfg.CloudinaryURL)
		must(log, uerr, "initialize cloudinary")
		uploader = cloudinaryUploader
	}

	suppressions := bounce.NewService(bounce.NewPostgresStore(pool), publisher, log)

	var transport mailer.Transport = mailer.LogTransport{Logger: log}
	if cfg.MailEnabled() {
		smtpTransport, serr := mailer.NewSMTPTransport(mailer.SMTPConfig{
			Host:        cfg.Mail.Host,
			Port:        cfg.Mail.Port,
			Username:    cfg.Mail.Username,
			Password:    cfg.Mail.Password,
			DisplayFrom: cfg.Mail.DisplayFrom,
		})
		must(log, serr, "initialize smtp transport")
		transport = smtpTransport
	} else {
		log.Warn("mail_delivery_disabled", slog.String("reason", "MAIL_HOST or MAIL_USERNAME is empty"))
	}
	dispatcher := mailer.NewDispatcher(mailer.NewGateway(transport, suppressions, log), log, constants.MailSendTimeout)

	var processor *bounce.Processor
	if cfg.BouncePollingEnabled() {
		processor = bounce.NewProcessor(&bounce.IMAPDialer{
			Host:               cfg.IMAP.Host,
			Port:               cfg.IMAP.Port,
			Username:           cfg.Mail.Username,
			Password:           cfg.Mail.Password,
			InsecureSkipVerify: cfg.IMAP.InsecureSkipVerify,
			Timeout:            imapTimeout,
		}, suppressions, log)
	}

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	sessionManager := auth.NewSessionManager(auth.NewSessionRepository(pool), log)

	authService := auth.NewService(
		auth.NewUserRepository(pool),
		auth.NewOTPRepository(pool),
		sessionManager,
		codec,
		dispatcher,
		publisher,
		log,
		auth.WithLogoURL(cfg.LogoURL),
	)
	accountService := account.NewService(account.NewRepository(pool), sessionManager, uploader, log)

	origins := cors.NewOrigins(cfg.ApprovedOrigins)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: cacheCheck(rdb),
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Account:   auth.NewHandler(authService),
		Users:     account.NewHandler(accountService),
		Mail:      bounce.NewHandler(suppressions, processor),
		System:    api.NewSystemHandler(origins, cfg.VAPIDPublicKey, log),
	}

	// ── 9. Background Jobs ────────────────────────────────────────────────
	var locker jobs.Locker
	if rdb != nil {
		locker = redisstore.NewLocker(rdb)
	}
	scheduler := jobs.NewScheduler(locker, log)

	var jobsDone []<-chan struct{}
	if processor != nil {
		jobsDone = append(jobsDone, scheduler.Start(appCtx, jobs.Job{
			Name:     "bounce_poll",
			Interval: cfg.BouncePollInterval,
			Timeout:  constants.BounceBatchTimeout,
			Lease:    constants.BouncePollLease,
			Run:      processor.Run,
		}))
	}
	if cfg.SessionCleanupInterval > 0 {
		jobsDone = append(jobsDone, scheduler.Start(appCtx, jobs.Job{
			Name:     "session_cleanup",
			Interval: cfg.SessionCleanupInterval,
			Lease:    constants.SessionCleanupLease,
			Run:      sessionManager.PurgeExpired,
		}))
	}

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, api.Security{
		Verifier: codec,
		Sessions: sessionManager,
		Origins:  origins,
	}, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	exitCode := 0
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		exitCode = 1
	}

	appCancel()
	for _, done := range jobsDone {
		<-done
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := dispatcher.Wait(drainCtx); err != nil {
		log.Warn("mail_drain_incomplete", slog.Any("error", err))
	}
	drainCancel()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", "passage"))
}

// cacheCheck returns nil when Redis is not configured so /ready skips it.
func cacheCheck(rdb *goredis.Client) func(ctx context.Context) error {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return redisstore.Ping(ctx, rdb)
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

// Compile-time guarantees for the interfaces wired above.
var (
	_ middleware.TokenVerifier    = (*sec.TokenCodec)(nil)
	_ middleware.SessionValidator = (*auth.SessionManager)(nil)
	_ auth.TokenIssuer            = (*sec.TokenCodec)(nil)
	_ auth.MailDispatcher         = (*mailer.Dispatcher)(nil)
	_ account.SessionRevoker      = (*auth.SessionManager)(nil)
)
