// @title                      Bootcamp API
// @version                    1.0
// @description                Authentication, session and account endpoints.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/mknows/bootcamp-api/docs"
	"github.com/mknows/bootcamp-api/internal/api"
	"github.com/mknows/bootcamp-api/internal/api/handler"
	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/core/service"
	"github.com/mknows/bootcamp-api/internal/infrastructure/db/mongo"
	"github.com/mknows/bootcamp-api/internal/infrastructure/db/postgres"
	"github.com/mknows/bootcamp-api/internal/infrastructure/db/redis"
	infrahttp "github.com/mknows/bootcamp-api/internal/infrastructure/http"
	"github.com/mknows/bootcamp-api/internal/infrastructure/http/handlers"
	"github.com/mknows/bootcamp-api/internal/infrastructure/mail"
	"github.com/mknows/bootcamp-api/internal/infrastructure/queue"
	"github.com/mknows/bootcamp-api/internal/pkg/config"
	"github.com/mknows/bootcamp-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "bootcamp-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Datastores ---
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Postgres.URL,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")

	mongoDB, err := mongo.Connect(ctx, mongo.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		Timeout:     cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoDB.Client().Disconnect(dctx)
	}()

	auditRepo := mongo.NewAuditRepository(mongoDB)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Audit trail ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Outbound mail ---
	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}
	outbox := mail.NewOutbox(mailer, cfg.Mail.Workers, cfg.Mail.QueueSize, cfg.Mail.SendTimeout, log)
	mailCtx, stopMail := context.WithCancel(context.Background())
	outbox.Start(mailCtx)
	defer func() {
		stopMail()
		outbox.Wait()
	}()

	// --- Core services ---
	store := postgres.NewStore(db)
	sessions := service.NewSessionManager(store.Sessions())
	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gate := service.NewGate(tokens, sessions, store.Roles())
	authService := service.NewAuthService(
		store,
		service.NewOTPEngine(cfg.Auth.OTPTTL),
		sessions,
		tokens,
		outbox,
		dispatcher,
		log,
	)

	limiter := redis.NewLimiter(rdb, map[string]redis.Policy{
		redis.PolicyDefault:           {Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window},
		redis.PolicyEmailVerification: {Limit: 5, Window: 3 * time.Minute},
	})

	// --- HTTP ---
	ipExtractor, err := infrahttp.NewIPExtractor(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	e := infrahttp.NewRouter(infrahttp.Options{
		IPExtractor:  ipExtractor,
		Log:          log,
		ErrorHandler: api.NewHTTPErrorHandler(log),
		Validator:    handler.NewValidator(),
		Checks: map[string]handlers.Check{
			"postgres": store.Ping,
			"mongodb":  handlers.MongoCheck(mongoDB),
			"redis":    handlers.RedisCheck(rdb),
		},
		Metrics: true,
		Swagger: cfg.IsDevelopment(),
	})
	api.RegisterRoutes(e, api.Dependencies{
		Auth:         authService,
		Accounts:     service.NewAccountService(store.Users(), sessions),
		Users:        service.NewUserService(store.Users()),
		Gate:         gate,
		Limiter:      limiter,
		Log:          log,
		SecureCookie: !cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newMailer picks the SMTP relay outside development and wraps it in retries.
func newMailer(cfg *config.Config, log zerolog.Logger) (ports.Mailer, error) {
	var next ports.Mailer = mail.NewLogMailer(log)
	if !cfg.IsDevelopment() {
		smtpMailer, err := mail.NewSMTPMailer(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  cfg.Mail.Timeout,
		})
		if err != nil {
			return nil, err
		}
		next = smtpMailer
	}
	return mail.NewRetryingMailer(next, cfg.Mail.MaxRetries, cfg.Mail.RetryBase, log), nil
}
