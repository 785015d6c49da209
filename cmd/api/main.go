package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dentavia/case-api/pkg/auth"
	"github.com/dentavia/case-api/pkg/logger"
	"github.com/dentavia/case-api/pkg/metrics"
	"github.com/dentavia/case-api/pkg/security"

	"github.com/dentavia/case-api/internal/config"
	"github.com/dentavia/case-api/internal/email"
	"github.com/dentavia/case-api/internal/guard"
	"github.com/dentavia/case-api/internal/handler"
	authHandler "github.com/dentavia/case-api/internal/handler/auth"
	casesHandler "github.com/dentavia/case-api/internal/handler/cases"
	doctorHandler "github.com/dentavia/case-api/internal/handler/doctor"
	intakeHandler "github.com/dentavia/case-api/internal/handler/intake"
	portalHandler "github.com/dentavia/case-api/internal/handler/portal"
	"github.com/dentavia/case-api/internal/middleware"
	"github.com/dentavia/case-api/internal/repository/postgres"
	"github.com/dentavia/case-api/internal/router"
	authService "github.com/dentavia/case-api/internal/service/auth"
	casesService "github.com/dentavia/case-api/internal/service/cases"
	contactsService "github.com/dentavia/case-api/internal/service/contacts"
	intakeService "github.com/dentavia/case-api/internal/service/intake"
	reviewService "github.com/dentavia/case-api/internal/service/review"
	timelineService "github.com/dentavia/case-api/internal/service/timeline"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:  level,
		Pretty: cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("case_api", registry)

	// Repositories
	caseRepo := postgres.NewCaseRepository(db)
	timelineRepo := postgres.NewTimelineRepository(db)
	contactRepo := postgres.NewContactRepository(db)
	noteRepo := postgres.NewNoteRepository(db)
	userRepo := postgres.NewUserRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Token service shared by staff auth, doctor auth and portal tokens.
	tokenSvc := auth.NewService(auth.Config{
		Secret:       cfg.JWT.Secret,
		Expiry:       time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		PortalExpiry: time.Duration(cfg.JWT.PortalExpiryHours) * time.Hour,
	})

	// Services
	timelineSvc := timelineService.NewService(timelineRepo)
	caseSvc := casesService.NewService(caseRepo, timelineSvc, outboxRepo, appLogger, m)
	contactSvc := contactsService.NewService(contactRepo, caseSvc, outboxRepo, appLogger, m)
	reviewSvc := reviewService.NewService(caseRepo, caseSvc, timelineSvc, outboxRepo, appLogger, m)
	loginSvc := authService.NewService(userRepo, security.NewBcryptHasher(0), tokenSvc)

	submissionGuard := guard.New(guard.Config{
		MinFillTime:  cfg.Guard.MinFillTime(),
		Window:       cfg.Guard.Window(),
		MaxPerWindow: cfg.Guard.MaxPerWindow,
	}, appLogger)

	var notifier email.Notifier
	if cfg.SMTP.Host != "" {
		notifier = email.NewSMTPNotifier(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			SalesTo:  cfg.SMTP.To,
		}, appLogger)
	} else {
		notifier = email.NewNoopNotifier()
	}

	intakeSvc := intakeService.NewService(submissionGuard, caseSvc, tokenSvc, notifier, appLogger, m)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	healthH := handler.NewHealthHandler(db)
	intakeH := intakeHandler.NewHandler(intakeSvc)
	casesH := casesHandler.NewHandler(caseSvc, contactSvc, noteRepo)
	doctorH := doctorHandler.NewHandler(reviewSvc)
	portalH := portalHandler.NewHandler(caseSvc)
	authH := authHandler.NewHandler(loginSvc)

	r := router.NewRouter(
		authMiddleware,
		intakeH,
		casesH,
		doctorH,
		portalH,
		authH,
		healthH,
		m,
		router.Config{
			RateLimitRPS:    cfg.RateLimit.RPS,
			RateLimitBurst:  cfg.RateLimit.Burst,
			IntakeLimit:     cfg.RateLimit.IntakeLimit,
			IntakeWindow:    time.Duration(cfg.RateLimit.IntakeWindowS) * time.Second,
			RequestTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORS:            middleware.DefaultCORSConfig(),
			MetricsRegistry: registry,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting API server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
