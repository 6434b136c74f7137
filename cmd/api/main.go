package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openassess/grading-controller/internal/config"
	"github.com/openassess/grading-controller/internal/database"
	"github.com/openassess/grading-controller/internal/handler"
	"github.com/openassess/grading-controller/internal/middleware"
	"github.com/openassess/grading-controller/internal/models"
	"github.com/openassess/grading-controller/internal/observability"
	"github.com/openassess/grading-controller/internal/repository"
	"github.com/openassess/grading-controller/internal/router"
	"github.com/openassess/grading-controller/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Submission{}, &models.Grader{}, &models.SubmissionFlag{}, &models.PeerBan{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	observability.RegisterMetrics()

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	graderRepo := repository.NewGraderRepository(db)
	moderationRepo := repository.NewModerationRepository(db)
	gradingStore := repository.NewGradingStore(db)

	events := service.NewEventPublisher(natsConn, cfg.EventSubjectPrefix, logger)
	peerQuorum := service.NewPeerQuorum(graderRepo)
	quorumSize := func() int { return cfg.PeerGraderCount }

	gradingService := service.NewGradingService(gradingStore, service.SameGraderPolicy{}, quorumSize, events, logger)
	etaService := service.NewETAService(submissionRepo, graderRepo, redisClient, cfg.ETACacheTTL, cfg.ETAHistoryWindow, cfg.ETADefaultSeconds, logger)
	notificationService := service.NewNotificationService(submissionRepo, moderationRepo, logger)
	statusService := service.NewStatusService(submissionRepo, peerQuorum, logger)
	moderationService := service.NewModerationService(moderationRepo, validate, events, logger)

	gradeHandler := handler.NewGradeHandler(gradingService, logger)
	etaHandler := handler.NewETAHandler(etaService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	statusHandler := handler.NewStatusHandler(statusService, logger)
	moderationHandler := handler.NewModerationHandler(moderationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		GradeHandler:        gradeHandler,
		ETAHandler:          etaHandler,
		NotificationHandler: notificationHandler,
		StatusHandler:       statusHandler,
		ModerationHandler:   moderationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
