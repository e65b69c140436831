package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/inspiringwave/ticket-management/internal/api/http"
	"github.com/inspiringwave/ticket-management/internal/api/http/handlers"
	"github.com/inspiringwave/ticket-management/internal/auth"
	"github.com/inspiringwave/ticket-management/internal/config"
	"github.com/inspiringwave/ticket-management/internal/events"
	"github.com/inspiringwave/ticket-management/internal/observability"
	"github.com/inspiringwave/ticket-management/internal/persistence"
	"github.com/inspiringwave/ticket-management/internal/repository"
	"github.com/inspiringwave/ticket-management/internal/service"
	"github.com/inspiringwave/ticket-management/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		HistoryRepo:    historyRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		UserRepo:       userRepo,
		Dispatcher:     dispatcher,
	})
	adminUserService := service.NewAdminUserService(userRepo, ticketRepo, dispatcher)
	profileService := service.NewProfileService(userRepo, ticketRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.App.MaxUploadBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:             handlers.NewAuthHandler(authService),
		Tickets:          handlers.NewTicketsHandler(ticketService, cfg.App.MaxUploadBytes),
		AdminUsers:       handlers.NewAdminUsersHandler(adminUserService),
		Profile:          handlers.NewProfileHandler(profileService),
		AuthMiddleware:   authMiddleware,
		LoginRateLimiter: httptransport.LoginRateLimiter(cfg.RateLimit, redis.ClientHandle(), logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
