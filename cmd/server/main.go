package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/proposalkit/backend/internal/ai"
	"github.com/proposalkit/backend/internal/config"
	"github.com/proposalkit/backend/internal/db"
	"github.com/proposalkit/backend/internal/email"
	httpHandlers "github.com/proposalkit/backend/internal/http/handlers"
	httpRouter "github.com/proposalkit/backend/internal/http/router"
	"github.com/proposalkit/backend/internal/logger"
	"github.com/proposalkit/backend/internal/repository"
	"github.com/proposalkit/backend/internal/service"
	"github.com/proposalkit/backend/internal/storage"
	"github.com/proposalkit/backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Почта: SES, если задан регион, иначе noop с предупреждениями в warnings.
	var mailer email.Sender = email.NoopSender{}
	if cfg.SESRegion != "" {
		sesSender, err := email.NewSESSender(ctx, cfg.SESRegion, cfg.EmailFrom)
		if err != nil {
			log.Fatalf("main: не удалось инициализировать SES: %v", err)
		}
		mailer = sesSender
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	clientRepo := repository.NewClientRepository(dbConn)
	proposalRepo := repository.NewProposalRepository(dbConn)
	invoiceRepo := repository.NewInvoiceRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	usageRepo := repository.NewUsageRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	cacheService := service.NewCacheService()
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo)
	notificationService.SetPusher(hub)
	invoiceService := service.NewInvoiceService(invoiceRepo, cfg.InvoiceNetTerm)
	billingService := service.NewBillingService(userRepo)

	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIModel, cfg.AITimeout)
	generationService := service.NewGenerationService(userRepo, usageRepo, clientRepo, proposalRepo, aiClient, cfg.ProposalValidity)

	proposalService := service.NewProposalService(
		proposalRepo,
		clientRepo,
		userRepo,
		invoiceService,
		notificationService,
		mailer,
		cfg.PublicAppURL,
		cfg.ProposalValidity,
	)

	dashboardService := service.NewDashboardService(proposalRepo, invoiceRepo, generationService, cacheService)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	proposalHandler := httpHandlers.NewProposalHandler(proposalService, generationService, cacheService)
	publicHandler := httpHandlers.NewPublicHandler(proposalService, cacheService)
	invoiceHandler := httpHandlers.NewInvoiceHandler(invoiceService, cacheService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	dashboardHandler := httpHandlers.NewDashboardHandler(dashboardService)
	profileHandler := httpHandlers.NewProfileHandler(userRepo, photoStorage)
	billingHandler := httpHandlers.NewBillingHandler(billingService, cfg.BillingWebhookSecret)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		proposalHandler,
		publicHandler,
		invoiceHandler,
		notificationHandler,
		dashboardHandler,
		profileHandler,
		billingHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
