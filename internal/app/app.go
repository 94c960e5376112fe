package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"dronemarket_backend/database"
	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/config"
	"dronemarket_backend/internal/handlers"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/middleware"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/repositories"
	"dronemarket_backend/internal/routes"
	"dronemarket_backend/internal/services"
	"dronemarket_backend/internal/validator"
	"dronemarket_backend/internal/workers"
	"dronemarket_backend/pkg/apperrors"
)

const shutdownTimeout = 15 * time.Second

// Open подключается к базе и проверяет соединение
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	logger.Info("Connecting to database...")
	db, err := database.ConnectGorm(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	logger.Info("Database connected")
	return db, nil
}

// Run поднимает HTTP сервер, websocket-хаб и воркеры; завершается по SIGINT/SIGTERM
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	infra, err := NewInfra(ctx, cfg)
	if err != nil {
		return err
	}
	defer infra.Close()

	router, svc := SetupRouter(cfg, db, sqlDB, infra)

	if err := seedAdmin(ctx, db, svc, cfg); err != nil {
		return fmt.Errorf("failed to seed first admin user: %w", err)
	}

	repos := repositories.NewRepositories()
	sweepers := []workers.Worker{
		workers.NewMembershipWorker(db, repos.Pilots, cfg.Workers.GraceDays),
		workers.NewInsuranceWorker(db, repos.Insurance, infra.Reminders, cfg.Workers.ReminderDays),
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server startup error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		infra.Hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		workers.RunAll(gctx, cfg.WorkerInterval(), sweepers...)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// SetupRouter собирает сервисы, хэндлеры и маршруты
func SetupRouter(cfg *config.Config, db *gorm.DB, pinger handlers.Pinger, infra *Infra) (*gin.Engine, *services.Services) {
	apperrors.SetDebug(cfg.IsDevelopment())

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWTTTL())

	// 1. Инициализируем сервисы
	svc := services.NewServices(services.Deps{
		Repos:    repositories.NewRepositories(),
		Tokens:   tokens,
		Gateway:  infra.Gateway,
		Cache:    infra.Cache,
		Events:   infra.Events,
		Storage:  infra.Storage,
		Settings: settingsFrom(cfg),
	})

	// 2. Инициализируем хэндлеры
	requireAuth := middleware.AuthMiddleware(tokens)
	base := handlers.NewBaseHandler(validator.New(), requireAuth)
	appHandlers := handlers.NewAppHandlers(base, svc, cfg.Storage.MaxSize)
	health := handlers.NewHealthHandler(pinger, cfg.Server.Env)

	// 3. Инициализируем Gin
	ginRouter := initializeGinRouter(cfg, db)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimitWindow())
	routes.RegisterRoutes(ginRouter, appHandlers, health, infra.Hub, requireAuth, limiter)

	return ginRouter, svc
}

func settingsFrom(cfg *config.Config) services.Settings {
	return services.Settings{
		CommissionRate:            money.BasisPoints(cfg.CommissionBasisPoints()),
		Currency:                  cfg.Marketplace.Currency,
		FrontendURL:               cfg.Marketplace.FrontendURL,
		BillingPeriodMonths:       cfg.Marketplace.BillingPeriodMonth,
		WebhookSecret:             cfg.Stripe.WebhookSecret,
		SubscriptionWebhookSecret: cfg.Stripe.SubscriptionWebhookSecret,
		InsuranceReminderDays:     cfg.Workers.ReminderDays,
		MaxUploadSize:             cfg.Storage.MaxSize,
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedAdmin(ctx context.Context, db *gorm.DB, svc *services.Services, cfg *config.Config) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}
	created, err := svc.Auth.SeedAdmin(ctx, db.WithContext(ctx), cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		return err
	}
	if created {
		logger.Info("Successfully created first admin user", "email", cfg.Admin.Email)
	} else {
		logger.Info("Admin user already exists. Skipping creation.", "email", cfg.Admin.Email)
	}
	return nil
}

// Migrate - отдельная команда миграции
func Migrate(ctx context.Context, cfg *config.Config) error {
	db, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()
	return database.AutoMigrate(db)
}

// SeedAdmin - отдельная команда создания администратора
func SeedAdmin(ctx context.Context, cfg *config.Config) error {
	db, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWTTTL())
	svc := services.NewServices(services.Deps{Tokens: tokens, Settings: settingsFrom(cfg)})
	return seedAdmin(ctx, db, svc, cfg)
}
