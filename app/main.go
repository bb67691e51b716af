package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/listeners"
	"sales-crm/internal/repositories"
	"sales-crm/internal/routes"
	"sales-crm/internal/services"
	"sales-crm/pkg/api"
	"sales-crm/pkg/config"
	"sales-crm/pkg/database/migrations"
	"sales-crm/pkg/database/postgresql"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/eventbus"
	applogger "sales-crm/pkg/logger"
	appmiddleware "sales-crm/pkg/middleware"
	"sales-crm/pkg/service"
	"sales-crm/pkg/validation"
)

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.RunMigrations {
		if err := migrations.Up(ctx, dbConn, logger); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}
	defer redisClient.Close()

	// repositories
	userRepo := repositories.NewUserRepository(dbConn, logger)
	lookupRepo := repositories.NewLookupRepository(dbConn, logger)
	customerRepo := repositories.NewCustomerRepository(dbConn, logger)
	appointmentRepo := repositories.NewAppointmentRepository(dbConn, logger)
	historyRepo := repositories.NewContactHistoryRepository(dbConn, logger)
	orderRepo := repositories.NewOrderRepository(dbConn, logger)
	paymentRepo := repositories.NewPaymentRepository(dbConn, logger)
	dashboardRepo := repositories.NewDashboardRepository(dbConn, logger)
	auditRepo := repositories.NewAuditRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	txManager := repositories.NewTxManager(dbConn)

	bus := eventbus.New(logger)
	listeners.NewAuditListener(auditRepo, logger).Register(bus)

	// services
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	base := services.NewBaseService(authz.NewPolicy(), txManager, bus, logger)

	authService := services.NewAuthService(base, userRepo, cacheRepo, jwtSvc, cfg.Auth)
	customerService := services.NewCustomerService(base, customerRepo, userRepo)
	svc := &routes.Services{
		Auth:             authService,
		User:             services.NewUserService(base, userRepo),
		Lookup:           services.NewLookupService(base, lookupRepo),
		Customer:         customerService,
		CustomerTransfer: services.NewCustomerTransferService(base, customerService, lookupRepo, userRepo),
		Appointment:      services.NewAppointmentService(base, appointmentRepo, customerRepo, userRepo),
		ContactHistory:   services.NewContactHistoryService(base, historyRepo, customerRepo),
		Order:            services.NewOrderService(base, orderRepo, customerRepo, lookupRepo),
		Payment:          services.NewPaymentService(base, paymentRepo, orderRepo, customerRepo),
		Dashboard:        services.NewDashboardService(base, dashboardRepo, appointmentRepo, historyRepo),
		Audit:            services.NewAuditService(base, auditRepo),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				_ = api.ErrorResponse(c, apperrors.NewUpstreamError(err))
			}
			return err
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))
	e.Use(appmiddleware.InjectLogger(logger))
	e.Use(appmiddleware.RequestLogger(logger))

	authMW := appmiddleware.NewAuthMiddleware(jwtSvc, authService.ResolveCaller, logger)
	routes.InitRouter(e, svc, authMW, logger)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	// pending audit writes
	bus.Wait()
}
