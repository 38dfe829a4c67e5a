package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"proshift/cache"
	"proshift/config"
	"proshift/database"
	"proshift/httpServices/identity"
	"proshift/httpServices/payment"
	"proshift/logger"
	"proshift/routes"
	"proshift/services/waybill"
	"proshift/types"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: " + err.Error())
	}

	ctx := context.Background()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to the database: " + err.Error())
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("Failed to prepare the database: " + err.Error())
	}

	var appCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warning("Redis unreachable, earnings are computed on every request: " + err.Error())
		}
		appCache = redisCache
	}

	deps := routes.Dependencies{
		Store:     store,
		Cache:     appCache,
		Verifier:  identity.NewVerifier(identity.NewKeySet(cfg.IdentityKeysURL), cfg.IdentityAudience, cfg.IdentityIssuer),
		Processor: payment.NewStripeClient(cfg.StripeSecretKey, cfg.PaymentCurrency),
	}
	if cfg.StripeSecretKey == "" {
		logger.Warning("PAYMENT_GATEWAY_KEY is not set, payment intents are disabled")
	}

	if cfg.GeminiAPIKey != "" {
		parser, err := waybill.NewParser(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Waybill parser disabled", err)
		} else {
			deps.Waybill = parser
		}
	}

	if cfg.RequestLogEnabled {
		deps.Logger = logger.NewAsyncLogger(store)
		// Start the async logger processing goroutine
		go deps.Logger.ProcessLog()
	}

	app := fiber.New(fiber.Config{
		AppName:         "ProShift",
		ReadBufferSize:  32768, // 32KB read buffer
		WriteBufferSize: 32768, // 32KB write buffer
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		BodyLimit:       waybill.MaxImageSize + 1024*1024,
		ErrorHandler:    errorHandler,
	})

	// credentials cannot be combined with a wildcard origin
	allowCredentials := cfg.FrontendURL != "*"

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: allowCredentials,
	}))

	routes.SetupRoutes(app, deps)

	go func() {
		logger.Success("Server is running on " + cfg.ListenAddr())
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			logger.Error("Server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}
	if deps.Logger != nil {
		if err := deps.Logger.Close(shutdownCtx); err != nil {
			logger.Error("Async logger did not drain", err)
		}
	}
	if err := appCache.Close(); err != nil {
		logger.Error("Failed to close cache", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close database", err)
	}
	logger.Info("Server exited")
}

// errorHandler renders errors that escape handlers (unknown routes, panics,
// oversized bodies) in the same envelope as every other response
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logger.Error("Unhandled error on "+c.Method()+" "+c.OriginalURL(), err)
	}
	return c.Status(code).JSON(types.ApiResponse{
		Message: err.Error(),
		Status:  code,
	})
}
