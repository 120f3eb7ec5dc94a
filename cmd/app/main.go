package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/j1vetr/hank-sub000/internal/address"
	"github.com/j1vetr/hank-sub000/internal/banner"
	"github.com/j1vetr/hank-sub000/internal/cache"
	"github.com/j1vetr/hank-sub000/internal/cart"
	"github.com/j1vetr/hank-sub000/internal/category"
	"github.com/j1vetr/hank-sub000/internal/config"
	"github.com/j1vetr/hank-sub000/internal/coupon"
	"github.com/j1vetr/hank-sub000/internal/database"
	"github.com/j1vetr/hank-sub000/internal/dealer"
	"github.com/j1vetr/hank-sub000/internal/favorite"
	"github.com/j1vetr/hank-sub000/internal/logger"
	"github.com/j1vetr/hank-sub000/internal/mail"
	"github.com/j1vetr/hank-sub000/internal/order"
	"github.com/j1vetr/hank-sub000/internal/payment"
	"github.com/j1vetr/hank-sub000/internal/product"
	"github.com/j1vetr/hank-sub000/internal/setting"
	"github.com/j1vetr/hank-sub000/internal/user"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	store := newCache(ctx, cfg, log)
	notifier := mail.NewNotifier(newMailSender(cfg, log), cfg.Mail.FromName)

	app := fiber.New(fiber.Config{
		AppName:      "hank",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.Middleware(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	registerRoutes(app, db, cfg, store, notifier, log)

	go func() {
		log.Info("starting server", "addr", cfg.Server.Addr)
		if err := app.Listen(cfg.Server.Addr); err != nil {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

func registerRoutes(app *fiber.App, db *sql.DB, cfg *config.Config, store cache.Cache, notifier *mail.Notifier, log *slog.Logger) {
	productService := product.NewService(product.NewPostgresRepository(db))
	userService := user.NewService(user.NewPostgresRepository(db), cfg.Auth.AdminEmails...)
	cartService := cart.NewService(cart.NewPostgresRepository(db), productService, log)
	couponService := coupon.NewService(coupon.NewPostgresRepository(db), store, log)
	settingService := setting.NewService(setting.NewPostgresRepository(db), store, setting.Settings{
		StoreName:             cfg.Mail.FromName,
		ContactEmail:          cfg.Mail.FromAddress,
		FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
		ShippingFee:           cfg.Checkout.ShippingFee,
		Currency:              cfg.Checkout.Currency,
	}, log)
	orderService := order.NewService(order.NewPostgresRepository(db), notifier, productService, log)

	if !cfg.PaymentEnabled() {
		log.Warn("PayTR credentials missing; payment creation will fail")
	}
	paymentService := payment.NewService(payment.Deps{
		Repo: payment.NewPostgresRepository(db),
		Gateway: payment.NewPayTRClient(payment.PayTRConfig{
			MerchantID:   cfg.PayTR.MerchantID,
			MerchantKey:  cfg.PayTR.MerchantKey,
			MerchantSalt: cfg.PayTR.MerchantSalt,
			TestMode:     cfg.PayTR.TestMode,
			BaseURL:      cfg.PayTR.BaseURL,
			Currency:     cfg.Checkout.Currency,
			Timeout:      cfg.PayTR.Timeout,
		}),
		Cart:      cartService,
		Catalog:   productService,
		Coupons:   couponService,
		Settings:  settingService,
		Orders:    orderService,
		Notifier:  notifier,
		Cache:     store,
		Log:       log,
		PublicURL: cfg.Server.PublicURL,
	})

	userHandler := user.NewHandler(userService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	productHandler := product.NewHandler(productService)
	categoryHandler := category.NewHandler(category.NewService(category.NewPostgresRepository(db)))
	bannerHandler := banner.NewHandler(banner.NewService(banner.NewPostgresRepository(db)))
	couponHandler := coupon.NewHandler(couponService)
	settingHandler := setting.NewHandler(settingService)
	dealerHandler := dealer.NewHandler(dealer.NewService(dealer.NewPostgresRepository(db), notifier, log))
	orderHandler := order.NewHandler(orderService)
	paymentHandler := payment.NewHandler(paymentService)
	cartHandler := cart.NewHandler(cartService)
	addressHandler := address.NewHandler(address.NewService(address.NewPostgresRepository(db)))
	favoriteHandler := favorite.NewHandler(favorite.NewService(favorite.NewPostgresRepository(db), productService))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "database unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	userHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	bannerHandler.RegisterPublicRoutes(app)
	couponHandler.RegisterPublicRoutes(app)
	settingHandler.RegisterPublicRoutes(app)
	dealerHandler.RegisterPublicRoutes(app)
	paymentHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.Auth.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	}))

	userHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	favoriteHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	paymentHandler.RegisterProtectedRoutes(app)

	admin := app.Group("/api/admin", user.RequireAdmin)
	userHandler.RegisterAdminRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)
	categoryHandler.RegisterAdminRoutes(admin)
	bannerHandler.RegisterAdminRoutes(admin)
	couponHandler.RegisterAdminRoutes(admin)
	settingHandler.RegisterAdminRoutes(admin)
	dealerHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
}

// newCache returns a Redis-backed cache, or a no-op one when Redis is not
// configured or unreachable.
func newCache(ctx context.Context, cfg *config.Config, log *slog.Logger) cache.Cache {
	if cfg.Redis.Addr == "" {
		log.Info("redis not configured; caching disabled")
		return cache.Noop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable; caching disabled", "addr", cfg.Redis.Addr, "error", err)
		client.Close()
		return cache.Noop{}
	}
	return cache.NewRedisCache(client, "hank:")
}

func newMailSender(cfg *config.Config, log *slog.Logger) mail.Sender {
	if cfg.Mail.SendGridAPIKey == "" {
		log.Info("SENDGRID_API_KEY not set; emails are logged only")
		return mail.LogSender{Log: log}
	}
	return mail.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.FromAddress, cfg.Mail.FromName)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"message": err.Error()})
}
